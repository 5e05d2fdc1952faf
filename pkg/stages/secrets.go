package stages

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/EquablePanic4/codli-gci/pkg/models"
)

// Secret is one name/value pair from a secrets file.
type Secret struct {
	Name  string
	Value string
}

// SecretFormatError reports a secrets line that did not yield exactly a
// name and a value.
type SecretFormatError struct {
	Line  int
	Text  string
	Count int
}

func (e *SecretFormatError) Error() string {
	return fmt.Sprintf("secrets line %d: expected 2 quoted tokens, found %d: %s", e.Line, e.Count, e.Text)
}

// ParseSecretLine splits a line such as `"Foo" : "Bar"` on double quotes
// and keeps the fragments that are neither blank nor a lone ':' or ','.
func ParseSecretLine(line string) (Secret, int, bool) {
	var tokens []string
	for _, fragment := range strings.Split(line, `"`) {
		squeezed := strings.Join(strings.Fields(fragment), "")
		if squeezed == "" || squeezed == ":" || squeezed == "," {
			continue
		}
		tokens = append(tokens, fragment)
	}
	if len(tokens) != 2 {
		return Secret{}, len(tokens), false
	}
	return Secret{Name: tokens[0], Value: tokens[1]}, 2, true
}

// maxSecretLine bounds one line of a secrets file.
const maxSecretLine = 1 << 20

// ParseSecrets reads one secret per non-blank line.
func ParseSecrets(r io.Reader) ([]Secret, error) {
	var secrets []Secret
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSecretLine)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		secret, count, ok := ParseSecretLine(line)
		if !ok {
			return nil, &SecretFormatError{Line: lineNo, Text: line, Count: count}
		}
		secrets = append(secrets, secret)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read secrets: %w", err)
	}
	return secrets, nil
}

// LoadSecrets parses the secrets file at path, decrypting it first with
// the age identities in identityPath when that is set.
func LoadSecrets(path, identityPath string) ([]Secret, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read secrets file %s: %w", path, err)
	}
	if identityPath != "" {
		data, err = decryptSecrets(data, identityPath)
		if err != nil {
			return nil, fmt.Errorf("decrypt secrets file %s: %w", path, err)
		}
	}
	secrets, err := ParseSecrets(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return secrets, nil
}

// SecretCommand sets one user secret for the project in the working
// directory. Name and value reach dotnet byte for byte; the shell expands
// nothing in them.
func SecretCommand(secret Secret) string {
	return "dotnet user-secrets set " + quote(secret.Name) + " " + quote(secret.Value)
}

// ApplySecrets sets every secret from the file. Secret values are
// redacted from logs and run records from here on.
func (s *Stages) ApplySecrets(ctx context.Context, path, identityPath string) (int, error) {
	secrets, err := LoadSecrets(path, identityPath)
	if err != nil {
		return 0, err
	}
	for _, secret := range secrets {
		s.redactor.Add(secret.Value)
	}
	for i, secret := range secrets {
		if _, err := s.run(ctx, models.StageSecret, SecretCommand(secret), s.workDir); err != nil {
			return i, err
		}
		s.logger.Debug("secret applied", "name", secret.Name)
	}
	return len(secrets), nil
}
