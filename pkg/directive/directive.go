// Package directive folds command-line and config-file tokens into the
// directive set that drives a pipeline run.
package directive

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/EquablePanic4/codli-gci/pkg/models"
)

// ErrUsage marks malformed invocations. Nothing has been executed when it
// is returned.
var ErrUsage = errors.New("usage error")

func usagef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUsage, fmt.Sprintf(format, args...))
}

// Fold turns an even-length token list into a DirectiveSet. Later pairs
// overwrite earlier pairs with the same key.
func Fold(tokens []string) (models.DirectiveSet, error) {
	if len(tokens) == 0 {
		return nil, usagef("no directives given")
	}
	if len(tokens)%2 == 1 {
		return nil, usagef("directives must be key/value pairs, got %d tokens", len(tokens))
	}
	set := make(models.DirectiveSet, len(tokens)/2)
	for i := 0; i < len(tokens); i += 2 {
		set[tokens[i]] = tokens[i+1]
	}
	return set, nil
}

// Merge copies overlay into base. Overlay wins on key collision, which is
// how config-file values take precedence over command-line values.
func Merge(base, overlay models.DirectiveSet) models.DirectiveSet {
	for k, v := range overlay {
		base[k] = v
	}
	return base
}

// LoadConfig reads a config file as whitespace-delimited key/value tokens.
func LoadConfig(path string) (models.DirectiveSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	tokens := strings.Fields(string(data))
	if len(tokens) == 0 {
		return models.DirectiveSet{}, nil
	}
	if len(tokens)%2 == 1 {
		return nil, usagef("config %s: directives must be key/value pairs, got %d tokens", path, len(tokens))
	}
	set, err := Fold(tokens)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return set, nil
}

// Load builds the typed directives for a run from raw arguments, merging
// the file named by --config when present.
func Load(args []string) (models.Directives, error) {
	set, err := Fold(args)
	if err != nil {
		return models.Directives{}, err
	}
	if path, ok := set[models.KeyConfig]; ok {
		cfg, err := LoadConfig(path)
		if err != nil {
			return models.Directives{}, err
		}
		set = Merge(set, cfg)
	}
	return Parse(set)
}

// Parse maps a DirectiveSet onto named fields. Keys that no stage consumes
// are listed in Directives.Unknown rather than rejected.
func Parse(set models.DirectiveSet) (models.Directives, error) {
	d := models.Directives{
		Host:    models.DefaultHost,
		WorkDir: models.DefaultWorkDir,
	}
	fields := map[string]*string{
		models.KeyLogin:              &d.Login,
		models.KeyPassword:           &d.Password,
		models.KeyRepository:         &d.Repository,
		models.KeyOwner:              &d.Owner,
		models.KeyBranch:             &d.Branch,
		models.KeyHost:               &d.Host,
		models.KeyLogs:               &d.Logs,
		models.KeyRuntime:            &d.Runtime,
		models.KeyBuildConfiguration: &d.BuildConfiguration,
		models.KeyUpdate:             &d.Update,
		models.KeySecrets:            &d.Secrets,
		models.KeySecretsIdentity:    &d.SecretsIdentity,
		models.KeyDestination:        &d.Destination,
		models.KeyOff:                &d.Off,
		models.KeyConfig:             &d.Config,
		models.KeyCommand:            &d.Command,
		models.KeyWorkDir:            &d.WorkDir,
		models.KeyHistory:            &d.History,
	}

	for key, value := range set {
		if key == models.KeyTimeout {
			timeout, err := time.ParseDuration(value)
			if err != nil || timeout <= 0 {
				return models.Directives{}, usagef("%s must be a positive duration, got %q", key, value)
			}
			d.Timeout = timeout
			continue
		}
		field, ok := fields[key]
		if !ok {
			d.Unknown = append(d.Unknown, key)
			continue
		}
		*field = value
	}
	sort.Strings(d.Unknown)

	if d.Owner == "" || d.Repository == "" {
		return models.Directives{}, usagef("%s and %s are required", models.KeyOwner, models.KeyRepository)
	}
	if d.Login != "" && d.Password == "" {
		return models.Directives{}, usagef("%s requires %s", models.KeyLogin, models.KeyPassword)
	}
	if d.WorkDir == "" {
		return models.Directives{}, usagef("%s must not be empty", models.KeyWorkDir)
	}
	return d, nil
}
