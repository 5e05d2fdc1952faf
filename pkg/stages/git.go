package stages

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/EquablePanic4/codli-gci/pkg/executor"
	"github.com/EquablePanic4/codli-gci/pkg/models"
)

var ErrCloneFailed = errors.New("clone failed")

const fatalMarker = "fatal"

// RepositoryURL is the HTTPS clone URL. With a login present the
// credentials are embedded as percent-encoded userinfo, so they are visible
// in the process list and must be redacted from anything that is logged
// (see PasswordForms).
func RepositoryURL(d models.Directives) string {
	host := d.Host
	if host == "" {
		host = models.DefaultHost
	}
	credentials := ""
	if d.HasCredentials() {
		credentials = url.UserPassword(d.Login, d.Password).String() + "@"
	}
	return fmt.Sprintf("https://%s%s/%s/%s.git", credentials, host, d.Owner, d.Repository)
}

// PasswordForms returns the password as given and as it appears inside
// RepositoryURL, for redaction.
func PasswordForms(d models.Directives) []string {
	if d.Password == "" {
		return nil
	}
	escaped := strings.TrimPrefix(url.UserPassword("", d.Password).String(), ":")
	if escaped == d.Password {
		return []string{d.Password}
	}
	return []string{d.Password, escaped}
}

// CloneCommand clones into workDir itself rather than a nested directory.
func CloneCommand(d models.Directives, workDir string) string {
	var b strings.Builder
	b.WriteString("git -C ")
	b.WriteString(quote(workDir))
	b.WriteString(" clone ")
	if d.Branch != "" {
		b.WriteString("--branch ")
		b.WriteString(quote(d.Branch))
		b.WriteString(" ")
	}
	b.WriteString(quote(RepositoryURL(d)))
	b.WriteString(" .")
	return b.String()
}

// cloneFailed decides from the exit status, falling back to scanning the
// output for git's fatal marker when no status is available.
func cloneFailed(res executor.Result) (failed, suspicious bool) {
	marked := strings.Contains(res.Output, fatalMarker)
	if res.ExitCode == executor.ExitUnknown {
		return marked, false
	}
	return res.ExitCode != 0, marked && res.ExitCode == 0
}

// Clone runs the clone command for d into the working directory.
func (s *Stages) Clone(ctx context.Context, d models.Directives) error {
	res, err := s.exec(ctx, models.StageClone, CloneCommand(d, s.workDir), "", func(res executor.Result) bool {
		failed, _ := cloneFailed(res)
		return !failed
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCloneFailed, err)
	}
	failed, suspicious := cloneFailed(res)
	if suspicious {
		s.logger.Warn("clone exited 0 but its output mentions fatal", "repository", d.RepositoryPath())
	}
	if failed {
		return fmt.Errorf("%w: %s exited with status %d: %s",
			ErrCloneFailed, d.RepositoryPath(), res.ExitCode, strings.TrimSpace(s.redactor.Redact(res.Output)))
	}
	return nil
}
