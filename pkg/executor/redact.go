package executor

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const redacted = "***"

// Redactor masks credential values in text bound for logs and run
// records. A nil Redactor returns text unchanged.
//
// A value is masked only where it stands as a whole token: an alphanumeric
// first or last character of the value must not touch another alphanumeric
// character. A secret of "1" hides "exit 1" but leaves "10 files" alone.
type Redactor struct {
	secrets []string
}

func NewRedactor(secrets ...string) *Redactor {
	r := &Redactor{}
	r.Add(secrets...)
	return r
}

func (r *Redactor) Add(secrets ...string) {
	for _, s := range secrets {
		if s == "" || r.has(s) {
			continue
		}
		r.secrets = append(r.secrets, s)
	}
	// Longer values first, so a secret containing another is masked whole.
	sort.SliceStable(r.secrets, func(i, j int) bool {
		return len(r.secrets[i]) > len(r.secrets[j])
	})
}

func (r *Redactor) has(s string) bool {
	for _, known := range r.secrets {
		if known == s {
			return true
		}
	}
	return false
}

func (r *Redactor) Redact(text string) string {
	if r == nil {
		return text
	}
	for _, s := range r.secrets {
		text = maskToken(text, s)
	}
	return text
}

func maskToken(text, secret string) string {
	if !strings.Contains(text, secret) {
		return text
	}
	var b strings.Builder
	for {
		i := strings.Index(text, secret)
		if i < 0 {
			b.WriteString(text)
			return b.String()
		}
		end := i + len(secret)
		if standsAlone(text[:i], text[end:], secret) {
			b.WriteString(text[:i])
			b.WriteString(redacted)
			text = text[end:]
			continue
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		b.WriteString(text[:i+size])
		text = text[i+size:]
	}
}

func standsAlone(before, after, secret string) bool {
	first, _ := utf8.DecodeRuneInString(secret)
	if isWord(first) {
		if r, _ := utf8.DecodeLastRuneInString(before); before != "" && isWord(r) {
			return false
		}
	}
	last, _ := utf8.DecodeLastRuneInString(secret)
	if isWord(last) {
		if r, _ := utf8.DecodeRuneInString(after); after != "" && isWord(r) {
			return false
		}
	}
	return true
}

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
