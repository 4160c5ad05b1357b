// Package redact scrubs contact details from utterance text before it
// reaches logs or metrics. Children blurt phone numbers and email
// addresses mid-wish; the fact store keeps what it needs, but log lines
// never should.
package redact

import (
	"regexp"
	"strings"
	"sync/atomic"
)

type pattern struct {
	re          *regexp.Regexp
	replacement string
}

// Redactor applies a fixed set of PII patterns to free text.
type Redactor struct {
	patterns []pattern
}

func NewRedactor() *Redactor {
	return &Redactor{patterns: []pattern{
		{regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`), "[REDACTED_EMAIL]"},
		{regexp.MustCompile(`\b\+?\d[\d\s\-]{7,}\d\b`), "[REDACTED_PHONE]"},
	}}
}

func (r *Redactor) Scrub(in string) string {
	if strings.TrimSpace(in) == "" {
		return in
	}
	out := in
	for _, p := range r.patterns {
		out = p.re.ReplaceAllString(out, p.replacement)
	}
	return out
}

var (
	std     = NewRedactor()
	enabled atomic.Bool
)

// SetEnabled toggles the process-wide redactor.
func SetEnabled(v bool) {
	enabled.Store(v)
}

// Enabled reports whether the process-wide redactor is active.
func Enabled() bool {
	return enabled.Load()
}

// Text scrubs in with the process-wide redactor. When redaction is
// disabled the input passes through untouched.
func Text(in string) string {
	if !enabled.Load() {
		return in
	}
	return std.Scrub(in)
}
