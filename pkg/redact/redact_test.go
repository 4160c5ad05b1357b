package redact

import (
	"strings"
	"testing"
)

func TestScrubPhoneAndEmail(t *testing.T) {
	r := NewRedactor()
	in := "I want a bike, my mom is santa-helper@example.com and my number is +1 555 123 4567"
	got := r.Scrub(in)
	if strings.Contains(got, "example.com") || strings.Contains(got, "555") {
		t.Fatalf("contact details survived: %q", got)
	}
	if !strings.Contains(got, "[REDACTED_EMAIL]") || !strings.Contains(got, "[REDACTED_PHONE]") {
		t.Fatalf("expected placeholders, got %q", got)
	}
	if !strings.Contains(got, "I want a bike") {
		t.Fatalf("wish text must survive scrubbing: %q", got)
	}
}

func TestTextRespectsToggle(t *testing.T) {
	in := "reach me at kid@example.com"

	SetEnabled(false)
	if got := Text(in); got != in {
		t.Fatalf("disabled redactor must pass through, got %q", got)
	}

	SetEnabled(true)
	defer SetEnabled(false)
	if got := Text(in); got == in {
		t.Fatalf("enabled redactor must scrub, got %q", got)
	}
}
