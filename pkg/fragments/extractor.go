// Package fragments scrapes structured side-channel data out of a
// model's free-text reply. Personas ask the model to end replies with a
// trailing JSON object encoding a gift wish or a learned name; this
// package finds those objects, parses them, and returns the reply with
// the matched text stripped. Malformed payloads leave the reply
// untouched and surface as faults.
package fragments

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	keyGift  = "gift"
	keyChild = "child"
)

// GiftFragment is the decoded gift side-channel payload.
type GiftFragment struct {
	Item    string
	Details map[string]any
}

// NameFragment is the decoded name side-channel payload.
type NameFragment struct {
	Name string
}

// Fault records a fragment candidate that could not be used. Faults are
// observability, not errors: the turn proceeds and the reply passes
// through with the malformed text still in place.
type Fault struct {
	Key string
	Err error
}

// Extraction is the result of scanning one reply.
type Extraction struct {
	Cleaned string
	Gift    *GiftFragment
	Name    *NameFragment
	Faults  []Fault
}

type envelope struct {
	Gift *struct {
		Item    string         `json:"item"`
		Details map[string]any `json:"details"`
	} `json:"gift"`
	Child *struct {
		Name string `json:"name"`
	} `json:"child"`
}

// Extract scans raw reply text for at most one gift fragment and at
// most one name fragment. A trailing fenced ```json block is tried
// first; the greedy brace heuristic remains as the compatibility path
// for models that emit bare objects. A reply containing no JSON-like
// substring passes through unchanged.
func Extract(raw string) Extraction {
	ext := Extraction{Cleaned: raw}

	if done := ext.extractFenced(); done {
		return ext
	}
	ext.extractGreedy(keyGift)
	ext.extractGreedy(keyChild)
	return ext
}

// extractFenced handles the sentinel-delimited path: a reply ending in
// a ```json fence is parsed only within the fence, and the whole fence
// is stripped on success. Returns true when the fence fully resolved
// the reply so the greedy path is skipped.
func (ext *Extraction) extractFenced() bool {
	body, start, ok := trailingFence(ext.Cleaned)
	if !ok {
		return false
	}
	var env envelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		// Malformed fence: leave the text alone, let the greedy
		// path have a try at whatever is inside.
		ext.Faults = append(ext.Faults, Fault{Key: "fence", Err: err})
		return false
	}
	applied := ext.apply(env)
	if !applied {
		return false
	}
	ext.Cleaned = strings.TrimSpace(ext.Cleaned[:start])
	return true
}

// extractGreedy is the legacy-prompt path: find the last substring that
// looks like a JSON object containing the given key, parse it, and on
// success remove exactly that substring.
func (ext *Extraction) extractGreedy(key string) {
	text := ext.Cleaned
	candidate, start, end, found := findObject(text, key)
	if !found {
		return
	}
	var env envelope
	if err := json.Unmarshal([]byte(candidate), &env); err != nil {
		ext.Faults = append(ext.Faults, Fault{Key: key, Err: err})
		return
	}
	if !ext.apply(env) {
		ext.Faults = append(ext.Faults, Fault{Key: key, Err: fmt.Errorf("object has no usable %q payload", key)})
		return
	}
	ext.Cleaned = strings.TrimSpace(text[:start] + text[end:])
}

// apply copies decoded payloads onto the extraction. Reports whether
// anything usable was found. First match wins per kind.
func (ext *Extraction) apply(env envelope) bool {
	applied := false
	if ext.Gift == nil && env.Gift != nil && strings.TrimSpace(env.Gift.Item) != "" {
		ext.Gift = &GiftFragment{Item: env.Gift.Item, Details: env.Gift.Details}
		applied = true
	}
	if ext.Name == nil && env.Child != nil && strings.TrimSpace(env.Child.Name) != "" {
		ext.Name = &NameFragment{Name: env.Child.Name}
		applied = true
	}
	return applied
}

// findObject locates the last JSON-object-looking substring containing
// the quoted key: the nearest opening brace before the key's final
// occurrence, through a string-aware balanced closing brace, falling
// back to a greedy match through the last closing brace in the text.
func findObject(text, key string) (candidate string, start, end int, found bool) {
	idx := strings.LastIndex(text, `"`+key+`"`)
	if idx < 0 {
		return "", 0, 0, false
	}
	start = strings.LastIndex(text[:idx], "{")
	if start < 0 {
		return "", 0, 0, false
	}
	if stop, ok := balancedEnd(text, start); ok {
		return text[start:stop], start, stop, true
	}
	stop := strings.LastIndex(text, "}")
	if stop <= start {
		return "", 0, 0, false
	}
	return text[start : stop+1], start, stop + 1, true
}

// balancedEnd walks from an opening brace to its matching close,
// ignoring braces inside JSON string literals.
func balancedEnd(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}

// trailingFence returns the body of a ```json (or bare ```) block that
// closes at the end of the text, plus the offset where the fence opens.
func trailingFence(text string) (body string, start int, ok bool) {
	trimmed := strings.TrimRight(text, " \t\r\n")
	if !strings.HasSuffix(trimmed, "```") {
		return "", 0, false
	}
	inner := trimmed[:len(trimmed)-3]
	start = strings.LastIndex(inner, "```")
	if start < 0 {
		return "", 0, false
	}
	body = inner[start+3:]
	body = strings.TrimPrefix(body, "json")
	body = strings.TrimSpace(body)
	if body == "" {
		return "", 0, false
	}
	return body, start, true
}
