package turn

import (
	"regexp"
	"strings"
)

// wishPattern catches the common ways a child phrases a wish. Used only
// on the fallback path, where no model is available to do better.
var wishPattern = regexp.MustCompile(`(?i)\b(?:i\s+(?:really\s+)?(?:want|would\s+like|wish\s+for|hope\s+(?:to\s+get|for))|i'?d\s+(?:really\s+)?like)\s+(.+)`)

var leadingArticle = regexp.MustCompile(`(?i)^(?:a|an|the|some)\s+`)

// HeuristicGift scans a raw utterance for a wish and returns the item
// text. Best-effort: trailing punctuation and a leading article are
// dropped, everything else is kept verbatim.
func HeuristicGift(utterance string) (string, bool) {
	m := wishPattern.FindStringSubmatch(utterance)
	if m == nil {
		return "", false
	}
	item := strings.TrimSpace(m[1])
	if idx := strings.IndexAny(item, ".!?,;"); idx >= 0 {
		item = strings.TrimSpace(item[:idx])
	}
	item = leadingArticle.ReplaceAllString(item, "")
	item = strings.TrimSpace(item)
	if item == "" {
		return "", false
	}
	return item, true
}
