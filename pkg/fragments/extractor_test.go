package fragments

import "testing"

func TestExtractPlainReplyUnchanged(t *testing.T) {
	raw := "Ho ho ho! What a wonderful thing to say."
	ext := Extract(raw)
	if ext.Cleaned != raw {
		t.Fatalf("reply without fragments must pass through unchanged, got %q", ext.Cleaned)
	}
	if ext.Gift != nil || ext.Name != nil {
		t.Fatalf("no fragments expected")
	}
	if len(ext.Faults) != 0 {
		t.Fatalf("no faults expected, got %v", ext.Faults)
	}
}

func TestExtractTrailingGift(t *testing.T) {
	ext := Extract(`What a lovely wish! {"gift":{"item":"X"}}`)
	if ext.Gift == nil || ext.Gift.Item != "X" {
		t.Fatalf("expected gift item X, got %+v", ext.Gift)
	}
	if ext.Cleaned != "What a lovely wish!" {
		t.Fatalf("fragment must be stripped and whitespace trimmed, got %q", ext.Cleaned)
	}
}

func TestExtractGiftWithDetails(t *testing.T) {
	ext := Extract(`A red bike it is! {"gift":{"item":"red bike","details":{"color":"red"}}}`)
	if ext.Gift == nil || ext.Gift.Item != "red bike" {
		t.Fatalf("expected red bike, got %+v", ext.Gift)
	}
	if ext.Gift.Details["color"] != "red" {
		t.Fatalf("expected color detail, got %v", ext.Gift.Details)
	}
}

func TestExtractMalformedFragmentPassesThrough(t *testing.T) {
	raw := `So exciting! {"gift": not json}`
	ext := Extract(raw)
	if ext.Gift != nil {
		t.Fatalf("malformed fragment must not yield a gift")
	}
	if ext.Cleaned != raw {
		t.Fatalf("malformed fragment must leave the text untouched, got %q", ext.Cleaned)
	}
	if len(ext.Faults) == 0 {
		t.Fatalf("parse failure should be recorded as a fault")
	}
}

func TestExtractNameFragment(t *testing.T) {
	ext := Extract(`Nice to meet you, Amy! {"child":{"name":"Amy"}}`)
	if ext.Name == nil || ext.Name.Name != "Amy" {
		t.Fatalf("expected name Amy, got %+v", ext.Name)
	}
	if ext.Cleaned != "Nice to meet you, Amy!" {
		t.Fatalf("name fragment must be stripped, got %q", ext.Cleaned)
	}
}

func TestExtractBothFragmentsIndependently(t *testing.T) {
	ext := Extract(`Wonderful! {"child":{"name":"Ben"}} {"gift":{"item":"train set"}}`)
	if ext.Gift == nil || ext.Gift.Item != "train set" {
		t.Fatalf("expected gift, got %+v", ext.Gift)
	}
	if ext.Name == nil || ext.Name.Name != "Ben" {
		t.Fatalf("expected name, got %+v", ext.Name)
	}
	if ext.Cleaned != "Wonderful!" {
		t.Fatalf("both fragments must be stripped, got %q", ext.Cleaned)
	}
}

func TestExtractUsesLastGiftMatch(t *testing.T) {
	ext := Extract(`{"gift":{"item":"old"}} some words {"gift":{"item":"new"}}`)
	if ext.Gift == nil || ext.Gift.Item != "new" {
		t.Fatalf("the last matching object wins, got %+v", ext.Gift)
	}
}

func TestExtractBracesInsideStrings(t *testing.T) {
	ext := Extract(`Here you go! {"gift":{"item":"box of {mystery}"}}`)
	if ext.Gift == nil || ext.Gift.Item != "box of {mystery}" {
		t.Fatalf("braces inside string literals must not break matching, got %+v", ext.Gift)
	}
	if ext.Cleaned != "Here you go!" {
		t.Fatalf("fragment must be stripped, got %q", ext.Cleaned)
	}
}

func TestExtractFencedSentinelBlock(t *testing.T) {
	raw := "So kind of you to share!\n```json\n{\"gift\":{\"item\":\"puzzle\"}}\n```"
	ext := Extract(raw)
	if ext.Gift == nil || ext.Gift.Item != "puzzle" {
		t.Fatalf("expected fenced gift, got %+v", ext.Gift)
	}
	if ext.Cleaned != "So kind of you to share!" {
		t.Fatalf("fence must be stripped whole, got %q", ext.Cleaned)
	}
}

func TestExtractFencedBlockWithBothPayloads(t *testing.T) {
	raw := "Lovely!\n```json\n{\"gift\":{\"item\":\"drum\"},\"child\":{\"name\":\"Leo\"}}\n```"
	ext := Extract(raw)
	if ext.Gift == nil || ext.Gift.Item != "drum" {
		t.Fatalf("expected gift from fence, got %+v", ext.Gift)
	}
	if ext.Name == nil || ext.Name.Name != "Leo" {
		t.Fatalf("expected name from fence, got %+v", ext.Name)
	}
}

func TestExtractGiftMissingItemIsFault(t *testing.T) {
	raw := `Hmm. {"gift":{"details":{"color":"blue"}}}`
	ext := Extract(raw)
	if ext.Gift != nil {
		t.Fatalf("gift without item must not be recorded")
	}
	if ext.Cleaned != raw {
		t.Fatalf("unusable fragment stays in the text, got %q", ext.Cleaned)
	}
	if len(ext.Faults) == 0 {
		t.Fatalf("missing item should surface as a fault")
	}
}
