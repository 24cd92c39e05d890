package main

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitMessage(t *testing.T) {
	short := "fits in one message"
	if parts := splitMessage(short, 100); len(parts) != 1 || parts[0] != short {
		t.Errorf("splitMessage(short) = %v", parts)
	}

	text := strings.Repeat("line one\nline two\n", 20)
	parts := splitMessage(text, 50)
	if len(parts) < 2 {
		t.Fatalf("got %d parts, want at least 2", len(parts))
	}
	for i, part := range parts {
		if len(part) > 51 { // a chunk may carry one trailing newline over the limit
			t.Errorf("part %d is %d bytes", i, len(part))
		}
	}
	joined := strings.Join(parts, "")
	if strings.Count(joined, "line one") != 20 || strings.Count(joined, "line two") != 20 {
		t.Error("splitMessage dropped lines")
	}
}

func TestSplitMessageKeepsRunesIntact(t *testing.T) {
	// One oversized line of multibyte text: hard splits must not land
	// in the middle of a rune.
	text := strings.Repeat("цена 1 234,56 ₽ ", 30)
	parts := splitMessage(text, 64)

	total := 0
	for i, part := range parts {
		if !utf8.ValidString(part) {
			t.Errorf("part %d is not valid UTF-8: %q", i, part)
		}
		total += strings.Count(part, "₽")
	}
	if total != 30 {
		t.Errorf("parts carry %d ruble signs, want 30", total)
	}
}
