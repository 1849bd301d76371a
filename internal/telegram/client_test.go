package telegram

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitByBytes(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
	}{
		{"short", "hello", 10},
		{"ascii", strings.Repeat("a", 25), 10},
		{"multibyte", strings.Repeat("ñ", 20), 7},
		{"newlines", strings.Repeat("line of text\n", 10), 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := SplitByBytes(tt.text, tt.max)
			if strings.Join(parts, "") != tt.text {
				t.Fatalf("parts do not rebuild the text: %q", parts)
			}
			for _, p := range parts {
				if len(p) > tt.max || !utf8.ValidString(p) {
					t.Errorf("bad part %q", p)
				}
			}
		})
	}

	parts := SplitByBytes(strings.Repeat("line of text\n", 10), 40)
	for _, p := range parts[:len(parts)-1] {
		if !strings.HasSuffix(p, "\n") {
			t.Errorf("part should end on a newline: %q", p)
		}
	}
}

func TestTruncateByBytes(t *testing.T) {
	if got := TruncateByBytes("ñññ", 3); got != "ñ" {
		t.Errorf("got %q", got)
	}
	if got := TruncateByBytes("abc", 10); got != "abc" {
		t.Errorf("got %q", got)
	}
}
