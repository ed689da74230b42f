package detect

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestFindText(t *testing.T) {
	tests := []struct {
		name    string
		content string
		literal string
		want    bool
	}{
		{"exact match", "Free shipping on all orders", "free shipping", true},
		{"case insensitive", "FREE SHIPPING", "free shipping", true},
		{"missing", "Paid shipping only", "free shipping", false},
		{"empty literal", "anything", "", false},
		{"empty content", "", "free shipping", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := FindText(tt.content, tt.literal)
			if d.Found != tt.want {
				t.Errorf("Found = %v, want %v", d.Found, tt.want)
			}
		})
	}
}

func TestSnippet(t *testing.T) {
	t.Run("collapses whitespace", func(t *testing.T) {
		got := Snippet("a\n\n  b\t\tc", 0)
		if got != "a b c" {
			t.Errorf("Snippet = %q, want %q", got, "a b c")
		}
	})

	t.Run("bounded radius", func(t *testing.T) {
		long := strings.Repeat("x", 1000)
		got := Snippet(long, 500)
		if len(got) != 2*evidenceRadius {
			t.Errorf("len = %d, want %d", len(got), 2*evidenceRadius)
		}
	})

	t.Run("clamps at edges", func(t *testing.T) {
		got := Snippet("short", 2)
		if got != "short" {
			t.Errorf("Snippet = %q, want %q", got, "short")
		}
	})

	t.Run("never splits multibyte runes", func(t *testing.T) {
		// Rupee signs on both sides of the excerpt window so a byte-offset
		// cut would land mid-rune.
		content := strings.Repeat("₹", 200) + "match" + strings.Repeat("₹", 200)
		got := Snippet(content, strings.Index(content, "match"))
		if !utf8.ValidString(got) {
			t.Errorf("Snippet produced invalid UTF-8: %q", got)
		}
		if !strings.Contains(got, "match") {
			t.Errorf("Snippet lost the match: %q", got)
		}
	})
}
