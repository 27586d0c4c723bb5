package utils_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"yonote/internal/utils"
)

// TestSafeName verifies hostile titles become usable file names.
func TestSafeName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Plain Title", "Plain Title"},
		{"a/b\\c:d", "a_b_c_d"},
		{`what? "quotes" <and> |pipes|`, "what_ _quotes_ _and_ _pipes_"},
		{"  spaced   out  ", "spaced out"},
		{"", "untitled"},
		{"///", "___"},
	}
	for _, tc := range cases {
		if got := utils.SafeName(tc.in); got != tc.want {
			t.Errorf("SafeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// TestSafeNameTruncation verifies overlong titles are capped.
func TestSafeNameTruncation(t *testing.T) {
	long := strings.Repeat("x", 300)
	if got := utils.SafeName(long); len(got) != 120 {
		t.Errorf("expected 120 characters, got %d", len(got))
	}
}

// TestSafeNameTruncatesOnRuneBoundary verifies multi-byte titles are cut by
// characters, never mid-rune.
func TestSafeNameTruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("д", 300)
	got := utils.SafeName(long)
	if !utf8.ValidString(got) {
		t.Fatalf("truncated name is not valid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 120 {
		t.Errorf("expected 120 characters, got %d", n)
	}
}
