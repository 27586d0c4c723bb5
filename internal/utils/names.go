package utils

import (
	"regexp"
	"strings"
)

const maxNameLength = 120

var (
	unsafeChars = regexp.MustCompile(`[\\/:*?"<>|]`)
	runsOfSpace = regexp.MustCompile(`\s+`)
)

// SafeName returns a filesystem-safe representation of name. Characters that
// are invalid in file names on common platforms are replaced with underscores
// and whitespace runs are collapsed. The result is never empty.
func SafeName(name string) string {
	name = strings.TrimSpace(name)
	name = unsafeChars.ReplaceAllString(name, "_")
	name = runsOfSpace.ReplaceAllString(name, " ")
	// Truncate by runes, not bytes, so multi-byte titles stay valid UTF-8.
	if runes := []rune(name); len(runes) > maxNameLength {
		name = strings.TrimRight(string(runes[:maxNameLength]), " ")
	}
	if name == "" {
		return "untitled"
	}
	return name
}
