// Package textutil provides text normalization for extracted document text.
package textutil

import (
	"regexp"
	"strings"
)

var (
	blankLineRuns = regexp.MustCompile(`\n\s*\n`)
	spaceRuns     = regexp.MustCompile(`[ \t]+`)
)

// Extraction artifacts seen in scanned policy documents. The map is applied
// as plain string replacement before whitespace normalization.
var artifactFixes = [][2]string{
	{"iviviv", ""},
	{"Air Ambulasce", "Air Ambulance"},
}

// Clean normalizes extracted text: known extraction artifacts are fixed,
// runs of spaces and tabs collapse to a single space, and runs of blank
// lines collapse to a single blank line. Clean is idempotent.
func Clean(s string) string {
	for _, fix := range artifactFixes {
		s = strings.ReplaceAll(s, fix[0], fix[1])
	}

	s = spaceRuns.ReplaceAllString(s, " ")

	// Strip trailing spaces per line so blank-line detection sees them.
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	s = strings.Join(lines, "\n")

	s = blankLineRuns.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}

// TruncateRunes shortens s to at most n runes, appending marker when
// anything was cut. Never splits a multi-byte character.
func TruncateRunes(s string, n int, marker string) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + marker
}
