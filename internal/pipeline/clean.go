package pipeline

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/hyperifyio/cerche/internal/search"
)

var menuLine = regexp.MustCompile(`^\s*\* `)

// maxMenuLineLen is the longest "* " line still treated as a menu entry.
const maxMenuLineLen = 50

// Clean applies menu stripping (when strip is set) and then truncation to
// maxBytes. Stripping also removes empty lines and junk characters, and
// leaves every kept line newline-terminated.
func Clean(content string, strip bool, maxBytes int) string {
	if strip {
		content = search.FilterSpecialChars(StripMenuLines(content))
	}
	return Truncate(content, maxBytes)
}

// StripMenuLines drops empty lines and short lines that look like list
// entries.
func StripMenuLines(content string) string {
	var b strings.Builder
	for _, line := range splitLines(content) {
		if line == "" {
			continue
		}
		if menuLine.MatchString(line) && utf8.RuneCountInString(strings.TrimSpace(line)) <= maxMenuLineLen {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// Truncate cuts s to at most maxBytes without splitting a UTF-8 sequence.
// maxBytes <= 0 means no limit.
func Truncate(s string, maxBytes int) string {
	if maxBytes <= 0 || len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
