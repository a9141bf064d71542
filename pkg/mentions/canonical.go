// Package mentions finds unlinked references to existing files in note
// content using a single Aho-Corasick automaton compiled from file names.
// It backs the editor's "suggested links" surface: mentions of a file that
// are not already wikilinked, plus repeatedly seen new terms worth a note.
package mentions

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// isJoiner returns true for punctuation that commonly appears INSIDE names.
// These are preserved during canonicalization so multiword file names like
// "Q3 O'Brien Sync" or "api-design" stay coherent.
func isJoiner(r rune) bool {
	switch r {
	case '\'', '’', '‘', // apostrophe, curly apostrophe variants
		'-', '–', '—', // hyphen, en-dash, em-dash
		'·', '.', '_', '/', '&': // middle dot, period, underscore, etc.
		return true
	default:
		return false
	}
}

// isSeparator returns true for characters that split tokens.
func isSeparator(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) || isJoiner(r) {
		return false
	}
	return true
}

// Canonicalize transforms text into the normalized form used for matching.
// The SAME function is applied to dictionary patterns and scanned text:
// lowercase fold, joiners preserved, every separator run collapsed to a
// single space, leading/trailing spaces trimmed.
func Canonicalize(s string) string {
	var out strings.Builder
	out.Grow(len(s))

	lastWasSpace := true // Start true to trim leading spaces

	for _, ch := range s {
		c := unicode.ToLower(ch)

		// Normalize curly apostrophe to straight
		if c == '’' || c == '‘' {
			c = '\''
		}
		// Normalize en-dash/em-dash to hyphen
		if c == '–' || c == '—' {
			c = '-'
		}

		if unicode.IsLetter(c) || unicode.IsDigit(c) || isJoiner(c) {
			out.WriteRune(c)
			lastWasSpace = false
		} else {
			if !lastWasSpace {
				out.WriteRune(' ')
				lastWasSpace = true
			}
		}
	}

	result := out.String()
	if len(result) > 0 && result[len(result)-1] == ' ' {
		result = result[:len(result)-1]
	}
	return result
}

// buildOffsetMap creates a mapping from canonicalized byte positions to
// original positions, so matches found in canonicalized text anchor back
// to the original.
func buildOffsetMap(original string) []int {
	mapping := make([]int, 0, len(original)+1)

	lastWasSpace := true
	origPos := 0

	for _, ch := range original {
		runeLen := utf8.RuneLen(ch)
		c := unicode.ToLower(ch)

		if c == '’' || c == '‘' {
			c = '\''
		}
		if c == '–' || c == '—' {
			c = '-'
		}

		if unicode.IsLetter(c) || unicode.IsDigit(c) || isJoiner(c) {
			// This character appears in canonicalized output
			canonLen := utf8.RuneLen(c)
			for i := 0; i < canonLen; i++ {
				mapping = append(mapping, origPos)
			}
			lastWasSpace = false
		} else {
			// Separator - may become a single space
			if !lastWasSpace {
				mapping = append(mapping, origPos)
				lastWasSpace = true
			}
		}

		origPos += runeLen
	}

	// Final position for end-of-string
	mapping = append(mapping, origPos)

	return mapping
}

// mapOffset converts a canonicalized byte offset to an original byte offset.
func mapOffset(canonOffset int, mapping []int, originalLen int) int {
	if canonOffset >= len(mapping) {
		return originalLen
	}
	if canonOffset < 0 {
		return 0
	}
	return mapping[canonOffset]
}
