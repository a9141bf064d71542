// Package links parses wikilink and tag tokens out of note content.
// A wikilink is a [[Target Name]] or [[Target Name|Label]] token; a tag is
// an inline #word token. Offsets are byte offsets into the original text
// for span anchoring in the UI.
package links

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Wikilink is a single [[...]] token found in text.
type Wikilink struct {
	Target string // Name of the linked note (trimmed, label stripped)
	Label  string // Display label after '|', empty if none
	Start  int    // Byte offset of '[['
	End    int    // Byte offset just past ']]'
}

// Tag is an inline #tag token.
type Tag struct {
	Name  string // Tag text without the '#'
	Start int
	End   int
}

// ParseResult holds everything extracted from one pass over the text.
type ParseResult struct {
	Links []Wikilink
	Tags  []Tag
}

// Parse scans text once and returns all wikilinks and tags.
// Empty ([[]]) and unterminated ([[ with no closer) tokens are ignored.
func Parse(text string) ParseResult {
	return ParseResult{
		Links: ParseWikilinks(text),
		Tags:  ParseTags(text),
	}
}

// ParseWikilinks returns all [[...]] tokens in order of appearance.
func ParseWikilinks(text string) []Wikilink {
	var out []Wikilink

	i := 0
	for {
		open := strings.Index(text[i:], "[[")
		if open < 0 {
			break
		}
		open += i
		close := strings.Index(text[open+2:], "]]")
		if close < 0 {
			// Unterminated link, nothing after this can match either
			break
		}
		close += open + 2

		inner := text[open+2 : close]
		i = close + 2

		// A nested '[[' inside means the first opener was stray
		if nested := strings.LastIndex(inner, "[["); nested >= 0 {
			open = open + 2 + nested
			inner = text[open+2 : close]
		}

		target := inner
		label := ""
		if pipe := strings.Index(inner, "|"); pipe >= 0 {
			target = inner[:pipe]
			label = strings.TrimSpace(inner[pipe+1:])
		}
		target = strings.TrimSpace(target)
		if target == "" || strings.ContainsRune(target, '\n') {
			continue
		}

		out = append(out, Wikilink{
			Target: target,
			Label:  label,
			Start:  open,
			End:    close + 2,
		})
	}

	return out
}

// ParseTags returns all inline #tag tokens. A tag starts at a '#' preceded
// by start-of-text or whitespace, and runs over letters, digits, '-', '_'
// and '/'. Pure-numeric tokens and markdown headings ("# Title") are not
// tags.
func ParseTags(text string) []Tag {
	var out []Tag

	i := 0
	for i < len(text) {
		r, w := utf8.DecodeRuneInString(text[i:])
		if r != '#' {
			i += w
			continue
		}
		// Must be at start or after whitespace
		if i > 0 {
			prev, _ := utf8.DecodeLastRuneInString(text[:i])
			if !unicode.IsSpace(prev) {
				i += w
				continue
			}
		}

		j := i + w
		hasLetter := false
		for j < len(text) {
			cr, cw := utf8.DecodeRuneInString(text[j:])
			if !isTagRune(cr) {
				break
			}
			if unicode.IsLetter(cr) {
				hasLetter = true
			}
			j += cw
		}
		if j == i+w || !hasLetter {
			// "#" alone (heading marker) or pure-numeric like "#123"
			i = j
			continue
		}

		out = append(out, Tag{
			Name:  text[i+w : j],
			Start: i,
			End:   j,
		})
		i = j
	}

	return out
}

func isTagRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '/'
}

// NormalizeTarget folds a wikilink target for case-insensitive resolution
// against file names.
func NormalizeTarget(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
