package mentions

import (
	"github.com/coregx/ahocorasick"
)

// FileRef is the dictionary entry for one file.
type FileRef struct {
	ID      string
	Name    string
	Aliases []string
}

// Dictionary is a dual-purpose Aho-Corasick automaton over file names:
// exact lookup of a surface form, and O(n) scanning of note text.
type Dictionary struct {
	ac *ahocorasick.Automaton

	// Pattern index -> file IDs (several files may share a surface form)
	patternToIDs [][]string

	// Normalized pattern -> pattern index
	patternIndex map[string]int

	// File ID -> display name
	idToName map[string]string

	// All patterns in order (for the AC builder)
	patterns []string
}

// Compile builds a Dictionary from file references.
// Patterns shorter than 3 bytes after canonicalization are skipped; they
// match everywhere and drown the suggestions.
func Compile(refs []FileRef) (*Dictionary, error) {
	dict := &Dictionary{
		patternToIDs: [][]string{},
		patternIndex: make(map[string]int),
		idToName:     make(map[string]string),
		patterns:     []string{},
	}

	for _, ref := range refs {
		dict.idToName[ref.ID] = ref.Name

		surfaces := append([]string{ref.Name}, ref.Aliases...)
		for _, surface := range surfaces {
			// THE shared canonicalizer - critical for matching consistency
			key := Canonicalize(surface)
			if len(key) < 3 {
				continue
			}

			if idx, exists := dict.patternIndex[key]; exists {
				dict.patternToIDs[idx] = appendUnique(dict.patternToIDs[idx], ref.ID)
			} else {
				idx := len(dict.patterns)
				dict.patterns = append(dict.patterns, key)
				dict.patternIndex[key] = idx
				dict.patternToIDs = append(dict.patternToIDs, []string{ref.ID})
			}
		}
	}

	// LeftmostLongest prefers "Project Roadmap" over "Project"
	automaton, err := ahocorasick.NewBuilder().
		AddStrings(dict.patterns).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err != nil {
		return nil, err
	}
	dict.ac = automaton

	return dict, nil
}

// Lookup resolves a surface form to the IDs of files it names.
func (d *Dictionary) Lookup(surface string) []string {
	if d.ac == nil {
		return nil
	}
	idx, exists := d.patternIndex[Canonicalize(surface)]
	if !exists {
		return nil
	}
	return d.patternToIDs[idx]
}

// Name returns the display name for a file ID.
func (d *Dictionary) Name(id string) string {
	return d.idToName[id]
}

// Match is a detected file mention in text.
type Match struct {
	Start   int      // Byte offset start in ORIGINAL text
	End     int      // Byte offset end in ORIGINAL text
	Text    string   // Original text slice (preserves casing)
	FileIDs []string // Files this surface form may refer to
}

// Scan finds all file mentions in text.
// The input is canonicalized with the same function used for patterns and
// match offsets are mapped back to the original text.
func (d *Dictionary) Scan(text string) []Match {
	if d.ac == nil {
		return nil
	}

	canonicalized := Canonicalize(text)
	haystack := []byte(canonicalized)
	canonToOrig := buildOffsetMap(text)

	// FindAllOverlapping reports every mention; the suggestion layer keeps
	// one per span
	matches := d.ac.FindAllOverlapping(haystack)
	result := make([]Match, 0, len(matches))

	for _, m := range matches {
		origStart := mapOffset(m.Start, canonToOrig, len(text))
		origEnd := mapOffset(m.End, canonToOrig, len(text))

		if origStart >= len(text) || origEnd > len(text) || origStart >= origEnd {
			continue
		}

		result = append(result, Match{
			Start:   origStart,
			End:     origEnd,
			Text:    text[origStart:origEnd],
			FileIDs: d.patternToIDs[m.PatternID],
		})
	}

	return result
}

func appendUnique(slice []string, item string) []string {
	for _, s := range slice {
		if s == item {
			return slice
		}
	}
	return append(slice, item)
}
