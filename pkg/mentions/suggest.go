package mentions

import (
	"sort"
	"strings"
	"unicode"

	"github.com/orsinium-labs/stopwords"

	"github.com/notionspark/gospark/pkg/links"
)

// Suggestion is an unlinked mention of an existing file.
type Suggestion struct {
	FileID string `json:"fileId"`
	Name   string `json:"name"`
	Text   string `json:"text"` // The surface form as written
	Start  int    `json:"start"`
	End    int    `json:"end"`
}

// Suggest scans note content for mentions of OTHER files that are not
// already wikilinked. Spans overlapping an existing [[...]] token are
// dropped, as are self-mentions.
func (d *Dictionary) Suggest(selfID, text string) []Suggestion {
	matches := d.Scan(text)
	if len(matches) == 0 {
		return nil
	}

	linked := links.ParseWikilinks(text)
	inLink := func(start, end int) bool {
		for _, l := range linked {
			if start < l.End && end > l.Start {
				return true
			}
		}
		return false
	}

	var out []Suggestion
	seenSpans := map[[2]string]bool{}
	for _, m := range matches {
		if inLink(m.Start, m.End) {
			continue
		}
		for _, id := range m.FileIDs {
			if id == selfID {
				continue
			}
			key := [2]string{m.Text, id}
			if seenSpans[key] {
				continue
			}
			seenSpans[key] = true
			out = append(out, Suggestion{
				FileID: id,
				Name:   d.idToName[id],
				Text:   m.Text,
				Start:  m.Start,
				End:    m.End,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// CandidateStatus tracks the lifecycle of a new-note candidate.
type CandidateStatus int

const (
	StatusWatching CandidateStatus = iota
	StatusPromoted
	StatusIgnored
)

// CandidateStats tracks one potential new note.
type CandidateStats struct {
	Count   int
	Status  CandidateStatus
	Display string // Best display form seen
}

// CandidateRegistry watches capitalized terms across notes and promotes
// the ones seen often enough as new-note suggestions.
type CandidateRegistry struct {
	stats              map[string]*CandidateStats
	promotionThreshold int
	customStop         map[string]bool
	stopwordChecker    *stopwords.Stopwords
}

// NewRegistry creates a registry that promotes after threshold sightings.
func NewRegistry(threshold int) *CandidateRegistry {
	if threshold <= 0 {
		threshold = 3
	}
	return &CandidateRegistry{
		stats:              make(map[string]*CandidateStats),
		promotionThreshold: threshold,
		customStop:         make(map[string]bool),
		stopwordChecker:    stopwords.MustGet("en"),
	}
}

// AddStopWord adds a custom ignored word.
func (r *CandidateRegistry) AddStopWord(word string) {
	r.customStop[strings.ToLower(word)] = true
}

// Ignore marks a candidate as permanently dismissed.
func (r *CandidateRegistry) Ignore(term string) {
	key := Canonicalize(term)
	if s, ok := r.stats[key]; ok {
		s.Status = StatusIgnored
		return
	}
	r.stats[key] = &CandidateStats{Status: StatusIgnored, Display: term}
}

// Observe processes a term sighting. Returns true if promoted this time.
func (r *CandidateRegistry) Observe(raw string) bool {
	if !isCapitalized(raw) {
		return false
	}
	key := Canonicalize(raw)
	if len(key) < 3 {
		return false
	}
	if r.customStop[key] || r.stopwordChecker.Contains(key) {
		return false
	}

	s, ok := r.stats[key]
	if !ok {
		s = &CandidateStats{Display: raw}
		r.stats[key] = s
	}
	if s.Status == StatusIgnored || s.Status == StatusPromoted {
		return false
	}

	s.Count++
	if s.Count >= r.promotionThreshold {
		s.Status = StatusPromoted
		return true
	}
	return false
}

// ObserveText tokenizes note content and observes every capitalized token
// not already matched by the dictionary.
func (r *CandidateRegistry) ObserveText(dict *Dictionary, text string) []string {
	var promoted []string
	for _, word := range strings.Fields(text) {
		word = strings.Trim(word, ".,;:!?\"'()[]")
		if word == "" {
			continue
		}
		if dict != nil && len(dict.Lookup(word)) > 0 {
			continue
		}
		if r.Observe(word) {
			promoted = append(promoted, r.stats[Canonicalize(word)].Display)
		}
	}
	return promoted
}

// Promoted returns display forms of all promoted candidates, sorted.
func (r *CandidateRegistry) Promoted() []string {
	var out []string
	for _, s := range r.stats {
		if s.Status == StatusPromoted {
			out = append(out, s.Display)
		}
	}
	sort.Strings(out)
	return out
}

// GetStats returns the stats for a term, or nil.
func (r *CandidateRegistry) GetStats(term string) *CandidateStats {
	return r.stats[Canonicalize(term)]
}

func isCapitalized(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}
