package mentions

import "testing"

func testDict(t *testing.T) *Dictionary {
	t.Helper()
	dict, err := Compile([]FileRef{
		{ID: "f1", Name: "Project Roadmap", Aliases: []string{"roadmap"}},
		{ID: "f2", Name: "Budget Review"},
		{ID: "f3", Name: "Onboarding"},
	})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	return dict
}

func TestCompileAndLookup(t *testing.T) {
	dict := testDict(t)

	ids := dict.Lookup("Project Roadmap")
	if len(ids) != 1 || ids[0] != "f1" {
		t.Errorf("Lookup 'Project Roadmap' got %v, want [f1]", ids)
	}

	// Alias resolves to the same file
	ids = dict.Lookup("roadmap")
	if len(ids) != 1 || ids[0] != "f1" {
		t.Errorf("Lookup alias got %v, want [f1]", ids)
	}

	// Canonicalization folds case and punctuation
	ids = dict.Lookup("  BUDGET   review ")
	if len(ids) != 1 || ids[0] != "f2" {
		t.Errorf("Lookup folded got %v, want [f2]", ids)
	}

	if ids := dict.Lookup("nothing here"); len(ids) != 0 {
		t.Errorf("Expected no results, got %v", ids)
	}
}

func TestScanOffsets(t *testing.T) {
	dict := testDict(t)

	text := "Discussed the Budget Review, then onboarding."
	matches := dict.Scan(text)

	if len(matches) < 2 {
		t.Fatalf("Expected at least 2 matches, got %d", len(matches))
	}
	for _, m := range matches {
		if text[m.Start:m.End] != m.Text {
			t.Errorf("Span mismatch: %q vs %q", text[m.Start:m.End], m.Text)
		}
	}
}

func TestSuggestSkipsExistingLinks(t *testing.T) {
	dict := testDict(t)

	text := "See [[Budget Review]] and also the budget review notes, plus Onboarding."
	got := dict.Suggest("f9", text)

	var ids []string
	for _, s := range got {
		ids = append(ids, s.FileID)
	}

	// The wikilinked span is dropped; the plain-text mention and Onboarding stay
	if len(got) != 2 {
		t.Fatalf("Expected 2 suggestions, got %v", got)
	}
	if got[0].FileID != "f2" || got[1].FileID != "f3" {
		t.Errorf("Unexpected suggestions: %v", ids)
	}
}

func TestSuggestSkipsSelf(t *testing.T) {
	dict := testDict(t)

	got := dict.Suggest("f3", "Onboarding checklist draft")
	for _, s := range got {
		if s.FileID == "f3" {
			t.Errorf("Self-mention suggested: %+v", s)
		}
	}
}

func TestCanonicalize(t *testing.T) {
	cases := map[string]string{
		"Hello,   World!":  "hello world",
		"Jean-Luc Picard":  "jean-luc picard",
		"O’Brien":     "o'brien",
		"  trimmed  ":      "trimmed",
		"api_design/notes": "api_design/notes",
	}
	for in, want := range cases {
		if got := Canonicalize(in); got != want {
			t.Errorf("Canonicalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCandidateRegistryPromotion(t *testing.T) {
	r := NewRegistry(2)

	if r.Observe("Kubernetes") {
		t.Error("Promoted on first sighting")
	}
	if !r.Observe("Kubernetes") {
		t.Error("Expected promotion on second sighting")
	}
	if r.Observe("Kubernetes") {
		t.Error("Promoted twice")
	}

	promoted := r.Promoted()
	if len(promoted) != 1 || promoted[0] != "Kubernetes" {
		t.Errorf("Unexpected promoted list: %v", promoted)
	}
}

func TestCandidateRegistryFilters(t *testing.T) {
	r := NewRegistry(1)

	// Stopwords never promote, however often seen
	for i := 0; i < 5; i++ {
		if r.Observe("The") {
			t.Fatal("Stopword promoted")
		}
	}

	// Lowercase terms are not candidates
	if r.Observe("kubernetes") {
		t.Error("Lowercase term promoted")
	}

	// Ignored terms stay ignored
	r.Ignore("Jira")
	if r.Observe("Jira") {
		t.Error("Ignored term promoted")
	}

	stats := r.GetStats("Jira")
	if stats == nil || stats.Status != StatusIgnored {
		t.Errorf("Expected ignored status, got %+v", stats)
	}
}

func TestObserveText(t *testing.T) {
	dict := testDict(t)
	r := NewRegistry(2)

	text := "Met with Acme about the Project Roadmap. Acme wants a demo."
	r.ObserveText(dict, text)
	promoted := r.Promoted()

	// "Acme" seen twice -> promoted; "Project Roadmap" tokens are known files
	if len(promoted) != 1 || promoted[0] != "Acme" {
		t.Errorf("Expected [Acme], got %v", promoted)
	}
}
