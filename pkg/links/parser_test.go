package links

import "testing"

func TestParseWikilinks(t *testing.T) {
	text := "See [[Project Plan]] and [[Budget|the numbers]] for details."
	found := ParseWikilinks(text)

	if len(found) != 2 {
		t.Fatalf("Expected 2 links, got %d", len(found))
	}
	if found[0].Target != "Project Plan" {
		t.Errorf("Expected 'Project Plan', got %q", found[0].Target)
	}
	if found[1].Target != "Budget" || found[1].Label != "the numbers" {
		t.Errorf("Expected Budget|the numbers, got %q|%q", found[1].Target, found[1].Label)
	}

	// Offsets anchor back into the original text
	if text[found[0].Start:found[0].End] != "[[Project Plan]]" {
		t.Errorf("Bad span: %q", text[found[0].Start:found[0].End])
	}
}

func TestParseWikilinksEdgeCases(t *testing.T) {
	cases := map[string]int{
		"no links here":            0,
		"empty [[]] link":          0,
		"unterminated [[ link":     0,
		"spaces [[  ]] only":       0,
		"[[A]][[B]]":               2,
		"stray [[ then [[Real]]":   1,
		"multiline [[a\nb]] token": 0,
	}
	for text, want := range cases {
		if got := len(ParseWikilinks(text)); got != want {
			t.Errorf("%q: expected %d links, got %d", text, want, got)
		}
	}
}

func TestParseWikilinkTrimming(t *testing.T) {
	found := ParseWikilinks("[[  Meeting Notes  ]]")
	if len(found) != 1 {
		t.Fatalf("Expected 1 link, got %d", len(found))
	}
	if found[0].Target != "Meeting Notes" {
		t.Errorf("Expected trimmed target, got %q", found[0].Target)
	}
}

func TestParseTags(t *testing.T) {
	text := "Work on #roadmap and #q3-planning today.\n# Heading\nTicket #123 stays out, but #v2 counts."
	tags := ParseTags(text)

	var names []string
	for _, tag := range tags {
		names = append(names, tag.Name)
	}

	want := []string{"roadmap", "q3-planning", "v2"}
	if len(names) != len(want) {
		t.Fatalf("Expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Expected tag %q, got %q", want[i], names[i])
		}
	}
}

func TestParseTagsNotMidWord(t *testing.T) {
	tags := ParseTags("c#sharp is not a tag, email me@#host either")
	if len(tags) != 0 {
		t.Errorf("Expected no tags, got %v", tags)
	}
}

func TestNormalizeTarget(t *testing.T) {
	if NormalizeTarget("  Project   Plan ") != "project plan" {
		t.Errorf("Unexpected normalization: %q", NormalizeTarget("  Project   Plan "))
	}
}
