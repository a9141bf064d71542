package graph

import "testing"

func testDocs() []Doc {
	return []Doc{
		{ID: "a", Name: "Alpha", Content: "Links to [[Beta]] and [[beta]] again, plus [[Missing Page]]", UpdatedAt: 1},
		{ID: "b", Name: "Beta", Content: "Back to [[Alpha]] #shared", UpdatedAt: 1},
		{ID: "c", Name: "Gamma", Content: "Standalone #shared note", UpdatedAt: 1},
	}
}

func TestBuildDedupesUnorderedPairs(t *testing.T) {
	g := NewBuilder().Build(testDocs())

	var wikis int
	for _, l := range g.Links {
		if l.Kind == LinkWikilink {
			wikis++
		}
	}
	// a->Beta, a->beta (case-insensitive same target) and b->Alpha are all
	// the same unordered pair
	if wikis != 1 {
		t.Fatalf("Expected 1 wikilink edge, got %d", wikis)
	}
}

func TestBuildBrokenLinks(t *testing.T) {
	g := NewBuilder().Build(testDocs())

	if len(g.Broken) != 1 {
		t.Fatalf("Expected 1 broken link, got %d", len(g.Broken))
	}
	if g.Broken[0].SourceID != "a" || g.Broken[0].Target != "Missing Page" {
		t.Errorf("Unexpected broken link: %+v", g.Broken[0])
	}
}

func TestBuildTagNodes(t *testing.T) {
	g := NewBuilder().Build(testDocs())

	var tagNode *Node
	for i := range g.Nodes {
		if g.Nodes[i].Kind == NodeTag {
			if tagNode != nil {
				t.Fatal("Expected a single tag node for #shared")
			}
			tagNode = &g.Nodes[i]
		}
	}
	if tagNode == nil {
		t.Fatal("Expected a tag node for #shared")
	}
	if tagNode.Name != "shared" {
		t.Errorf("Expected tag 'shared', got %q", tagNode.Name)
	}
	if tagNode.Links != 2 {
		t.Errorf("Expected degree 2 on tag node, got %d", tagNode.Links)
	}
}

func TestMemoization(t *testing.T) {
	b := NewBuilder()
	docs := testDocs()

	b.Build(docs)
	if len(b.memo) != 3 {
		t.Fatalf("Expected 3 memo entries, got %d", len(b.memo))
	}

	// Unchanged docs reuse memoized scans
	before := b.memo["a"]
	b.Build(docs)
	after := b.memo["a"]
	if before.updatedAt != after.updatedAt {
		t.Error("Expected memo entry to be reused")
	}

	// Bumping updatedAt rescans
	docs[0].Content = "Nothing here anymore"
	docs[0].UpdatedAt = 2
	g := b.Build(docs)
	for _, l := range g.Links {
		if l.Kind == LinkWikilink {
			t.Fatalf("Expected no wikilink edges after rescan, got %+v", l)
		}
	}
}

func TestBacklinks(t *testing.T) {
	b := NewBuilder()
	back := b.Backlinks(testDocs(), "b")

	if len(back) != 1 || back[0] != "a" {
		t.Fatalf("Expected backlink from a, got %v", back)
	}
}

func TestBacklinksAreIncomingOnly(t *testing.T) {
	docs := []Doc{
		{ID: "a", Name: "Alpha", Content: "Points at [[Beta]]", UpdatedAt: 1},
		{ID: "b", Name: "Beta", Content: "Nothing outgoing", UpdatedAt: 1},
	}
	b := NewBuilder()

	// Alpha links OUT to Beta; that is a backlink for Beta, not for Alpha.
	if back := b.Backlinks(docs, "a"); len(back) != 0 {
		t.Fatalf("Expected no backlinks for a, got %v", back)
	}
	if back := b.Backlinks(docs, "b"); len(back) != 1 || back[0] != "a" {
		t.Fatalf("Expected backlink from a for b, got %v", back)
	}
}

func TestSelfLinksIgnored(t *testing.T) {
	g := NewBuilder().Build([]Doc{
		{ID: "x", Name: "Self", Content: "I link to [[Self]]", UpdatedAt: 1},
	})
	if len(g.Links) != 0 {
		t.Fatalf("Expected no edges, got %+v", g.Links)
	}
}
