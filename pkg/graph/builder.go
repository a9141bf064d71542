// Package graph builds the visual link graph from file content.
// The graph is derived and ephemeral: nodes and links are recomputed from
// wikilinks and tags on demand and never persisted. Per-file scan results
// are memoized on (id, updatedAt) so unchanged files are not rescanned.
package graph

import (
	"sort"
	"sync"

	"github.com/notionspark/gospark/pkg/links"
)

// NodeKind distinguishes file nodes from tag nodes.
type NodeKind string

const (
	NodeFile NodeKind = "file"
	NodeTag  NodeKind = "tag"
)

// Node is a vertex in the link graph.
type Node struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Kind  NodeKind `json:"kind"`
	Links int      `json:"links"` // Degree, drives node size in the UI
}

// LinkKind distinguishes wikilink edges from tag membership edges.
type LinkKind string

const (
	LinkWikilink LinkKind = "wikilink"
	LinkTag      LinkKind = "tag"
)

// Link is an edge in the link graph. Wikilink edges are undirected and
// emitted once per unordered pair.
type Link struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Kind   LinkKind `json:"kind"`
}

// BrokenLink records a wikilink whose target resolved to no file.
// The UI offers these as create-new-file actions.
type BrokenLink struct {
	SourceID string `json:"sourceId"`
	Target   string `json:"target"` // The name the new file would get
}

// Graph is one full build over a workspace.
type Graph struct {
	Nodes  []Node       `json:"nodes"`
	Links  []Link       `json:"links"`
	Broken []BrokenLink `json:"broken"`
}

// Doc is the slice of file state the builder needs.
type Doc struct {
	ID        string
	Name      string
	Tags      []string
	Content   string
	UpdatedAt int64
}

type scanEntry struct {
	updatedAt int64
	targets   []string // Wikilink targets found in content
	tags      []string // Inline tags found in content
}

// Builder computes graphs, caching per-file scans between builds.
type Builder struct {
	mu   sync.Mutex
	memo map[string]scanEntry
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{memo: make(map[string]scanEntry)}
}

// Invalidate drops the memoized scan for a file.
func (b *Builder) Invalidate(fileID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.memo, fileID)
}

func (b *Builder) scan(doc Doc) scanEntry {
	b.mu.Lock()
	entry, ok := b.memo[doc.ID]
	b.mu.Unlock()
	if ok && entry.updatedAt == doc.UpdatedAt {
		return entry
	}

	parsed := links.Parse(doc.Content)
	entry = scanEntry{updatedAt: doc.UpdatedAt}
	for _, l := range parsed.Links {
		entry.targets = append(entry.targets, l.Target)
	}
	seen := map[string]bool{}
	for _, t := range doc.Tags {
		if !seen[t] {
			seen[t] = true
			entry.tags = append(entry.tags, t)
		}
	}
	for _, t := range parsed.Tags {
		if !seen[t.Name] {
			seen[t.Name] = true
			entry.tags = append(entry.tags, t.Name)
		}
	}

	b.mu.Lock()
	b.memo[doc.ID] = entry
	b.mu.Unlock()
	return entry
}

// Build computes the graph for a set of files.
// Wikilink targets resolve against file names, exact match first, then
// case-insensitive; unresolved targets are reported broken.
func (b *Builder) Build(docs []Doc) *Graph {
	byName := make(map[string]string, len(docs))   // exact name -> id
	byFolded := make(map[string]string, len(docs)) // folded name -> id
	for _, d := range docs {
		if _, taken := byName[d.Name]; !taken {
			byName[d.Name] = d.ID
		}
		folded := links.NormalizeTarget(d.Name)
		if _, taken := byFolded[folded]; !taken {
			byFolded[folded] = d.ID
		}
	}

	g := &Graph{}
	degree := map[string]int{}
	pairSeen := map[[2]string]bool{}
	tagNodes := map[string]bool{}

	for _, d := range docs {
		g.Nodes = append(g.Nodes, Node{ID: d.ID, Name: d.Name, Kind: NodeFile})
	}

	for _, d := range docs {
		entry := b.scan(d)

		for _, target := range entry.targets {
			targetID, ok := byName[target]
			if !ok {
				targetID, ok = byFolded[links.NormalizeTarget(target)]
			}
			if !ok {
				g.Broken = append(g.Broken, BrokenLink{SourceID: d.ID, Target: target})
				continue
			}
			if targetID == d.ID {
				// Self-links carry no graph information
				continue
			}
			pair := orderPair(d.ID, targetID)
			if pairSeen[pair] {
				continue
			}
			pairSeen[pair] = true
			g.Links = append(g.Links, Link{Source: pair[0], Target: pair[1], Kind: LinkWikilink})
			degree[pair[0]]++
			degree[pair[1]]++
		}

		for _, tag := range entry.tags {
			tagID := "tag:" + tag
			if !tagNodes[tagID] {
				tagNodes[tagID] = true
				g.Nodes = append(g.Nodes, Node{ID: tagID, Name: tag, Kind: NodeTag})
			}
			g.Links = append(g.Links, Link{Source: d.ID, Target: tagID, Kind: LinkTag})
			degree[d.ID]++
			degree[tagID]++
		}
	}

	for i := range g.Nodes {
		g.Nodes[i].Links = degree[g.Nodes[i].ID]
	}

	return g
}

// Backlinks returns the IDs of files whose content links to the given file,
// sorted for stable output. Direction matters here: a file the target merely
// links out to is not a backlink, so the per-doc scan targets are used
// instead of the undirected edge list.
func (b *Builder) Backlinks(docs []Doc, fileID string) []string {
	byName := make(map[string]string, len(docs))
	byFolded := make(map[string]string, len(docs))
	for _, d := range docs {
		if _, taken := byName[d.Name]; !taken {
			byName[d.Name] = d.ID
		}
		folded := links.NormalizeTarget(d.Name)
		if _, taken := byFolded[folded]; !taken {
			byFolded[folded] = d.ID
		}
	}

	var sources []string
	seen := map[string]bool{}
	for _, d := range docs {
		if d.ID == fileID {
			continue
		}
		entry := b.scan(d)
		for _, target := range entry.targets {
			targetID, ok := byName[target]
			if !ok {
				targetID, ok = byFolded[links.NormalizeTarget(target)]
			}
			if ok && targetID == fileID && !seen[d.ID] {
				seen[d.ID] = true
				sources = append(sources, d.ID)
			}
		}
	}
	sort.Strings(sources)
	return sources
}

func orderPair(a, c string) [2]string {
	if a < c {
		return [2]string{a, c}
	}
	return [2]string{c, a}
}
