// Package tree builds the workspace file tree from parent back-references
// and validates drag-and-drop re-parenting. The parent chain is owned by
// the parent relation only; acyclicity is validated on move and audited by
// CheckIntegrity, never silently repaired.
package tree

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Item is the flat record the tree is built from.
type Item struct {
	ID        string
	Name      string
	Type      string // "file", "folder" or "database"
	ParentID  string
	SortOrder float64
}

// IsContainer reports whether the item may hold children.
func (it Item) IsContainer() bool {
	return it.Type == "folder" || it.Type == "database"
}

// Node is a single node in the built tree.
type Node struct {
	Item
	Parent   *Node
	Children []*Node
}

// Tree is a fully linked file tree.
type Tree struct {
	Roots []*Node
	byID  map[string]*Node
}

var (
	ErrNotFound     = errors.New("item not found")
	ErrNotContainer = errors.New("target is not a folder or database")
	ErrSelfParent   = errors.New("item cannot be its own parent")
	ErrCreatesCycle = errors.New("move would create a cycle")
)

// Build links items into a tree. Items whose parent is missing or that sit
// on a cycle are attached at the root rather than dropped, so a damaged
// workspace still renders; CheckIntegrity reports the damage.
func Build(items []Item) *Tree {
	t := &Tree{byID: make(map[string]*Node, len(items))}

	parents := make(map[string]string, len(items))
	for _, it := range items {
		t.byID[it.ID] = &Node{Item: it}
		parents[it.ID] = it.ParentID
	}

	for _, n := range t.byID {
		if n.ParentID == "" {
			t.Roots = append(t.Roots, n)
			continue
		}
		parent, ok := t.byID[n.ParentID]
		if !ok || onCycle(parents, n.ID) {
			t.Roots = append(t.Roots, n)
			continue
		}
		n.Parent = parent
		parent.Children = append(parent.Children, n)
	}

	sortNodes(t.Roots)
	for _, n := range t.byID {
		sortNodes(n.Children)
	}

	return t
}

// Folders first, then by sort order, then name.
func sortNodes(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if a.IsContainer() != b.IsContainer() {
			return a.IsContainer()
		}
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		return a.Name < b.Name
	})
}

// Get returns the node for an ID, or nil.
func (t *Tree) Get(id string) *Node {
	return t.byID[id]
}

// Path returns the names from the root down to the item.
func (t *Tree) Path(id string) ([]string, error) {
	n := t.byID[id]
	if n == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	var parts []string
	for ; n != nil; n = n.Parent {
		parts = append(parts, n.Name)
	}
	// Reverse into root-first order
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return parts, nil
}

// ValidateMove checks a drag-and-drop re-parent without applying it.
// newParentID == "" moves the item to the root.
func ValidateMove(items []Item, id, newParentID string) error {
	byID := make(map[string]Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	if _, ok := byID[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if newParentID == "" {
		return nil
	}
	if newParentID == id {
		return ErrSelfParent
	}

	target, ok := byID[newParentID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, newParentID)
	}
	if !target.IsContainer() {
		return fmt.Errorf("%w: %s", ErrNotContainer, newParentID)
	}

	// Walk the target's ancestor chain; landing on the moved item means the
	// move would fold the item under its own subtree.
	seen := map[string]bool{}
	for cur := newParentID; cur != ""; {
		if cur == id {
			return ErrCreatesCycle
		}
		if seen[cur] {
			// Pre-existing cycle above the target; refuse to extend it
			return ErrCreatesCycle
		}
		seen[cur] = true
		cur = byID[cur].ParentID
	}

	return nil
}

// IntegrityReport lists structural problems found by CheckIntegrity.
// Reporting only: nothing is mutated or repaired.
type IntegrityReport struct {
	Cycles         [][]string // Each cycle as the chain of IDs involved
	OrphanParents  []string   // IDs whose parent does not exist
	DuplicateNames []string   // "parentID/name" keys shared by siblings
}

// OK reports whether the scan found nothing wrong.
func (r *IntegrityReport) OK() bool {
	return len(r.Cycles) == 0 && len(r.OrphanParents) == 0 && len(r.DuplicateNames) == 0
}

// CheckIntegrity scans the parent relation and reports cycles, orphan
// parent references and duplicate sibling names.
func CheckIntegrity(items []Item) *IntegrityReport {
	report := &IntegrityReport{}
	byID := make(map[string]Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	// Orphans
	for _, it := range items {
		if it.ParentID != "" {
			if _, ok := byID[it.ParentID]; !ok {
				report.OrphanParents = append(report.OrphanParents, it.ID)
			}
		}
	}
	sort.Strings(report.OrphanParents)

	// Cycles: follow each parent chain; a repeat inside the walk is a cycle.
	inCycle := map[string]bool{}
	for _, it := range items {
		if inCycle[it.ID] {
			continue
		}
		seen := map[string]int{}
		var chain []string
		for cur := it.ID; cur != ""; {
			if inCycle[cur] {
				// The chain merely feeds into a cycle reported already.
				break
			}
			if at, ok := seen[cur]; ok {
				cycle := chain[at:]
				for _, id := range cycle {
					inCycle[id] = true
				}
				report.Cycles = append(report.Cycles, cycle)
				break
			}
			seen[cur] = len(chain)
			chain = append(chain, cur)
			next, ok := byID[cur]
			if !ok {
				break
			}
			cur = next.ParentID
		}
	}

	// Duplicate sibling names
	names := map[string]int{}
	for _, it := range items {
		names[it.ParentID+"/"+strings.ToLower(it.Name)]++
	}
	for key, count := range names {
		if count > 1 {
			report.DuplicateNames = append(report.DuplicateNames, key)
		}
	}
	sort.Strings(report.DuplicateNames)

	return report
}

func onCycle(parents map[string]string, id string) bool {
	seen := map[string]bool{}
	for cur := id; cur != ""; cur = parents[cur] {
		if seen[cur] {
			return true
		}
		seen[cur] = true
	}
	return false
}
