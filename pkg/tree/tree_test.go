package tree

import (
	"errors"
	"strings"
	"testing"
)

func sampleItems() []Item {
	return []Item{
		{ID: "root1", Name: "Projects", Type: "folder"},
		{ID: "root2", Name: "Inbox", Type: "folder", SortOrder: -1},
		{ID: "n1", Name: "Plan", Type: "file", ParentID: "root1"},
		{ID: "n2", Name: "Archive", Type: "folder", ParentID: "root1"},
		{ID: "n3", Name: "Old Plan", Type: "file", ParentID: "n2"},
		{ID: "loose", Name: "Scratch", Type: "file"},
	}
}

func TestBuildShape(t *testing.T) {
	tr := Build(sampleItems())

	if len(tr.Roots) != 3 {
		t.Fatalf("Expected 3 roots, got %d", len(tr.Roots))
	}
	// Folders sort before files, Inbox (order -1) before Projects
	if tr.Roots[0].Name != "Inbox" || tr.Roots[1].Name != "Projects" || tr.Roots[2].Name != "Scratch" {
		t.Errorf("Unexpected root order: %s, %s, %s", tr.Roots[0].Name, tr.Roots[1].Name, tr.Roots[2].Name)
	}

	projects := tr.Get("root1")
	if len(projects.Children) != 2 {
		t.Fatalf("Expected 2 children under Projects, got %d", len(projects.Children))
	}
	if projects.Children[0].Name != "Archive" {
		t.Errorf("Expected folder first, got %s", projects.Children[0].Name)
	}
}

func TestPath(t *testing.T) {
	tr := Build(sampleItems())

	path, err := tr.Path("n3")
	if err != nil {
		t.Fatalf("Path failed: %v", err)
	}
	if strings.Join(path, "/") != "Projects/Archive/Old Plan" {
		t.Errorf("Unexpected path: %v", path)
	}

	if _, err := tr.Path("ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestValidateMove(t *testing.T) {
	items := sampleItems()

	if err := ValidateMove(items, "n1", "n2"); err != nil {
		t.Errorf("Legal move rejected: %v", err)
	}
	if err := ValidateMove(items, "n1", ""); err != nil {
		t.Errorf("Move to root rejected: %v", err)
	}
	if err := ValidateMove(items, "n1", "n1"); !errors.Is(err, ErrSelfParent) {
		t.Errorf("Expected ErrSelfParent, got %v", err)
	}
	if err := ValidateMove(items, "n2", "n3"); !errors.Is(err, ErrNotContainer) {
		t.Errorf("Expected ErrNotContainer, got %v", err)
	}
	if err := ValidateMove(items, "ghost", "root1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	// Moving a folder under its own descendant must be refused
	if err := ValidateMove(items, "root1", "n2"); !errors.Is(err, ErrCreatesCycle) {
		t.Errorf("Expected ErrCreatesCycle, got %v", err)
	}
}

func TestBuildSurvivesDamage(t *testing.T) {
	items := []Item{
		{ID: "a", Name: "A", Type: "folder", ParentID: "b"},
		{ID: "b", Name: "B", Type: "folder", ParentID: "a"},
		{ID: "c", Name: "C", Type: "file", ParentID: "gone"},
	}

	tr := Build(items)
	// Everything still renders at the root instead of disappearing
	if len(tr.Roots) != 3 {
		t.Fatalf("Expected all damaged items at root, got %d roots", len(tr.Roots))
	}
}

func TestCheckIntegrity(t *testing.T) {
	items := []Item{
		{ID: "a", Name: "A", Type: "folder", ParentID: "b"},
		{ID: "b", Name: "B", Type: "folder", ParentID: "a"},
		{ID: "c", Name: "C", Type: "file", ParentID: "gone"},
		{ID: "d1", Name: "Dup", Type: "file"},
		{ID: "d2", Name: "dup", Type: "file"},
	}

	report := CheckIntegrity(items)
	if report.OK() {
		t.Fatal("Expected problems to be reported")
	}
	if len(report.Cycles) != 1 {
		t.Errorf("Expected 1 cycle, got %d", len(report.Cycles))
	}
	if len(report.OrphanParents) != 1 || report.OrphanParents[0] != "c" {
		t.Errorf("Expected orphan c, got %v", report.OrphanParents)
	}
	if len(report.DuplicateNames) != 1 {
		t.Errorf("Expected 1 duplicate name, got %v", report.DuplicateNames)
	}

	clean := CheckIntegrity(sampleItems())
	if !clean.OK() {
		t.Errorf("Expected clean report, got %+v", clean)
	}
}

func TestCheckIntegrityReportsCycleOnce(t *testing.T) {
	// Several chains feed into the same b<->c cycle; it must be reported
	// once, not once per entry point.
	items := []Item{
		{ID: "a", Name: "A", Type: "folder", ParentID: "b"},
		{ID: "b", Name: "B", Type: "folder", ParentID: "c"},
		{ID: "c", Name: "C", Type: "folder", ParentID: "b"},
		{ID: "d", Name: "D", Type: "file", ParentID: "b"},
	}

	report := CheckIntegrity(items)
	if len(report.Cycles) != 1 {
		t.Fatalf("Expected 1 cycle, got %d: %v", len(report.Cycles), report.Cycles)
	}
	if len(report.Cycles[0]) != 2 {
		t.Errorf("Expected cycle of b and c, got %v", report.Cycles[0])
	}
}
