package store

import (
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFileVersioning(t *testing.T) {
	s := newTestStore(t)

	now := time.Now().Unix()
	file := &FileItem{
		ID:          "f1",
		WorkspaceID: "ws1",
		Name:        "Project Notes",
		Type:        TypeFile,
		Content:     "first draft",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.CreateFile(file); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	file.Content = "second draft"
	file.UpdatedAt = now + 10
	if err := s.UpdateFile(file, "edit"); err != nil {
		t.Fatalf("Failed to update file: %v", err)
	}

	current, err := s.GetFile("f1")
	if err != nil {
		t.Fatalf("Failed to get file: %v", err)
	}
	if current.Version != 2 {
		t.Errorf("Expected version 2, got %d", current.Version)
	}
	if current.Content != "second draft" {
		t.Errorf("Expected updated content, got %q", current.Content)
	}

	versions, err := s.ListFileVersions("f1")
	if err != nil {
		t.Fatalf("Failed to list versions: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("Expected 2 versions, got %d", len(versions))
	}
	if !versions[0].IsCurrent || versions[1].IsCurrent {
		t.Error("Expected only the newest version to be current")
	}

	// Point-in-time read sees version 1
	old, err := s.GetFileAtTime("f1", now+5)
	if err != nil {
		t.Fatalf("Failed to get file at time: %v", err)
	}
	if old == nil || old.Version != 1 {
		t.Fatalf("Expected version 1 at t+5, got %+v", old)
	}

	// Restore version 1 as a new version
	if err := s.RestoreFileVersion("f1", 1, now+20); err != nil {
		t.Fatalf("Failed to restore version: %v", err)
	}
	restored, err := s.GetFile("f1")
	if err != nil {
		t.Fatalf("Failed to get restored file: %v", err)
	}
	if restored.Version != 3 {
		t.Errorf("Expected version 3 after restore, got %d", restored.Version)
	}
	if restored.Content != "first draft" {
		t.Errorf("Expected restored content, got %q", restored.Content)
	}
}

func TestGetFileMissing(t *testing.T) {
	s := newTestStore(t)

	file, err := s.GetFile("nope")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if file != nil {
		t.Errorf("Expected nil for missing file, got %+v", file)
	}
}

func TestListChildren(t *testing.T) {
	s := newTestStore(t)

	now := time.Now().Unix()
	folder := &FileItem{ID: "dir1", WorkspaceID: "ws1", Name: "Projects", Type: TypeFolder, CreatedAt: now, UpdatedAt: now}
	if err := s.CreateFile(folder); err != nil {
		t.Fatalf("Failed to create folder: %v", err)
	}
	for _, f := range []*FileItem{
		{ID: "a", WorkspaceID: "ws1", Name: "Alpha", ParentID: "dir1", CreatedAt: now, UpdatedAt: now},
		{ID: "b", WorkspaceID: "ws1", Name: "Beta", ParentID: "dir1", CreatedAt: now, UpdatedAt: now},
		{ID: "r", WorkspaceID: "ws1", Name: "Root Note", CreatedAt: now, UpdatedAt: now},
	} {
		if err := s.CreateFile(f); err != nil {
			t.Fatalf("Failed to create %s: %v", f.ID, err)
		}
	}

	children, err := s.ListChildren("ws1", "dir1")
	if err != nil {
		t.Fatalf("Failed to list children: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("Expected 2 children, got %d", len(children))
	}

	roots, err := s.ListChildren("ws1", "")
	if err != nil {
		t.Fatalf("Failed to list roots: %v", err)
	}
	if len(roots) != 2 { // dir1 + Root Note
		t.Fatalf("Expected 2 root items, got %d", len(roots))
	}
}

func TestSearchFiles(t *testing.T) {
	s := newTestStore(t)

	now := time.Now().Unix()
	for _, f := range []*FileItem{
		{ID: "f1", WorkspaceID: "ws1", Name: "Roadmap", Content: "quarterly planning for the search feature", CreatedAt: now, UpdatedAt: now},
		{ID: "f2", WorkspaceID: "ws1", Name: "Groceries", Content: "milk and eggs", CreatedAt: now, UpdatedAt: now},
		{ID: "f3", WorkspaceID: "ws2", Name: "Planning", Content: "planning the offsite", CreatedAt: now, UpdatedAt: now},
	} {
		if err := s.CreateFile(f); err != nil {
			t.Fatalf("Failed to create %s: %v", f.ID, err)
		}
	}

	hits, err := s.SearchFiles("planning", &SearchOptions{WorkspaceID: "ws1"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("Expected 1 hit in ws1, got %d", len(hits))
	}
	if hits[0].FileID != "f1" {
		t.Errorf("Expected f1, got %s", hits[0].FileID)
	}

	hits, err = s.SearchFiles("planning", nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("Expected 2 hits overall, got %d", len(hits))
	}
}

func TestTaskCRUD(t *testing.T) {
	s := newTestStore(t)

	now := time.Now().Unix()
	task := &Task{
		ID:          "t1",
		WorkspaceID: "ws1",
		Title:       "Ship the release",
		Priority:    PriorityHigh,
		Tags:        []string{"release"},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.UpsertTask(task); err != nil {
		t.Fatalf("Failed to upsert task: %v", err)
	}

	got, err := s.GetTask("t1")
	if err != nil {
		t.Fatalf("Failed to get task: %v", err)
	}
	if got.Status != TaskTodo {
		t.Errorf("Expected default status todo, got %s", got.Status)
	}
	if got.Priority != PriorityHigh {
		t.Errorf("Expected priority high, got %s", got.Priority)
	}

	got.Status = TaskDone
	got.UpdatedAt = now + 1
	if err := s.UpsertTask(got); err != nil {
		t.Fatalf("Failed to update task: %v", err)
	}

	tasks, err := s.ListTasks("ws1")
	if err != nil {
		t.Fatalf("Failed to list tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Status != TaskDone {
		t.Fatalf("Expected 1 done task, got %+v", tasks)
	}

	if err := s.DeleteTask("t1"); err != nil {
		t.Fatalf("Failed to delete task: %v", err)
	}
	missing, err := s.GetTask("t1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if missing != nil {
		t.Error("Expected nil after delete")
	}
}

func TestExportImport(t *testing.T) {
	s := newTestStore(t)

	now := time.Now().Unix()
	ws := &Workspace{ID: "ws1", Name: "Personal", CreatedAt: now, UpdatedAt: now}
	if err := s.UpsertWorkspace(ws); err != nil {
		t.Fatalf("Failed to upsert workspace: %v", err)
	}
	file := &FileItem{
		ID:          "f1",
		WorkspaceID: "ws1",
		Name:        "Welcome",
		Content:     "Hello [[World]]",
		Tags:        []string{"intro"},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.UpsertFile(file); err != nil {
		t.Fatalf("Failed to upsert file: %v", err)
	}
	task := &Task{ID: "t1", WorkspaceID: "ws1", Title: "Read the manual", CreatedAt: now, UpdatedAt: now}
	if err := s.UpsertTask(task); err != nil {
		t.Fatalf("Failed to upsert task: %v", err)
	}

	data, err := s.Export()
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Exported data is empty")
	}

	// Create a NEW store to simulate a fresh start/reload
	s2 := newTestStore(t)
	if err := s2.Import(data); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	restored, err := s2.GetFile("f1")
	if err != nil {
		t.Fatalf("Failed to get restored file: %v", err)
	}
	if restored == nil || restored.Name != file.Name {
		t.Fatalf("Expected restored file %q, got %+v", file.Name, restored)
	}
	if len(restored.Tags) != 1 || restored.Tags[0] != "intro" {
		t.Errorf("Expected tags to survive import, got %v", restored.Tags)
	}

	workspaces, err := s2.ListWorkspaces()
	if err != nil {
		t.Fatalf("Failed to list workspaces: %v", err)
	}
	if len(workspaces) != 1 || workspaces[0].Name != "Personal" {
		t.Fatalf("Expected workspace to survive import, got %+v", workspaces)
	}

	// Imported files are searchable again
	hits, err := s2.SearchFiles("hello", nil)
	if err != nil {
		t.Fatalf("Search after import failed: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("Expected imported file to be indexed, got %d hits", len(hits))
	}
}

func TestDeleteWorkspaceCascades(t *testing.T) {
	s := newTestStore(t)

	now := time.Now().Unix()
	if err := s.UpsertWorkspace(&Workspace{ID: "ws1", Name: "Temp", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("Failed to upsert workspace: %v", err)
	}
	if err := s.CreateFile(&FileItem{ID: "f1", WorkspaceID: "ws1", Name: "Doomed", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	if err := s.UpsertTask(&Task{ID: "t1", WorkspaceID: "ws1", Title: "Doomed too", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("Failed to upsert task: %v", err)
	}

	if err := s.DeleteWorkspace("ws1"); err != nil {
		t.Fatalf("Failed to delete workspace: %v", err)
	}

	file, _ := s.GetFile("f1")
	if file != nil {
		t.Error("Expected file gone after workspace delete")
	}
	task, _ := s.GetTask("t1")
	if task != nil {
		t.Error("Expected task gone after workspace delete")
	}
}
