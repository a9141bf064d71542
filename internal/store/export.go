package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// Snapshot is the JSON transfer format used by export/import and by the
// offline sync queue.
type Snapshot struct {
	Workspaces []*Workspace `json:"workspaces"`
	Files      []*FileItem  `json:"files"`
	Tasks      []*Task      `json:"tasks"`
}

// Export serializes all current data (workspaces, current file versions,
// tasks) to a JSON snapshot. Version history is not exported.
func (s *SQLiteStore) Export() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data Snapshot

	workspaceRows, err := s.db.Query(`
		SELECT id, name, owner_id, is_shared, created_at, updated_at FROM workspaces
	`)
	if err != nil {
		return nil, fmt.Errorf("export workspaces: %w", err)
	}
	defer workspaceRows.Close()
	for workspaceRows.Next() {
		var w Workspace
		var ownerID sql.NullString
		var isShared int
		if err := workspaceRows.Scan(&w.ID, &w.Name, &ownerID, &isShared, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan workspace: %w", err)
		}
		if ownerID.Valid {
			w.OwnerID = ownerID.String
		}
		w.IsShared = isShared != 0
		data.Workspaces = append(data.Workspaces, &w)
	}

	fileRows, err := s.db.Query(`
		SELECT ` + fileColumns + ` FROM files WHERE is_current = 1
	`)
	if err != nil {
		return nil, fmt.Errorf("export files: %w", err)
	}
	defer fileRows.Close()
	for fileRows.Next() {
		file, err := scanFile(fileRows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		data.Files = append(data.Files, file)
	}

	taskRows, err := s.db.Query(`
		SELECT id, workspace_id, title, description, status, priority, tags, due_at, created_at, updated_at
		FROM tasks
	`)
	if err != nil {
		return nil, fmt.Errorf("export tasks: %w", err)
	}
	defer taskRows.Close()
	for taskRows.Next() {
		task, err := scanTask(taskRows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		data.Tasks = append(data.Tasks, task)
	}

	return json.Marshal(data)
}

// Import restores the database state from an exported JSON byte slice.
// Clears all existing data and re-inserts from the snapshot.
func (s *SQLiteStore) Import(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(data) == 0 {
		return nil
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("import unmarshal: %w", err)
	}

	// Clear all tables
	tables := []string{"tasks", "files", "workspaces"}
	if s.useFTS {
		tables = append(tables, "files_fts")
	}
	for _, table := range tables {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, w := range snap.Workspaces {
		_, err := s.db.Exec(`
			INSERT INTO workspaces (id, name, owner_id, is_shared, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, w.ID, w.Name, nullString(w.OwnerID), boolToInt(w.IsShared), w.CreatedAt, w.UpdatedAt)
		if err != nil {
			return fmt.Errorf("import workspace %s: %w", w.ID, err)
		}
	}

	for _, f := range snap.Files {
		version := f.Version
		if version == 0 {
			version = 1
		}
		validFrom := f.ValidFrom
		if validFrom == 0 {
			validFrom = f.CreatedAt
		}
		tags, _ := json.Marshal(f.Tags)
		_, err := s.db.Exec(`
			INSERT INTO files (id, version, workspace_id, name, type, parent_id, content, tags,
				is_pinned, favorite, sort_order, created_at, updated_at, valid_from, is_current)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
		`, f.ID, version, f.WorkspaceID, f.Name, f.Type, nullString(f.ParentID), f.Content,
			string(tags), boolToInt(f.IsPinned), boolToInt(f.Favorite), f.SortOrder,
			f.CreatedAt, f.UpdatedAt, validFrom)
		if err != nil {
			return fmt.Errorf("import file %s: %w", f.ID, err)
		}
		if s.useFTS {
			_, err = s.db.Exec(`
				INSERT INTO files_fts (file_id, workspace_id, type, name, content)
				VALUES (?, ?, ?, ?, ?)
			`, f.ID, f.WorkspaceID, f.Type, f.Name, f.Content)
			if err != nil {
				return fmt.Errorf("index file %s: %w", f.ID, err)
			}
		}
	}

	for _, t := range snap.Tasks {
		tags, _ := json.Marshal(t.Tags)
		_, err := s.db.Exec(`
			INSERT INTO tasks (id, workspace_id, title, description, status, priority, tags, due_at, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, t.ID, t.WorkspaceID, t.Title, nullString(t.Description), t.Status, t.Priority,
			string(tags), t.DueAt, t.CreatedAt, t.UpdatedAt)
		if err != nil {
			return fmt.Errorf("import task %s: %w", t.ID, err)
		}
	}

	return nil
}
