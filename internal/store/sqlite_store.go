package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// SQLiteStore is the SQLite-backed data store.
// Thread-safe for concurrent API handlers and MCP tool calls.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	useFTS bool
}

// schema defines all tables for the unified data layer with temporal versioning.
const schema = `
-- Files (Temporal versioning pattern)
-- Composite primary key (id, version) enables full version history
CREATE TABLE IF NOT EXISTS files (
    id TEXT NOT NULL,
    version INTEGER NOT NULL DEFAULT 1,
    workspace_id TEXT NOT NULL,
    name TEXT NOT NULL,
    type TEXT NOT NULL DEFAULT 'file',
    parent_id TEXT,
    content TEXT NOT NULL DEFAULT '',
    tags TEXT,
    is_pinned INTEGER DEFAULT 0,
    favorite INTEGER DEFAULT 0,
    sort_order REAL DEFAULT 0,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    valid_from INTEGER NOT NULL,
    valid_to INTEGER,
    is_current INTEGER DEFAULT 1,
    change_reason TEXT,
    PRIMARY KEY (id, version)
);

-- Partial indexes for current versions (fast queries)
CREATE INDEX IF NOT EXISTS idx_files_current ON files(id) WHERE is_current = 1;
CREATE INDEX IF NOT EXISTS idx_files_parent ON files(parent_id) WHERE is_current = 1;
CREATE INDEX IF NOT EXISTS idx_files_workspace ON files(workspace_id) WHERE is_current = 1;
-- Index for history queries
CREATE INDEX IF NOT EXISTS idx_files_history ON files(id, valid_from);

-- Workspaces
CREATE TABLE IF NOT EXISTS workspaces (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    owner_id TEXT,
    is_shared INTEGER DEFAULT 0,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

-- Tasks
-- Note: no foreign key to files - tasks are an independent entity
CREATE TABLE IF NOT EXISTS tasks (
    id TEXT PRIMARY KEY,
    workspace_id TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT,
    status TEXT NOT NULL DEFAULT 'todo',
    priority TEXT NOT NULL DEFAULT 'medium',
    tags TEXT,
    due_at INTEGER,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_workspace ON tasks(workspace_id);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
`

const ftsSchema = `
CREATE VIRTUAL TABLE IF NOT EXISTS files_fts USING fts5(
    file_id UNINDEXED,
    workspace_id UNINDEXED,
    type UNINDEXED,
    name,
    content,
    tokenize = 'porter unicode61'
);
`

// NewSQLiteStore creates a new in-memory SQLite store.
func NewSQLiteStore() (*SQLiteStore, error) {
	return NewSQLiteStoreWithDSN(":memory:")
}

// NewSQLiteStoreWithDSN creates a store with a specific data source name.
// Use ":memory:" for in-memory or a file path for persistent storage.
func NewSQLiteStoreWithDSN(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	s := &SQLiteStore{db: db}
	s.useFTS = s.checkFTS5Support()
	if s.useFTS {
		if _, err := db.Exec(ftsSchema); err != nil {
			// Fall back to LIKE search if the FTS table cannot be created
			s.useFTS = false
		}
	}

	return s, nil
}

// checkFTS5Support checks if the FTS5 module is available.
func (s *SQLiteStore) checkFTS5Support() bool {
	if _, err := s.db.Exec("CREATE VIRTUAL TABLE IF NOT EXISTS fts5_probe USING fts5(content)"); err != nil {
		return false
	}
	_, _ = s.db.Exec("DROP TABLE IF EXISTS fts5_probe")
	return true
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// =============================================================================
// File CRUD
// =============================================================================

// CreateFile creates a new file item with version 1.
func (s *SQLiteStore) CreateFile(file *FileItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createFileLocked(file)
}

func (s *SQLiteStore) createFileLocked(file *FileItem) error {
	if file.Version == 0 {
		file.Version = 1
	}
	if file.Type == "" {
		file.Type = TypeFile
	}
	if file.ValidFrom == 0 {
		file.ValidFrom = file.CreatedAt
	}
	file.IsCurrent = true

	tags, err := json.Marshal(file.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO files (id, version, workspace_id, name, type, parent_id, content, tags,
			is_pinned, favorite, sort_order, created_at, updated_at,
			valid_from, valid_to, is_current, change_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, file.ID, file.Version, file.WorkspaceID, file.Name, file.Type, nullString(file.ParentID),
		file.Content, string(tags), boolToInt(file.IsPinned), boolToInt(file.Favorite),
		file.SortOrder, file.CreatedAt, file.UpdatedAt,
		file.ValidFrom, file.ValidTo, boolToInt(file.IsCurrent), file.ChangeReason)
	if err != nil {
		return err
	}

	return s.indexFileLocked(file)
}

// UpdateFile creates a new version of an existing file.
func (s *SQLiteStore) UpdateFile(file *FileItem, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Get current version info
	var currentVersion int
	var createdAt int64
	err := s.db.QueryRow(`
		SELECT version, created_at FROM files
		WHERE id = ? AND is_current = 1
	`, file.ID).Scan(&currentVersion, &createdAt)
	if err == sql.ErrNoRows {
		// File doesn't exist, fall back to create
		return s.createFileLocked(file)
	}
	if err != nil {
		return err
	}

	// Close old current version
	_, err = s.db.Exec(`
		UPDATE files SET valid_to = ?, is_current = 0
		WHERE id = ? AND is_current = 1
	`, file.UpdatedAt, file.ID)
	if err != nil {
		return err
	}

	tags, err := json.Marshal(file.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	// Insert new version
	file.Version = currentVersion + 1
	file.CreatedAt = createdAt // Preserve original creation time
	file.ValidFrom = file.UpdatedAt
	file.ValidTo = nil
	file.IsCurrent = true
	file.ChangeReason = reason

	_, err = s.db.Exec(`
		INSERT INTO files (id, version, workspace_id, name, type, parent_id, content, tags,
			is_pinned, favorite, sort_order, created_at, updated_at,
			valid_from, valid_to, is_current, change_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, file.ID, file.Version, file.WorkspaceID, file.Name, file.Type, nullString(file.ParentID),
		file.Content, string(tags), boolToInt(file.IsPinned), boolToInt(file.Favorite),
		file.SortOrder, file.CreatedAt, file.UpdatedAt,
		file.ValidFrom, file.ValidTo, boolToInt(file.IsCurrent), file.ChangeReason)
	if err != nil {
		return err
	}

	return s.indexFileLocked(file)
}

// UpsertFile is a convenience method that creates or updates.
func (s *SQLiteStore) UpsertFile(file *FileItem) error {
	s.mu.RLock()
	var exists int
	err := s.db.QueryRow(`SELECT 1 FROM files WHERE id = ? AND is_current = 1 LIMIT 1`, file.ID).Scan(&exists)
	s.mu.RUnlock()

	if err == sql.ErrNoRows {
		return s.CreateFile(file)
	}
	if err != nil {
		return err
	}
	return s.UpdateFile(file, "upsert")
}

const fileColumns = `id, version, workspace_id, name, type, parent_id, content, tags,
	is_pinned, favorite, sort_order, created_at, updated_at,
	valid_from, valid_to, is_current, change_reason`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*FileItem, error) {
	var file FileItem
	var isPinned, favorite, isCurrent int
	var validTo sql.NullInt64
	var parentID, tags, changeReason sql.NullString

	err := row.Scan(
		&file.ID, &file.Version, &file.WorkspaceID, &file.Name, &file.Type, &parentID,
		&file.Content, &tags, &isPinned, &favorite, &file.SortOrder,
		&file.CreatedAt, &file.UpdatedAt,
		&file.ValidFrom, &validTo, &isCurrent, &changeReason,
	)
	if err != nil {
		return nil, err
	}

	file.IsPinned = isPinned != 0
	file.Favorite = favorite != 0
	file.IsCurrent = isCurrent != 0
	if validTo.Valid {
		file.ValidTo = &validTo.Int64
	}
	if parentID.Valid {
		file.ParentID = parentID.String
	}
	if changeReason.Valid {
		file.ChangeReason = changeReason.String
	}
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &file.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}
	if file.Tags == nil {
		file.Tags = []string{}
	}

	return &file, nil
}

// GetFile retrieves the current version of a file by ID.
// Returns (nil, nil) when the file does not exist.
func (s *SQLiteStore) GetFile(id string) (*FileItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := scanFile(s.db.QueryRow(`
		SELECT `+fileColumns+` FROM files WHERE id = ? AND is_current = 1
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return file, err
}

// GetFileVersion retrieves a specific version of a file.
func (s *SQLiteStore) GetFileVersion(id string, version int) (*FileItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := scanFile(s.db.QueryRow(`
		SELECT `+fileColumns+` FROM files WHERE id = ? AND version = ?
	`, id, version))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return file, err
}

// ListFileVersions returns all versions of a file, newest first.
func (s *SQLiteStore) ListFileVersions(id string) ([]*FileItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT `+fileColumns+` FROM files WHERE id = ? ORDER BY version DESC
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*FileItem
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

// GetFileAtTime retrieves the version that was current at a given timestamp.
func (s *SQLiteStore) GetFileAtTime(id string, timestamp int64) (*FileItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := scanFile(s.db.QueryRow(`
		SELECT `+fileColumns+` FROM files
		WHERE id = ?
		  AND valid_from <= ?
		  AND (valid_to IS NULL OR valid_to > ?)
		ORDER BY version DESC LIMIT 1
	`, id, timestamp, timestamp))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return file, err
}

// RestoreFileVersion restores a previous version by writing it as a new version.
func (s *SQLiteStore) RestoreFileVersion(id string, version int, now int64) error {
	old, err := s.GetFileVersion(id, version)
	if err != nil {
		return err
	}
	if old == nil {
		return fmt.Errorf("version %d of file %s not found", version, id)
	}

	old.UpdatedAt = now
	return s.UpdateFile(old, fmt.Sprintf("restore v%d", version))
}

// DeleteFile removes a file and its entire version history.
func (s *SQLiteStore) DeleteFile(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM files WHERE id = ?`, id); err != nil {
		return err
	}
	if s.useFTS {
		if _, err := s.db.Exec(`DELETE FROM files_fts WHERE file_id = ?`, id); err != nil {
			return err
		}
	}
	return nil
}

// ListFiles returns the current versions of all files in a workspace.
func (s *SQLiteStore) ListFiles(workspaceID string) ([]*FileItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT `+fileColumns+` FROM files
		WHERE workspace_id = ? AND is_current = 1
		ORDER BY sort_order, name
	`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*FileItem
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

// ListChildren returns the current items directly under a parent.
// Pass "" for root-level items.
func (s *SQLiteStore) ListChildren(workspaceID, parentID string) ([]*FileItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows *sql.Rows
	var err error
	if parentID == "" {
		rows, err = s.db.Query(`
			SELECT `+fileColumns+` FROM files
			WHERE workspace_id = ? AND parent_id IS NULL AND is_current = 1
			ORDER BY sort_order, name
		`, workspaceID)
	} else {
		rows, err = s.db.Query(`
			SELECT `+fileColumns+` FROM files
			WHERE workspace_id = ? AND parent_id = ? AND is_current = 1
			ORDER BY sort_order, name
		`, workspaceID, parentID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*FileItem
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

// CountFiles returns the number of current files across all workspaces.
func (s *SQLiteStore) CountFiles() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM files WHERE is_current = 1`).Scan(&count)
	return count, err
}

// =============================================================================
// Full-text search
// =============================================================================

// indexFileLocked refreshes the FTS row for a file. Caller holds the lock.
func (s *SQLiteStore) indexFileLocked(file *FileItem) error {
	if !s.useFTS {
		return nil
	}
	if _, err := s.db.Exec(`DELETE FROM files_fts WHERE file_id = ?`, file.ID); err != nil {
		return err
	}
	_, err := s.db.Exec(`
		INSERT INTO files_fts (file_id, workspace_id, type, name, content)
		VALUES (?, ?, ?, ?, ?)
	`, file.ID, file.WorkspaceID, file.Type, file.Name, file.Content)
	return err
}

// SearchFiles performs a full-text search over file names and content.
func (s *SQLiteStore) SearchFiles(query string, opts *SearchOptions) ([]*SearchHit, error) {
	if opts == nil {
		opts = &SearchOptions{}
	}
	if opts.Limit <= 0 {
		opts.Limit = 50
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.useFTS {
		return s.searchWithFTS(query, opts)
	}
	return s.searchWithLike(query, opts)
}

func (s *SQLiteStore) searchWithFTS(query string, opts *SearchOptions) ([]*SearchHit, error) {
	var conditions []string
	var args []any

	if opts.WorkspaceID != "" {
		conditions = append(conditions, "workspace_id = ?")
		args = append(args, opts.WorkspaceID)
	}
	if opts.Type != "" {
		conditions = append(conditions, "type = ?")
		args = append(args, opts.Type)
	}
	where := ""
	if len(conditions) > 0 {
		where = "AND " + strings.Join(conditions, " AND ")
	}

	args = append(args, opts.Limit)
	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT file_id, name, type,
			snippet(files_fts, 4, '<match>', '</match>', '...', 32) AS snippet
		FROM files_fts
		WHERE files_fts MATCH ? %s
		ORDER BY rank
		LIMIT ?
	`, where), append([]any{query}, args...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []*SearchHit
	for rows.Next() {
		hit := &SearchHit{}
		if err := rows.Scan(&hit.FileID, &hit.Name, &hit.Type, &hit.Snippet); err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

func (s *SQLiteStore) searchWithLike(query string, opts *SearchOptions) ([]*SearchHit, error) {
	conditions := []string{"is_current = 1", "(name LIKE ? OR content LIKE ?)"}
	pattern := "%" + strings.ReplaceAll(query, " ", "%") + "%"
	args := []any{pattern, pattern}

	if opts.WorkspaceID != "" {
		conditions = append(conditions, "workspace_id = ?")
		args = append(args, opts.WorkspaceID)
	}
	if opts.Type != "" {
		conditions = append(conditions, "type = ?")
		args = append(args, opts.Type)
	}
	args = append(args, opts.Limit)

	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT id, name, type FROM files
		WHERE %s
		ORDER BY updated_at DESC
		LIMIT ?
	`, strings.Join(conditions, " AND ")), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []*SearchHit
	for rows.Next() {
		hit := &SearchHit{}
		if err := rows.Scan(&hit.FileID, &hit.Name, &hit.Type); err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// =============================================================================
// Workspace CRUD
// =============================================================================

// UpsertWorkspace inserts or replaces a workspace.
func (s *SQLiteStore) UpsertWorkspace(w *Workspace) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO workspaces (id, name, owner_id, is_shared, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, w.ID, w.Name, nullString(w.OwnerID), boolToInt(w.IsShared), w.CreatedAt, w.UpdatedAt)
	return err
}

// GetWorkspace retrieves a workspace by ID. Returns (nil, nil) when missing.
func (s *SQLiteStore) GetWorkspace(id string) (*Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var w Workspace
	var ownerID sql.NullString
	var isShared int
	err := s.db.QueryRow(`
		SELECT id, name, owner_id, is_shared, created_at, updated_at
		FROM workspaces WHERE id = ?
	`, id).Scan(&w.ID, &w.Name, &ownerID, &isShared, &w.CreatedAt, &w.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if ownerID.Valid {
		w.OwnerID = ownerID.String
	}
	w.IsShared = isShared != 0
	return &w, nil
}

// ListWorkspaces returns all workspaces ordered by name.
func (s *SQLiteStore) ListWorkspaces() ([]*Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, name, owner_id, is_shared, created_at, updated_at
		FROM workspaces ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workspaces []*Workspace
	for rows.Next() {
		var w Workspace
		var ownerID sql.NullString
		var isShared int
		if err := rows.Scan(&w.ID, &w.Name, &ownerID, &isShared, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		if ownerID.Valid {
			w.OwnerID = ownerID.String
		}
		w.IsShared = isShared != 0
		workspaces = append(workspaces, &w)
	}
	return workspaces, rows.Err()
}

// DeleteWorkspace removes a workspace together with its files and tasks.
func (s *SQLiteStore) DeleteWorkspace(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM files WHERE workspace_id = ?`, id); err != nil {
		return err
	}
	if s.useFTS {
		if _, err := s.db.Exec(`DELETE FROM files_fts WHERE workspace_id = ?`, id); err != nil {
			return err
		}
	}
	if _, err := s.db.Exec(`DELETE FROM tasks WHERE workspace_id = ?`, id); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM workspaces WHERE id = ?`, id)
	return err
}

// =============================================================================
// Task CRUD
// =============================================================================

// UpsertTask inserts or replaces a task.
func (s *SQLiteStore) UpsertTask(task *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if task.Status == "" {
		task.Status = TaskTodo
	}
	if task.Priority == "" {
		task.Priority = PriorityMedium
	}
	tags, err := json.Marshal(task.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO tasks (id, workspace_id, title, description, status, priority,
			tags, due_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, task.ID, task.WorkspaceID, task.Title, nullString(task.Description),
		task.Status, task.Priority, string(tags), task.DueAt, task.CreatedAt, task.UpdatedAt)
	return err
}

func scanTask(row rowScanner) (*Task, error) {
	var task Task
	var description, tags sql.NullString
	var dueAt sql.NullInt64

	err := row.Scan(&task.ID, &task.WorkspaceID, &task.Title, &description,
		&task.Status, &task.Priority, &tags, &dueAt, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		task.Description = description.String
	}
	if dueAt.Valid {
		task.DueAt = &dueAt.Int64
	}
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &task.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}
	if task.Tags == nil {
		task.Tags = []string{}
	}
	return &task, nil
}

// GetTask retrieves a task by ID. Returns (nil, nil) when missing.
func (s *SQLiteStore) GetTask(id string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, err := scanTask(s.db.QueryRow(`
		SELECT id, workspace_id, title, description, status, priority, tags, due_at, created_at, updated_at
		FROM tasks WHERE id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return task, err
}

// DeleteTask removes a task.
func (s *SQLiteStore) DeleteTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	return err
}

// ListTasks returns all tasks in a workspace, most recently updated first.
func (s *SQLiteStore) ListTasks(workspaceID string) ([]*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, workspace_id, title, description, status, priority, tags, due_at, created_at, updated_at
		FROM tasks WHERE workspace_id = ? ORDER BY updated_at DESC
	`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// CountTasks returns the number of tasks across all workspaces.
func (s *SQLiteStore) CountTasks() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM tasks`).Scan(&count)
	return count, err
}

// =============================================================================
// Helpers
// =============================================================================

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
