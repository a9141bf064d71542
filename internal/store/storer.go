package store

// Storer is the persistence interface consumed by the engine, HTTP API and
// MCP server. Depend on this rather than the concrete *SQLiteStore to keep
// tests free to substitute fakes.
type Storer interface {
	// Files
	CreateFile(file *FileItem) error
	UpdateFile(file *FileItem, reason string) error
	UpsertFile(file *FileItem) error
	GetFile(id string) (*FileItem, error)
	GetFileVersion(id string, version int) (*FileItem, error)
	GetFileAtTime(id string, timestamp int64) (*FileItem, error)
	ListFileVersions(id string) ([]*FileItem, error)
	RestoreFileVersion(id string, version int, now int64) error
	DeleteFile(id string) error
	ListFiles(workspaceID string) ([]*FileItem, error)
	ListChildren(workspaceID, parentID string) ([]*FileItem, error)
	CountFiles() (int, error)

	// Search
	SearchFiles(query string, opts *SearchOptions) ([]*SearchHit, error)

	// Workspaces
	UpsertWorkspace(w *Workspace) error
	GetWorkspace(id string) (*Workspace, error)
	ListWorkspaces() ([]*Workspace, error)
	DeleteWorkspace(id string) error

	// Tasks
	UpsertTask(task *Task) error
	GetTask(id string) (*Task, error)
	DeleteTask(id string) error
	ListTasks(workspaceID string) ([]*Task, error)
	CountTasks() (int, error)

	// Snapshots
	Export() ([]byte, error)
	Import(data []byte) error

	Close() error
}

// Compile-time interface check
var _ Storer = (*SQLiteStore)(nil)
