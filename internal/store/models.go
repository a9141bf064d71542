// Package store provides SQLite-backed persistence for GoSpark.
// This is the unified data layer behind the workspace, file tree,
// task board and search surfaces.
package store

// FileType categorizes items in the workspace tree.
type FileType string

const (
	TypeFile     FileType = "file"
	TypeFolder   FileType = "folder"
	TypeDatabase FileType = "database"
)

// FileItem represents a versioned file, folder or database page.
// Uses the temporal table pattern for full version history.
type FileItem struct {
	ID          string   `json:"id"`
	Version     int      `json:"version"`
	WorkspaceID string   `json:"workspaceId"`
	Name        string   `json:"name"`
	Type        FileType `json:"type"`
	ParentID    string   `json:"parentId,omitempty"`
	Content     string   `json:"content"`
	Tags        []string `json:"tags"`
	IsPinned    bool     `json:"isPinned"`
	Favorite    bool     `json:"favorite"`
	SortOrder   float64  `json:"sortOrder"`
	CreatedAt   int64    `json:"createdAt"`
	UpdatedAt   int64    `json:"updatedAt"`

	// Temporal fields for version tracking
	ValidFrom    int64  `json:"validFrom"`
	ValidTo      *int64 `json:"validTo,omitempty"`
	IsCurrent    bool   `json:"isCurrent"`
	ChangeReason string `json:"changeReason,omitempty"`
}

// IsContainer reports whether the item may hold children.
func (f *FileItem) IsContainer() bool {
	return f.Type == TypeFolder || f.Type == TypeDatabase
}

// Workspace is a named collection of files, optionally shared.
type Workspace struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"ownerId,omitempty"`
	IsShared  bool   `json:"isShared"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// TaskStatus is the completion state of a task.
type TaskStatus string

const (
	TaskTodo TaskStatus = "todo"
	TaskDone TaskStatus = "done"
)

// TaskPriority orders tasks on the board.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// Task is an independent CRUD entity with no relation to FileItem.
type Task struct {
	ID          string       `json:"id"`
	WorkspaceID string       `json:"workspaceId"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	Tags        []string     `json:"tags"`
	DueAt       *int64       `json:"dueAt,omitempty"`
	CreatedAt   int64        `json:"createdAt"`
	UpdatedAt   int64        `json:"updatedAt"`
}

// SearchHit is a single full-text search result.
type SearchHit struct {
	FileID  string `json:"fileId"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Snippet string `json:"snippet,omitempty"`
}

// SearchOptions narrows a full-text search.
type SearchOptions struct {
	WorkspaceID string
	Type        FileType
	Limit       int
}
