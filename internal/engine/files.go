package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/notionspark/gospark/internal/store"
	syncq "github.com/notionspark/gospark/internal/sync"
	"github.com/notionspark/gospark/pkg/docstore"
	"github.com/notionspark/gospark/pkg/graph"
	"github.com/notionspark/gospark/pkg/mentions"
	"github.com/notionspark/gospark/pkg/templates"
	"github.com/notionspark/gospark/pkg/tree"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

func newID() string { return uuid.NewString() }

// CreateFileInput describes a new file, folder or database page.
type CreateFileInput struct {
	WorkspaceID string
	Name        string
	Type        store.FileType
	ParentID    string
	Content     string
	Tags        []string
	TemplateID  string
}

// CreateFile validates the parent, optionally renders a template into the
// content, and persists version 1.
func (e *Engine) CreateFile(in CreateFileInput) (*store.FileItem, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.WorkspaceID == "" {
		return nil, fmt.Errorf("%w: workspace is required", ErrInvalidInput)
	}
	if in.Type == "" {
		in.Type = store.TypeFile
	}

	if in.ParentID != "" {
		parent, err := e.store.GetFile(in.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, fmt.Errorf("parent %s: %w", in.ParentID, ErrNotFound)
		}
		if !parent.IsContainer() {
			return nil, tree.ErrNotContainer
		}
	}

	content := in.Content
	if in.TemplateID != "" {
		tpl, ok := e.templates.Get(in.TemplateID)
		if !ok {
			return nil, fmt.Errorf("template %s: %w", in.TemplateID, ErrNotFound)
		}
		ws, err := e.store.GetWorkspace(in.WorkspaceID)
		if err != nil {
			return nil, err
		}
		wsName := in.WorkspaceID
		if ws != nil {
			wsName = ws.Name
		}
		content = templates.Render(tpl, templates.Vars{
			Title:     in.Name,
			Workspace: wsName,
			Now:       e.now(),
		})
		in.Tags = append(in.Tags, tpl.Tags...)
	}

	now := e.now().UnixMilli()
	file := &store.FileItem{
		ID:          newID(),
		WorkspaceID: in.WorkspaceID,
		Name:        strings.TrimSpace(in.Name),
		Type:        in.Type,
		ParentID:    in.ParentID,
		Content:     content,
		Tags:        in.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := e.monitor.Time("file.create", func() error {
		return e.store.CreateFile(file)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	e.afterFileWrite(file, syncq.OpUpsertFile, EventFileCreated, true)
	return file, nil
}

// GetFile reads through the TTL cache.
func (e *Engine) GetFile(id string) (*store.FileItem, error) {
	if f, ok := e.files.Get(id); ok {
		return f, nil
	}
	f, err := e.store.GetFile(id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("file %s: %w", id, ErrNotFound)
	}
	e.files.Add(id, f)
	return f, nil
}

// UpdateFileInput carries the editable fields. Nil pointers leave the field
// unchanged.
type UpdateFileInput struct {
	Name     *string
	Content  *string
	Tags     *[]string
	IsPinned *bool
	Favorite *bool
	Reason   string
}

// UpdateFile writes a new version of the file.
func (e *Engine) UpdateFile(id string, in UpdateFileInput) (*store.FileItem, error) {
	file, err := e.GetFile(id)
	if err != nil {
		return nil, err
	}

	renamed := false
	updated := *file
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
		}
		renamed = name != updated.Name
		updated.Name = name
	}
	if in.Content != nil {
		updated.Content = *in.Content
	}
	if in.Tags != nil {
		updated.Tags = *in.Tags
	}
	if in.IsPinned != nil {
		updated.IsPinned = *in.IsPinned
	}
	if in.Favorite != nil {
		updated.Favorite = *in.Favorite
	}
	updated.UpdatedAt = e.now().UnixMilli()

	reason := in.Reason
	if reason == "" {
		reason = "edit"
	}
	err = e.monitor.Time("file.update", func() error {
		return e.store.UpdateFile(&updated, reason)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update file: %w", err)
	}

	e.afterFileWrite(&updated, syncq.OpUpsertFile, EventFileUpdated, renamed)
	return &updated, nil
}

// MoveFile re-parents a file after cycle and container validation.
func (e *Engine) MoveFile(id, newParentID string) (*store.FileItem, error) {
	file, err := e.GetFile(id)
	if err != nil {
		return nil, err
	}

	items, err := e.treeItems(file.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if err := tree.ValidateMove(items, id, newParentID); err != nil {
		return nil, err
	}

	updated := *file
	updated.ParentID = newParentID
	updated.UpdatedAt = e.now().UnixMilli()
	err = e.monitor.Time("file.move", func() error {
		return e.store.UpdateFile(&updated, "move")
	})
	if err != nil {
		return nil, fmt.Errorf("failed to move file: %w", err)
	}

	e.afterFileWrite(&updated, syncq.OpUpsertFile, EventFileMoved, false)
	return &updated, nil
}

// DeleteFile removes a file; folders are deleted depth-first with their
// children.
func (e *Engine) DeleteFile(id string) error {
	file, err := e.GetFile(id)
	if err != nil {
		return err
	}

	if file.IsContainer() {
		children, err := e.store.ListChildren(file.WorkspaceID, id)
		if err != nil {
			return err
		}
		for _, child := range children {
			if err := e.DeleteFile(child.ID); err != nil {
				return err
			}
		}
	}

	err = e.monitor.Time("file.delete", func() error {
		return e.store.DeleteFile(id)
	})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	e.files.Invalidate(id)
	e.docs.Remove(id)
	e.graphs.Invalidate(id)
	e.record(syncq.OpDeleteFile, file.WorkspaceID, id, nil)
	e.bus.publish(Event{Type: EventFileDeleted, WorkspaceID: file.WorkspaceID, EntityID: id})
	if err := e.rebuildDictionary(); err != nil {
		e.log.WithError(err).Warn("failed to rebuild mention dictionary")
	}
	return nil
}

// RestoreFileVersion reactivates an old version as the newest one.
func (e *Engine) RestoreFileVersion(id string, version int) (*store.FileItem, error) {
	if err := e.store.RestoreFileVersion(id, version, e.now().UnixMilli()); err != nil {
		return nil, err
	}
	e.files.Invalidate(id)
	e.graphs.Invalidate(id)
	file, err := e.GetFile(id)
	if err != nil {
		return nil, err
	}
	if file.Type == store.TypeFile {
		e.docs.Upsert(docFor(file))
	}
	e.record(syncq.OpUpsertFile, file.WorkspaceID, id, file)
	e.bus.publish(Event{Type: EventFileUpdated, WorkspaceID: file.WorkspaceID, EntityID: id})
	return file, nil
}

// FileVersions lists the full version history, newest first.
func (e *Engine) FileVersions(id string) ([]*store.FileItem, error) {
	return e.store.ListFileVersions(id)
}

// ListChildren returns the current items under parentID ("" for roots).
func (e *Engine) ListChildren(workspaceID, parentID string) ([]*store.FileItem, error) {
	return e.store.ListChildren(workspaceID, parentID)
}

// Tree builds the workspace file tree.
func (e *Engine) Tree(workspaceID string) (*tree.Tree, error) {
	items, err := e.treeItems(workspaceID)
	if err != nil {
		return nil, err
	}
	return tree.Build(items), nil
}

// CheckIntegrity audits the parent chain without mutating anything.
func (e *Engine) CheckIntegrity(workspaceID string) (*tree.IntegrityReport, error) {
	items, err := e.treeItems(workspaceID)
	if err != nil {
		return nil, err
	}
	return tree.CheckIntegrity(items), nil
}

func (e *Engine) treeItems(workspaceID string) ([]tree.Item, error) {
	files, err := e.store.ListFiles(workspaceID)
	if err != nil {
		return nil, err
	}
	items := make([]tree.Item, len(files))
	for i, f := range files {
		items[i] = tree.Item{
			ID:        f.ID,
			Name:      f.Name,
			Type:      string(f.Type),
			ParentID:  f.ParentID,
			SortOrder: f.SortOrder,
		}
	}
	return items, nil
}

// Search runs full-text search over names and content.
func (e *Engine) Search(query string, opts *store.SearchOptions) ([]*store.SearchHit, error) {
	var hits []*store.SearchHit
	err := e.monitor.Time("search", func() error {
		var err error
		hits, err = e.store.SearchFiles(query, opts)
		return err
	})
	return hits, err
}

// Graph builds the wikilink/tag graph of a workspace.
func (e *Engine) Graph(workspaceID string) (*graph.Graph, error) {
	docs, err := e.graphDocs(workspaceID)
	if err != nil {
		return nil, err
	}
	var g *graph.Graph
	err = e.monitor.Time("graph", func() error {
		g = e.graphs.Build(docs)
		return nil
	})
	return g, err
}

// Backlinks lists the IDs of files that link to fileID.
func (e *Engine) Backlinks(workspaceID, fileID string) ([]string, error) {
	docs, err := e.graphDocs(workspaceID)
	if err != nil {
		return nil, err
	}
	return e.graphs.Backlinks(docs, fileID), nil
}

// graphDocs reads the scannable documents of a workspace from the hydrated
// in-memory layer; SQLite is only touched when the layer has nothing for the
// workspace yet.
func (e *Engine) graphDocs(workspaceID string) ([]graph.Doc, error) {
	hydrated := e.docs.ByWorkspace(workspaceID)
	if len(hydrated) == 0 {
		if err := e.hydrateDocs(); err != nil {
			return nil, err
		}
		hydrated = e.docs.ByWorkspace(workspaceID)
	}
	docs := make([]graph.Doc, 0, len(hydrated))
	for _, d := range hydrated {
		docs = append(docs, graph.Doc{
			ID:        d.ID,
			Name:      d.Name,
			Tags:      d.Tags,
			Content:   d.Text,
			UpdatedAt: d.UpdatedAt,
		})
	}
	return docs, nil
}

// Suggestions proposes wikilinks for unlinked mentions in the file. The
// text is scanned from the hydrated document layer when present.
func (e *Engine) Suggestions(fileID string) ([]mentions.Suggestion, error) {
	text := ""
	if doc := e.docs.Get(fileID); doc != nil {
		text = doc.Text
	} else {
		file, err := e.GetFile(fileID)
		if err != nil {
			return nil, err
		}
		text = file.Content
	}
	e.dictMu.Lock()
	dict := e.dict
	e.dictMu.Unlock()
	if dict == nil {
		return nil, nil
	}
	return dict.Suggest(fileID, text), nil
}

// Workspaces

func (e *Engine) CreateWorkspace(name string) (*store.Workspace, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	now := e.now().UnixMilli()
	ws := &store.Workspace{
		ID:        newID(),
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.store.UpsertWorkspace(ws); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	e.record(syncq.OpUpsertWorkspace, ws.ID, ws.ID, ws)
	e.bus.publish(Event{Type: EventWorkspaceSet, WorkspaceID: ws.ID})
	return ws, nil
}

func (e *Engine) GetWorkspace(id string) (*store.Workspace, error) {
	ws, err := e.store.GetWorkspace(id)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, fmt.Errorf("workspace %s: %w", id, ErrNotFound)
	}
	return ws, nil
}

func (e *Engine) ListWorkspaces() ([]*store.Workspace, error) {
	return e.store.ListWorkspaces()
}

func (e *Engine) DeleteWorkspace(id string) error {
	if err := e.store.DeleteWorkspace(id); err != nil {
		return err
	}
	e.files.Purge()
	e.docs.Clear()
	e.bus.publish(Event{Type: EventWorkspaceSet, WorkspaceID: id})
	return e.rebuildDictionary()
}

// afterFileWrite refreshes caches and notifies subscribers after a
// successful write. A rename changes the mention dictionary.
func (e *Engine) afterFileWrite(f *store.FileItem, op syncq.OpKind, ev EventType, renamed bool) {
	e.files.Add(f.ID, f)
	if f.Type == store.TypeFile {
		e.docs.Upsert(docFor(f))
		e.observeCandidates(f)
	}
	e.graphs.Invalidate(f.ID)
	e.record(op, f.WorkspaceID, f.ID, f)
	e.bus.publish(Event{Type: ev, WorkspaceID: f.WorkspaceID, EntityID: f.ID})
	if renamed {
		if err := e.rebuildDictionary(); err != nil {
			e.log.WithError(err).Warn("failed to rebuild mention dictionary")
		}
	}
}

func docFor(f *store.FileItem) docstore.Document {
	return docstore.Document{
		ID:          f.ID,
		WorkspaceID: f.WorkspaceID,
		Name:        f.Name,
		Text:        f.Content,
		Tags:        f.Tags,
		UpdatedAt:   f.UpdatedAt,
	}
}

// hydrateDocs loads every current file into the document layer.
func (e *Engine) hydrateDocs() error {
	workspaces, err := e.store.ListWorkspaces()
	if err != nil {
		return err
	}
	var docs []docstore.Document
	for _, ws := range workspaces {
		files, err := e.store.ListFiles(ws.ID)
		if err != nil {
			return err
		}
		for _, f := range files {
			if f.Type != store.TypeFile {
				continue
			}
			docs = append(docs, docFor(f))
		}
	}
	e.docs.Clear()
	e.docs.Hydrate(docs)
	return nil
}

// observeCandidates feeds saved note text to the new-note candidate
// registry. Terms that already match a file name are skipped inside
// ObserveText.
func (e *Engine) observeCandidates(f *store.FileItem) {
	e.dictMu.Lock()
	defer e.dictMu.Unlock()
	e.candidates.ObserveText(e.dict, f.Content)
}

// PromotedCandidates lists capitalized terms seen often enough across notes
// to be offered as new-note suggestions.
func (e *Engine) PromotedCandidates() []string {
	e.dictMu.Lock()
	defer e.dictMu.Unlock()
	return e.candidates.Promoted()
}

// rebuildDictionary recompiles the mention matcher over all current file
// names.
func (e *Engine) rebuildDictionary() error {
	workspaces, err := e.store.ListWorkspaces()
	if err != nil {
		return err
	}
	var refs []mentions.FileRef
	for _, ws := range workspaces {
		files, err := e.store.ListFiles(ws.ID)
		if err != nil {
			return err
		}
		for _, f := range files {
			if f.Type != store.TypeFile {
				continue
			}
			refs = append(refs, mentions.FileRef{ID: f.ID, Name: f.Name})
		}
	}
	dict, err := mentions.Compile(refs)
	if err != nil {
		return fmt.Errorf("failed to compile mention dictionary: %w", err)
	}
	e.dictMu.Lock()
	e.dict = dict
	e.dictMu.Unlock()
	return nil
}
