package engine

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notionspark/gospark/internal/store"
	syncq "github.com/notionspark/gospark/internal/sync"
	"github.com/notionspark/gospark/pkg/tasks"
	"github.com/notionspark/gospark/pkg/tree"
)

func newTestEngine(t *testing.T) (*Engine, *store.Workspace) {
	t.Helper()
	st, err := store.NewSQLiteStore()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	q, err := syncq.NewFileQueue(filepath.Join(t.TempDir(), "queue.json"), 64)
	require.NoError(t, err)

	e, err := New(Options{
		Store:   st,
		Tracker: syncq.NewTracker(q, nil, nil),
	})
	require.NoError(t, err)

	ws, err := e.CreateWorkspace("Personal")
	require.NoError(t, err)
	return e, ws
}

func TestCreateAndGetFile(t *testing.T) {
	e, ws := newTestEngine(t)

	f, err := e.CreateFile(CreateFileInput{
		WorkspaceID: ws.ID,
		Name:        "Project Roadmap",
		Content:     "Planning for [[Q3 Goals]].",
		Tags:        []string{"planning"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.Version)

	got, err := e.GetFile(f.ID)
	require.NoError(t, err)
	assert.Equal(t, "Project Roadmap", got.Name)

	// Create primes the cache, so both reads are hits.
	_, err = e.GetFile(f.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), e.CacheStats().Hits)
}

func TestCreateFileRejectsNonContainerParent(t *testing.T) {
	e, ws := newTestEngine(t)

	leaf, err := e.CreateFile(CreateFileInput{WorkspaceID: ws.ID, Name: "Note"})
	require.NoError(t, err)

	_, err = e.CreateFile(CreateFileInput{WorkspaceID: ws.ID, Name: "Child", ParentID: leaf.ID})
	assert.ErrorIs(t, err, tree.ErrNotContainer)

	_, err = e.CreateFile(CreateFileInput{WorkspaceID: ws.ID, Name: ""})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateFileFromTemplate(t *testing.T) {
	e, ws := newTestEngine(t)
	e.now = func() time.Time { return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC) }

	f, err := e.CreateFile(CreateFileInput{
		WorkspaceID: ws.ID,
		Name:        "Sprint Review",
		TemplateID:  "meeting-notes",
	})
	require.NoError(t, err)
	assert.Contains(t, f.Content, "# Sprint Review")
	assert.Contains(t, f.Content, "2025-06-01")
	assert.Contains(t, f.Content, "Personal")
	assert.Contains(t, f.Tags, "meeting")

	_, err = e.CreateFile(CreateFileInput{WorkspaceID: ws.ID, Name: "X", TemplateID: "nope"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateFileVersionsAndCache(t *testing.T) {
	e, ws := newTestEngine(t)

	f, err := e.CreateFile(CreateFileInput{WorkspaceID: ws.ID, Name: "Note", Content: "v1"})
	require.NoError(t, err)

	content := "v2"
	updated, err := e.UpdateFile(f.ID, UpdateFileInput{Content: &content})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)

	got, err := e.GetFile(f.ID)
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Content)

	versions, err := e.FileVersions(f.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 2)
}

func TestMoveFileValidation(t *testing.T) {
	e, ws := newTestEngine(t)

	folder, err := e.CreateFile(CreateFileInput{WorkspaceID: ws.ID, Name: "Projects", Type: store.TypeFolder})
	require.NoError(t, err)
	sub, err := e.CreateFile(CreateFileInput{WorkspaceID: ws.ID, Name: "Archive", Type: store.TypeFolder, ParentID: folder.ID})
	require.NoError(t, err)

	// Moving a folder under its own descendant must fail.
	_, err = e.MoveFile(folder.ID, sub.ID)
	assert.ErrorIs(t, err, tree.ErrCreatesCycle)

	note, err := e.CreateFile(CreateFileInput{WorkspaceID: ws.ID, Name: "Note"})
	require.NoError(t, err)
	moved, err := e.MoveFile(note.ID, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, moved.ParentID)

	tr, err := e.Tree(ws.ID)
	require.NoError(t, err)
	path, err := tr.Path(note.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Projects", "Archive", "Note"}, path)
}

func TestDeleteFolderCascades(t *testing.T) {
	e, ws := newTestEngine(t)

	folder, err := e.CreateFile(CreateFileInput{WorkspaceID: ws.ID, Name: "Projects", Type: store.TypeFolder})
	require.NoError(t, err)
	child, err := e.CreateFile(CreateFileInput{WorkspaceID: ws.ID, Name: "Note", ParentID: folder.ID})
	require.NoError(t, err)

	require.NoError(t, e.DeleteFile(folder.ID))

	_, err = e.GetFile(child.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGraphAndBacklinks(t *testing.T) {
	e, ws := newTestEngine(t)

	target, err := e.CreateFile(CreateFileInput{WorkspaceID: ws.ID, Name: "Q3 Goals", Content: "Targets. #okr"})
	require.NoError(t, err)
	src, err := e.CreateFile(CreateFileInput{WorkspaceID: ws.ID, Name: "Roadmap", Content: "See [[Q3 Goals]]."})
	require.NoError(t, err)

	g, err := e.Graph(ws.ID)
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Len(t, g.Nodes, 3) // two files + one tag node
	assert.Len(t, g.Links, 2)

	back, err := e.Backlinks(ws.ID, target.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{src.ID}, back)
}

func TestSuggestions(t *testing.T) {
	e, ws := newTestEngine(t)

	_, err := e.CreateFile(CreateFileInput{WorkspaceID: ws.ID, Name: "Acme Corp", Content: "Client profile."})
	require.NoError(t, err)
	note, err := e.CreateFile(CreateFileInput{WorkspaceID: ws.ID, Name: "Meeting", Content: "Call with Acme Corp tomorrow."})
	require.NoError(t, err)

	sugg, err := e.Suggestions(note.ID)
	require.NoError(t, err)
	require.Len(t, sugg, 1)
	assert.Equal(t, "Acme Corp", sugg[0].Text)
}

func TestSearchThroughEngine(t *testing.T) {
	e, ws := newTestEngine(t)

	_, err := e.CreateFile(CreateFileInput{WorkspaceID: ws.ID, Name: "Grocery List", Content: "milk eggs bread"})
	require.NoError(t, err)

	hits, err := e.Search("eggs", &store.SearchOptions{WorkspaceID: ws.ID})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Grocery List", hits[0].Name)

	// Search latency lands in the health snapshot.
	_, ok := e.Health().Ops["search"]
	assert.True(t, ok)
}

func TestSyncStateTransitions(t *testing.T) {
	e, ws := newTestEngine(t)

	// Workspace creation already queued an op.
	st := e.SyncState()
	assert.Equal(t, syncq.StatusPending, st.Status)
	assert.Positive(t, st.PendingCount)

	e.SetOnline(false)
	assert.Equal(t, syncq.StatusOffline, e.SyncState().Status)
	e.SetOnline(true)

	_, err := e.CreateFile(CreateFileInput{WorkspaceID: ws.ID, Name: "Note"})
	require.NoError(t, err)
	assert.Greater(t, e.SyncState().PendingCount, st.PendingCount)
}

func TestExportImportRoundTrip(t *testing.T) {
	e, ws := newTestEngine(t)

	f, err := e.CreateFile(CreateFileInput{WorkspaceID: ws.ID, Name: "Note", Content: "hello"})
	require.NoError(t, err)

	data, err := e.Export()
	require.NoError(t, err)

	require.NoError(t, e.DeleteFile(f.ID))
	require.NoError(t, e.Import(data))

	got, err := e.GetFile(f.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Content)
}

func TestSubscribeReceivesEvents(t *testing.T) {
	e, ws := newTestEngine(t)

	ch, cancel := e.Subscribe()
	defer cancel()

	f, err := e.CreateFile(CreateFileInput{WorkspaceID: ws.ID, Name: "Note"})
	require.NoError(t, err)

	select {
	case ev := <-ch:
		assert.Equal(t, EventFileCreated, ev.Type)
		assert.Equal(t, f.ID, ev.EntityID)
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestGetFileNotFound(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.GetFile("missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDocumentLayerTracksWrites(t *testing.T) {
	e, ws := newTestEngine(t)

	folder, err := e.CreateFile(CreateFileInput{WorkspaceID: ws.ID, Name: "Projects", Type: store.TypeFolder})
	require.NoError(t, err)
	note, err := e.CreateFile(CreateFileInput{WorkspaceID: ws.ID, Name: "Note", Content: "v1", ParentID: folder.ID})
	require.NoError(t, err)

	// Only scannable notes are hydrated; folders have no text to scan.
	docs := e.docs.ByWorkspace(ws.ID)
	require.Len(t, docs, 1)
	assert.Equal(t, note.ID, docs[0].ID)
	assert.Equal(t, "v1", docs[0].Text)

	content := "v2 with [[Elsewhere]]"
	_, err = e.UpdateFile(note.ID, UpdateFileInput{Content: &content})
	require.NoError(t, err)
	assert.Equal(t, content, e.docs.GetText(note.ID))

	// The graph reads the updated text from the document layer.
	g, err := e.Graph(ws.ID)
	require.NoError(t, err)
	require.Len(t, g.Broken, 1)
	assert.Equal(t, "Elsewhere", g.Broken[0].Target)

	require.NoError(t, e.DeleteFile(note.ID))
	assert.Nil(t, e.docs.Get(note.ID))
}

func TestDocumentLayerHydratesExistingData(t *testing.T) {
	st, err := store.NewSQLiteStore()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	e1, err := New(Options{Store: st})
	require.NoError(t, err)
	ws, err := e1.CreateWorkspace("Personal")
	require.NoError(t, err)
	note, err := e1.CreateFile(CreateFileInput{WorkspaceID: ws.ID, Name: "Note", Content: "persisted"})
	require.NoError(t, err)

	// A fresh engine over the same store hydrates the layer at startup.
	e2, err := New(Options{Store: st})
	require.NoError(t, err)
	assert.Equal(t, "persisted", e2.docs.GetText(note.ID))
}

func TestNewNoteCandidates(t *testing.T) {
	e, ws := newTestEngine(t)

	// The same unknown capitalized term across three saves gets promoted.
	for _, name := range []string{"One", "Two", "Three"} {
		_, err := e.CreateFile(CreateFileInput{WorkspaceID: ws.ID, Name: name, Content: "Ping Zephyr about this."})
		require.NoError(t, err)
	}
	assert.Contains(t, e.PromotedCandidates(), "Zephyr")
}

func TestTaskWritesQueueAndPublish(t *testing.T) {
	e, ws := newTestEngine(t)

	ch, cancel := e.Subscribe()
	defer cancel()
	before := e.SyncState().PendingCount

	task, err := e.CreateTask(tasks.CreateInput{WorkspaceID: ws.ID, Title: "Ship it"})
	require.NoError(t, err)
	assert.Greater(t, e.SyncState().PendingCount, before)

	select {
	case ev := <-ch:
		assert.Equal(t, EventTaskChanged, ev.Type)
		assert.Equal(t, task.ID, ev.EntityID)
	case <-time.After(time.Second):
		t.Fatal("no task event received")
	}

	during := e.SyncState().PendingCount
	require.NoError(t, e.DeleteTask(task.ID))
	assert.Greater(t, e.SyncState().PendingCount, during)

	_, err = e.GetTask(task.ID)
	assert.ErrorIs(t, err, tasks.ErrNotFound)
}
