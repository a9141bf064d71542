// Package engine wires the storage, cache, graph, mentions, tree, sync and
// health layers into the single facade consumed by the HTTP API, the MCP
// server and the CLI.
package engine

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/notionspark/gospark/internal/store"
	syncq "github.com/notionspark/gospark/internal/sync"
	"github.com/notionspark/gospark/pkg/cache"
	"github.com/notionspark/gospark/pkg/docstore"
	"github.com/notionspark/gospark/pkg/graph"
	"github.com/notionspark/gospark/pkg/health"
	"github.com/notionspark/gospark/pkg/mentions"
	"github.com/notionspark/gospark/pkg/tasks"
	"github.com/notionspark/gospark/pkg/templates"
)

// Options configures a new Engine. Store is required; everything else has a
// working default.
type Options struct {
	Store     store.Storer
	Tracker   *syncq.Tracker
	Monitor   *health.Monitor
	Templates *templates.Registry
	CacheSize int
	CacheTTL  time.Duration
	Log       *logrus.Logger
}

// Engine is the application core.
type Engine struct {
	store     store.Storer
	files     *cache.Cache[*store.FileItem]
	docs      *docstore.Store
	graphs    *graph.Builder
	tasks     *tasks.Service
	templates *templates.Registry
	tracker   *syncq.Tracker
	monitor   *health.Monitor
	bus       *broadcaster
	log       *logrus.Entry

	dictMu     gosync.Mutex
	dict       *mentions.Dictionary
	candidates *mentions.CandidateRegistry

	now func() time.Time
}

func New(opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("engine: store is required")
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 512
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.Monitor == nil {
		opts.Monitor = health.NewMonitor(health.Thresholds{})
	}
	if opts.Log == nil {
		opts.Log = logrus.New()
	}
	if opts.Templates == nil {
		reg, err := templates.NewRegistry()
		if err != nil {
			return nil, err
		}
		opts.Templates = reg
	}

	e := &Engine{
		store:      opts.Store,
		files:      cache.New[*store.FileItem](opts.CacheSize, opts.CacheTTL),
		docs:       docstore.New(),
		graphs:     graph.NewBuilder(),
		tasks:      tasks.New(opts.Store),
		templates:  opts.Templates,
		tracker:    opts.Tracker,
		monitor:    opts.Monitor,
		bus:        newBroadcaster(),
		candidates: mentions.NewRegistry(0),
		log:        opts.Log.WithField("component", "engine"),
		now:        time.Now,
	}
	if err := e.rebuildDictionary(); err != nil {
		return nil, err
	}
	if err := e.hydrateDocs(); err != nil {
		return nil, err
	}
	return e, nil
}

// Templates exposes the template registry.
func (e *Engine) Templates() *templates.Registry { return e.templates }

// Subscribe returns a channel of workspace change events plus a cancel
// function. Slow consumers lose events instead of blocking writes.
func (e *Engine) Subscribe() (<-chan Event, func()) {
	return e.bus.subscribe()
}

// Health samples the runtime dashboard.
func (e *Engine) Health() health.Snapshot {
	return e.monitor.Snapshot()
}

// CacheStats reports the file cache counters.
func (e *Engine) CacheStats() cache.Stats {
	return e.files.Stats()
}

// SyncState reports the sync indicator. Without a tracker the instance is
// local-only and always reads synced.
func (e *Engine) SyncState() syncq.State {
	if e.tracker == nil {
		return syncq.State{Status: syncq.StatusSynced}
	}
	return e.tracker.State()
}

// SetOnline flips the sync connectivity flag. Coming back online replays the
// queued writes.
func (e *Engine) SetOnline(online bool) {
	if e.tracker == nil {
		return
	}
	e.tracker.SetOnline(online)
	if online {
		if _, err := e.tracker.Flush(context.Background()); err != nil {
			e.log.WithError(err).Warn("sync flush failed")
		}
	}
	e.bus.publish(Event{Type: EventSyncChanged})
}

// Export serializes every workspace to a JSON snapshot.
func (e *Engine) Export() ([]byte, error) {
	var data []byte
	err := e.monitor.Time("export", func() error {
		var err error
		data, err = e.store.Export()
		return err
	})
	return data, err
}

// Import replaces all data with the given snapshot, then rebuilds the
// caches and the mention dictionary.
func (e *Engine) Import(data []byte) error {
	err := e.monitor.Time("import", func() error {
		return e.store.Import(data)
	})
	if err != nil {
		return err
	}
	e.files.Purge()
	e.docs.Clear()
	if err := e.rebuildDictionary(); err != nil {
		return err
	}
	e.bus.publish(Event{Type: EventWorkspaceSet})
	return nil
}

// Close releases the event bus and the store.
func (e *Engine) Close() error {
	e.bus.close()
	return e.store.Close()
}

func (e *Engine) record(op syncq.OpKind, workspaceID, entityID string, payload any) {
	if e.tracker == nil {
		return
	}
	e.tracker.RecordChange(newID(), op, workspaceID, entityID, payload)
}
