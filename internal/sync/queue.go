// Package sync queues offline writes on disk and reports sync status for
// the workspace indicator (synced, pending or offline).
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	gosync "sync"
	"time"
)

var ErrInvalidInput = errors.New("sync: invalid input")

// OpKind is the write operation being replayed.
type OpKind string

const (
	OpUpsertFile      OpKind = "upsert_file"
	OpDeleteFile      OpKind = "delete_file"
	OpUpsertTask      OpKind = "upsert_task"
	OpDeleteTask      OpKind = "delete_task"
	OpUpsertWorkspace OpKind = "upsert_workspace"
)

// Op is one queued write awaiting push to the remote.
type Op struct {
	ID          string          `json:"id"`
	Kind        OpKind          `json:"kind"`
	WorkspaceID string          `json:"workspaceId"`
	EntityID    string          `json:"entityId"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	EnqueuedAt  time.Time       `json:"enqueuedAt"`
}

// Queue is a bounded write queue that survives restarts.
type Queue interface {
	TryEnqueue(op Op) bool
	Enqueue(ctx context.Context, op Op) bool
	Dequeue(ctx context.Context) (Op, bool)
	Requeue(op Op) bool
	Depth() int
	Capacity() int
	Snapshot() []Op
	Close() error
}

type fileQueue struct {
	path         string
	capacity     int
	pollInterval time.Duration
	mu           gosync.Mutex
	items        []Op
}

type fileQueueState struct {
	Items []Op `json:"items"`
}

// NewFileQueue opens (or creates) a queue persisted at path. Items beyond
// capacity found on load are dropped oldest-first.
func NewFileQueue(path string, capacity int) (Queue, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrInvalidInput
	}
	if capacity <= 0 {
		capacity = 1024
	}
	q := &fileQueue{
		path:         path,
		capacity:     capacity,
		pollInterval: 10 * time.Millisecond,
		items:        []Op{},
	}
	if err := q.load(); err != nil {
		return nil, err
	}
	return q, nil
}

func (q *fileQueue) TryEnqueue(op Op) bool {
	if strings.TrimSpace(op.ID) == "" || op.Kind == "" {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= q.capacity {
		return false
	}
	if op.EnqueuedAt.IsZero() {
		op.EnqueuedAt = time.Now().UTC()
	}
	q.items = append(q.items, op)
	if err := q.saveLocked(); err != nil {
		q.items = q.items[:len(q.items)-1]
		return false
	}
	return true
}

func (q *fileQueue) Enqueue(ctx context.Context, op Op) bool {
	for {
		if q.TryEnqueue(op) {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(q.pollInterval):
		}
	}
}

func (q *fileQueue) Dequeue(ctx context.Context) (Op, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items = q.items[1:]
			if err := q.saveLocked(); err != nil {
				q.items = append([]Op{item}, q.items...)
				q.mu.Unlock()
				select {
				case <-ctx.Done():
					return Op{}, false
				case <-time.After(q.pollInterval):
					continue
				}
			}
			q.mu.Unlock()
			return item, true
		}
		q.mu.Unlock()
		select {
		case <-ctx.Done():
			return Op{}, false
		case <-time.After(q.pollInterval):
		}
	}
}

// Requeue puts a just-dequeued op back at the head so replay order holds on
// the next flush. It may exceed capacity by one: dropping a failed push
// would lose the write entirely.
func (q *fileQueue) Requeue(op Op) bool {
	if strings.TrimSpace(op.ID) == "" || op.Kind == "" {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append([]Op{op}, q.items...)
	if err := q.saveLocked(); err != nil {
		q.items = q.items[1:]
		return false
	}
	return true
}

func (q *fileQueue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *fileQueue) Capacity() int {
	return q.capacity
}

func (q *fileQueue) Snapshot() []Op {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Op(nil), q.items...)
}

func (q *fileQueue) Close() error {
	return nil
}

func (q *fileQueue) load() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	data, err := os.ReadFile(q.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	var snapshot fileQueueState
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return err
	}
	if len(snapshot.Items) > q.capacity {
		q.items = append([]Op(nil), snapshot.Items[len(snapshot.Items)-q.capacity:]...)
		return q.saveLocked()
	}
	q.items = append([]Op(nil), snapshot.Items...)
	return nil
}

func (q *fileQueue) saveLocked() error {
	snapshot := fileQueueState{
		Items: append([]Op(nil), q.items...),
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(q.path), 0o755); err != nil {
		return err
	}
	tmp := q.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, q.path)
}
