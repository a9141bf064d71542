package sync

import (
	"context"
	"encoding/json"
	"fmt"
	gosync "sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Status is the connectivity badge shown next to the workspace name.
type Status string

const (
	StatusSynced  Status = "synced"
	StatusPending Status = "pending"
	StatusOffline Status = "offline"
)

// RemotePusher sends one queued write to the remote. A nil pusher means the
// instance runs local-only and queued ops stay pending.
type RemotePusher interface {
	Push(ctx context.Context, op Op) error
}

// State is a point-in-time view of the sync indicator.
type State struct {
	Status       Status     `json:"status"`
	PendingCount int        `json:"pendingCount"`
	QueueDepth   int        `json:"queueDepth"`
	LastSyncedAt *time.Time `json:"lastSyncedAt,omitempty"`
	LastError    string     `json:"lastError,omitempty"`
}

// Tracker owns the offline queue and the online/offline state machine.
type Tracker struct {
	queue  Queue
	pusher RemotePusher
	log    *logrus.Entry

	mu           gosync.Mutex
	online       bool
	lastSyncedAt *time.Time
	lastError    string
}

func NewTracker(queue Queue, pusher RemotePusher, log *logrus.Logger) *Tracker {
	if log == nil {
		log = logrus.New()
	}
	return &Tracker{
		queue:  queue,
		pusher: pusher,
		log:    log.WithField("component", "sync"),
		online: true,
	}
}

// Record enqueues a write for later push. The write has already been applied
// locally; a full queue only means the remote copy lags further behind.
func (t *Tracker) Record(op Op) {
	if !t.queue.TryEnqueue(op) {
		t.log.WithFields(logrus.Fields{
			"kind":  op.Kind,
			"depth": t.queue.Depth(),
		}).Warn("sync queue full, dropping op")
	}
}

// RecordChange is a convenience wrapper that marshals the payload.
func (t *Tracker) RecordChange(id string, kind OpKind, workspaceID, entityID string, payload any) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.log.WithError(err).Warn("failed to encode sync payload")
			return
		}
		raw = data
	}
	t.Record(Op{
		ID:          id,
		Kind:        kind,
		WorkspaceID: workspaceID,
		EntityID:    entityID,
		Payload:     raw,
	})
}

// SetOnline flips the connectivity flag reported by State.
func (t *Tracker) SetOnline(online bool) {
	t.mu.Lock()
	changed := t.online != online
	t.online = online
	t.mu.Unlock()
	if changed {
		t.log.WithField("online", online).Info("connectivity changed")
	}
}

// Flush pushes queued ops until the queue drains, an op fails, or ctx ends.
// Returns the number of ops pushed.
func (t *Tracker) Flush(ctx context.Context) (int, error) {
	if t.pusher == nil {
		return 0, nil
	}
	pushed := 0
	for {
		if t.queue.Depth() == 0 {
			break
		}
		op, ok := t.queue.Dequeue(ctx)
		if !ok {
			return pushed, ctx.Err()
		}
		if err := t.pusher.Push(ctx, op); err != nil {
			// Back to the head so the next flush retries this op before
			// anything newer touches the same entity.
			if !t.queue.Requeue(op) {
				t.log.WithFields(logrus.Fields{
					"kind":   op.Kind,
					"entity": op.EntityID,
				}).Error("failed to requeue op after push failure")
			}
			t.setError(err)
			return pushed, fmt.Errorf("failed to push %s: %w", op.Kind, err)
		}
		pushed++
	}
	now := time.Now().UTC()
	t.mu.Lock()
	t.lastSyncedAt = &now
	t.lastError = ""
	t.mu.Unlock()
	if pushed > 0 {
		t.log.WithField("pushed", pushed).Debug("sync flush complete")
	}
	return pushed, nil
}

func (t *Tracker) setError(err error) {
	t.mu.Lock()
	t.lastError = err.Error()
	t.mu.Unlock()
}

// State reports the indicator badge: offline wins over pending, pending wins
// over synced.
func (t *Tracker) State() State {
	t.mu.Lock()
	online := t.online
	lastSynced := t.lastSyncedAt
	lastErr := t.lastError
	t.mu.Unlock()

	depth := t.queue.Depth()
	s := State{
		PendingCount: depth,
		QueueDepth:   depth,
		LastSyncedAt: lastSynced,
		LastError:    lastErr,
	}
	switch {
	case !online:
		s.Status = StatusOffline
	case depth > 0:
		s.Status = StatusPending
	default:
		s.Status = StatusSynced
	}
	return s
}
