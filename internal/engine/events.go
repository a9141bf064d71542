package engine

import (
	"sync"
	"time"
)

// EventType names a workspace change pushed to subscribers.
type EventType string

const (
	EventFileCreated  EventType = "file.created"
	EventFileUpdated  EventType = "file.updated"
	EventFileMoved    EventType = "file.moved"
	EventFileDeleted  EventType = "file.deleted"
	EventTaskChanged  EventType = "task.changed"
	EventSyncChanged  EventType = "sync.changed"
	EventWorkspaceSet EventType = "workspace.updated"
)

// Event is one change notification.
type Event struct {
	Type        EventType `json:"type"`
	WorkspaceID string    `json:"workspaceId"`
	EntityID    string    `json:"entityId,omitempty"`
	At          time.Time `json:"at"`
}

// broadcaster fans events out to subscribers. Slow subscribers drop events
// rather than block writers.
type broadcaster struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[chan Event]struct{})}
}

func (b *broadcaster) subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 32)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

func (b *broadcaster) publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	b.mu.Lock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	b.mu.Unlock()
}

func (b *broadcaster) close() {
	b.mu.Lock()
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}
