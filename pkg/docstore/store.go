// Package docstore provides the in-memory document layer for GoSpark.
// File text is hydrated once from the store, then scanned on demand by the
// graph builder and the mention engine without touching SQLite.
package docstore

import (
	"sync"
)

// Store holds raw file documents in memory.
// Thread-safe for concurrent access from API handlers.
type Store struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// Document is the scannable slice of a file's state.
type Document struct {
	ID          string   // File ID
	WorkspaceID string   // Owning workspace
	Name        string   // File name, the wikilink resolution key
	Text        string   // Plain text content
	Tags        []string // Explicit tags from file metadata
	UpdatedAt   int64    // For change detection
}

// New creates an empty document store.
func New() *Store {
	return &Store{
		docs: make(map[string]*Document),
	}
}

// Hydrate bulk-loads documents into the store.
// Called once at startup with all files of a workspace.
func (s *Store) Hydrate(docs []Document) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range docs {
		doc := docs[i]
		s.docs[doc.ID] = &doc
	}
	return len(docs)
}

// Upsert adds or updates a single document.
// Called when a file is saved.
func (s *Store) Upsert(doc Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs[doc.ID] = &doc
}

// Remove deletes a document from the store.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.docs, id)
}

// Get retrieves a document by ID.
// Returns nil if not found.
func (s *Store) Get(id string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.docs[id]
}

// GetText retrieves just the text content by ID.
// Returns empty string if not found.
func (s *Store) GetText(id string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if doc, ok := s.docs[id]; ok {
		return doc.Text
	}
	return ""
}

// Count returns the number of documents in the store.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.docs)
}

// ByWorkspace returns a snapshot of the documents of one workspace, in
// unspecified order.
func (s *Store) ByWorkspace(workspaceID string) []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Document
	for _, doc := range s.docs {
		if doc.WorkspaceID == workspaceID {
			out = append(out, *doc)
		}
	}
	return out
}

// All returns a snapshot of every document, in unspecified order.
func (s *Store) All() []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Document, 0, len(s.docs))
	for _, doc := range s.docs {
		out = append(out, *doc)
	}
	return out
}

// Clear removes all documents.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs = make(map[string]*Document)
}
