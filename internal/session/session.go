// Package session provides in-memory conversation history keyed by an
// opaque session identifier.
//
// Responsibilities: lazy per-key creation, append-only turn history,
// explicit deletion. History is memory-resident only and lost on restart.
//
// Thread safety: the Store guards its map with a short-lived lock; each
// History carries its own lock, so turns on different sessions never
// contend. Concurrent turns on the SAME session serialize through the
// History lock.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Turn is one (user message, assistant response) pair. Turns are never
// mutated after being appended.
type Turn struct {
	User      string
	Assistant string
	At        time.Time
}

// History encapsulates one session's ordered turns with thread-safe access.
//
// Note: The zero value is NOT useful - histories are created by the Store.
type History struct {
	mu    sync.RWMutex
	turns []Turn
}

// Append adds a completed turn to the history.
func (h *History) Append(user, assistant string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, Turn{User: user, Assistant: assistant, At: time.Now()})
}

// Turns returns a copy of all turns in arrival order.
func (h *History) Turns() []Turn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Len returns the number of turns.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.turns)
}

// Store maps session IDs to histories. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*History
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*History)}
}

// GetOrCreate returns the history for id, creating an empty one on first
// access. Idempotent under concurrent calls: two callers racing on the same
// new id always observe the same History instance.
func (s *Store) GetOrCreate(id string) *History {
	s.mu.RLock()
	h, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return h
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Re-check under the write lock; another goroutine may have won the race.
	if h, ok := s.sessions[id]; ok {
		return h
	}
	h = &History{}
	s.sessions[id] = h
	return h
}

// Get returns the history for id without creating one.
func (s *Store) Get(id string) (*History, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.sessions[id]
	return h, ok
}

// Clear removes the session and its history. Returns true if the session
// existed; clearing an absent session is a no-op, not an error.
func (s *Store) Clear(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// NewID generates a fresh session identifier for callers that did not
// supply one. The ID is returned to the caller so follow-up turns reuse
// the session.
func NewID() string {
	return uuid.NewString()
}
