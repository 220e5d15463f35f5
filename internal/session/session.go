// Package session holds the in-memory state of one user's document and conversation.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bull/pdfchat-server/internal/index"
)

// Turn is one (question, answer) exchange, ordered by submission time.
// Turns are append-only; they are never mutated or deleted except when the
// whole session resets.
type Turn struct {
	ID       string    `json:"id"`
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	AskedAt  time.Time `json:"asked_at"`
}

// Session aggregates the current vector index and the ordered turn history
// for one user. It lives only in memory: process restart discards it.
//
// A session is either empty (no document) or indexed (ready for queries).
// Installing a new index replaces the previous index and history in full, so
// answers never leak across documents.
type Session struct {
	opMu sync.Mutex // serializes whole upload/query operations

	mu    sync.RWMutex
	index index.Index // nil while empty
	turns []Turn
}

// New creates an empty session.
func New() *Session {
	return &Session{}
}

// Acquire locks the session for one complete upload or query. Surfaces that
// may overlap requests (HTTP, MCP) hold this for the operation's duration so
// index swaps and history appends stay ordered.
func (s *Session) Acquire() {
	s.opMu.Lock()
}

// Release unlocks the session after Acquire.
func (s *Session) Release() {
	s.opMu.Unlock()
}

// Index returns the current index, or nil when no document is ingested.
func (s *Session) Index() index.Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// Install swaps in a fully-built replacement index and clears the history in
// one critical section. The index must be complete before it is passed here;
// readers observe either the old document or the new one, never a mixture.
func (s *Session) Install(idx index.Index) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = idx
	s.turns = nil
}

// Append records a successful exchange. O(1), preserves submission order.
func (s *Session) Append(question, answer string) Turn {
	turn := Turn{
		ID:       uuid.New().String(),
		Question: question,
		Answer:   answer,
		AskedAt:  time.Now().UTC(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turn)
	return turn
}

// History returns a snapshot of all turns in order. No truncation is applied;
// callers needing a token budget impose their own policy over the snapshot.
func (s *Session) History() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Reset discards the index and history, returning the session to empty.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = nil
	s.turns = nil
}
