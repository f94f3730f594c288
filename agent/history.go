package agent

import (
	"sync"

	"github.com/poiesic/docbase/ai"
)

// defaultMaxTurns bounds how much conversation each session keeps. Older
// turns fall off the front.
const defaultMaxTurns = 20

// HistoryStore keeps bounded per-session conversation history in memory.
// Sessions are created on first use and never persisted.
type HistoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]ai.Turn
	maxTurns int
}

// NewHistoryStore creates a history store keeping up to maxTurns turns per
// session. Non-positive maxTurns uses the default.
func NewHistoryStore(maxTurns int) *HistoryStore {
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}
	return &HistoryStore{
		sessions: make(map[string][]ai.Turn),
		maxTurns: maxTurns,
	}
}

// Turns returns a copy of the session's history, oldest first.
func (h *HistoryStore) Turns(sessionID string) []ai.Turn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	turns := h.sessions[sessionID]
	out := make([]ai.Turn, len(turns))
	copy(out, turns)
	return out
}

// Append adds turns to the session, trimming the oldest past the bound.
func (h *HistoryStore) Append(sessionID string, turns ...ai.Turn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	session := append(h.sessions[sessionID], turns...)
	if len(session) > h.maxTurns {
		session = session[len(session)-h.maxTurns:]
	}
	h.sessions[sessionID] = session
}

// Clear drops the session's history.
func (h *HistoryStore) Clear(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, sessionID)
}
