package pipeline

// #region imports
import (
	"fmt"
	"sync"
)

// #endregion

// #region sessions

// Sessions holds live pipeline states keyed by session ID so halted
// sessions can be resumed after a human responds.
type Sessions struct {
	mu     sync.RWMutex
	states map[string]*State
}

// NewSessions returns an empty session table.
func NewSessions() *Sessions {
	return &Sessions{states: make(map[string]*State)}
}

// Put stores or replaces a session state.
func (s *Sessions) Put(state *State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.SessionID] = state
}

// Get fetches a session state by ID.
func (s *Sessions) Get(sessionID string) (*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	return state, nil
}

// IDs lists the known session IDs.
func (s *Sessions) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.states))
	for id := range s.states {
		out = append(out, id)
	}
	return out
}

// #endregion
