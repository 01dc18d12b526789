package memory

import (
	"context"
	"sync"

	"campus-assist-api/internal/domain/entity"
	"campus-assist-api/internal/domain/repository"
)

// ConversationStore keeps session context windows in process memory.
// A per-session mutex serializes mutations; the map mutex is never held
// while a session is being modified.
type ConversationStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionState
	maxTurns int
}

type sessionState struct {
	mu      sync.Mutex
	session *entity.Session
}

// NewConversationStore creates a store retaining maxTurns per session.
func NewConversationStore(maxTurns int) *ConversationStore {
	if maxTurns <= 0 {
		maxTurns = 10
	}
	return &ConversationStore{
		sessions: make(map[string]*sessionState),
		maxTurns: maxTurns,
	}
}

var _ repository.ConversationStore = (*ConversationStore)(nil)

func (s *ConversationStore) state(sessionID, userID string, create bool) *sessionState {
	s.mu.RLock()
	st, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok || !create {
		return st
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.sessions[sessionID]; ok {
		return st
	}
	st = &sessionState{session: entity.NewSession(sessionID, userID)}
	s.sessions[sessionID] = st
	return st
}

// GetOrCreate returns a copy of the session, creating it on first use.
func (s *ConversationStore) GetOrCreate(ctx context.Context, sessionID, userID string) (*entity.Session, error) {
	st := s.state(sessionID, userID, true)

	st.mu.Lock()
	defer st.mu.Unlock()
	return copySession(st.session), nil
}

// AppendTurn appends a turn, evicting the oldest once the bound is hit.
func (s *ConversationStore) AppendTurn(ctx context.Context, sessionID string, turn entity.Turn) error {
	st := s.state(sessionID, "", true)

	st.mu.Lock()
	defer st.mu.Unlock()

	st.session.Turns = append(st.session.Turns, turn)
	if overflow := len(st.session.Turns) - s.maxTurns; overflow > 0 {
		st.session.Turns = append([]entity.Turn(nil), st.session.Turns[overflow:]...)
	}
	st.session.UpdatedAt = turn.CreatedAt
	return nil
}

// RecentContext returns up to maxTurns most recent turns, oldest first.
func (s *ConversationStore) RecentContext(ctx context.Context, sessionID string, maxTurns int) ([]entity.Turn, error) {
	st := s.state(sessionID, "", false)
	if st == nil {
		return nil, nil
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	turns := st.session.Turns
	if maxTurns > 0 && len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}
	out := make([]entity.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

// Clear removes the session.
func (s *ConversationStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func copySession(in *entity.Session) *entity.Session {
	out := *in
	out.Turns = make([]entity.Turn, len(in.Turns))
	copy(out.Turns, in.Turns)
	return &out
}
