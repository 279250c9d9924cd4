package transcript

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a simple in-process transcript store for local/dev use.
type InMemoryStore struct {
	mu       sync.RWMutex
	turns    map[string][]Turn // keyed by session id
	owner    map[string]string // session id -> user id
	sessions map[string][]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		turns:    make(map[string][]Turn),
		owner:    make(map[string]string),
		sessions: make(map[string][]string),
	}
}

func (s *InMemoryStore) AppendTurn(_ context.Context, turn Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	if _, ok := s.owner[turn.SessionID]; !ok {
		s.owner[turn.SessionID] = turn.UserID
		s.sessions[turn.UserID] = append(s.sessions[turn.UserID], turn.SessionID)
	}
	s.turns[turn.SessionID] = append(s.turns[turn.SessionID], turn)
	return nil
}

func (s *InMemoryStore) ListSessions(_ context.Context, userID string) ([]SessionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]SessionSummary, 0, len(s.sessions[userID]))
	for _, id := range s.sessions[userID] {
		turns := s.turns[id]
		if len(turns) == 0 {
			continue
		}
		out = append(out, SessionSummary{
			SessionID: id,
			TurnCount: len(turns),
			FirstAt:   turns[0].CreatedAt,
			LastAt:    turns[len(turns)-1].CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastAt.After(out[j].LastAt) })
	return out, nil
}

func (s *InMemoryStore) LoadSession(_ context.Context, sessionID, userID string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owner, ok := s.owner[sessionID]
	if !ok || owner != userID {
		return nil, ErrNotFound
	}
	turns := s.turns[sessionID]
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out, nil
}

func (s *InMemoryStore) Close() error { return nil }
