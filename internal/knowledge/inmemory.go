package knowledge

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a simple in-process knowledge store for local/dev use.
type InMemoryStore struct {
	mu      sync.RWMutex
	byKey   map[string]*Entry
	ordered []*Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byKey: make(map[string]*Entry)}
}

func (s *InMemoryStore) FindAnswer(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, ok := s.byKey[key]; ok {
		return e.Answer, true, nil
	}
	if key == "" {
		return "", false, nil
	}
	for _, e := range s.ordered {
		if strings.Contains(e.QuestionKey, key) || strings.Contains(key, e.QuestionKey) {
			return e.Answer, true, nil
		}
	}
	return "", false, nil
}

func (s *InMemoryStore) Sample(_ context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.ordered) {
		limit = len(s.ordered)
	}
	out := make([]Entry, 0, limit)
	for _, e := range s.ordered[:limit] {
		out = append(out, *e)
	}
	return out, nil
}

func (s *InMemoryStore) Insert(_ context.Context, entry Entry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byKey[entry.QuestionKey]; ok {
		return false, nil
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	e := entry
	s.byKey[e.QuestionKey] = &e
	s.ordered = append(s.ordered, &e)
	return true, nil
}

// Len reports the number of stored entries.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ordered)
}

func (s *InMemoryStore) Close() error { return nil }
