// Package memory holds the short-term conversational context: a bounded,
// per-identity, in-process buffer of recent turns. It is intentionally
// volatile — nothing here survives a restart — and independent of the
// persisted knowledge store and transcript.
package memory

import "sync"

// Turn is one question/answer exchange kept as conversational context.
type Turn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// BufferStore maps user identities to bounded FIFO turn buffers. The mutex
// keeps the map safe under concurrent requests; ordering between concurrent
// appends for the SAME identity is unspecified — the hosting layer is expected
// to run one logical session per user at a time.
type BufferStore struct {
	mu      sync.RWMutex
	window  int
	buffers map[string][]Turn
}

// NewBufferStore creates a store retaining at most window turns per identity.
func NewBufferStore(window int) *BufferStore {
	if window <= 0 {
		window = 10
	}
	return &BufferStore{
		window:  window,
		buffers: make(map[string][]Turn),
	}
}

// Append pushes a turn onto the identity's buffer, evicting the oldest turns
// once the window is exceeded.
func (s *BufferStore) Append(userID, question, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := append(s.buffers[userID], Turn{Question: question, Answer: answer})
	if excess := len(buf) - s.window; excess > 0 {
		buf = append(buf[:0:0], buf[excess:]...)
	}
	s.buffers[userID] = buf
}

// Context returns the identity's retained turns in chronological order,
// oldest first. The returned slice is a copy.
func (s *BufferStore) Context(userID string) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	buf := s.buffers[userID]
	if len(buf) == 0 {
		return nil
	}
	out := make([]Turn, len(buf))
	copy(out, buf)
	return out
}

// Reset clears the identity's buffer. Other identities are unaffected.
// Invoked when the user starts a new chat session.
func (s *BufferStore) Reset(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buffers, userID)
}

// Window reports the configured retention bound.
func (s *BufferStore) Window() int { return s.window }
