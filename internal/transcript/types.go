// Package transcript persists the durable per-session conversation log used
// to render history and resume prior chats.
package transcript

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a session does not exist or belongs to a
// different user. Ownership failures are indistinguishable from absence on
// purpose.
var ErrNotFound = errors.New("transcript session not found")

// Turn is one resolved exchange appended to a session's log.
type Turn struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Source    string    `json:"source"`
	Redacted  bool      `json:"redacted"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionSummary describes one session in a user's history listing.
type SessionSummary struct {
	SessionID string    `json:"session_id"`
	TurnCount int       `json:"turn_count"`
	FirstAt   time.Time `json:"first_at"`
	LastAt    time.Time `json:"last_at"`
}

// Store is the conversation-log persistence contract.
type Store interface {
	// AppendTurn records a turn; append order per session is preserved.
	AppendTurn(ctx context.Context, turn Turn) error

	// ListSessions returns summaries of the user's sessions, most recent
	// activity first.
	ListSessions(ctx context.Context, userID string) ([]SessionSummary, error)

	// LoadSession returns the session's turns in append order, scoped to the
	// owning user: a session id owned by someone else yields ErrNotFound.
	LoadSession(ctx context.Context, sessionID, userID string) ([]Turn, error)

	Close() error
}
