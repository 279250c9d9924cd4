// Package knowledge persists the deduplicated question/answer collection the
// assistant accretes over time.
package knowledge

import (
	"context"
	"time"
)

// Origin records how an entry entered the store.
type Origin string

const (
	OriginSeed      Origin = "seed"
	OriginGenerated Origin = "generated"
)

// Entry is a single question/answer pair. QuestionKey is the normalized form
// of Question and is unique across the store; entries are never mutated or
// deleted after insertion.
type Entry struct {
	ID          string    `json:"id"`
	Question    string    `json:"question"`
	QuestionKey string    `json:"question_key"`
	Answer      string    `json:"answer"`
	Origin      Origin    `json:"origin"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store is the persistence contract for the knowledge collection.
type Store interface {
	// FindAnswer looks up an answer for a normalized question key. An exact
	// key match wins; failing that a substring match against stored keys is
	// attempted. The bool reports whether any match was found.
	FindAnswer(ctx context.Context, key string) (string, bool, error)

	// Sample returns up to limit existing entries in no particular order,
	// used to seed the fallback prompt with domain examples.
	Sample(ctx context.Context, limit int) ([]Entry, error)

	// Insert adds the entry unless one with the same QuestionKey already
	// exists. It reports whether a row was actually inserted; a skip is not
	// an error.
	Insert(ctx context.Context, entry Entry) (bool, error)

	Close() error
}
