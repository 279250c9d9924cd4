package transcript

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAppendPreservesOrder(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	for i, q := range []string{"q1", "q2", "q3"} {
		err := s.AppendTurn(ctx, Turn{
			SessionID: "sess-1",
			UserID:    "u1",
			Question:  q,
			Answer:    "a",
			CreatedAt: time.Now().UTC().Add(time.Duration(i) * time.Millisecond),
		})
		if err != nil {
			t.Fatalf("AppendTurn() error = %v", err)
		}
	}

	turns, err := s.LoadSession(ctx, "sess-1", "u1")
	if err != nil {
		t.Fatalf("LoadSession() error = %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("LoadSession() returned %d turns, want 3", len(turns))
	}
	for i, q := range []string{"q1", "q2", "q3"} {
		if turns[i].Question != q {
			t.Fatalf("turns[%d].Question = %q, want %q", i, turns[i].Question, q)
		}
	}
}

func TestLoadSessionOwnerScoped(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	if err := s.AppendTurn(ctx, Turn{SessionID: "sess-1", UserID: "u1", Question: "q", Answer: "a"}); err != nil {
		t.Fatalf("AppendTurn() error = %v", err)
	}

	_, err := s.LoadSession(ctx, "sess-1", "u2")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("LoadSession() cross-user error = %v, want ErrNotFound", err)
	}

	_, err = s.LoadSession(ctx, "missing", "u1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("LoadSession() missing session error = %v, want ErrNotFound", err)
	}
}

func TestListSessionsMostRecentFirst(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	base := time.Now().UTC()

	if err := s.AppendTurn(ctx, Turn{SessionID: "old", UserID: "u1", Question: "q", Answer: "a", CreatedAt: base}); err != nil {
		t.Fatalf("AppendTurn() error = %v", err)
	}
	if err := s.AppendTurn(ctx, Turn{SessionID: "new", UserID: "u1", Question: "q", Answer: "a", CreatedAt: base.Add(time.Minute)}); err != nil {
		t.Fatalf("AppendTurn() error = %v", err)
	}
	if err := s.AppendTurn(ctx, Turn{SessionID: "other-user", UserID: "u2", Question: "q", Answer: "a", CreatedAt: base.Add(time.Hour)}); err != nil {
		t.Fatalf("AppendTurn() error = %v", err)
	}

	sums, err := s.ListSessions(ctx, "u1")
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(sums) != 2 {
		t.Fatalf("ListSessions() returned %d, want 2", len(sums))
	}
	if sums[0].SessionID != "new" || sums[1].SessionID != "old" {
		t.Fatalf("session order = [%s %s], want [new old]", sums[0].SessionID, sums[1].SessionID)
	}
	if sums[0].TurnCount != 1 {
		t.Fatalf("TurnCount = %d, want 1", sums[0].TurnCount)
	}
}
