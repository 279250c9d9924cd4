package knowledge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists knowledge entries in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS knowledge_entries (
			id TEXT PRIMARY KEY,
			question TEXT NOT NULL,
			question_key TEXT NOT NULL UNIQUE,
			answer TEXT NOT NULL,
			origin TEXT NOT NULL DEFAULT 'generated',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_knowledge_entries_created ON knowledge_entries (created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init knowledge schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) FindAnswer(ctx context.Context, key string) (string, bool, error) {
	var answer string
	err := s.pool.QueryRow(ctx,
		`SELECT answer FROM knowledge_entries WHERE question_key = $1`,
		key,
	).Scan(&answer)
	if err == nil {
		return answer, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", false, fmt.Errorf("exact lookup: %w", err)
	}
	if key == "" {
		return "", false, nil
	}

	// Substring fallback in either direction: a stored key contained in the
	// question, or the question contained in a stored key.
	err = s.pool.QueryRow(ctx,
		`SELECT answer FROM knowledge_entries
		 WHERE question_key LIKE '%' || $1 || '%' OR $1 LIKE '%' || question_key || '%'
		 ORDER BY created_at LIMIT 1`,
		key,
	).Scan(&answer)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("fuzzy lookup: %w", err)
	}
	return answer, true, nil
}

func (s *PostgresStore) Sample(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, question, question_key, answer, origin, created_at
		 FROM knowledge_entries LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sample entries: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Question, &e.QuestionKey, &e.Answer, &e.Origin, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entry row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entry rows: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) Insert(ctx context.Context, entry Entry) (bool, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.Origin == "" {
		entry.Origin = OriginGenerated
	}

	// ON CONFLICT DO NOTHING makes the check-and-insert atomic: two requests
	// racing on the same novel question leave exactly one row, first writer
	// wins.
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO knowledge_entries (id, question, question_key, answer, origin, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (question_key) DO NOTHING`,
		entry.ID,
		entry.Question,
		entry.QuestionKey,
		entry.Answer,
		entry.Origin,
		entry.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert entry: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
