// Package cache provides append-only storage of prior question/answer
// exchanges, backed by PostgreSQL + pgvector.
//
// The cache serves two purposes: its most recent entries are loaded as
// conversational context for every new query, and a high-similarity lookup
// against it can answer a near-duplicate question without a new completion.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// LookupTimeout bounds a single cache similarity lookup.
const LookupTimeout = 10 * time.Second

// Store manages the chat_cache table.
// Safe for concurrent use by multiple goroutines.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New creates a new Store instance.
func New(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}

// Insert persists a new exchange. The row's created_at is assigned by the
// database. Inserts only; an ID collision is an error, not an update.
func (s *Store) Insert(ctx context.Context, e Exchange, embedding []float32) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO chat_cache
		 (id, prompt, completion, completion_tokens, prompt_tokens, total_tokens, model, embedding)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.Prompt, e.Completion, e.CompletionTokens, e.PromptTokens,
		e.TotalTokens, e.Model, pgvector.NewVector(embedding),
	)
	if err != nil {
		return fmt.Errorf("failed to cache exchange %q: %w", e.ID, err)
	}

	s.logger.Debug("cached exchange", "id", e.ID, "model", e.Model)
	return nil
}

// Recent returns up to limit exchanges ordered by created_at descending.
// Records are returned raw; filtering of empty prompts or completions is the
// caller's concern.
func (s *Store) Recent(ctx context.Context, limit int) ([]Exchange, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, prompt, completion, completion_tokens, prompt_tokens,
		        total_tokens, model, created_at
		 FROM chat_cache
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("loading chat history: %w", err)
	}
	defer rows.Close()

	var exchanges []Exchange
	for rows.Next() {
		var e Exchange
		if err := rows.Scan(&e.ID, &e.Prompt, &e.Completion, &e.CompletionTokens,
			&e.PromptTokens, &e.TotalTokens, &e.Model, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning exchange row: %w", err)
		}
		exchanges = append(exchanges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading exchange rows: %w", err)
	}

	return exchanges, nil
}

// Lookup returns the cached exchange most similar to the query vector,
// provided its similarity strictly exceeds threshold. Returns (nil, nil)
// when no exchange qualifies.
func (s *Store) Lookup(ctx context.Context, queryVector []float32, threshold float32) (*Exchange, error) {
	queryCtx, cancel := context.WithTimeout(ctx, LookupTimeout)
	defer cancel()

	vec := pgvector.NewVector(queryVector)

	var e Exchange
	var similarity float64
	err := s.pool.QueryRow(queryCtx,
		`SELECT id, prompt, completion, completion_tokens, prompt_tokens,
		        total_tokens, model, created_at,
		        1 - (embedding <=> $1) AS similarity
		 FROM chat_cache
		 WHERE 1 - (embedding <=> $1) > $2
		 ORDER BY embedding <=> $1
		 LIMIT 1`,
		vec, threshold,
	).Scan(&e.ID, &e.Prompt, &e.Completion, &e.CompletionTokens, &e.PromptTokens,
		&e.TotalTokens, &e.Model, &e.CreatedAt, &similarity)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache lookup failed: %w", err)
	}

	s.logger.Debug("cache hit", "id", e.ID, "similarity", similarity)
	return &e, nil
}
