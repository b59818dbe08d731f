// Package article provides storage and vector similarity search for news
// articles backed by PostgreSQL + pgvector.
package article

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// SearchTimeout bounds a single vector search query.
const SearchTimeout = 10 * time.Second

// Store manages the articles table.
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

// Upsert inserts or replaces an article together with its embedding.
// Used by the ingestion path only.
func (s *Store) Upsert(ctx context.Context, a Article, embedding []float32) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO articles (id, title, content, category, embedding)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE
		 SET title = EXCLUDED.title,
		     content = EXCLUDED.content,
		     category = EXCLUDED.category,
		     embedding = EXCLUDED.embedding`,
		a.ID, a.Title, a.Content, a.Category, pgvector.NewVector(embedding),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert article %q: %w", a.ID, err)
	}

	s.logger.Debug("upserted article", "id", a.ID, "category", a.Category)
	return nil
}

// Search returns the articles most similar to the query vector, ordered by
// descending cosine similarity. Only results whose similarity strictly
// exceeds the configured threshold are returned; if fewer than topK articles
// qualify, fewer are returned.
//
// Search is read-only and produces new Result values per call.
func (s *Store) Search(ctx context.Context, queryVector []float32, opts ...SearchOption) ([]Result, error) {
	cfg := buildSearchConfig(opts)

	queryCtx, cancel := context.WithTimeout(ctx, SearchTimeout)
	defer cancel()

	vec := pgvector.NewVector(queryVector)

	// 1 - cosine distance = cosine similarity. The threshold comparison is
	// strict: a score equal to minScore is excluded.
	query := `
		SELECT id, title, content, category, created_at,
		       1 - (embedding <=> $1) AS similarity
		FROM articles
		WHERE 1 - (embedding <=> $1) > $2`
	args := []any{vec, cfg.minScore}

	if cfg.category != "" {
		query += ` AND category = $4`
		args = append(args, cfg.topK, cfg.category)
	} else {
		args = append(args, cfg.topK)
	}
	query += `
		ORDER BY embedding <=> $1
		LIMIT $3`

	rows, err := s.pool.Query(queryCtx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("article search failed: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var similarity float64
		if err := rows.Scan(&r.Article.ID, &r.Article.Title, &r.Article.Content,
			&r.Article.Category, &r.Article.CreatedAt, &similarity); err != nil {
			return nil, fmt.Errorf("scanning article row: %w", err)
		}
		r.Similarity = float32(similarity)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading article rows: %w", err)
	}

	s.logger.Debug("article search", "results", len(results),
		"top_k", cfg.topK, "min_score", cfg.minScore)
	return results, nil
}

// Count returns the total number of stored articles.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM articles`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting articles: %w", err)
	}
	return count, nil
}
