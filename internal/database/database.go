// Package database provides PostgreSQL connection management.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
)

// ConnectTimeout bounds the initial connection attempt.
const ConnectTimeout = 10 * time.Second

// Connect opens a pgx connection pool and verifies connectivity with a ping.
// pgvector types are registered on every connection so vector columns can be
// passed and scanned as pgvector.Vector values.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, ConnectTimeout)
	defer cancel()

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// VerifyVectorDimension checks that the vector column declared in the schema
// matches the configured embedding dimension. A mismatch is a fatal
// configuration error: vectors of the wrong size would be rejected (or worse,
// silently compared against a differently-sized index) at query time.
//
// pg_attribute stores the declared dimension of a pgvector column in atttypmod.
func VerifyVectorDimension(ctx context.Context, pool *pgxpool.Pool, table, column string, want int) error {
	var declared int
	err := pool.QueryRow(ctx,
		`SELECT atttypmod FROM pg_attribute
		 WHERE attrelid = $1::regclass AND attname = $2 AND NOT attisdropped`,
		table, column,
	).Scan(&declared)
	if err != nil {
		return fmt.Errorf("reading declared dimension of %s.%s: %w", table, column, err)
	}

	if declared != want {
		return fmt.Errorf("vector dimension mismatch on %s.%s: schema declares %d, configuration expects %d",
			table, column, declared, want)
	}

	return nil
}
