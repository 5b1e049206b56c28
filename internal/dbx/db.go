// Package dbx wraps the Postgres connection pool used by the rating store
// (C1) and aggregate store (C2), following the teacher's staged
// initialize()-then-prepare lifecycle.
package dbx

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq"

	"github.com/Allliance/content-rating/internal/config"
	"github.com/Allliance/content-rating/internal/logging"
)

// DB wraps a *sql.DB with a cache of prepared statements, mirroring the
// teacher's database.DB: statements are prepared once and reused across
// every call site that shares a query string.
type DB struct {
	conn  *sql.DB
	stmts map[string]*sql.Stmt
	mu    sync.RWMutex
}

// Open connects to Postgres, applies pool settings, and runs schema
// initialization. It blocks until the database answers a ping or ctx expires.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	conn, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnTimeout)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	db := &DB{conn: conn, stmts: make(map[string]*sql.Stmt)}

	if err := db.initialize(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	logging.Info().Str("host", cfg.Host).Int("port", cfg.Port).Msg("database connected")
	return db, nil
}

// initialize runs the staged bring-up: tables, then indexes. Each stage is
// idempotent (CREATE ... IF NOT EXISTS) so repeated startups are safe.
func (db *DB) initialize(ctx context.Context) error {
	stages := []struct {
		name string
		sql  string
	}{
		{"users table", schemaUsers},
		{"content table", schemaContent},
		{"rating table", schemaRating},
		{"indexes", schemaIndexes},
	}

	for _, stage := range stages {
		if _, err := db.conn.ExecContext(ctx, stage.sql); err != nil {
			return fmt.Errorf("stage %q: %w", stage.name, err)
		}
	}
	return nil
}

// Prepare returns a cached prepared statement for query, preparing it on
// first use.
func (db *DB) Prepare(ctx context.Context, query string) (*sql.Stmt, error) {
	db.mu.RLock()
	stmt, ok := db.stmts[query]
	db.mu.RUnlock()
	if ok {
		return stmt, nil
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if stmt, ok := db.stmts[query]; ok {
		return stmt, nil
	}

	stmt, err := db.conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	db.stmts[query] = stmt
	return stmt, nil
}

// Conn returns the underlying *sql.DB for callers that need transactions.
func (db *DB) Conn() *sql.DB { return db.conn }

// Ping checks connectivity, used by the /health/ready endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes all prepared statements and the underlying pool.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, stmt := range db.stmts {
		stmt.Close()
	}
	return db.conn.Close()
}

const schemaUsers = `
CREATE TABLE IF NOT EXISTS users (
	user_id UUID PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

const schemaContent = `
CREATE TABLE IF NOT EXISTS content (
	content_id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL CHECK (char_length(title) <= 200),
	text TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	rating_count INTEGER NOT NULL DEFAULT 0 CHECK (rating_count >= 0),
	average_rating DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (average_rating >= 0 AND average_rating <= 5),
	rating_distribution JSONB NOT NULL DEFAULT '{}'::jsonb
);`

const schemaRating = `
CREATE TABLE IF NOT EXISTS rating (
	content_id BIGINT NOT NULL REFERENCES content(content_id),
	user_id UUID NOT NULL REFERENCES users(user_id),
	rating INTEGER NOT NULL CHECK (rating >= 0 AND rating <= 5),
	weight DOUBLE PRECISION NOT NULL CHECK (weight > 0 AND weight <= 1),
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	processed BOOLEAN NOT NULL DEFAULT false,
	PRIMARY KEY (content_id, user_id)
);`

const schemaIndexes = `
CREATE INDEX IF NOT EXISTS idx_content_rating_count ON content (rating_count);
CREATE INDEX IF NOT EXISTS idx_content_average_rating ON content (average_rating);
CREATE INDEX IF NOT EXISTS idx_rating_content_unprocessed ON rating (content_id) WHERE NOT processed;
CREATE INDEX IF NOT EXISTS idx_rating_content_created ON rating (content_id, created_at);
`
