// Package postgres implements the storage repositories on PostgreSQL via pgx.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yangjiwoo8465/proj-hint-system/internal/storage"
	"github.com/yangjiwoo8465/proj-hint-system/internal/storage/migrations"
)

// Connect opens a connection pool and verifies it
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// Migrate applies all pending embedded migrations, one transaction each.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := pool.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("get current version: %w", err)
	}

	files, err := migrations.Pending(migrations.Postgres(), current)
	if err != nil {
		return err
	}

	for _, f := range files {
		tx, err := pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx for migration %s: %w", f.Name, err)
		}
		if _, err := tx.Exec(ctx, f.SQL); err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("apply migration %s: %w", f.Name, err)
		}
		if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1) ON CONFLICT DO NOTHING", f.Version); err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("record migration %s: %w", f.Name, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit migration %s: %w", f.Name, err)
		}
		slog.Info("applied migration", "backend", "postgres", "name", f.Name, "version", f.Version)
	}
	return nil
}

// NewStore returns every repository backed by pool
func NewStore(pool *pgxpool.Pool) storage.Store {
	return storage.Store{
		Mastery:     NewMasteryRepository(pool),
		Snapshots:   NewSnapshotRepository(pool),
		Submissions: NewSubmissionRepository(pool),
		Badges:      NewBadgeRepository(pool),
		Hints:       NewHintRepository(pool),
	}
}
