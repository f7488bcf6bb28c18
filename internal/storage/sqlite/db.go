// Package sqlite implements the storage repositories on a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"

	"github.com/yangjiwoo8465/proj-hint-system/internal/storage"
	"github.com/yangjiwoo8465/proj-hint-system/internal/storage/migrations"
)

// DB wraps a sql.DB connection to a SQLite database with migration support.
type DB struct {
	*sql.DB
}

// Open creates a new SQLite connection with WAL mode and foreign keys enabled.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Single writer; this also serializes compare-and-set updates.
	db.SetMaxOpenConns(1)

	return &DB{DB: db}, nil
}

// Migrate applies all pending embedded migrations, one transaction each.
func (db *DB) Migrate(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	current, err := db.Version()
	if err != nil {
		return fmt.Errorf("get current version: %w", err)
	}

	files, err := migrations.Pending(migrations.SQLite(), current)
	if err != nil {
		return err
	}

	for _, f := range files {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx for migration %s: %w", f.Name, err)
		}
		if _, err := tx.ExecContext(ctx, f.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", f.Name, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT OR REPLACE INTO schema_migrations (version) VALUES (?)", f.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %s: %w", f.Name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", f.Name, err)
		}
		slog.Info("applied migration", "backend", "sqlite", "name", f.Name, "version", f.Version)
	}

	return nil
}

// Version returns the current schema version.
func (db *DB) Version() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	return version, err
}

// NewStore returns every repository backed by db
func NewStore(db *DB) storage.Store {
	return storage.Store{
		Mastery:     NewMasteryStore(db),
		Snapshots:   NewSnapshotStore(db),
		Submissions: NewSubmissionStore(db),
		Badges:      NewBadgeStore(db),
		Hints:       NewHintStore(db),
	}
}
