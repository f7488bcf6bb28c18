// Package migrations embeds the versioned SQL schema of each database backend.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
)

// FS embeds the SQL migrations of both database backends.
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS

// SQLite returns the migrations for the sqlite backend
func SQLite() fs.FS {
	sub, _ := fs.Sub(FS, "sqlite")
	return sub
}

// Postgres returns the migrations for the postgres backend
func Postgres() fs.FS {
	sub, _ := fs.Sub(FS, "postgres")
	return sub
}

// File is one migration script
type File struct {
	Name    string
	Version int
	SQL     string
}

// Pending returns the migrations in fsys newer than current, in version order.
// Files that do not follow the NNN_name.sql pattern are skipped.
func Pending(fsys fs.FS, current int) ([]File, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var files []File
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		version, err := ParseVersion(e.Name())
		if err != nil {
			slog.Warn("skipping non-migration file", "name", e.Name(), "error", err)
			continue
		}
		if version <= current {
			continue
		}
		data, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", e.Name(), err)
		}
		files = append(files, File{Name: e.Name(), Version: version, SQL: string(data)})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Version < files[j].Version })
	return files, nil
}

// ParseVersion extracts the version number from a migration filename like "001_initial.sql".
func ParseVersion(name string) (int, error) {
	parts := strings.SplitN(name, "_", 2)
	if len(parts) < 2 {
		return 0, fmt.Errorf("invalid migration filename: %s", name)
	}
	var version int
	if _, err := fmt.Sscanf(parts[0], "%d", &version); err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return version, nil
}
