// Package daemon assembles the grading core from configuration and hosts the
// operational HTTP surface of long-running processes.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/yangjiwoo8465/proj-hint-system/internal/analyzer"
	"github.com/yangjiwoo8465/proj-hint-system/internal/badge"
	"github.com/yangjiwoo8465/proj-hint-system/internal/catalog"
	"github.com/yangjiwoo8465/proj-hint-system/internal/config"
	"github.com/yangjiwoo8465/proj-hint-system/internal/grading"
	"github.com/yangjiwoo8465/proj-hint-system/internal/qualitative"
	"github.com/yangjiwoo8465/proj-hint-system/internal/runner"
	"github.com/yangjiwoo8465/proj-hint-system/internal/storage"
	"github.com/yangjiwoo8465/proj-hint-system/internal/storage/memory"
	"github.com/yangjiwoo8465/proj-hint-system/internal/storage/postgres"
	"github.com/yangjiwoo8465/proj-hint-system/internal/storage/sqlite"
)

// App holds the wired grading core
type App struct {
	Config  *config.Config
	Store   storage.Store
	Catalog *catalog.Cached
	Runner  *runner.Service
	Grading *grading.Service
	Badges  *badge.Engine

	closers []func() error
}

// New wires every component described by cfg. Close releases what it opened.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	store, closeStore, err := OpenStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	a.Store = store
	a.closers = append(a.closers, closeStore)

	cat, err := catalog.NewCached(catalog.NewLoader(cfg.Catalog.Path), cfg.Catalog.CacheSize, cfg.Catalog.CacheTTL)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Catalog = cat
	a.closers = append(a.closers, func() error { cat.Close(); return nil })

	sandbox, closeSandbox := newSandbox(cfg.Runner)
	a.closers = append(a.closers, closeSandbox)
	a.Runner = runner.NewService(cfg.Runner, sandbox)

	static := analyzer.New(analyzer.NewPycodestyleChecker(""), analyzer.NewCPythonChecker(""))
	qual := qualitative.New(cfg.LLM)

	a.Grading = grading.NewService(cat, a.Runner, static, qual, store)
	a.Grading.SetMasteryRetries(cfg.Grading.MasteryRetries)

	a.Badges = badge.NewEngine(store, nil)
	if cfg.Grading.Badges {
		a.Grading.SetBadgeEngine(a.Badges)
	}

	slog.Info("grading core ready",
		"storage", cfg.Storage.Driver,
		"executor", cfg.Runner.Executor,
		"qualitative", qual.Enabled(),
		"badges", cfg.Grading.Badges,
	)
	return a, nil
}

// Close releases resources in reverse order of acquisition
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// OpenStore opens and migrates the configured storage backend
func OpenStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, func() error, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.NewStore().Repositories(), func() error { return nil }, nil

	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, cfg.PostgresURL)
		if err != nil {
			return storage.Store{}, nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return storage.Store{}, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return postgres.NewStore(pool), func() error { pool.Close(); return nil }, nil

	case config.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return storage.Store{}, nil, fmt.Errorf("create data dir: %w", err)
		}
		db, err := sqlite.Open(cfg.Path)
		if err != nil {
			return storage.Store{}, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return storage.Store{}, nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		return sqlite.NewStore(db), db.Close, nil
	}
	return storage.Store{}, nil, fmt.Errorf("unknown storage driver: %q", cfg.Driver)
}

// newSandbox prefers docker when configured and falls back to local processes
func newSandbox(cfg runner.Config) (runner.Sandbox, func() error) {
	if cfg.Executor == "docker" {
		dcfg := runner.DefaultDockerConfig()
		if cfg.BaseImage != "" {
			dcfg.Image = cfg.BaseImage
		}
		if cfg.MemoryMB > 0 {
			dcfg.MemoryMB = cfg.MemoryMB
		}
		if cfg.CPULimit > 0 {
			dcfg.CPULimit = cfg.CPULimit
		}
		sb, err := runner.NewDockerSandbox(dcfg)
		if err == nil {
			return sb, sb.Close
		}
		slog.Warn("docker sandbox not available, using local sandbox", "error", err)
	}
	return runner.NewLocalSandbox(), func() error { return nil }
}
