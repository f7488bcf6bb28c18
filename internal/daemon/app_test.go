package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/yangjiwoo8465/proj-hint-system/internal/config"
	"github.com/yangjiwoo8465/proj-hint-system/internal/domain"
)

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     config.StorageConfig
		wantErr bool
	}{
		{"memory", config.StorageConfig{Driver: config.DriverMemory}, false},
		{"sqlite", config.StorageConfig{Driver: config.DriverSQLite, Path: filepath.Join(t.TempDir(), "nested", "hintsys.db")}, false},
		{"unknown", config.StorageConfig{Driver: "mongo"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, closeFn, err := OpenStore(ctx, tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("OpenStore() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			defer closeFn()

			state, err := store.Mastery.GetOrCreate(ctx, uuid.New(), "two-sum")
			if err != nil {
				t.Fatalf("GetOrCreate() error = %v", err)
			}
			if state.Status != domain.StatusNone {
				t.Errorf("Status = %q, want none", state.Status)
			}
		})
	}
}

func TestNew_Memory(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "problems"), 0755); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default(dir)
	cfg.Storage.Driver = config.DriverMemory

	app, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if app.Grading == nil || app.Badges == nil || app.Runner == nil || app.Catalog == nil {
		t.Fatalf("expected every component to be wired: %+v", app)
	}

	_, err = app.Grading.Mastery(context.Background(), uuid.New(), "missing")
	if err != nil {
		t.Errorf("Mastery() error = %v", err)
	}

	if err := app.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := app.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestNew_DockerFallsBackToLocal(t *testing.T) {
	t.Setenv("DOCKER_HOST", "tcp://127.0.0.1:1")

	cfg := config.Default(t.TempDir())
	cfg.Storage.Driver = config.DriverMemory
	cfg.Runner.Executor = "docker"

	app, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer app.Close()

	if app.Runner == nil {
		t.Fatal("expected a runner with the local sandbox")
	}
}

func TestNew_BadStorage(t *testing.T) {
	cfg := config.Default(t.TempDir())
	cfg.Storage.Driver = "mongo"

	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
