//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/yangjiwoo8465/proj-hint-system/internal/storage"
	"github.com/yangjiwoo8465/proj-hint-system/internal/storage/postgres"
	"github.com/yangjiwoo8465/proj-hint-system/internal/storage/storagetest"
)

// setupPostgres starts a PostgreSQL container and returns a migrated pool
func setupPostgres(t *testing.T) *pgxpool.Pool {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "hintsys",
				"POSTGRES_PASSWORD": "hintsys",
				"POSTGRES_DB":       "hintsys",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("failed to get port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://hintsys:hintsys@%s:%s/hintsys?sslmode=disable", host, port.Port())
	pool, err := postgres.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(pool.Close)

	if err := postgres.Migrate(ctx, pool); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return pool
}

func TestIntegration_Migrate_Idempotent(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()

	if err := postgres.Migrate(ctx, pool); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	var version int
	if err := pool.QueryRow(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version); err != nil {
		t.Fatalf("query version: %v", err)
	}
	if version != 1 {
		t.Errorf("version = %d; want 1", version)
	}
}

func TestIntegration_Store(t *testing.T) {
	pool := setupPostgres(t)

	storagetest.Run(t, func(t *testing.T) storage.Store {
		_, err := pool.Exec(context.Background(),
			"TRUNCATE mastery_states, hint_requests, metrics_snapshots, submissions, awarded_badges")
		if err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return postgres.NewStore(pool)
	})
}
