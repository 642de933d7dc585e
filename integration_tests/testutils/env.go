// Package testutils provides the shared database environment for the
// integration tests: one Postgres container per test binary, migrated once,
// truncated between tests.
package testutils

import (
	"context"
	"fmt"
	"testing"

	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	matchmigrations "github.com/circuit-league/matchmaker/app/modules/match/infrastructure/repositories/migrations"
	usermigrations "github.com/circuit-league/matchmaker/app/modules/user/infrastructure/repositories/migrations"
	"github.com/circuit-league/matchmaker/integration_tests/containers"
	"github.com/circuit-league/matchmaker/internal/db/bundb"
)

// Env is the per-binary test environment.
type Env struct {
	DB        *bundb.DBService
	container *postgres.PostgresContainer
}

// Setup starts Postgres, connects, and applies every module's migrations.
func Setup(ctx context.Context) (*Env, error) {
	container, dsn, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		return nil, err
	}

	db, err := bundb.NewBunDBService(ctx, dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	for _, migrations := range []*migrate.Migrations{usermigrations.Migrations, matchmigrations.Migrations} {
		migrator := migrate.NewMigrator(db.GetDB(), migrations)
		if err := migrator.Init(ctx); err != nil {
			_ = container.Terminate(ctx)
			return nil, fmt.Errorf("failed to init migrations: %w", err)
		}
		if _, err := migrator.Migrate(ctx); err != nil {
			_ = container.Terminate(ctx)
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	return &Env{DB: db, container: container}, nil
}

// Teardown stops the container.
func (e *Env) Teardown(ctx context.Context) {
	_ = e.container.Terminate(ctx)
}

// Reset truncates the domain tables so tests start from a clean slate.
func (e *Env) Reset(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	for _, table := range []string{"matches", "users"} {
		if _, err := e.DB.GetDB().ExecContext(ctx, "TRUNCATE TABLE ? RESTART IDENTITY CASCADE", bun.Ident(table)); err != nil {
			t.Fatalf("failed to truncate %s: %v", table, err)
		}
	}
}
