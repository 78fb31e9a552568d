// Package dbtest opens migrated in-memory SQLite databases for tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/yigit/campusblog/internal/app/migrations"
	"github.com/yigit/campusblog/internal/db"
)

// New returns a fresh in-memory database with every migration applied.
// The database is closed when the test finishes.
func New(t testing.TB) *db.Database {
	t.Helper()

	ctx := context.Background()
	database, err := db.OpenSQLite(ctx, ":memory:", zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := migrations.NewMigrator(database, zerolog.Nop()).Run(ctx); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	return database
}
