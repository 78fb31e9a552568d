package migrations_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/campusblog/internal/app/migrations"
	"github.com/yigit/campusblog/internal/db/dbtest"
)

func TestMigrator_CreatesSchemaOnce(t *testing.T) {
	database := dbtest.New(t)
	ctx := context.Background()

	// second run is a no-op
	require.NoError(t, migrations.NewMigrator(database, zerolog.Nop()).Run(ctx))

	var versions int
	require.NoError(t, database.SQL.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&versions))
	assert.Equal(t, 1, versions)

	for _, table := range []string{"users", "posts", "post_likes", "comments", "events", "event_attendees", "revoked_tokens"} {
		var name string
		err := database.SQL.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}
}

func TestMigrator_EnforcesForeignKeys(t *testing.T) {
	database := dbtest.New(t)

	_, err := database.SQL.ExecContext(context.Background(),
		`INSERT INTO comments (content, author_id, post_id) VALUES ('orphan', 999, 999)`)
	assert.Error(t, err)
}
