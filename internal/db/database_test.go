package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/campusblog/internal/db"
	"github.com/yigit/campusblog/internal/db/dbtest"
)

func countUsers(t *testing.T, database *db.Database) int {
	t.Helper()
	var n int
	require.NoError(t, database.SQL.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM users`).Scan(&n))
	return n
}

func insertUser(ctx context.Context, database *db.Database, email string) error {
	_, err := database.Conn(ctx).ExecContext(ctx,
		`INSERT INTO users (name, email, password) VALUES ('n', ?, 'x')`, email)
	return err
}

func TestWithTransaction_CommitAndRollback(t *testing.T) {
	database := dbtest.New(t)
	ctx := context.Background()

	err := database.WithTransaction(ctx, nil, func(ctx context.Context) error {
		assert.True(t, db.InTransaction(ctx))
		return insertUser(ctx, database, "a@x.com")
	})
	require.NoError(t, err)
	assert.Equal(t, 1, countUsers(t, database))

	boom := errors.New("boom")
	err = database.WithTransaction(ctx, nil, func(ctx context.Context) error {
		require.NoError(t, insertUser(ctx, database, "b@x.com"))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, countUsers(t, database))
}

func TestWithTransaction_NestedJoinsOuter(t *testing.T) {
	database := dbtest.New(t)
	ctx := context.Background()

	boom := errors.New("outer failed")
	err := database.WithTransaction(ctx, nil, func(ctx context.Context) error {
		inner := database.WithTransaction(ctx, nil, func(ctx context.Context) error {
			return insertUser(ctx, database, "nested@x.com")
		})
		require.NoError(t, inner)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, countUsers(t, database))
}

func TestWithTransaction_PanicRollsBack(t *testing.T) {
	database := dbtest.New(t)
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = database.WithTransaction(ctx, nil, func(ctx context.Context) error {
			_ = insertUser(ctx, database, "panic@x.com")
			panic("kaboom")
		})
	})
	assert.Equal(t, 0, countUsers(t, database))
}

func TestDialects(t *testing.T) {
	assert.Equal(t, "FOR UPDATE", db.Postgres.LockSuffix)
	assert.Empty(t, db.SQLite.LockSuffix)
	assert.Equal(t, "FOR SHARE", db.Postgres.ShareLockSuffix)
	assert.Empty(t, db.SQLite.ShareLockSuffix)

	sql, _, err := dbtest.New(t).Builder().Select("id").From("users").Where("id = ?", 1).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM users WHERE id = ?", sql)
}

func TestSQLiteLowerFoldsUnicode(t *testing.T) {
	database := dbtest.New(t)
	assert.Equal(t, "unicode_lower(u.name)", database.Dialect.Lower("u.name"))
	assert.Equal(t, "LOWER(u.name)", db.Postgres.Lower("u.name"))

	var folded string
	err := database.SQL.QueryRowContext(context.Background(),
		"SELECT "+database.Dialect.Lower("?"), "ÉCOLE Ouverte").Scan(&folded)
	require.NoError(t, err)
	assert.Equal(t, "école ouverte", folded)

	var null *string
	err = database.SQL.QueryRowContext(context.Background(),
		"SELECT "+database.Dialect.Lower("NULL")).Scan(&null)
	require.NoError(t, err)
	assert.Nil(t, null)
}
