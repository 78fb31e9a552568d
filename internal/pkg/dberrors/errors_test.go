package dberrors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestIsUniqueViolation_Postgres(t *testing.T) {
	err := fmt.Errorf("insert user: %w", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
	assert.True(t, IsUniqueViolation(err))

	fkErr := &pgconn.PgError{Code: "23503"}
	assert.False(t, IsUniqueViolation(fkErr))
}

func TestIsUniqueViolation_SQLite(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	_, err = db.ExecContext(ctx, `CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT NOT NULL UNIQUE)`)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `INSERT INTO users (id, email) VALUES (1, 'a@x.com')`)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `INSERT INTO users (id, email) VALUES (2, 'a@x.com')`)
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	_, err = db.ExecContext(ctx, `INSERT INTO users (id, email) VALUES (1, 'b@x.com')`)
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	_, err = db.ExecContext(ctx, `INSERT INTO users (id, email) VALUES (3, NULL)`)
	require.Error(t, err)
	assert.False(t, IsUniqueViolation(err))
}

func TestIsUniqueViolation_OtherErrors(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(errors.New("duplicate key value")))
}
