package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/rs/zerolog"

	"github.com/yigit/campusblog/internal/config"
	"github.com/yigit/campusblog/internal/pkg/helpers"
)

// Dialect captures the SQL differences between the supported databases
type Dialect struct {
	Name        string
	DriverName  string
	Placeholder squirrel.PlaceholderFormat
	// LockSuffix is appended to a SELECT to take a row lock inside a transaction.
	// SQLite has no row locks; its single writer connection serializes instead.
	LockSuffix string
	// ShareLockSuffix takes a lock that other shared lockers may also hold but
	// that excludes LockSuffix.
	ShareLockSuffix string
	// SnapshotTx are the options for multi-query reads that must see one snapshot
	SnapshotTx *sql.TxOptions
	// LowerFunc folds text to lower case for case-insensitive comparisons.
	// SQLite's built-in LOWER only folds ASCII.
	LowerFunc string
}

// Lower wraps a column or expression in the dialect's lower-case function
func (d Dialect) Lower(expr string) string {
	return d.LowerFunc + "(" + expr + ")"
}

var (
	Postgres = Dialect{
		Name:            config.DriverPostgres,
		DriverName:      "pgx",
		Placeholder:     squirrel.Dollar,
		LockSuffix:      "FOR UPDATE",
		ShareLockSuffix: "FOR SHARE",
		SnapshotTx:      &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true},
		LowerFunc:       "LOWER",
	}
	SQLite = Dialect{
		Name:        config.DriverSQLite,
		DriverName:  "sqlite",
		Placeholder: squirrel.Question,
		LowerFunc:   sqliteLowerFunc,
	}
)

// Querier is satisfied by both *sql.DB and *sql.Tx
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Database wraps the connection pool together with its dialect
type Database struct {
	SQL     *sql.DB
	Dialect Dialect
	logger  zerolog.Logger
}

type txKey struct{}

// Open connects to the database described by cfg and verifies the connection
func Open(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*Database, error) {
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.Database.Path, lgr)
	case config.DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	conn, err := sql.Open(Postgres.DriverName, cfg.GetPostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	conn.SetConnMaxLifetime(helpers.ParseDuration(cfg.Database.ConnMaxLifetime, time.Hour))

	database := &Database{SQL: conn, Dialect: Postgres, logger: lgr}
	if err := database.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to establish database connection: %w", err)
	}

	return database, nil
}

// OpenSQLite opens a SQLite database at path. ":memory:" gives a private
// in-memory database that lives as long as the returned handle.
func OpenSQLite(ctx context.Context, path string, lgr zerolog.Logger) (*Database, error) {
	if err := registerSQLiteFunctions(); err != nil {
		return nil, fmt.Errorf("sqlite: registering functions: %w", err)
	}

	conn, err := sql.Open(SQLite.DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// One connection keeps a :memory: database alive and serializes writers.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"} {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	return &Database{SQL: conn, Dialect: SQLite, logger: lgr}, nil
}

// Builder returns a squirrel statement builder using the dialect's placeholders
func (d *Database) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(d.Dialect.Placeholder)
}

// Conn returns the transaction bound to ctx, or the pool when there is none
func (d *Database) Conn(ctx context.Context) Querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return d.SQL
}

// InTransaction reports whether ctx carries an open transaction
func InTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*sql.Tx)
	return ok
}

// Ping verifies the connection with a bounded timeout
func (d *Database) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return d.SQL.PingContext(ctx)
}

// Close closes the pool
func (d *Database) Close() error {
	if d.SQL == nil {
		return nil
	}
	return d.SQL.Close()
}

// TransactionFn is a function that executes within a transaction. Repositories
// reach the transaction through Conn(ctx).
type TransactionFn func(ctx context.Context) error

// WithTransaction runs fn within a transaction. A call nested inside another
// transaction joins the outer one.
func (d *Database) WithTransaction(ctx context.Context, opts *sql.TxOptions, fn TransactionFn) error {
	if InTransaction(ctx) {
		return fn(ctx)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}

	tx, err := d.SQL.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			d.logger.Error().Err(rbErr).Msg("Failed to rollback transaction")
			return fmt.Errorf("%w (rollback error: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ReadSnapshot runs fn in a read-only transaction so that several queries
// observe the same state.
func (d *Database) ReadSnapshot(ctx context.Context, fn TransactionFn) error {
	return d.WithTransaction(ctx, d.Dialect.SnapshotTx, fn)
}
