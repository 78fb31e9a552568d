package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"

	"github.com/yigit/campusblog/internal/db"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Migrator manages database migrations. SQL files live in one directory per
// dialect and are applied in lexical order, each inside its own transaction.
type Migrator struct {
	db     *db.Database
	source fs.FS
	logger zerolog.Logger
}

// NewMigrator creates a migrator reading the embedded migrations
func NewMigrator(database *db.Database, lgr zerolog.Logger) *Migrator {
	return &Migrator{
		db:     database,
		source: files,
		logger: lgr,
	}
}

// ensureMigrationTableExists creates the migration tracking table if it doesn't exist
func (m *Migrator) ensureMigrationTableExists(ctx context.Context) error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := m.db.SQL.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create migration tracking table: %w", err)
	}
	return nil
}

// isMigrationApplied checks if a specific migration has already been applied
func (m *Migrator) isMigrationApplied(ctx context.Context, version string) (bool, error) {
	query, args, err := m.db.Builder().
		Select("COUNT(*)").
		From("schema_migrations").
		Where(squirrel.Eq{"version": version}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build migration status query: %w", err)
	}

	var count int
	if err := m.db.Conn(ctx).QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}
	return count > 0, nil
}

// recordMigration marks a migration as applied
func (m *Migrator) recordMigration(ctx context.Context, version string) error {
	query, args, err := m.db.Builder().
		Insert("schema_migrations").
		Columns("version", "applied_at").
		Values(version, time.Now().UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build migration record query: %w", err)
	}

	if _, err := m.db.Conn(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return nil
}

// Run applies every pending migration for the database's dialect
func (m *Migrator) Run(ctx context.Context) error {
	if err := m.ensureMigrationTableExists(ctx); err != nil {
		return err
	}

	dir := m.db.Dialect.Name
	entries, err := fs.ReadDir(m.source, dir)
	if err != nil {
		return fmt.Errorf("failed to read migration directory %s: %w", dir, err)
	}

	var sqlFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			sqlFiles = append(sqlFiles, entry.Name())
		}
	}
	sort.Strings(sqlFiles)

	for _, name := range sqlFiles {
		if err := m.apply(ctx, path.Join(dir, name)); err != nil {
			return err
		}
	}

	return nil
}

// apply executes one migration file unless its version is already recorded.
// The version is the filename prefix before the first underscore ("001_init.sql" => "001").
func (m *Migrator) apply(ctx context.Context, filePath string) error {
	filename := path.Base(filePath)
	version := strings.Split(filename, "_")[0]

	applied, err := m.isMigrationApplied(ctx, version)
	if err != nil {
		return err
	}
	if applied {
		m.logger.Debug().Str("migration", filename).Msg("Migration already applied, skipping")
		return nil
	}

	content, err := fs.ReadFile(m.source, filePath)
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	err = m.db.WithTransaction(ctx, nil, func(ctx context.Context) error {
		if _, err := m.db.Conn(ctx).ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("error occurred during SQL migration %s: %w", filename, err)
		}
		return m.recordMigration(ctx, version)
	})
	if err != nil {
		return err
	}

	m.logger.Info().Str("migration", filename).Str("dialect", m.db.Dialect.Name).Msg("Migration applied")
	return nil
}
