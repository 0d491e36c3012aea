package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/OldStager01/botnet-detectors-comparer/internal/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Migrator struct {
	db      *DB
	timeout time.Duration
}

func NewMigrator(db *DB, timeout time.Duration) *Migrator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Migrator{db: db, timeout: timeout}
}

// Run applies every embedded migration not yet recorded in
// schema_migrations, in file name order.
func (m *Migrator) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if _, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename   TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	files, err := MigrationFiles()
	if err != nil {
		return fmt.Errorf("failed to get migration files: %w", err)
	}

	for _, file := range files {
		applied, err := m.applied(ctx, file)
		if err != nil {
			return err
		}
		if applied {
			logger.Debugf("Migration %s already applied", file)
			continue
		}
		if err := m.executeMigration(ctx, file); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", file, err)
		}
	}

	return nil
}

func (m *Migrator) applied(ctx context.Context, filename string) (bool, error) {
	var exists bool
	err := m.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE filename = $1)`, filename,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check migration %s: %w", filename, err)
	}
	return exists, nil
}

// MigrationFiles lists the embedded migration files in apply order.
func MigrationFiles() ([]string, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}

	sort.Strings(files)
	return files, nil
}

func (m *Migrator) executeMigration(ctx context.Context, filename string) error {
	content, err := fs.ReadFile(migrationsFS, "migrations/"+filename)
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	logger.Infof("Executing migration: %s", filename)

	return m.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("failed to execute SQL: %w", err)
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (filename) VALUES ($1)`, filename)
		return err
	})
}
