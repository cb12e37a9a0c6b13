package database

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
)

// Migration is one versioned schema change read from NNN_title.up.sql / .down.sql
type Migration struct {
	Version  string
	Title    string
	UpSQL    string
	DownSQL  string
	Checksum string // SHA256 of UpSQL
}

// MigrationExecutor applies migrations and records them in schema_migrations
type MigrationExecutor struct {
	db *sql.DB
}

// NewMigrationExecutor creates a new migration executor
func NewMigrationExecutor(db *sql.DB) *MigrationExecutor {
	return &MigrationExecutor{db: db}
}

// RunMigrations applies all pending migrations from migrationsPath in version order and
// returns how many were applied.
func (m *MigrationExecutor) RunMigrations(ctx context.Context, migrationsPath string) (int, error) {
	if err := m.createMigrationsTable(ctx); err != nil {
		return 0, fmt.Errorf("failed to create migrations table: %w", err)
	}

	migrations, err := ReadMigrationFiles(migrationsPath)
	if err != nil {
		return 0, fmt.Errorf("failed to read migration files: %w", err)
	}

	applied, err := m.appliedChecksums(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get applied migrations: %w", err)
	}

	if err := validateChecksums(migrations, applied); err != nil {
		return 0, fmt.Errorf("migration validation failed: %w", err)
	}

	count := 0
	for _, migration := range migrations {
		if _, done := applied[migration.Version]; done {
			continue
		}
		if err := m.executeMigration(ctx, migration); err != nil {
			return count, fmt.Errorf("failed to execute migration %s: %w", migration.Version, err)
		}
		slog.Info("Applied migration", "version", migration.Version, "title", migration.Title)
		count++
	}

	return count, nil
}

func (m *MigrationExecutor) createMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			title VARCHAR(500),
			checksum VARCHAR(64),
			applied_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)
	`
	_, err := m.db.ExecContext(ctx, query)
	return err
}

// ReadMigrationFiles reads and pairs the migration files in migrationsPath, sorted by version.
// Versions without an up file are skipped.
func ReadMigrationFiles(migrationsPath string) ([]Migration, error) {
	files, err := os.ReadDir(migrationsPath)
	if err != nil {
		return nil, err
	}

	byVersion := make(map[string]*Migration)
	for _, file := range files {
		name := file.Name()
		if file.IsDir() {
			continue
		}

		var base string
		var isUp bool
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			base, isUp = strings.TrimSuffix(name, ".up.sql"), true
		case strings.HasSuffix(name, ".down.sql"):
			base = strings.TrimSuffix(name, ".down.sql")
		default:
			continue
		}

		version, title, ok := strings.Cut(base, "_")
		if !ok || version == "" {
			continue
		}

		content, err := os.ReadFile(filepath.Join(migrationsPath, name))
		if err != nil {
			return nil, err
		}

		migration := byVersion[version]
		if migration == nil {
			migration = &Migration{Version: version, Title: strings.ReplaceAll(title, "_", " ")}
			byVersion[version] = migration
		}
		if isUp {
			migration.UpSQL = string(content)
			migration.Checksum = calculateChecksum(migration.UpSQL)
		} else {
			migration.DownSQL = string(content)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, migration := range byVersion {
		if migration.UpSQL != "" {
			migrations = append(migrations, *migration)
		}
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// appliedChecksums returns version -> checksum for every applied migration
func (m *MigrationExecutor) appliedChecksums(ctx context.Context) (map[string]string, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT version, COALESCE(checksum, '') FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			slog.Error("Failed to close rows", "error", err)
		}
	}(rows)

	applied := make(map[string]string)
	for rows.Next() {
		var version, checksum string
		if err := rows.Scan(&version, &checksum); err != nil {
			return nil, err
		}
		applied[version] = checksum
	}

	return applied, rows.Err()
}

func (m *MigrationExecutor) executeMigration(ctx context.Context, migration Migration) error {
	return WithTx(ctx, m.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, migration.UpSQL); err != nil {
			return fmt.Errorf("migration SQL failed: %w", err)
		}

		query := `INSERT INTO schema_migrations (version, title, checksum) VALUES ($1, $2, $3)`
		if _, err := tx.ExecContext(ctx, query, migration.Version, migration.Title, migration.Checksum); err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
		return nil
	})
}

// validateChecksums fails when an applied migration file was modified afterwards
func validateChecksums(migrations []Migration, applied map[string]string) error {
	var mismatches []string
	for _, migration := range migrations {
		checksum, ok := applied[migration.Version]
		if !ok || checksum == "" || checksum == migration.Checksum {
			continue
		}
		mismatches = append(mismatches, fmt.Sprintf(
			"\n  Migration %s (%s):\n    Expected checksum: %s\n    Current checksum:  %s",
			migration.Version, migration.Title, checksum, migration.Checksum,
		))
	}

	if len(mismatches) > 0 {
		slices.Sort(mismatches)
		return fmt.Errorf(
			"applied migrations have been modified:%s\n\n"+
				"Restore the original migration files or add a new migration instead.",
			strings.Join(mismatches, ""),
		)
	}

	return nil
}

func calculateChecksum(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}
