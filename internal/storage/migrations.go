package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Test run history",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS test_runs (
					id TEXT PRIMARY KEY,
					created_at DATETIME NOT NULL,
					device_id TEXT NOT NULL,
					meter_name TEXT NOT NULL,
					formula TEXT NOT NULL,
					multiplier TEXT NOT NULL,
					start_value TEXT NOT NULL,
					end_value TEXT NOT NULL,
					meter_consumption TEXT NOT NULL,
					flowmeter_total TEXT NOT NULL,
					relative_error TEXT,
					verdict TEXT NOT NULL,
					sample_count INTEGER NOT NULL DEFAULT 0,
					source_file TEXT,
					report_path TEXT
				)`,
				`CREATE INDEX idx_test_runs_created ON test_runs(created_at)`,
				`CREATE INDEX idx_test_runs_device ON test_runs(device_id)`,
			}
			for _, q := range queries {
				if _, err := tx.Exec(q); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Store selected samples per test run",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS test_run_samples (
					test_run_id TEXT NOT NULL,
					position INTEGER NOT NULL,
					row_number INTEGER NOT NULL,
					volume TEXT NOT NULL,
					device_ts TEXT NOT NULL,
					device_id TEXT NOT NULL,
					PRIMARY KEY (test_run_id, position),
					FOREIGN KEY (test_run_id) REFERENCES test_runs(id) ON DELETE CASCADE
				)`,
				`CREATE INDEX idx_test_run_samples_run ON test_run_samples(test_run_id)`,
			}
			for _, q := range queries {
				if _, err := tx.Exec(q); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate brings the schema up to ExpectedSchemaVersion.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Debug("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
