package database

import (
	"database/sql"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS scenario_results (
		id VARCHAR(36) PRIMARY KEY,
		run_id VARCHAR(36) NOT NULL,
		scenario VARCHAR(255) NOT NULL,
		outcome VARCHAR(32) NOT NULL,
		verdict VARCHAR(16) NOT NULL,
		final_url TEXT NOT NULL DEFAULT '',
		message TEXT NOT NULL DEFAULT '',
		phase VARCHAR(32) NOT NULL DEFAULT '',
		screenshot_path TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMP NOT NULL,
		duration_ms BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_scenario_results_run_id ON scenario_results(run_id)`,
	`CREATE INDEX IF NOT EXISTS idx_scenario_results_verdict ON scenario_results(verdict)`,
}

// RunMigrations creates the results tables. The statements are valid for both PostgreSQL
// and SQLite.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("database connection not initialized")
	}

	for _, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	return nil
}
