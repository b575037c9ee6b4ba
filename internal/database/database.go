package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/adyen/productprobe/internal/config"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Open establishes a connection to the configured results store and verifies it
func Open(cfg *config.ResultsConfig) (*sql.DB, error) {
	driverName, err := DriverName(cfg.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.Driver == config.ResultsSQLite {
		// sqlite allows a single writer
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
	}
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// DriverName maps a results driver to its database/sql driver name
func DriverName(resultsDriver string) (string, error) {
	switch resultsDriver {
	case config.ResultsPostgres:
		return "postgres", nil
	case config.ResultsSQLite:
		return "sqlite", nil
	default:
		return "", fmt.Errorf("no database for results driver %q", resultsDriver)
	}
}
