package config

import (
	"fmt"
	"strings"
)

// Results store drivers
const (
	ResultsNone     = "none"
	ResultsSQLite   = "sqlite"
	ResultsPostgres = "postgres"
)

// ResultsConfig selects where scenario results are persisted
type ResultsConfig struct {
	Driver     string
	SQLitePath string
	Postgres   *PostgresConfig
}

// Enabled reports whether results should be persisted at all
func (c *ResultsConfig) Enabled() bool {
	return c.Driver != ResultsNone
}

// DSN returns the data source name for the selected driver
func (c *ResultsConfig) DSN() string {
	switch c.Driver {
	case ResultsPostgres:
		return c.Postgres.ConnectionString()
	case ResultsSQLite:
		return c.SQLitePath + "?_pragma=busy_timeout(5000)"
	default:
		return ""
	}
}

// LoadResultsConfig loads results store configuration from environment variables
func LoadResultsConfig(getenv func(string) string) (*ResultsConfig, error) {
	config := &ResultsConfig{
		Driver:     strings.ToLower(getenv("RESULTS_DRIVER")),
		SQLitePath: getenv("RESULTS_SQLITE_PATH"),
	}
	if config.Driver == "" {
		config.Driver = ResultsNone
	}
	if config.SQLitePath == "" {
		config.SQLitePath = "probe-results.db"
	}

	switch config.Driver {
	case ResultsNone, ResultsSQLite:
	case ResultsPostgres:
		pg, err := LoadPostgresConfig(getenv)
		if err != nil {
			return nil, fmt.Errorf("invalid postgres results store: %w", err)
		}
		config.Postgres = pg
	default:
		return nil, fmt.Errorf("RESULTS_DRIVER must be one of none, sqlite, postgres, got %q", config.Driver)
	}

	return config, nil
}
