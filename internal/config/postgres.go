package config

import (
	"fmt"
)

// PostgresConfig holds connection settings for the PostgreSQL results store
type PostgresConfig struct {
	User     string
	Password string
	Database string
	Host     string
	Port     string
	SSLMode  string
}

// LoadPostgresConfig loads PostgreSQL configuration from environment variables
func LoadPostgresConfig(getenv func(string) string) (*PostgresConfig, error) {
	config := &PostgresConfig{
		User:     getenv("POSTGRES_USER"),
		Password: getenv("POSTGRES_PASSWORD"),
		Database: getenv("POSTGRES_DB"),
		Host:     getenv("POSTGRES_HOSTNAME"),
		Port:     getenv("POSTGRES_PORT"),
		SSLMode:  getenv("POSTGRES_SSLMODE"),
	}

	required := []struct {
		key   string
		value string
	}{
		{"POSTGRES_USER", config.User},
		{"POSTGRES_PASSWORD", config.Password},
		{"POSTGRES_DB", config.Database},
		{"POSTGRES_HOSTNAME", config.Host},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, fmt.Errorf("%s is required", r.key)
		}
	}

	if config.SSLMode == "" {
		config.SSLMode = "disable"
	}

	return config, nil
}

// ConnectionString returns a lib/pq keyword/value connection string
func (c *PostgresConfig) ConnectionString() string {
	conn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Database, c.SSLMode)
	if c.Port != "" {
		conn += " port=" + c.Port
	}
	return conn
}
