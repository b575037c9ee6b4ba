package testutil

import (
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adyen/productprobe/internal/config"
	"github.com/adyen/productprobe/internal/database"
	_ "github.com/lib/pq"
)

// TestDatabase represents an isolated test database
type TestDatabase struct {
	DB         *sql.DB
	DriverName string
	SchemaName string
	masterDB   *sql.DB
}

// SetupSQLiteDatabase creates a migrated SQLite database in a temporary directory
func SetupSQLiteDatabase(t *testing.T) *TestDatabase {
	t.Helper()

	db, err := database.Open(&config.ResultsConfig{
		Driver:     config.ResultsSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "results.db"),
	})
	if err != nil {
		t.Fatalf("Failed to open sqlite database: %v", err)
	}

	testDatabase := &TestDatabase{DB: db, DriverName: "sqlite"}
	if err := database.RunMigrations(db); err != nil {
		testDatabase.Teardown(t)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return testDatabase
}

// SetupPostgresDatabase creates an isolated schema for testing
func SetupPostgresDatabase(t *testing.T) *TestDatabase {
	t.Helper()

	// Load Postgres configuration from environment
	connConfig, err := config.LoadPostgresConfig(func(key string) string {
		switch key {
		case "POSTGRES_USER":
			return getEnvOrDefault("POSTGRES_USER", "postgres")
		case "POSTGRES_PASSWORD":
			return getEnvOrDefault("POSTGRES_PASSWORD", "postgres")
		case "POSTGRES_DB":
			return getEnvOrDefault("POSTGRES_DB", "postgres")
		case "POSTGRES_HOSTNAME":
			return getEnvOrDefault("POSTGRES_HOSTNAME", "localhost")
		default:
			return os.Getenv(key)
		}
	})
	if err != nil {
		t.Fatalf("Failed to load postgres config: %v", err)
	}

	// Connect to the master database
	masterConnStr := connConfig.ConnectionString()
	masterDB, err := sql.Open("postgres", masterConnStr)
	if err != nil {
		t.Fatalf("Failed to connect to master database: %v", err)
	}

	if err := masterDB.Ping(); err != nil {
		masterDB.Close()
		t.Fatalf("Failed to ping master database: %v", err)
	}

	// Generate unique schema name for this test
	schemaName := fmt.Sprintf("test_schema_%d_%d", time.Now().UnixNano(), rand.Intn(10000))

	_, err = masterDB.Exec(fmt.Sprintf("CREATE SCHEMA %s", schemaName))
	if err != nil {
		masterDB.Close()
		t.Fatalf("Failed to create test schema: %v", err)
	}

	// Connect to the same database but set search_path to the test schema
	testConnStr := fmt.Sprintf("%s search_path=%s", masterConnStr, schemaName)
	testDB, err := sql.Open("postgres", testConnStr)
	if err != nil {
		masterDB.Exec(fmt.Sprintf("DROP SCHEMA %s CASCADE", schemaName))
		masterDB.Close()
		t.Fatalf("Failed to connect to test schema: %v", err)
	}

	testDB.SetMaxOpenConns(5)
	testDB.SetMaxIdleConns(2)
	testDB.SetConnMaxLifetime(5 * time.Minute)

	testDatabase := &TestDatabase{
		DB:         testDB,
		DriverName: "postgres",
		SchemaName: schemaName,
		masterDB:   masterDB,
	}

	if err := testDB.Ping(); err != nil {
		testDatabase.Teardown(t)
		t.Fatalf("Failed to ping test database: %v", err)
	}

	// Run migrations in the test schema
	if err := database.RunMigrations(testDB); err != nil {
		testDatabase.Teardown(t)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return testDatabase
}

// Teardown closes the database and drops the test schema, if one was created
func (td *TestDatabase) Teardown(t *testing.T) {
	t.Helper()

	if td.DB != nil {
		td.DB.Close()
	}

	if td.masterDB != nil {
		_, err := td.masterDB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", td.SchemaName))
		if err != nil {
			t.Logf("Warning: Failed to drop test schema %s: %v", td.SchemaName, err)
		}
		td.masterDB.Close()
	}
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
