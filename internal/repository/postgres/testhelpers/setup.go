package testhelpers

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dbrnz/openmaptiles-tools/internal/config"
	"github.com/dbrnz/openmaptiles-tools/internal/repository/postgres"
)

// TestDB represents a test database connection
type TestDB struct {
	Config *config.DatabaseConfig
	DB     *postgres.DB
	Logger *zap.Logger
}

// Guard skips the calling test unless a test database is declared through
// the environment.
func Guard(t *testing.T) {
	if os.Getenv("TEST_DB_HOST") == "" {
		t.Skip("TEST_DB_HOST not set, skipping database tests")
	}
}

// TestDatabaseConfig assembles connection settings from TEST_DB_* variables.
func TestDatabaseConfig() *config.DatabaseConfig {
	return &config.DatabaseConfig{
		Host:            getEnv("TEST_DB_HOST", "localhost"),
		Port:            getEnvInt("TEST_DB_PORT", 5432),
		User:            getEnv("TEST_DB_USER", "openmaptiles"),
		Password:        getEnv("TEST_DB_PASSWORD", "openmaptiles"),
		DBName:          getEnv("TEST_DB_NAME", "openmaptiles_test"),
		SSLMode:         getEnv("TEST_DB_SSLMODE", "disable"),
		MaxConns:        4,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: time.Minute,
	}
}

// SetupTestDB initializes a test database connection
func SetupTestDB(t *testing.T) *TestDB {
	Guard(t)

	cfg := TestDatabaseConfig()
	logger := zap.NewNop()

	// Retry connection with exponential backoff to wait for DB recovery
	var db *postgres.DB
	var err error
	maxRetries := 10
	retryDelay := 500 * time.Millisecond

	for i := 0; i < maxRetries; i++ {
		db, err = postgres.New(cfg, logger)
		if err == nil {
			break
		}

		if i < maxRetries-1 {
			t.Logf("Database not ready (attempt %d/%d), waiting %v...", i+1, maxRetries, retryDelay)
			time.Sleep(retryDelay)
			retryDelay *= 2 // exponential backoff
		}
	}

	if err != nil {
		t.Fatalf("Failed to connect to test database after %d attempts: %v", maxRetries, err)
	}

	// Check PostGIS availability
	version, err := db.CheckPostGIS(context.Background())
	if err != nil {
		t.Fatalf("PostGIS not available: %v", err)
	}
	t.Logf("PostGIS version: %s", version)

	return &TestDB{
		Config: cfg,
		DB:     db,
		Logger: logger,
	}
}

// SetupDebugTestDB connects like SetupTestDB but through the single
// connection, notice-collecting pool the debug repository needs.
func SetupDebugTestDB(t *testing.T) *TestDB {
	Guard(t)

	cfg := TestDatabaseConfig()
	logger := zap.NewNop()

	db, err := postgres.NewDebug(cfg, logger)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if _, err := db.CheckPostGIS(context.Background()); err != nil {
		t.Fatalf("PostGIS not available: %v", err)
	}

	return &TestDB{
		Config: cfg,
		DB:     db,
		Logger: logger,
	}
}

// Close closes the database connection
func (tdb *TestDB) Close() {
	if tdb.DB != nil {
		tdb.DB.Close()
	}
}

// getEnv gets environment variable or returns default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
