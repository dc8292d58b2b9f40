//go:build integration

package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"shift-tracker/internal/config"
	"shift-tracker/internal/infrastructure/database"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

const testMigrationsPath = "../infrastructure/database/migrations"

// testDB отдельная база на каждый suite
type testDB struct {
	*database.DB
	name   string
	config config.DatabaseConfig
	logger *zap.Logger
}

// setupTestDB создает базу и применяет миграции
func setupTestDB(t *testing.T) *testDB {
	t.Helper()
	logger := zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))
	cfg := testDatabaseConfig()

	name := sanitizeDBName(fmt.Sprintf("test_%s_%d", t.Name(), time.Now().UnixNano()))

	admin, err := sql.Open("postgres", adminDSN(cfg))
	if err != nil {
		t.Fatalf("Failed to connect to main database: %v", err)
	}
	defer admin.Close()

	if _, err := admin.Exec(fmt.Sprintf("CREATE DATABASE %s", name)); err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	cfg.Database = name
	db, err := database.NewPostgresDB(context.Background(), &cfg, logger)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.RunMigrations(testMigrationsPath); err != nil {
		t.Fatalf("Failed to run test migrations: %v", err)
	}

	return &testDB{DB: db, name: name, config: cfg, logger: logger}
}

// teardown удаляет тестовую базу
func (tdb *testDB) teardown(t *testing.T) {
	if tdb == nil {
		return
	}
	tdb.DB.Close()

	admin, err := sql.Open("postgres", adminDSN(tdb.config))
	if err != nil {
		t.Errorf("Failed to connect to main database for cleanup: %v", err)
		return
	}
	defer admin.Close()

	_, _ = admin.Exec(`
		SELECT pg_terminate_backend(pid)
		FROM pg_stat_activity
		WHERE datname = $1 AND pid <> pg_backend_pid()`, tdb.name)

	if _, err := admin.Exec(fmt.Sprintf("DROP DATABASE IF EXISTS %s", tdb.name)); err != nil {
		t.Errorf("Failed to drop test database: %v", err)
	}
}

// truncate очищает таблицы перед тестом
func (tdb *testDB) truncate(t *testing.T) {
	for _, table := range []string{"ticket_entries", "clock_events", "drivers"} {
		if _, err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			t.Errorf("Failed to truncate table %s: %v", table, err)
		}
	}
}

func testDatabaseConfig() config.DatabaseConfig {
	port, _ := strconv.Atoi(getEnvOrDefault("TEST_DB_PORT", "5432"))
	return config.DatabaseConfig{
		Host:            getEnvOrDefault("TEST_DB_HOST", "localhost"),
		Port:            port,
		User:            getEnvOrDefault("TEST_DB_USER", "postgres"),
		Password:        getEnvOrDefault("TEST_DB_PASSWORD", "postgres"),
		Database:        "postgres",
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

func adminDSN(cfg config.DatabaseConfig) string {
	cfg.Database = "postgres"
	return cfg.GetDSN()
}

// setupTestRedis подключается к Redis из TEST_REDIS_ADDR, отдельная база 15
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr: getEnvOrDefault("TEST_REDIS_ADDR", "localhost:6379"),
		DB:   15,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to redis: %v", err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush redis: %v", err)
	}

	return client
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// sanitizeDBName оставляет в имени только допустимые символы
func sanitizeDBName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, name)

	if len(name) > 63 {
		name = name[:63]
	}
	name = strings.Trim(name, "_")
	if name == "" {
		return "test_db"
	}
	return name
}
