package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shift-tracker/internal/config"

	"github.com/cenkalti/backoff/v4"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	connectAttempts = 5
	healthTimeout   = 5 * time.Second
)

// DB подключение к PostgreSQL, в котором хранится журнал отметок
type DB struct {
	*sqlx.DB
	logger *zap.Logger
}

// NewPostgresDB открывает пул и ждет, пока база ответит на ping.
// Ping повторяется с экспоненциальной задержкой, не более connectAttempts раз.
func NewPostgresDB(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	logger.Info("Connecting to PostgreSQL database",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
	)

	pool, err := sqlx.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), connectAttempts),
		ctx,
	)
	err = backoff.RetryNotify(func() error {
		return pool.PingContext(ctx)
	}, policy, func(err error, wait time.Duration) {
		logger.Warn("Database not ready, retrying",
			zap.Error(err),
			zap.Duration("wait", wait),
		)
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Successfully connected to PostgreSQL database")

	return &DB{DB: pool, logger: logger}, nil
}

// RunMigrations применяет миграции из каталога migrationsPath
func (db *DB) RunMigrations(migrationsPath string) error {
	driver, err := postgres.WithInstance(db.DB.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	db.logger.Info("Database schema is up to date",
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}

// Close закрывает пул соединений
func (db *DB) Close() error {
	db.logger.Info("Closing database connection")
	return db.DB.Close()
}

// Health используется в /health
func (db *DB) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	return nil
}

// TransactionWithContext выполняет fn в транзакции.
// Ошибка или паника в fn откатывает транзакцию.
func (db *DB) TransactionWithContext(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error("Failed to rollback transaction",
				zap.Error(rbErr),
				zap.NamedError("cause", err),
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
