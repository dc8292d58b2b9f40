package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shift-tracker/internal/config"
	"shift-tracker/internal/domain/entities"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// resilientEventRepository оборачивает EventRepository повторными попытками и circuit breaker.
// Чтения повторяются с экспоненциальной задержкой, запись выполняется один раз.
// Любой отказ хранилища возвращается как entities.ErrStoreUnavailable.
// Отмена запроса клиентом не считается отказом и возвращается как есть.
type resilientEventRepository struct {
	next    EventRepository
	breaker *gobreaker.CircuitBreaker[[]entities.ClockEventRecord]
	cfg     config.ResilienceConfig
	logger  *zap.Logger
}

// NewResilientEventRepository создает обертку над репозиторием отметок
func NewResilientEventRepository(next EventRepository, cfg config.ResilienceConfig, logger *zap.Logger) EventRepository {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 2 * time.Second
	}
	if cfg.BreakerMinRequests == 0 {
		cfg.BreakerMinRequests = 5
	}
	if cfg.BreakerFailureRatio <= 0 {
		cfg.BreakerFailureRatio = 0.6
	}

	settings := gobreaker.Settings{
		Name:        "clock-events",
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.BreakerMinRequests && ratio >= cfg.BreakerFailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Event store circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &resilientEventRepository{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[[]entities.ClockEventRecord](settings),
		cfg:     cfg,
		logger:  logger,
	}
}

func (r *resilientEventRepository) Append(ctx context.Context, event entities.ClockEvent) error {
	_, err := r.breaker.Execute(func() ([]entities.ClockEventRecord, error) {
		return nil, r.next.Append(ctx, event)
	})
	if err != nil {
		return r.unavailable("append", err)
	}
	return nil
}

func (r *resilientEventRepository) ListByDriver(ctx context.Context, driverID string, from, to time.Time) ([]entities.ClockEventRecord, error) {
	return r.read(ctx, "list_by_driver", func() ([]entities.ClockEventRecord, error) {
		return r.next.ListByDriver(ctx, driverID, from, to)
	})
}

func (r *resilientEventRepository) ListInRange(ctx context.Context, from, to time.Time) ([]entities.ClockEventRecord, error) {
	return r.read(ctx, "list_in_range", func() ([]entities.ClockEventRecord, error) {
		return r.next.ListInRange(ctx, from, to)
	})
}

func (r *resilientEventRepository) LatestByDriver(ctx context.Context, driverID string, limit int) ([]entities.ClockEventRecord, error) {
	return r.read(ctx, "latest_by_driver", func() ([]entities.ClockEventRecord, error) {
		return r.next.LatestByDriver(ctx, driverID, limit)
	})
}

func (r *resilientEventRepository) NextAfter(ctx context.Context, driverID string, at time.Time) (*entities.ClockEventRecord, error) {
	return r.readOne(ctx, "next_after", func() (*entities.ClockEventRecord, error) {
		return r.next.NextAfter(ctx, driverID, at)
	})
}

func (r *resilientEventRepository) LastBefore(ctx context.Context, driverID string, at time.Time) (*entities.ClockEventRecord, error) {
	return r.readOne(ctx, "last_before", func() (*entities.ClockEventRecord, error) {
		return r.next.LastBefore(ctx, driverID, at)
	})
}

func (r *resilientEventRepository) readOne(ctx context.Context, op string, fetch func() (*entities.ClockEventRecord, error)) (*entities.ClockEventRecord, error) {
	records, err := r.read(ctx, op, func() ([]entities.ClockEventRecord, error) {
		record, err := fetch()
		if err != nil || record == nil {
			return nil, err
		}
		return []entities.ClockEventRecord{*record}, nil
	})
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return &records[0], nil
}

func (r *resilientEventRepository) read(ctx context.Context, op string, fetch func() ([]entities.ClockEventRecord, error)) ([]entities.ClockEventRecord, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.cfg.InitialInterval
	bo.MaxInterval = r.cfg.MaxInterval
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, r.cfg.MaxRetries), ctx)

	var records []entities.ClockEventRecord
	attempt := 0
	operation := func() error {
		attempt++
		result, err := r.breaker.Execute(fetch)
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) ||
				errors.Is(err, gobreaker.ErrTooManyRequests) ||
				errors.Is(err, context.Canceled) {
				return backoff.Permanent(err)
			}
			r.logger.Debug("Event store read failed, retrying",
				zap.String("operation", op),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return err
		}
		records = result
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, r.unavailable(op, err)
	}

	return records, nil
}

func (r *resilientEventRepository) unavailable(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		r.logger.Debug("Event store request canceled", zap.String("operation", op))
		return err
	}

	r.logger.Error("Event store unavailable",
		zap.String("operation", op),
		zap.String("breaker_state", r.breaker.State().String()),
		zap.Error(err),
	)
	return fmt.Errorf("%w: %s: %w", entities.ErrStoreUnavailable, op, err)
}
