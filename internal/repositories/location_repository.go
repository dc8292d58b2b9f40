package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shift-tracker/internal/domain/entities"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	liveLocationsKey     = "shifttracker:live_locations"
	liveLocationsUpdated = "shifttracker:live_locations:updated"
)

// LiveLocationRepository последние известные координаты водителей.
// Хранится одна точка на водителя, новая перезаписывает старую.
type LiveLocationRepository interface {
	Upsert(ctx context.Context, location *entities.LiveLocation) error
	Get(ctx context.Context, driverID string) (*entities.LiveLocation, error)
	List(ctx context.Context) ([]*entities.LiveLocation, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int, error)
}

type liveLocationRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewLiveLocationRepository создает репозиторий живых координат в Redis.
// Точки лежат в hash по driver_id, время обновления дублируется в sorted set для очистки.
func NewLiveLocationRepository(client *redis.Client, logger *zap.Logger) LiveLocationRepository {
	return &liveLocationRepository{
		client: client,
		logger: logger,
	}
}

func (r *liveLocationRepository) Upsert(ctx context.Context, location *entities.LiveLocation) error {
	payload, err := json.Marshal(location)
	if err != nil {
		return fmt.Errorf("failed to marshal live location: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, liveLocationsKey, location.DriverID, payload)
		pipe.ZAdd(ctx, liveLocationsUpdated, redis.Z{
			Score:  float64(location.UpdatedAt.Unix()),
			Member: location.DriverID,
		})
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to store live location",
			zap.Error(err),
			zap.String("driver_id", location.DriverID),
		)
		return fmt.Errorf("failed to store live location: %w", err)
	}

	return nil
}

func (r *liveLocationRepository) Get(ctx context.Context, driverID string) (*entities.LiveLocation, error) {
	payload, err := r.client.HGet(ctx, liveLocationsKey, driverID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, entities.ErrLocationNotFound
		}
		return nil, fmt.Errorf("failed to get live location: %w", err)
	}

	var location entities.LiveLocation
	if err := json.Unmarshal(payload, &location); err != nil {
		return nil, fmt.Errorf("failed to decode live location: %w", err)
	}

	return &location, nil
}

func (r *liveLocationRepository) List(ctx context.Context) ([]*entities.LiveLocation, error) {
	values, err := r.client.HGetAll(ctx, liveLocationsKey).Result()
	if err != nil {
		r.logger.Error("Failed to list live locations", zap.Error(err))
		return nil, fmt.Errorf("failed to list live locations: %w", err)
	}

	locations := make([]*entities.LiveLocation, 0, len(values))
	for driverID, payload := range values {
		var location entities.LiveLocation
		if err := json.Unmarshal([]byte(payload), &location); err != nil {
			r.logger.Warn("Skipping undecodable live location",
				zap.String("driver_id", driverID),
				zap.Error(err),
			)
			continue
		}
		locations = append(locations, &location)
	}

	return locations, nil
}

// DeleteOlderThan удаляет точки, не обновлявшиеся с момента before
func (r *liveLocationRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int, error) {
	stale, err := r.client.ZRangeByScore(ctx, liveLocationsUpdated, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("(%d", before.Unix()),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to find stale live locations: %w", err)
	}

	if len(stale) == 0 {
		return 0, nil
	}

	members := make([]interface{}, len(stale))
	for i, id := range stale {
		members[i] = id
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, liveLocationsKey, stale...)
		pipe.ZRem(ctx, liveLocationsUpdated, members...)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale live locations: %w", err)
	}

	r.logger.Info("Stale live locations removed", zap.Int("count", len(stale)))
	return len(stale), nil
}
