package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"shift-tracker/internal/domain/entities"
	"shift-tracker/internal/repositories"

	"go.uber.org/zap"
)

// LocationService живая карта водителей
type LocationService interface {
	UpdateLiveLocation(ctx context.Context, driverID string, point entities.GeoPoint) (*entities.LiveLocation, error)
	GetLiveLocation(ctx context.Context, driverID string) (*entities.LiveLocation, error)
	ListLiveLocations(ctx context.Context) ([]*entities.LiveMapMarker, error)
	CleanupStaleLocations(ctx context.Context) (int, error)
}

type locationService struct {
	locationRepo repositories.LiveLocationRepository
	driverRepo   repositories.DriverRepository
	ttl          time.Duration
	now          func() time.Time
	logger       *zap.Logger
}

// NewLocationService создает LocationService.
// Точки старше ttl удаляются CleanupStaleLocations, ttl <= 0 отключает очистку.
func NewLocationService(
	locationRepo repositories.LiveLocationRepository,
	driverRepo repositories.DriverRepository,
	ttl time.Duration,
	logger *zap.Logger,
) LocationService {
	return &locationService{
		locationRepo: locationRepo,
		driverRepo:   driverRepo,
		ttl:          ttl,
		now:          time.Now,
		logger:       logger,
	}
}

// UpdateLiveLocation сохраняет последнюю точку водителя
func (s *locationService) UpdateLiveLocation(ctx context.Context, driverID string, point entities.GeoPoint) (*entities.LiveLocation, error) {
	location := entities.NewLiveLocation(driverID, point, s.now().UTC())
	if err := location.Validate(); err != nil {
		return nil, err
	}

	if err := s.locationRepo.Upsert(ctx, location); err != nil {
		s.logger.Error("Failed to update live location",
			zap.Error(err),
			zap.String("driver_id", driverID),
		)
		return nil, fmt.Errorf("failed to update live location: %w", err)
	}

	s.logger.Debug("Live location updated",
		zap.String("driver_id", driverID),
		zap.Float64("latitude", point.Latitude),
		zap.Float64("longitude", point.Longitude),
	)

	return location, nil
}

// GetLiveLocation возвращает последнюю точку водителя
func (s *locationService) GetLiveLocation(ctx context.Context, driverID string) (*entities.LiveLocation, error) {
	if err := validateDriverID(driverID); err != nil {
		return nil, err
	}

	location, err := s.locationRepo.Get(ctx, driverID)
	if err != nil {
		if err == entities.ErrLocationNotFound {
			return nil, err
		}
		s.logger.Error("Failed to get live location",
			zap.Error(err),
			zap.String("driver_id", driverID),
		)
		return nil, fmt.Errorf("failed to get live location: %w", err)
	}

	return location, nil
}

// ListLiveLocations возвращает маркеры для карты с именами водителей
func (s *locationService) ListLiveLocations(ctx context.Context) ([]*entities.LiveMapMarker, error) {
	locations, err := s.locationRepo.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list live locations", zap.Error(err))
		return nil, fmt.Errorf("failed to list live locations: %w", err)
	}

	ids := make([]string, 0, len(locations))
	for _, l := range locations {
		ids = append(ids, l.DriverID)
	}

	drivers, err := s.driverRepo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("Failed to load drivers for live map", zap.Error(err))
		return nil, fmt.Errorf("failed to load drivers: %w", err)
	}

	markers := make([]*entities.LiveMapMarker, 0, len(locations))
	for _, l := range locations {
		driver, ok := drivers[l.DriverID]
		if !ok {
			driver = &entities.Driver{ID: l.DriverID}
		}
		markers = append(markers, &entities.LiveMapMarker{
			DriverID:       l.DriverID,
			FullName:       driver.DisplayName(),
			Initials:       driver.Initials(),
			Latitude:       l.Latitude,
			Longitude:      l.Longitude,
			LastUpdateTime: l.UpdatedAt,
		})
	}

	sort.Slice(markers, func(i, j int) bool {
		if markers[i].FullName != markers[j].FullName {
			return markers[i].FullName < markers[j].FullName
		}
		return markers[i].DriverID < markers[j].DriverID
	})

	return markers, nil
}

// CleanupStaleLocations удаляет точки, которые давно не обновлялись
func (s *locationService) CleanupStaleLocations(ctx context.Context) (int, error) {
	if s.ttl <= 0 {
		return 0, nil
	}

	removed, err := s.locationRepo.DeleteOlderThan(ctx, s.now().Add(-s.ttl))
	if err != nil {
		s.logger.Error("Failed to cleanup stale live locations", zap.Error(err))
		return 0, fmt.Errorf("failed to cleanup stale live locations: %w", err)
	}

	return removed, nil
}
