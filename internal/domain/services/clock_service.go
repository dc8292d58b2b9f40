package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"shift-tracker/internal/domain/entities"
	"shift-tracker/internal/infrastructure/metrics"
	"shift-tracker/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ClockService принимает отметки о начале и конце смены
type ClockService interface {
	ValidateLocation(point entities.GeoPoint) bool
	CheckLocation(point entities.GeoPoint) (*GeofenceCheck, error)
	ClockIn(ctx context.Context, cmd *ClockInCommand) (*ClockReceipt, error)
	ClockOut(ctx context.Context, cmd *ClockOutCommand) (*ClockReceipt, error)
}

// ClockInCommand запрос на начало смены
type ClockInCommand struct {
	DriverID string
	Point    entities.GeoPoint
	Note     *string
}

// ClockOutCommand запрос на завершение смены
type ClockOutCommand struct {
	DriverID      string
	Point         entities.GeoPoint
	Note          *string
	FuelUsed      *float64
	TicketEntries []entities.TicketEntry
}

// GeofenceCheck результат проверки точки
type GeofenceCheck struct {
	Within     bool    `json:"within"`
	DistanceKm float64 `json:"distance_km"`
	RadiusKm   float64 `json:"radius_km"`
}

// ClockReceipt подтверждение принятой отметки
type ClockReceipt struct {
	EventID    uuid.UUID          `json:"event_id"`
	DriverID   string             `json:"driver_id"`
	Kind       entities.ClockKind `json:"kind"`
	Timestamp  time.Time          `json:"timestamp"`
	DistanceKm float64            `json:"distance_km"`
	// OpenSince начало смены, которую закрывает ClockOut
	OpenSince *time.Time `json:"open_since,omitempty"`
	// DurationHours продолжительность закрытой смены
	DurationHours *float64 `json:"duration_hours,omitempty"`
}

type clockService struct {
	eventRepo    repositories.EventRepository
	locationRepo repositories.LiveLocationRepository
	shifts       ShiftService
	eventBus     EventPublisher
	metrics      *metrics.Metrics
	geofence     entities.Geofence
	now          func() time.Time
	logger       *zap.Logger
}

// NewClockService создает ClockService
func NewClockService(
	eventRepo repositories.EventRepository,
	locationRepo repositories.LiveLocationRepository,
	shifts ShiftService,
	eventBus EventPublisher,
	m *metrics.Metrics,
	geofence entities.Geofence,
	logger *zap.Logger,
) ClockService {
	return &clockService{
		eventRepo:    eventRepo,
		locationRepo: locationRepo,
		shifts:       shifts,
		eventBus:     eventBus,
		metrics:      m,
		geofence:     geofence,
		now:          time.Now,
		logger:       logger,
	}
}

// ValidateLocation проверяет, что точка внутри зоны
func (s *clockService) ValidateLocation(point entities.GeoPoint) bool {
	return point.IsValid() && s.geofence.Contains(point)
}

// CheckLocation возвращает расстояние до центра зоны
func (s *clockService) CheckLocation(point entities.GeoPoint) (*GeofenceCheck, error) {
	if !point.IsValid() {
		return nil, entities.ErrInvalidLocation
	}

	return &GeofenceCheck{
		Within:     s.geofence.Contains(point),
		DistanceKm: roundKm(entities.HaversineDistanceKm(point, s.geofence.Center)),
		RadiusKm:   s.geofence.RadiusKm,
	}, nil
}

// ClockIn начинает смену
func (s *clockService) ClockIn(ctx context.Context, cmd *ClockInCommand) (*ClockReceipt, error) {
	if err := s.checkGeofence(cmd.DriverID, entities.ClockKindIn, cmd.Point); err != nil {
		return nil, err
	}

	status, err := s.shifts.GetCurrentStatus(ctx, cmd.DriverID)
	if err != nil {
		return nil, err
	}
	if status.Status == entities.ClockStatusClockedIn {
		s.logger.Warn("Clock-in while a shift is already open",
			zap.String("driver_id", cmd.DriverID),
			zap.Timep("open_since", status.OpenSince),
		)
	}

	event, err := entities.NewClockIn(cmd.DriverID, s.now(), cmd.Point, cmd.Note)
	if err != nil {
		return nil, err
	}

	if err := s.append(ctx, event); err != nil {
		return nil, err
	}

	receipt := s.receipt(event)
	s.afterAppend(ctx, event, EventClockIn, map[string]interface{}{
		"event_id":  event.ID.String(),
		"timestamp": event.Timestamp,
		"latitude":  event.Point.Latitude,
		"longitude": event.Point.Longitude,
	})

	return receipt, nil
}

// ClockOut завершает смену. Если смена была открыта, в ответе ее продолжительность.
func (s *clockService) ClockOut(ctx context.Context, cmd *ClockOutCommand) (*ClockReceipt, error) {
	if err := s.checkGeofence(cmd.DriverID, entities.ClockKindOut, cmd.Point); err != nil {
		return nil, err
	}

	status, err := s.shifts.GetCurrentStatus(ctx, cmd.DriverID)
	if err != nil {
		return nil, err
	}

	event, err := entities.NewClockOut(cmd.DriverID, s.now(), cmd.Point, cmd.Note, cmd.FuelUsed, cmd.TicketEntries)
	if err != nil {
		return nil, err
	}

	if err := s.append(ctx, event); err != nil {
		return nil, err
	}

	receipt := s.receipt(event)
	data := map[string]interface{}{
		"event_id":       event.ID.String(),
		"timestamp":      event.Timestamp,
		"ticket_count":   len(event.TicketEntries),
		"had_open_shift": status.OpenSince != nil,
	}

	if status.Status == entities.ClockStatusClockedIn && status.OpenSince != nil && event.Timestamp.After(*status.OpenSince) {
		since := *status.OpenSince
		hours := entities.DurationHours(event.Timestamp.Sub(since))
		receipt.OpenSince = &since
		receipt.DurationHours = &hours
		data["duration_hours"] = hours
	} else {
		s.logger.Warn("Clock-out without an open shift",
			zap.String("driver_id", cmd.DriverID),
			zap.String("event_id", event.ID.String()),
		)
	}

	if event.FuelUsed != nil {
		data["fuel_used"] = *event.FuelUsed
	}

	s.afterAppend(ctx, event, EventClockOut, data)

	return receipt, nil
}

func (s *clockService) checkGeofence(driverID string, kind entities.ClockKind, point entities.GeoPoint) error {
	if err := validateDriverID(driverID); err != nil {
		return err
	}

	err := s.geofence.Check(point)
	if err == nil {
		return nil
	}

	var violation *entities.GeofenceViolation
	if errors.As(err, &violation) {
		s.metrics.GeofenceRejected()
		s.logger.Info("Clock action rejected outside geofence",
			zap.String("driver_id", driverID),
			zap.String("kind", string(kind)),
			zap.Float64("distance_km", violation.DistanceKm),
			zap.Float64("radius_km", violation.RadiusKm),
		)
	}

	return err
}

func (s *clockService) append(ctx context.Context, event entities.ClockEvent) error {
	if err := s.eventRepo.Append(ctx, event); err != nil {
		s.logger.Error("Failed to record clock event",
			zap.Error(err),
			zap.String("driver_id", event.Driver()),
			zap.String("kind", string(event.Kind())),
		)
		return fmt.Errorf("failed to record clock event: %w", err)
	}

	s.metrics.ClockEventAccepted(event.Kind())
	s.logger.Info("Clock event recorded",
		zap.String("driver_id", event.Driver()),
		zap.String("kind", string(event.Kind())),
		zap.String("event_id", event.EventID().String()),
		zap.Time("timestamp", event.At()),
	)
	return nil
}

// afterAppend обновляет живую точку и публикует событие. Ошибки только логируются:
// отметка уже сохранена.
func (s *clockService) afterAppend(ctx context.Context, event entities.ClockEvent, eventType string, data map[string]interface{}) {
	location := entities.NewLiveLocation(event.Driver(), event.Location(), event.At())
	if err := s.locationRepo.Upsert(ctx, location); err != nil {
		s.logger.Error("Failed to update live location after clock event",
			zap.Error(err),
			zap.String("driver_id", event.Driver()),
		)
	}

	if err := s.eventBus.PublishDriverEvent(ctx, eventType, event.Driver(), data); err != nil {
		s.logger.Error("Failed to publish clock event",
			zap.Error(err),
			zap.String("event_type", eventType),
			zap.String("driver_id", event.Driver()),
		)
	}
}

func (s *clockService) receipt(event entities.ClockEvent) *ClockReceipt {
	return &ClockReceipt{
		EventID:    event.EventID(),
		DriverID:   event.Driver(),
		Kind:       event.Kind(),
		Timestamp:  event.At(),
		DistanceKm: roundKm(entities.HaversineDistanceKm(event.Location(), s.geofence.Center)),
	}
}

func roundKm(km float64) float64 {
	return math.Round(km*100) / 100
}
