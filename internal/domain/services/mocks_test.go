package services

import (
	"context"
	"time"

	"shift-tracker/internal/domain/entities"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Моки для тестирования
type mockEventRepository struct {
	mock.Mock
}

func (m *mockEventRepository) Append(ctx context.Context, event entities.ClockEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockEventRepository) ListByDriver(ctx context.Context, driverID string, from, to time.Time) ([]entities.ClockEventRecord, error) {
	args := m.Called(ctx, driverID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.ClockEventRecord), args.Error(1)
}

func (m *mockEventRepository) ListInRange(ctx context.Context, from, to time.Time) ([]entities.ClockEventRecord, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.ClockEventRecord), args.Error(1)
}

func (m *mockEventRepository) LatestByDriver(ctx context.Context, driverID string, limit int) ([]entities.ClockEventRecord, error) {
	args := m.Called(ctx, driverID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.ClockEventRecord), args.Error(1)
}

func (m *mockEventRepository) NextAfter(ctx context.Context, driverID string, at time.Time) (*entities.ClockEventRecord, error) {
	args := m.Called(ctx, driverID, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ClockEventRecord), args.Error(1)
}

func (m *mockEventRepository) LastBefore(ctx context.Context, driverID string, at time.Time) (*entities.ClockEventRecord, error) {
	args := m.Called(ctx, driverID, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ClockEventRecord), args.Error(1)
}

type mockDriverRepository struct {
	mock.Mock
}

func (m *mockDriverRepository) Create(ctx context.Context, driver *entities.Driver) error {
	args := m.Called(ctx, driver)
	return args.Error(0)
}

func (m *mockDriverRepository) GetByID(ctx context.Context, id string) (*entities.Driver, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Driver), args.Error(1)
}

func (m *mockDriverRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*entities.Driver, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*entities.Driver), args.Error(1)
}

func (m *mockDriverRepository) List(ctx context.Context, filters *entities.DriverFilters) ([]*entities.Driver, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Driver), args.Error(1)
}

func (m *mockDriverRepository) Count(ctx context.Context, filters *entities.DriverFilters) (int, error) {
	args := m.Called(ctx, filters)
	return args.Int(0), args.Error(1)
}

type mockLiveLocationRepository struct {
	mock.Mock
}

func (m *mockLiveLocationRepository) Upsert(ctx context.Context, location *entities.LiveLocation) error {
	args := m.Called(ctx, location)
	return args.Error(0)
}

func (m *mockLiveLocationRepository) Get(ctx context.Context, driverID string) (*entities.LiveLocation, error) {
	args := m.Called(ctx, driverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LiveLocation), args.Error(1)
}

func (m *mockLiveLocationRepository) List(ctx context.Context) ([]*entities.LiveLocation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.LiveLocation), args.Error(1)
}

func (m *mockLiveLocationRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int, error) {
	args := m.Called(ctx, before)
	return args.Int(0), args.Error(1)
}

type mockEventPublisher struct {
	mock.Mock
}

func (m *mockEventPublisher) PublishDriverEvent(ctx context.Context, eventType string, driverID string, data interface{}) error {
	args := m.Called(ctx, eventType, driverID, data)
	return args.Error(0)
}

type mockShiftService struct {
	mock.Mock
}

func (m *mockShiftService) GetCurrentStatus(ctx context.Context, driverID string) (*entities.CurrentStatus, error) {
	args := m.Called(ctx, driverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CurrentStatus), args.Error(1)
}

func (m *mockShiftService) GetDaySummary(ctx context.Context, driverID, date string) (*entities.DaySummary, error) {
	args := m.Called(ctx, driverID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DaySummary), args.Error(1)
}

func (m *mockShiftService) GetMonthlyReport(ctx context.Context, year, month int) (*entities.MonthlyReport, error) {
	args := m.Called(ctx, year, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.MonthlyReport), args.Error(1)
}

func (m *mockShiftService) GetWorkedDays(ctx context.Context, driverID string, year, month int) ([]string, error) {
	args := m.Called(ctx, driverID, year, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// record собирает запись хранилища
func record(driverID string, kind entities.ClockKind, at time.Time) entities.ClockEventRecord {
	d := driverID
	k := string(kind)
	ts := at
	return entities.ClockEventRecord{
		ID:         uuid.New(),
		DriverID:   &d,
		Kind:       &k,
		RecordedAt: &ts,
	}
}

// sameInstant сравнивает время без учета зоны
func sameInstant(expected time.Time) interface{} {
	return mock.MatchedBy(func(actual time.Time) bool {
		return actual.Equal(expected)
	})
}
