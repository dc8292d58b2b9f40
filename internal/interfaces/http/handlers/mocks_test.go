package handlers

import (
	"context"

	"shift-tracker/internal/domain/entities"
	"shift-tracker/internal/domain/services"

	"github.com/stretchr/testify/mock"
)

type mockClockService struct {
	mock.Mock
}

func (m *mockClockService) ValidateLocation(point entities.GeoPoint) bool {
	args := m.Called(point)
	return args.Bool(0)
}

func (m *mockClockService) CheckLocation(point entities.GeoPoint) (*services.GeofenceCheck, error) {
	args := m.Called(point)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.GeofenceCheck), args.Error(1)
}

func (m *mockClockService) ClockIn(ctx context.Context, cmd *services.ClockInCommand) (*services.ClockReceipt, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ClockReceipt), args.Error(1)
}

func (m *mockClockService) ClockOut(ctx context.Context, cmd *services.ClockOutCommand) (*services.ClockReceipt, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ClockReceipt), args.Error(1)
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

type mockDriverService struct {
	mock.Mock
}

func (m *mockDriverService) RegisterDriver(ctx context.Context, cmd *services.RegisterDriverCommand) (*entities.Driver, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Driver), args.Error(1)
}

func (m *mockDriverService) GetDriver(ctx context.Context, id string) (*entities.Driver, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Driver), args.Error(1)
}

func (m *mockDriverService) ListDrivers(ctx context.Context, filters *entities.DriverFilters) ([]*entities.Driver, int, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*entities.Driver), args.Int(1), args.Error(2)
}

type mockLocationService struct {
	mock.Mock
}

func (m *mockLocationService) UpdateLiveLocation(ctx context.Context, driverID string, point entities.GeoPoint) (*entities.LiveLocation, error) {
	args := m.Called(ctx, driverID, point)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LiveLocation), args.Error(1)
}

func (m *mockLocationService) GetLiveLocation(ctx context.Context, driverID string) (*entities.LiveLocation, error) {
	args := m.Called(ctx, driverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LiveLocation), args.Error(1)
}

func (m *mockLocationService) ListLiveLocations(ctx context.Context) ([]*entities.LiveMapMarker, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.LiveMapMarker), args.Error(1)
}

func (m *mockLocationService) CleanupStaleLocations(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
