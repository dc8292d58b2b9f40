package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shift-tracker/internal/domain/engine"
	"shift-tracker/internal/domain/entities"
	"shift-tracker/internal/infrastructure/metrics"
	"shift-tracker/internal/repositories"

	"go.uber.org/zap"
)

// ShiftService операции чтения: статус, сводка за день, отчет за месяц.
// Смены не хранятся, каждый запрос заново читает журнал и восстанавливает их.
type ShiftService interface {
	GetCurrentStatus(ctx context.Context, driverID string) (*entities.CurrentStatus, error)
	GetDaySummary(ctx context.Context, driverID, date string) (*entities.DaySummary, error)
	GetMonthlyReport(ctx context.Context, year, month int) (*entities.MonthlyReport, error)
	GetWorkedDays(ctx context.Context, driverID string, year, month int) ([]string, error)
}

// ShiftSettings параметры восстановления смен
type ShiftSettings struct {
	// Location часовой пояс, в котором считаются календарные дни
	Location *time.Location
	// MaxShiftDuration запас, на который расширяется окно чтения с обеих сторон
	MaxShiftDuration time.Duration
	// StatusLookback сколько последних отметок читать для текущего статуса
	StatusLookback int
}

type shiftService struct {
	eventRepo  repositories.EventRepository
	driverRepo repositories.DriverRepository
	photos     engine.PhotoResolver
	metrics    *metrics.Metrics
	settings   ShiftSettings
	logger     *zap.Logger
}

// NewShiftService создает ShiftService
func NewShiftService(
	eventRepo repositories.EventRepository,
	driverRepo repositories.DriverRepository,
	photos engine.PhotoResolver,
	m *metrics.Metrics,
	settings ShiftSettings,
	logger *zap.Logger,
) ShiftService {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	if settings.MaxShiftDuration <= 0 {
		settings.MaxShiftDuration = 24 * time.Hour
	}
	if settings.StatusLookback <= 0 {
		settings.StatusLookback = 20
	}

	return &shiftService{
		eventRepo:  eventRepo,
		driverRepo: driverRepo,
		photos:     photos,
		metrics:    m,
		settings:   settings,
		logger:     logger,
	}
}

// GetCurrentStatus определяет, открыта ли у водителя смена
func (s *shiftService) GetCurrentStatus(ctx context.Context, driverID string) (*entities.CurrentStatus, error) {
	if err := validateDriverID(driverID); err != nil {
		return nil, err
	}
	defer s.observe("status", time.Now())

	records, err := s.eventRepo.LatestByDriver(ctx, driverID, s.settings.StatusLookback)
	if err != nil {
		s.logger.Error("Failed to load latest clock events",
			zap.Error(err),
			zap.String("driver_id", driverID),
		)
		return nil, fmt.Errorf("failed to load clock events: %w", err)
	}

	result := engine.Process(records)

	status := &entities.CurrentStatus{
		DriverID: driverID,
		Status:   entities.ClockStatusClockedOut,
	}
	if open := result.OpenShiftFor(driverID); open != nil {
		since := open.Since
		status.Status = entities.ClockStatusClockedIn
		status.OpenSince = &since
	}

	return status, nil
}

// GetDaySummary возвращает смены водителя, начавшиеся в указанный день
func (s *shiftService) GetDaySummary(ctx context.Context, driverID, date string) (*entities.DaySummary, error) {
	if err := validateDriverID(driverID); err != nil {
		return nil, err
	}

	day, err := engine.ParseDate(date)
	if err != nil {
		return nil, err
	}
	defer s.observe("day_summary", time.Now())

	from, to := engine.DayBounds(day, s.settings.Location)
	fetchFrom, fetchTo := s.padded(from, to)

	records, err := s.eventRepo.ListByDriver(ctx, driverID, fetchFrom, fetchTo)
	if err != nil {
		s.logger.Error("Failed to load clock events for day",
			zap.Error(err),
			zap.String("driver_id", driverID),
			zap.String("date", date),
		)
		return nil, fmt.Errorf("failed to load clock events: %w", err)
	}

	result, err := s.reconstruct(ctx, records, from, to, fetchFrom, fetchTo)
	if err != nil {
		return nil, err
	}
	summary := engine.SummarizeDay(driverID, day, s.settings.Location, result.Shifts, s.photos)
	summary.Anomalies = s.reportAnomalies(result.Anomalies, from, to,
		zap.String("driver_id", driverID),
		zap.String("date", summary.Date),
	)

	return summary, nil
}

// GetMonthlyReport строит помесячный отчет по всем водителям.
// В отчет попадают все зарегистрированные водители и любые водители с отметками за месяц.
func (s *shiftService) GetMonthlyReport(ctx context.Context, year, month int) (*entities.MonthlyReport, error) {
	if err := validateMonth(year, month); err != nil {
		return nil, err
	}
	defer s.observe("monthly_report", time.Now())

	m := time.Month(month)
	from, to := engine.MonthBounds(year, m, s.settings.Location)
	fetchFrom, fetchTo := s.padded(from, to)

	records, err := s.eventRepo.ListInRange(ctx, fetchFrom, fetchTo)
	if err != nil {
		s.logger.Error("Failed to load clock events for month",
			zap.Error(err),
			zap.Int("year", year),
			zap.Int("month", month),
		)
		return nil, fmt.Errorf("failed to load clock events: %w", err)
	}

	role := entities.RoleDriver
	drivers, err := s.driverRepo.List(ctx, &entities.DriverFilters{Role: &role})
	if err != nil {
		s.logger.Error("Failed to list drivers for monthly report", zap.Error(err))
		return nil, fmt.Errorf("failed to list drivers: %w", err)
	}

	names := make(map[string]string, len(drivers))
	ids := make([]string, 0, len(drivers))
	for _, d := range drivers {
		names[d.ID] = d.DisplayName()
		ids = append(ids, d.ID)
	}

	result, err := s.reconstruct(ctx, records, from, to, fetchFrom, fetchTo)
	if err != nil {
		return nil, err
	}
	reports := engine.BuildMonthlyReports(year, m, s.settings.Location, result.Shifts, ids...)
	for i := range reports {
		if name, ok := names[reports[i].DriverID]; ok {
			reports[i].DriverName = name
		}
	}

	report := &entities.MonthlyReport{
		Year:     year,
		Month:    m,
		Timezone: s.settings.Location.String(),
		Drivers:  reports,
	}
	report.Anomalies = s.reportAnomalies(result.Anomalies, from, to,
		zap.Int("year", year),
		zap.Int("month", month),
	)

	s.logger.Info("Monthly report built",
		zap.Int("year", year),
		zap.Int("month", month),
		zap.Int("drivers", len(reports)),
		zap.Int("events", len(records)),
		zap.Int("anomalies", len(report.Anomalies)),
	)

	return report, nil
}

// GetWorkedDays возвращает даты месяца, в которые у водителя была смена
func (s *shiftService) GetWorkedDays(ctx context.Context, driverID string, year, month int) ([]string, error) {
	if err := validateDriverID(driverID); err != nil {
		return nil, err
	}
	if err := validateMonth(year, month); err != nil {
		return nil, err
	}
	defer s.observe("worked_days", time.Now())

	m := time.Month(month)
	from, to := engine.MonthBounds(year, m, s.settings.Location)
	fetchFrom, fetchTo := s.padded(from, to)

	records, err := s.eventRepo.ListByDriver(ctx, driverID, fetchFrom, fetchTo)
	if err != nil {
		s.logger.Error("Failed to load clock events for calendar",
			zap.Error(err),
			zap.String("driver_id", driverID),
		)
		return nil, fmt.Errorf("failed to load clock events: %w", err)
	}

	result, err := s.reconstruct(ctx, records, from, to, fetchFrom, fetchTo)
	if err != nil {
		return nil, err
	}
	return engine.WorkedDays(driverID, year, m, s.settings.Location, result.Shifts), nil
}

// padded расширяет окно чтения, чтобы смены на границах нашли пару
func (s *shiftService) padded(from, to time.Time) (time.Time, time.Time) {
	return from.Add(-s.settings.MaxShiftDuration), to.Add(s.settings.MaxShiftDuration)
}

// reconstruct восстанавливает смены окна [from, to) по записям, прочитанным за [fetchFrom, fetchTo).
// Смена, открытая в окне и не закрытая до fetchTo, дочитывается следующей отметкой водителя.
// ClockOut в окне, с которого начинается чтение водителя, дочитывается предыдущей отметкой.
func (s *shiftService) reconstruct(
	ctx context.Context,
	records []entities.ClockEventRecord,
	from, to, fetchFrom, fetchTo time.Time,
) (*entities.Reconstruction, error) {
	result := engine.Process(records)

	var boundary []entities.ClockEventRecord

	for _, open := range result.OpenShifts {
		if open.Since.Before(from) || !open.Since.Before(to) {
			continue
		}

		next, err := s.eventRepo.NextAfter(ctx, open.DriverID, fetchTo)
		if err != nil {
			s.logger.Error("Failed to load clock event after window",
				zap.Error(err),
				zap.String("driver_id", open.DriverID),
			)
			return nil, fmt.Errorf("failed to load clock events: %w", err)
		}
		if next != nil {
			boundary = append(boundary, *next)
		}
	}

	events, _ := engine.Normalize(records)
	seen := make(map[string]struct{})
	for _, event := range events {
		if _, ok := seen[event.Driver()]; ok {
			continue
		}
		seen[event.Driver()] = struct{}{}

		if event.Kind() != entities.ClockKindOut || event.At().Before(from) || !event.At().Before(to) {
			continue
		}

		prev, err := s.eventRepo.LastBefore(ctx, event.Driver(), fetchFrom)
		if err != nil {
			s.logger.Error("Failed to load clock event before window",
				zap.Error(err),
				zap.String("driver_id", event.Driver()),
			)
			return nil, fmt.Errorf("failed to load clock events: %w", err)
		}
		if prev != nil {
			boundary = append(boundary, *prev)
		}
	}

	if len(boundary) == 0 {
		return result, nil
	}

	s.logger.Debug("Clock events outside the read window loaded",
		zap.Int("count", len(boundary)),
	)

	all := make([]entities.ClockEventRecord, 0, len(records)+len(boundary))
	all = append(all, records...)
	all = append(all, boundary...)
	return engine.Process(all), nil
}

// reportAnomalies оставляет аномалии запрошенного окна, пишет их в лог и метрики
func (s *shiftService) reportAnomalies(anomalies []entities.Anomaly, from, to time.Time, fields ...zap.Field) []entities.Anomaly {
	inWindow := make([]entities.Anomaly, 0)
	for _, a := range anomalies {
		if a.Within(from, to) {
			inWindow = append(inWindow, a)
		}
	}

	if len(inWindow) == 0 {
		return inWindow
	}

	s.metrics.ObserveAnomalies(inWindow)
	for _, a := range inWindow {
		s.logger.Warn("Clock event anomaly",
			append(fields,
				zap.String("kind", string(a.Kind)),
				zap.String("anomaly_driver_id", a.DriverID),
				zap.String("event_id", a.EventID.String()),
				zap.String("message", a.Message),
			)...,
		)
	}

	return inWindow
}

func (s *shiftService) observe(query string, started time.Time) {
	s.metrics.ObserveReconstruction(query, time.Since(started))
}

func validateDriverID(driverID string) error {
	if strings.TrimSpace(driverID) == "" {
		return entities.ErrInvalidDriverID
	}
	return nil
}

func validateMonth(year, month int) error {
	if year < 1 || year > 9999 || month < 1 || month > 12 {
		return entities.ErrInvalidMonth
	}
	return nil
}
