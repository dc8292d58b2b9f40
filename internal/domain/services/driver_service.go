package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shift-tracker/internal/domain/entities"
	"shift-tracker/internal/repositories"

	"go.uber.org/zap"
)

// DriverService интерфейс для управления водителями
type DriverService interface {
	RegisterDriver(ctx context.Context, cmd *RegisterDriverCommand) (*entities.Driver, error)
	GetDriver(ctx context.Context, id string) (*entities.Driver, error)
	ListDrivers(ctx context.Context, filters *entities.DriverFilters) ([]*entities.Driver, int, error)
}

// RegisterDriverCommand данные нового пользователя.
// ID выдает провайдер идентификации при создании учетной записи.
type RegisterDriverCommand struct {
	ID       string
	FullName string
	Email    string
	Role     entities.Role
}

// driverService реализация DriverService
type driverService struct {
	driverRepo repositories.DriverRepository
	eventBus   EventPublisher
	logger     *zap.Logger
}

// NewDriverService создает новый DriverService
func NewDriverService(
	driverRepo repositories.DriverRepository,
	eventBus EventPublisher,
	logger *zap.Logger,
) DriverService {
	return &driverService{
		driverRepo: driverRepo,
		eventBus:   eventBus,
		logger:     logger,
	}
}

// RegisterDriver создает нового водителя
func (s *driverService) RegisterDriver(ctx context.Context, cmd *RegisterDriverCommand) (*entities.Driver, error) {
	s.logger.Info("Registering new driver",
		zap.String("driver_id", cmd.ID),
		zap.String("email", cmd.Email),
	)

	driver := entities.NewDriver(strings.TrimSpace(cmd.ID), cmd.FullName, cmd.Email)
	if cmd.Role != "" {
		driver.Role = cmd.Role
	}

	// Валидация входных данных
	if err := driver.Validate(); err != nil {
		s.logger.Warn("Driver validation failed",
			zap.Error(err),
			zap.String("driver_id", cmd.ID),
		)
		return nil, fmt.Errorf("driver validation failed: %w", err)
	}

	if err := s.driverRepo.Create(ctx, driver); err != nil {
		if errors.Is(err, entities.ErrDriverExists) {
			s.logger.Warn("Driver already exists", zap.String("driver_id", driver.ID))
			return nil, err
		}
		s.logger.Error("Failed to create driver",
			zap.Error(err),
			zap.String("driver_id", driver.ID),
		)
		return nil, fmt.Errorf("failed to create driver: %w", err)
	}

	eventData := map[string]interface{}{
		"email": driver.Email,
		"name":  driver.FullName,
		"role":  driver.Role,
	}

	if err := s.eventBus.PublishDriverEvent(ctx, EventDriverRegistered, driver.ID, eventData); err != nil {
		s.logger.Error("Failed to publish driver registered event",
			zap.Error(err),
			zap.String("driver_id", driver.ID),
		)
		// Не возвращаем ошибку, так как водитель уже создан
	}

	s.logger.Info("Driver registered successfully",
		zap.String("driver_id", driver.ID),
		zap.String("role", string(driver.Role)),
	)

	return driver, nil
}

// GetDriver получает водителя по ID
func (s *driverService) GetDriver(ctx context.Context, id string) (*entities.Driver, error) {
	if err := validateDriverID(id); err != nil {
		return nil, err
	}

	driver, err := s.driverRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, entities.ErrDriverNotFound) {
			return nil, err
		}
		s.logger.Error("Failed to get driver",
			zap.Error(err),
			zap.String("driver_id", id),
		)
		return nil, fmt.Errorf("failed to get driver: %w", err)
	}

	return driver, nil
}

// ListDrivers возвращает страницу водителей и общее количество
func (s *driverService) ListDrivers(ctx context.Context, filters *entities.DriverFilters) ([]*entities.Driver, int, error) {
	if filters == nil {
		filters = &entities.DriverFilters{}
	}
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 50
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}
	if filters.Role != nil && !filters.Role.IsValid() {
		return nil, 0, entities.ErrInvalidRole
	}

	drivers, err := s.driverRepo.List(ctx, filters)
	if err != nil {
		s.logger.Error("Failed to list drivers", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to list drivers: %w", err)
	}

	total, err := s.driverRepo.Count(ctx, filters)
	if err != nil {
		s.logger.Error("Failed to count drivers", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to count drivers: %w", err)
	}

	return drivers, total, nil
}
