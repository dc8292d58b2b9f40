package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"shift-tracker/internal/domain/entities"
	"shift-tracker/internal/infrastructure/database"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// DriverRepository интерфейс для работы с водителями
type DriverRepository interface {
	Create(ctx context.Context, driver *entities.Driver) error
	GetByID(ctx context.Context, id string) (*entities.Driver, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*entities.Driver, error)
	List(ctx context.Context, filters *entities.DriverFilters) ([]*entities.Driver, error)
	Count(ctx context.Context, filters *entities.DriverFilters) (int, error)
}

// driverRepository реализация DriverRepository
type driverRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewDriverRepository создает новый репозиторий водителей
func NewDriverRepository(db *database.DB, logger *zap.Logger) DriverRepository {
	return &driverRepository{
		db:     db,
		logger: logger,
	}
}

// Create создает нового водителя
func (r *driverRepository) Create(ctx context.Context, driver *entities.Driver) error {
	query := `
		INSERT INTO drivers (
			id, full_name, email, role, metadata, created_at, updated_at
		) VALUES (
			:id, :full_name, :email, :role, :metadata, :created_at, :updated_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, driver)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return entities.ErrDriverExists
		}
		r.logger.Error("Failed to create driver",
			zap.Error(err),
			zap.String("driver_id", driver.ID),
		)
		return fmt.Errorf("failed to create driver: %w", err)
	}

	r.logger.Info("Driver created successfully",
		zap.String("driver_id", driver.ID),
		zap.String("role", string(driver.Role)),
	)

	return nil
}

// GetByID получает водителя по ID
func (r *driverRepository) GetByID(ctx context.Context, id string) (*entities.Driver, error) {
	var driver entities.Driver
	query := `SELECT * FROM drivers WHERE id = $1`

	err := r.db.GetContext(ctx, &driver, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrDriverNotFound
		}
		r.logger.Error("Failed to get driver by ID",
			zap.Error(err),
			zap.String("driver_id", id),
		)
		return nil, fmt.Errorf("failed to get driver by ID: %w", err)
	}

	return &driver, nil
}

// GetByIDs получает водителей по списку ID, отсутствующие пропускаются
func (r *driverRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*entities.Driver, error) {
	result := make(map[string]*entities.Driver, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var drivers []*entities.Driver
	query := `SELECT * FROM drivers WHERE id = ANY($1)`

	if err := r.db.SelectContext(ctx, &drivers, query, pq.Array(ids)); err != nil {
		r.logger.Error("Failed to get drivers by IDs",
			zap.Error(err),
			zap.Int("count", len(ids)),
		)
		return nil, fmt.Errorf("failed to get drivers by IDs: %w", err)
	}

	for _, d := range drivers {
		result[d.ID] = d
	}

	return result, nil
}

// List возвращает список водителей с фильтрами
func (r *driverRepository) List(ctx context.Context, filters *entities.DriverFilters) ([]*entities.Driver, error) {
	query, args := r.buildListQuery(filters, false)

	var drivers []*entities.Driver
	if err := r.db.SelectContext(ctx, &drivers, query, args...); err != nil {
		r.logger.Error("Failed to list drivers",
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to list drivers: %w", err)
	}

	return drivers, nil
}

// Count возвращает количество водителей с фильтрами
func (r *driverRepository) Count(ctx context.Context, filters *entities.DriverFilters) (int, error) {
	query, args := r.buildListQuery(filters, true)

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.Error("Failed to count drivers",
			zap.Error(err),
		)
		return 0, fmt.Errorf("failed to count drivers: %w", err)
	}

	return count, nil
}

// buildListQuery строит SQL запрос для получения списка водителей
func (r *driverRepository) buildListQuery(filters *entities.DriverFilters, isCount bool) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	selectClause := "SELECT * "
	if isCount {
		selectClause = "SELECT COUNT(*) "
	}

	if filters != nil && filters.Role != nil {
		args = append(args, *filters.Role)
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)))
	}

	query := selectClause + "FROM drivers"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	if isCount {
		return query, args
	}

	query += " ORDER BY full_name, id"

	if filters != nil && filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	if filters != nil && filters.Offset > 0 {
		args = append(args, filters.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	return query, args
}
