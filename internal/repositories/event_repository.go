package repositories

import (
	"context"
	"fmt"
	"time"

	"shift-tracker/internal/domain/entities"
	"shift-tracker/internal/infrastructure/database"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// EventRepository журнал отметок. Записи только добавляются.
// Чтение возвращает записи как есть, без сортировки и проверки.
type EventRepository interface {
	Append(ctx context.Context, event entities.ClockEvent) error
	ListByDriver(ctx context.Context, driverID string, from, to time.Time) ([]entities.ClockEventRecord, error)
	ListInRange(ctx context.Context, from, to time.Time) ([]entities.ClockEventRecord, error)
	LatestByDriver(ctx context.Context, driverID string, limit int) ([]entities.ClockEventRecord, error)
	NextAfter(ctx context.Context, driverID string, at time.Time) (*entities.ClockEventRecord, error)
	LastBefore(ctx context.Context, driverID string, at time.Time) (*entities.ClockEventRecord, error)
}

const clockEventColumns = `id, driver_id, kind, latitude, longitude, note, fuel_used, recorded_at`

type eventRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewEventRepository создает репозиторий отметок в PostgreSQL
func NewEventRepository(db *database.DB, logger *zap.Logger) EventRepository {
	return &eventRepository{
		db:     db,
		logger: logger,
	}
}

// Append сохраняет отметку вместе с талонами в одной транзакции
func (r *eventRepository) Append(ctx context.Context, event entities.ClockEvent) error {
	record := entities.RecordFromEvent(event)

	err := r.db.TransactionWithContext(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO clock_events (` + clockEventColumns + `)
			VALUES (:id, :driver_id, :kind, :latitude, :longitude, :note, :fuel_used, :recorded_at)`

		if _, err := tx.NamedExecContext(ctx, query, record); err != nil {
			return fmt.Errorf("failed to insert clock event: %w", err)
		}

		for i := range record.TicketEntries {
			ticket := record.TicketEntries[i]
			ticket.EventID = record.ID
			ticket.Position = i

			ticketQuery := `
				INSERT INTO ticket_entries (
					id, event_id, position, company_name, ticket_number, hours, photo_ref, note
				) VALUES (
					:id, :event_id, :position, :company_name, :ticket_number, :hours, :photo_ref, :note
				)`

			if _, err := tx.NamedExecContext(ctx, ticketQuery, ticket); err != nil {
				return fmt.Errorf("failed to insert ticket entry: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		r.logger.Error("Failed to append clock event",
			zap.Error(err),
			zap.String("event_id", record.ID.String()),
			zap.String("driver_id", event.Driver()),
			zap.String("kind", string(event.Kind())),
		)
		return err
	}

	r.logger.Debug("Clock event appended",
		zap.String("event_id", record.ID.String()),
		zap.String("driver_id", event.Driver()),
		zap.String("kind", string(event.Kind())),
	)

	return nil
}

// ListByDriver возвращает отметки водителя в интервале [from, to)
func (r *eventRepository) ListByDriver(ctx context.Context, driverID string, from, to time.Time) ([]entities.ClockEventRecord, error) {
	query := `
		SELECT ` + clockEventColumns + `
		FROM clock_events
		WHERE driver_id = $1 AND recorded_at >= $2 AND recorded_at < $3
		ORDER BY recorded_at, created_at`

	return r.list(ctx, query, driverID, from, to)
}

// ListInRange возвращает отметки всех водителей в интервале [from, to)
func (r *eventRepository) ListInRange(ctx context.Context, from, to time.Time) ([]entities.ClockEventRecord, error) {
	query := `
		SELECT ` + clockEventColumns + `
		FROM clock_events
		WHERE recorded_at >= $1 AND recorded_at < $2
		ORDER BY recorded_at, created_at`

	return r.list(ctx, query, from, to)
}

// LatestByDriver возвращает последние limit отметок водителя
func (r *eventRepository) LatestByDriver(ctx context.Context, driverID string, limit int) ([]entities.ClockEventRecord, error) {
	query := `
		SELECT ` + clockEventColumns + `
		FROM clock_events
		WHERE driver_id = $1
		ORDER BY recorded_at DESC NULLS LAST, created_at DESC
		LIMIT $2`

	return r.list(ctx, query, driverID, limit)
}

// NextAfter возвращает первую отметку водителя не раньше at или nil
func (r *eventRepository) NextAfter(ctx context.Context, driverID string, at time.Time) (*entities.ClockEventRecord, error) {
	query := `
		SELECT ` + clockEventColumns + `
		FROM clock_events
		WHERE driver_id = $1 AND recorded_at >= $2
		ORDER BY recorded_at, created_at
		LIMIT 1`

	return r.single(ctx, query, driverID, at)
}

// LastBefore возвращает последнюю отметку водителя раньше at или nil
func (r *eventRepository) LastBefore(ctx context.Context, driverID string, at time.Time) (*entities.ClockEventRecord, error) {
	query := `
		SELECT ` + clockEventColumns + `
		FROM clock_events
		WHERE driver_id = $1 AND recorded_at < $2
		ORDER BY recorded_at DESC, created_at DESC
		LIMIT 1`

	return r.single(ctx, query, driverID, at)
}

func (r *eventRepository) single(ctx context.Context, query string, args ...interface{}) (*entities.ClockEventRecord, error) {
	records, err := r.list(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

func (r *eventRepository) list(ctx context.Context, query string, args ...interface{}) ([]entities.ClockEventRecord, error) {
	var records []entities.ClockEventRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		r.logger.Error("Failed to list clock events", zap.Error(err))
		return nil, fmt.Errorf("failed to list clock events: %w", err)
	}

	if err := r.attachTickets(ctx, records); err != nil {
		return nil, err
	}

	return records, nil
}

// attachTickets подгружает талоны одним запросом для всех отметок
func (r *eventRepository) attachTickets(ctx context.Context, records []entities.ClockEventRecord) error {
	if len(records) == 0 {
		return nil
	}

	ids := make([]string, 0, len(records))
	index := make(map[uuid.UUID]int, len(records))
	for i := range records {
		ids = append(ids, records[i].ID.String())
		index[records[i].ID] = i
	}

	query := `
		SELECT id, event_id, position, company_name, ticket_number, hours, photo_ref, note
		FROM ticket_entries
		WHERE event_id = ANY($1::uuid[])
		ORDER BY event_id, position`

	var tickets []entities.TicketEntry
	if err := r.db.SelectContext(ctx, &tickets, query, pq.Array(ids)); err != nil {
		r.logger.Error("Failed to load ticket entries",
			zap.Error(err),
			zap.Int("events", len(ids)),
		)
		return fmt.Errorf("failed to load ticket entries: %w", err)
	}

	for _, t := range tickets {
		if i, ok := index[t.EventID]; ok {
			records[i].TicketEntries = append(records[i].TicketEntries, t)
		}
	}

	return nil
}
