// Package engine восстанавливает смены из потока отметок и строит сводки.
// Пакет не выполняет ввода-вывода и не хранит состояния между вызовами.
package engine

import (
	"fmt"
	"sort"
	"strings"

	"shift-tracker/internal/domain/entities"
)

// Normalize превращает записи хранилища в упорядоченный поток ClockEvent.
// Некорректные записи отбрасываются и возвращаются как аномалии.
// Сортировка по времени устойчивая: при равном времени сохраняется порядок входа.
func Normalize(records []entities.ClockEventRecord) ([]entities.ClockEvent, []entities.Anomaly) {
	events := make([]entities.ClockEvent, 0, len(records))
	var anomalies []entities.Anomaly

	for i := range records {
		event, err := toClockEvent(&records[i])
		if err != nil {
			anomalies = append(anomalies, malformed(&records[i], err))
			continue
		}
		events = append(events, event)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].At().Before(events[j].At())
	})

	return events, anomalies
}

func toClockEvent(r *entities.ClockEventRecord) (entities.ClockEvent, error) {
	if r.DriverID == nil || strings.TrimSpace(*r.DriverID) == "" {
		return nil, entities.ErrInvalidDriverID
	}
	if r.RecordedAt == nil || r.RecordedAt.IsZero() {
		return nil, entities.ErrInvalidTimestamp
	}
	if r.Kind == nil {
		return nil, entities.ErrInvalidClockKind
	}
	kind, err := entities.ParseClockKind(*r.Kind)
	if err != nil {
		return nil, err
	}

	var point entities.GeoPoint
	if r.Latitude != nil && r.Longitude != nil {
		point = entities.GeoPoint{Latitude: *r.Latitude, Longitude: *r.Longitude}
	}
	at := r.RecordedAt.UTC()

	if kind == entities.ClockKindIn {
		return &entities.ClockIn{
			ID:        r.ID,
			DriverID:  *r.DriverID,
			Timestamp: at,
			Point:     point,
			Note:      r.Note,
		}, nil
	}

	var tickets []entities.TicketEntry
	if len(r.TicketEntries) > 0 {
		tickets = make([]entities.TicketEntry, len(r.TicketEntries))
		copy(tickets, r.TicketEntries)
	}

	return &entities.ClockOut{
		ID:            r.ID,
		DriverID:      *r.DriverID,
		Timestamp:     at,
		Point:         point,
		Note:          r.Note,
		FuelUsed:      r.FuelUsed,
		TicketEntries: tickets,
	}, nil
}

func malformed(r *entities.ClockEventRecord, err error) entities.Anomaly {
	a := entities.Anomaly{
		Kind:    entities.AnomalyMalformedRecord,
		EventID: r.ID,
		Message: fmt.Sprintf("record dropped: %v", err),
	}
	if r.DriverID != nil {
		a.DriverID = *r.DriverID
	}
	if r.RecordedAt != nil && !r.RecordedAt.IsZero() {
		at := r.RecordedAt.UTC()
		a.Timestamp = &at
	}
	return a
}
