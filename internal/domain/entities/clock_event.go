package entities

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ClockKind дискриминатор типа отметки в хранилище
type ClockKind string

const (
	ClockKindIn  ClockKind = "clockin"
	ClockKindOut ClockKind = "clockout"
)

// IsValid проверяет известный тип отметки
func (k ClockKind) IsValid() bool {
	return k == ClockKindIn || k == ClockKindOut
}

// ParseClockKind разбирает строковый дискриминатор
func ParseClockKind(s string) (ClockKind, error) {
	kind := ClockKind(strings.ToLower(strings.TrimSpace(s)))
	if !kind.IsValid() {
		return "", ErrInvalidClockKind
	}
	return kind, nil
}

// ClockEvent неизменяемый факт отметки водителя.
// Реализуется только типами *ClockIn и *ClockOut.
type ClockEvent interface {
	EventID() uuid.UUID
	Driver() string
	Kind() ClockKind
	At() time.Time
	Location() GeoPoint

	clockEvent()
}

// ClockIn отметка о начале смены
type ClockIn struct {
	ID        uuid.UUID `json:"id"`
	DriverID  string    `json:"driver_id"`
	Timestamp time.Time `json:"timestamp"`
	Point     GeoPoint  `json:"location"`
	Note      *string   `json:"note,omitempty"`
}

func (e *ClockIn) EventID() uuid.UUID { return e.ID }
func (e *ClockIn) Driver() string     { return e.DriverID }
func (e *ClockIn) Kind() ClockKind    { return ClockKindIn }
func (e *ClockIn) At() time.Time      { return e.Timestamp }
func (e *ClockIn) Location() GeoPoint { return e.Point }
func (e *ClockIn) clockEvent()        {}

// ClockOut отметка о завершении смены. Топливо и талоны относятся
// к только что закончившейся смене.
type ClockOut struct {
	ID            uuid.UUID     `json:"id"`
	DriverID      string        `json:"driver_id"`
	Timestamp     time.Time     `json:"timestamp"`
	Point         GeoPoint      `json:"location"`
	Note          *string       `json:"note,omitempty"`
	FuelUsed      *float64      `json:"fuel_used,omitempty"`
	TicketEntries []TicketEntry `json:"ticket_entries,omitempty"`
}

func (e *ClockOut) EventID() uuid.UUID { return e.ID }
func (e *ClockOut) Driver() string     { return e.DriverID }
func (e *ClockOut) Kind() ClockKind    { return ClockKindOut }
func (e *ClockOut) At() time.Time      { return e.Timestamp }
func (e *ClockOut) Location() GeoPoint { return e.Point }
func (e *ClockOut) clockEvent()        {}

// NewClockIn создает отметку о начале смены
func NewClockIn(driverID string, at time.Time, point GeoPoint, note *string) (*ClockIn, error) {
	if strings.TrimSpace(driverID) == "" {
		return nil, ErrInvalidDriverID
	}
	if at.IsZero() {
		return nil, ErrInvalidTimestamp
	}
	if !point.IsValid() {
		return nil, ErrInvalidLocation
	}

	return &ClockIn{
		ID:        uuid.New(),
		DriverID:  driverID,
		Timestamp: at.UTC(),
		Point:     point,
		Note:      normalizeNote(note),
	}, nil
}

// NewClockOut создает отметку о завершении смены
func NewClockOut(driverID string, at time.Time, point GeoPoint, note *string, fuelUsed *float64, tickets []TicketEntry) (*ClockOut, error) {
	if strings.TrimSpace(driverID) == "" {
		return nil, ErrInvalidDriverID
	}
	if at.IsZero() {
		return nil, ErrInvalidTimestamp
	}
	if !point.IsValid() {
		return nil, ErrInvalidLocation
	}
	if fuelUsed != nil && (*fuelUsed < 0 || math.IsNaN(*fuelUsed) || math.IsInf(*fuelUsed, 0)) {
		return nil, ErrInvalidFuel
	}

	entries := make([]TicketEntry, 0, len(tickets))
	for _, t := range tickets {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if t.ID == uuid.Nil {
			t.ID = uuid.New()
		}
		t.Note = normalizeNote(t.Note)
		entries = append(entries, t)
	}

	return &ClockOut{
		ID:            uuid.New(),
		DriverID:      driverID,
		Timestamp:     at.UTC(),
		Point:         point,
		Note:          normalizeNote(note),
		FuelUsed:      fuelUsed,
		TicketEntries: entries,
	}, nil
}

// TicketEntry талон, приложенный к отметке об окончании смены
type TicketEntry struct {
	ID           uuid.UUID `json:"id" db:"id"`
	EventID      uuid.UUID `json:"-" db:"event_id"`
	CompanyName  string    `json:"company_name" db:"company_name"`
	TicketNumber string    `json:"ticket_number" db:"ticket_number"`
	Hours        float64   `json:"hours" db:"hours"`
	PhotoRef     *string   `json:"photo_ref,omitempty" db:"photo_ref"`
	Note         *string   `json:"note,omitempty" db:"note"`
	Position     int       `json:"-" db:"position"`
}

// Validate проверяет валидность талона
func (t *TicketEntry) Validate() error {
	if strings.TrimSpace(t.CompanyName) == "" || strings.TrimSpace(t.TicketNumber) == "" {
		return ErrInvalidTicket
	}
	if t.Hours < 0 || math.IsNaN(t.Hours) || math.IsInf(t.Hours, 0) {
		return ErrInvalidTicket
	}
	return nil
}

// ClockEventRecord запись отметки в том виде, в каком она лежит в хранилище.
// Все поля могут отсутствовать; превращение в ClockEvent выполняет нормализатор.
type ClockEventRecord struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	DriverID      *string       `json:"driver_id" db:"driver_id"`
	Kind          *string       `json:"kind" db:"kind"`
	Latitude      *float64      `json:"latitude" db:"latitude"`
	Longitude     *float64      `json:"longitude" db:"longitude"`
	Note          *string       `json:"note,omitempty" db:"note"`
	FuelUsed      *float64      `json:"fuel_used,omitempty" db:"fuel_used"`
	RecordedAt    *time.Time    `json:"timestamp" db:"recorded_at"`
	TicketEntries []TicketEntry `json:"ticket_entries,omitempty" db:"-"`
}

// RecordFromEvent конвертирует ClockEvent в запись хранилища
func RecordFromEvent(event ClockEvent) *ClockEventRecord {
	driverID := event.Driver()
	kind := string(event.Kind())
	at := event.At()
	point := event.Location()

	record := &ClockEventRecord{
		ID:         event.EventID(),
		DriverID:   &driverID,
		Kind:       &kind,
		Latitude:   &point.Latitude,
		Longitude:  &point.Longitude,
		RecordedAt: &at,
	}

	switch e := event.(type) {
	case *ClockIn:
		record.Note = e.Note
	case *ClockOut:
		record.Note = e.Note
		record.FuelUsed = e.FuelUsed
		record.TicketEntries = e.TicketEntries
	}

	return record
}

func normalizeNote(note *string) *string {
	if note == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
