package entities

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stringPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func TestParseClockKind(t *testing.T) {
	tests := []struct {
		input    string
		expected ClockKind
		wantErr  bool
	}{
		{"clockin", ClockKindIn, false},
		{"clockout", ClockKindOut, false},
		{" ClockOut ", ClockKindOut, false},
		{"break", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			kind, err := ParseClockKind(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidClockKind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, kind)
		})
	}
}

func TestNewClockIn(t *testing.T) {
	now := time.Now()

	event, err := NewClockIn("d1", now, edmontonCenter, stringPtr("  starting  "))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, event.EventID())
	assert.Equal(t, ClockKindIn, event.Kind())
	assert.Equal(t, "d1", event.Driver())
	assert.Equal(t, time.UTC, event.At().Location())
	assert.Equal(t, "starting", *event.Note)

	blank, err := NewClockIn("d1", now, edmontonCenter, stringPtr("   "))
	require.NoError(t, err)
	assert.Nil(t, blank.Note)

	_, err = NewClockIn("", now, edmontonCenter, nil)
	assert.Equal(t, ErrInvalidDriverID, err)

	_, err = NewClockIn("d1", time.Time{}, edmontonCenter, nil)
	assert.Equal(t, ErrInvalidTimestamp, err)

	_, err = NewClockIn("d1", now, GeoPoint{Latitude: 95}, nil)
	assert.Equal(t, ErrInvalidLocation, err)
}

func TestNewClockOut(t *testing.T) {
	now := time.Now()
	tickets := []TicketEntry{
		{CompanyName: "Acme", TicketNumber: "T-1", Hours: 2.5, PhotoRef: stringPtr("tickets/1.jpg")},
	}

	event, err := NewClockOut("d1", now, edmontonCenter, nil, floatPtr(30), tickets)
	require.NoError(t, err)

	assert.Equal(t, ClockKindOut, event.Kind())
	assert.Equal(t, 30.0, *event.FuelUsed)
	require.Len(t, event.TicketEntries, 1)
	assert.NotEqual(t, uuid.Nil, event.TicketEntries[0].ID)
	assert.Equal(t, uuid.Nil, tickets[0].ID, "input tickets must not be mutated")

	_, err = NewClockOut("d1", now, edmontonCenter, nil, floatPtr(-1), nil)
	assert.Equal(t, ErrInvalidFuel, err)

	_, err = NewClockOut("d1", now, edmontonCenter, nil, nil, []TicketEntry{{CompanyName: "Acme"}})
	assert.Equal(t, ErrInvalidTicket, err)

	_, err = NewClockOut("d1", now, edmontonCenter, nil, nil, []TicketEntry{{CompanyName: "Acme", TicketNumber: "1", Hours: -2}})
	assert.Equal(t, ErrInvalidTicket, err)
}

func TestRecordFromEvent(t *testing.T) {
	now := time.Now()
	out, err := NewClockOut("d1", now, edmontonCenter, stringPtr("done"), floatPtr(12), []TicketEntry{
		{CompanyName: "Acme", TicketNumber: "T-1", Hours: 1},
	})
	require.NoError(t, err)

	record := RecordFromEvent(out)

	assert.Equal(t, out.ID, record.ID)
	assert.Equal(t, "d1", *record.DriverID)
	assert.Equal(t, "clockout", *record.Kind)
	assert.Equal(t, edmontonCenter.Latitude, *record.Latitude)
	assert.Equal(t, "done", *record.Note)
	assert.Equal(t, 12.0, *record.FuelUsed)
	assert.Len(t, record.TicketEntries, 1)

	in, err := NewClockIn("d1", now, edmontonCenter, nil)
	require.NoError(t, err)
	inRecord := RecordFromEvent(in)
	assert.Equal(t, "clockin", *inRecord.Kind)
	assert.Nil(t, inRecord.FuelUsed)
	assert.Empty(t, inRecord.TicketEntries)
}

func TestDurationHours(t *testing.T) {
	assert.Equal(t, 9.0, DurationHours(9*time.Hour))
	assert.Equal(t, 0.33, DurationHours(20*time.Minute))
	assert.Equal(t, 0.01, DurationHours(30*time.Second))
	assert.Equal(t, 0.0, DurationHours(17*time.Second))
}

func TestAnomaly_Within(t *testing.T) {
	from := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	inside := from.Add(time.Hour)
	before := from.Add(-time.Second)

	assert.True(t, Anomaly{Timestamp: &inside}.Within(from, to))
	assert.True(t, Anomaly{Timestamp: &from}.Within(from, to))
	assert.False(t, Anomaly{Timestamp: &to}.Within(from, to))
	assert.False(t, Anomaly{Timestamp: &before}.Within(from, to))
	assert.True(t, Anomaly{}.Within(from, to))

	counts := CountAnomalies([]Anomaly{{Kind: AnomalyOpenShift}, {Kind: AnomalyOpenShift}, {Kind: AnomalyInvertedInterval}})
	assert.Equal(t, 2, counts[AnomalyOpenShift])
	assert.Equal(t, 1, counts[AnomalyInvertedInterval])
}
