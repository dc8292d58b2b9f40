package engine

import (
	"math/rand"
	"testing"
	"time"

	"shift-tracker/internal/domain/entities"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDay = time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return testDay.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func clockIn(driverID string, ts time.Time) *entities.ClockIn {
	return &entities.ClockIn{ID: uuid.New(), DriverID: driverID, Timestamp: ts}
}

func clockOut(driverID string, ts time.Time) *entities.ClockOut {
	return &entities.ClockOut{ID: uuid.New(), DriverID: driverID, Timestamp: ts}
}

func record(driverID string, kind entities.ClockKind, ts time.Time) entities.ClockEventRecord {
	k := string(kind)
	return entities.ClockEventRecord{
		ID:         uuid.New(),
		DriverID:   &driverID,
		Kind:       &k,
		RecordedAt: &ts,
	}
}

func anomalyKinds(anomalies []entities.Anomaly) []entities.AnomalyKind {
	kinds := make([]entities.AnomalyKind, 0, len(anomalies))
	for _, a := range anomalies {
		kinds = append(kinds, a.Kind)
	}
	return kinds
}

func TestReconstruct_SingleShift(t *testing.T) {
	in := clockIn("d1", at(8, 0))
	out := clockOut("d1", at(17, 0))

	result := Reconstruct([]entities.ClockEvent{in, out})

	require.Len(t, result.Shifts, 1)
	assert.Empty(t, result.Anomalies)
	assert.Empty(t, result.OpenShifts)

	shift := result.Shifts[0]
	assert.Equal(t, 9.00, shift.DurationHours)
	assert.Equal(t, at(8, 0), shift.Start)
	assert.Equal(t, at(17, 0), shift.End)
	assert.Equal(t, in.ID, shift.ClockInID)
	assert.Equal(t, out.ID, shift.ClockOutID)
}

func TestReconstruct_ConsecutiveClockIns(t *testing.T) {
	first := clockIn("d1", at(8, 0))
	second := clockIn("d1", at(9, 0))

	result := Reconstruct([]entities.ClockEvent{first, second, clockOut("d1", at(17, 0))})

	require.Len(t, result.Anomalies, 1)
	assert.Equal(t, entities.AnomalyUnpairedClockIn, result.Anomalies[0].Kind)
	assert.Equal(t, first.ID, result.Anomalies[0].EventID)

	require.Len(t, result.Shifts, 1)
	assert.Equal(t, at(9, 0), result.Shifts[0].Start)
	assert.Equal(t, at(17, 0), result.Shifts[0].End)
	assert.Equal(t, 8.00, result.Shifts[0].DurationHours)
}

func TestReconstruct_LoneClockOut(t *testing.T) {
	result := Reconstruct([]entities.ClockEvent{clockOut("d1", at(10, 0))})

	assert.Empty(t, result.Shifts)
	assert.Equal(t, []entities.AnomalyKind{entities.AnomalyUnpairedClockOut}, anomalyKinds(result.Anomalies))
}

func TestReconstruct_InvertedInterval(t *testing.T) {
	result := Reconstruct([]entities.ClockEvent{clockIn("d1", at(8, 0)), clockOut("d1", at(7, 0))})

	assert.Empty(t, result.Shifts)
	assert.Empty(t, result.OpenShifts)
	assert.Equal(t, []entities.AnomalyKind{entities.AnomalyInvertedInterval}, anomalyKinds(result.Anomalies))
}

func TestReconstruct_EqualTimestampsRejected(t *testing.T) {
	result := Reconstruct([]entities.ClockEvent{clockIn("d1", at(8, 0)), clockOut("d1", at(8, 0))})

	assert.Empty(t, result.Shifts)
	assert.Equal(t, []entities.AnomalyKind{entities.AnomalyInvertedInterval}, anomalyKinds(result.Anomalies))
}

func TestReconstruct_InvertedThenValidPair(t *testing.T) {
	result := Reconstruct([]entities.ClockEvent{
		clockIn("d1", at(8, 0)),
		clockOut("d1", at(8, 0)),
		clockOut("d1", at(9, 0)),
		clockIn("d1", at(10, 0)),
		clockOut("d1", at(12, 30)),
	})

	require.Len(t, result.Shifts, 1)
	assert.Equal(t, 2.5, result.Shifts[0].DurationHours)
	assert.Equal(t,
		[]entities.AnomalyKind{entities.AnomalyInvertedInterval, entities.AnomalyUnpairedClockOut},
		anomalyKinds(result.Anomalies))
}

func TestReconstruct_OpenShiftAtEnd(t *testing.T) {
	in := clockIn("d1", at(8, 0))
	result := Reconstruct([]entities.ClockEvent{in})

	assert.Empty(t, result.Shifts)
	require.Len(t, result.OpenShifts, 1)
	assert.Equal(t, in.ID, result.OpenShifts[0].ClockInID)
	assert.Equal(t, at(8, 0), result.OpenShifts[0].Since)
	assert.Equal(t, []entities.AnomalyKind{entities.AnomalyOpenShift}, anomalyKinds(result.Anomalies))
	assert.NotNil(t, result.OpenShiftFor("d1"))
	assert.Nil(t, result.OpenShiftFor("d2"))
}

func TestReconstruct_ShiftAcrossMidnightIsNotSplit(t *testing.T) {
	result := Reconstruct([]entities.ClockEvent{
		clockIn("d1", at(22, 0)),
		clockOut("d1", at(22, 0).Add(8*time.Hour)),
	})

	require.Len(t, result.Shifts, 1)
	assert.Equal(t, 8.0, result.Shifts[0].DurationHours)
}

func TestReconstruct_InterleavedDrivers(t *testing.T) {
	result := Reconstruct([]entities.ClockEvent{
		clockIn("d1", at(8, 0)),
		clockIn("d2", at(8, 30)),
		clockOut("d1", at(12, 0)),
		clockOut("d2", at(16, 45)),
	})

	require.Len(t, result.Shifts, 2)
	assert.Empty(t, result.Anomalies)
	assert.Equal(t, "d1", result.Shifts[0].DriverID)
	assert.Equal(t, 4.0, result.Shifts[0].DurationHours)
	assert.Equal(t, "d2", result.Shifts[1].DriverID)
	assert.Equal(t, 8.25, result.Shifts[1].DurationHours)
}

func TestReconstruct_ClockOutDetailsAttached(t *testing.T) {
	note := "Completed deliveries successfully."
	fuel := 42.5
	photo := "gs://bucket/tickets/1.jpg"
	out := clockOut("d1", at(17, 0))
	out.Note = &note
	out.FuelUsed = &fuel
	out.TicketEntries = []entities.TicketEntry{{ID: uuid.New(), CompanyName: "Acme", TicketNumber: "T-1", Hours: 3, PhotoRef: &photo}}

	result := Reconstruct([]entities.ClockEvent{clockIn("d1", at(8, 0)), out})

	require.Len(t, result.Shifts, 1)
	assert.Equal(t, &note, result.Shifts[0].Note)
	assert.Equal(t, 42.5, result.Shifts[0].Fuel())
	assert.Len(t, result.Shifts[0].TicketEntries, 1)
}

func TestDurationRounding(t *testing.T) {
	result := Reconstruct([]entities.ClockEvent{
		clockIn("d1", at(8, 0)),
		clockOut("d1", at(8, 20)),
	})

	require.Len(t, result.Shifts, 1)
	assert.Equal(t, 0.33, result.Shifts[0].DurationHours)
}

func TestWellFormedSequenceProperty(t *testing.T) {
	var events []entities.ClockEvent
	clockOuts := 0
	ts := at(0, 0)
	for i := 0; i < 50; i++ {
		ts = ts.Add(time.Duration(1+i%7) * time.Hour)
		events = append(events, clockIn("d1", ts))
		ts = ts.Add(time.Duration(1+i%5)*time.Hour + 17*time.Minute)
		events = append(events, clockOut("d1", ts))
		clockOuts++
	}

	result := Reconstruct(events)

	assert.Len(t, result.Shifts, clockOuts)
	assert.Empty(t, result.Anomalies)
	for _, s := range result.Shifts {
		assert.True(t, s.End.After(s.Start))
	}
}

func TestReconstruct_Idempotent(t *testing.T) {
	events := []entities.ClockEvent{
		clockIn("d1", at(8, 0)),
		clockIn("d1", at(9, 0)),
		clockOut("d1", at(17, 0)),
		clockOut("d2", at(17, 0)),
	}

	first := Reconstruct(events)
	second := Reconstruct(events)

	assert.Equal(t, first, second)
}

func TestNormalize_OrderInsensitive(t *testing.T) {
	var records []entities.ClockEventRecord
	for i := 0; i < 10; i++ {
		records = append(records,
			record("d1", entities.ClockKindIn, at(i*2, 0)),
			record("d1", entities.ClockKindOut, at(i*2+1, 15)),
			record("d2", entities.ClockKindIn, at(i*2, 30)),
			record("d2", entities.ClockKindOut, at(i*2+1, 45)),
		)
	}

	expected := Process(records)

	shuffled := make([]entities.ClockEventRecord, len(records))
	copy(shuffled, records)
	rng := rand.New(rand.NewSource(7))
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	assert.Equal(t, expected, Process(shuffled))
}

func TestNormalize_StableOnTies(t *testing.T) {
	a := record("d1", entities.ClockKindIn, at(8, 0))
	b := record("d1", entities.ClockKindOut, at(8, 0))

	events, anomalies := Normalize([]entities.ClockEventRecord{a, b})

	assert.Empty(t, anomalies)
	require.Len(t, events, 2)
	assert.Equal(t, a.ID, events[0].EventID())
	assert.Equal(t, b.ID, events[1].EventID())
}

func TestNormalize_DropsMalformedRecords(t *testing.T) {
	good := record("d1", entities.ClockKindIn, at(8, 0))

	noKind := record("d1", entities.ClockKindOut, at(9, 0))
	noKind.Kind = nil

	noTime := record("d1", entities.ClockKindOut, at(9, 0))
	noTime.RecordedAt = nil

	badKind := record("d1", entities.ClockKindOut, at(9, 0))
	unknown := "lunch"
	badKind.Kind = &unknown

	noDriver := record("", entities.ClockKindOut, at(9, 0))

	input := []entities.ClockEventRecord{noKind, good, noTime, badKind, noDriver}
	events, anomalies := Normalize(input)

	require.Len(t, events, 1)
	assert.Equal(t, good.ID, events[0].EventID())
	assert.Len(t, anomalies, 4)
	for _, a := range anomalies {
		assert.Equal(t, entities.AnomalyMalformedRecord, a.Kind)
	}
	assert.Nil(t, input[0].Kind, "input must not be mutated")
}

func TestNormalize_BuildsTaggedVariants(t *testing.T) {
	fuel := 10.0
	in := record("d1", entities.ClockKindIn, at(8, 0))
	in.FuelUsed = &fuel
	out := record("d1", "CLOCKOUT", at(17, 0))
	out.FuelUsed = &fuel
	out.TicketEntries = []entities.TicketEntry{{CompanyName: "Acme", TicketNumber: "1", Hours: 1}}

	events, anomalies := Normalize([]entities.ClockEventRecord{out, in})

	assert.Empty(t, anomalies)
	require.Len(t, events, 2)

	_, isIn := events[0].(*entities.ClockIn)
	assert.True(t, isIn)

	co, isOut := events[1].(*entities.ClockOut)
	require.True(t, isOut)
	assert.Equal(t, &fuel, co.FuelUsed)
	assert.Len(t, co.TicketEntries, 1)
}

func TestProcess_AccumulatesAllAnomalies(t *testing.T) {
	broken := record("d1", entities.ClockKindIn, at(7, 0))
	broken.RecordedAt = nil

	result := Process([]entities.ClockEventRecord{
		broken,
		record("d1", entities.ClockKindOut, at(7, 30)),
		record("d1", entities.ClockKindIn, at(8, 0)),
		record("d1", entities.ClockKindOut, at(17, 0)),
	})

	require.Len(t, result.Shifts, 1)
	assert.Equal(t,
		[]entities.AnomalyKind{entities.AnomalyMalformedRecord, entities.AnomalyUnpairedClockOut},
		anomalyKinds(result.Anomalies))
}
