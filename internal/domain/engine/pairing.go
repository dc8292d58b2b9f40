package engine

import (
	"fmt"
	"sort"
	"time"

	"shift-tracker/internal/domain/entities"
)

// pairingState состояние автомата одного водителя.
// nil pending соответствует AwaitingClockIn, иначе OpenShift(pending).
type pairingState struct {
	pending *entities.ClockIn
}

// Reconstruct собирает смены из упорядоченного по времени потока.
// Пары составляются жадно слева направо отдельно для каждого водителя.
// Смена, перешедшая через полночь, не делится.
func Reconstruct(events []entities.ClockEvent) *entities.Reconstruction {
	result := &entities.Reconstruction{
		Shifts:     []entities.ShiftInterval{},
		OpenShifts: []entities.OpenShift{},
		Anomalies:  []entities.Anomaly{},
	}
	states := make(map[string]*pairingState)

	for _, event := range events {
		state, ok := states[event.Driver()]
		if !ok {
			state = &pairingState{}
			states[event.Driver()] = state
		}

		switch e := event.(type) {
		case *entities.ClockIn:
			if state.pending != nil {
				result.Anomalies = append(result.Anomalies, anomalyFor(
					entities.AnomalyUnpairedClockIn, state.pending,
					fmt.Sprintf("clock-in discarded: superseded by clock-in at %s", e.Timestamp.Format(time.RFC3339)),
				))
			}
			state.pending = e

		case *entities.ClockOut:
			if state.pending == nil {
				result.Anomalies = append(result.Anomalies, anomalyFor(
					entities.AnomalyUnpairedClockOut, e,
					"clock-out discarded: no open clock-in",
				))
				continue
			}

			if !e.Timestamp.After(state.pending.Timestamp) {
				result.Anomalies = append(result.Anomalies, anomalyFor(
					entities.AnomalyInvertedInterval, e,
					fmt.Sprintf("clock-out at %s is not after clock-in at %s; both discarded",
						e.Timestamp.Format(time.RFC3339), state.pending.Timestamp.Format(time.RFC3339)),
				))
				state.pending = nil
				continue
			}

			result.Shifts = append(result.Shifts, closeShift(state.pending, e))
			state.pending = nil
		}
	}

	drivers := make([]string, 0, len(states))
	for driverID, state := range states {
		if state.pending != nil {
			drivers = append(drivers, driverID)
		}
	}
	sort.Strings(drivers)

	for _, driverID := range drivers {
		pending := states[driverID].pending
		result.OpenShifts = append(result.OpenShifts, entities.OpenShift{
			DriverID:  driverID,
			ClockInID: pending.ID,
			Since:     pending.Timestamp,
			Note:      pending.Note,
		})
		result.Anomalies = append(result.Anomalies, anomalyFor(
			entities.AnomalyOpenShift, pending,
			"clock-in has no matching clock-out yet",
		))
	}

	return result
}

// Process нормализует записи и восстанавливает смены, собирая все аномалии в один список
func Process(records []entities.ClockEventRecord) *entities.Reconstruction {
	events, malformed := Normalize(records)
	result := Reconstruct(events)
	if len(malformed) > 0 {
		result.Anomalies = append(malformed, result.Anomalies...)
	}
	return result
}

func closeShift(in *entities.ClockIn, out *entities.ClockOut) entities.ShiftInterval {
	return entities.ShiftInterval{
		DriverID:      in.DriverID,
		ClockInID:     in.ID,
		ClockOutID:    out.ID,
		Start:         in.Timestamp,
		End:           out.Timestamp,
		DurationHours: entities.DurationHours(out.Timestamp.Sub(in.Timestamp)),
		Note:          out.Note,
		FuelUsed:      out.FuelUsed,
		TicketEntries: out.TicketEntries,
	}
}

func anomalyFor(kind entities.AnomalyKind, event entities.ClockEvent, message string) entities.Anomaly {
	at := event.At()
	return entities.Anomaly{
		Kind:      kind,
		DriverID:  event.Driver(),
		EventID:   event.EventID(),
		Timestamp: &at,
		Message:   message,
	}
}
