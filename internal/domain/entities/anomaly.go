package entities

import (
	"time"

	"github.com/google/uuid"
)

// AnomalyKind тип проблемы с данными
type AnomalyKind string

const (
	// AnomalyMalformedRecord запись без обязательного поля
	AnomalyMalformedRecord AnomalyKind = "malformed_record"
	// AnomalyUnpairedClockIn ClockIn, за которым последовал другой ClockIn
	AnomalyUnpairedClockIn AnomalyKind = "unpaired_clock_in"
	// AnomalyUnpairedClockOut ClockOut без предшествующего ClockIn
	AnomalyUnpairedClockOut AnomalyKind = "unpaired_clock_out"
	// AnomalyInvertedInterval ClockOut не позже парного ClockIn
	AnomalyInvertedInterval AnomalyKind = "inverted_interval"
	// AnomalyOpenShift ClockIn без ClockOut в конце потока
	AnomalyOpenShift AnomalyKind = "open_shift"
)

// Anomaly некритичная проблема качества данных. Возвращается вместе с результатом.
type Anomaly struct {
	Kind      AnomalyKind `json:"kind"`
	DriverID  string      `json:"driver_id,omitempty"`
	EventID   uuid.UUID   `json:"event_id"`
	Timestamp *time.Time  `json:"timestamp,omitempty"`
	Message   string      `json:"message"`
}

// Within проверяет, что аномалия попадает в интервал [from, to).
// Аномалии без времени считаются попадающими.
func (a Anomaly) Within(from, to time.Time) bool {
	if a.Timestamp == nil {
		return true
	}
	return !a.Timestamp.Before(from) && a.Timestamp.Before(to)
}

// CountAnomalies считает аномалии по типам
func CountAnomalies(anomalies []Anomaly) map[AnomalyKind]int {
	counts := make(map[AnomalyKind]int)
	for _, a := range anomalies {
		counts[a.Kind]++
	}
	return counts
}
