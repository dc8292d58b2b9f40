package entities

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// NoShiftsMessage текст для дня без смен
const NoShiftsMessage = "No shifts recorded"

// ShiftInterval восстановленная смена: пара ClockIn/ClockOut.
// Не хранится, вычисляется на время запроса.
type ShiftInterval struct {
	DriverID      string        `json:"driver_id"`
	ClockInID     uuid.UUID     `json:"clock_in_id"`
	ClockOutID    uuid.UUID     `json:"clock_out_id"`
	Start         time.Time     `json:"start"`
	End           time.Time     `json:"end"`
	DurationHours float64       `json:"duration_hours"`
	Note          *string       `json:"note,omitempty"`
	FuelUsed      *float64      `json:"fuel_used,omitempty"`
	TicketEntries []TicketEntry `json:"ticket_entries,omitempty"`
}

// Fuel возвращает израсходованное топливо или 0
func (s *ShiftInterval) Fuel() float64 {
	if s.FuelUsed == nil {
		return 0
	}
	return *s.FuelUsed
}

// OpenShift незакрытая смена в конце потока событий
type OpenShift struct {
	DriverID  string    `json:"driver_id"`
	ClockInID uuid.UUID `json:"clock_in_id"`
	Since     time.Time `json:"since"`
	Note      *string   `json:"note,omitempty"`
}

// Reconstruction результат восстановления смен: частичный результат и аномалии
type Reconstruction struct {
	Shifts     []ShiftInterval `json:"shifts"`
	OpenShifts []OpenShift     `json:"open_shifts"`
	Anomalies  []Anomaly       `json:"anomalies"`
}

// OpenShiftFor возвращает незакрытую смену водителя
func (r *Reconstruction) OpenShiftFor(driverID string) *OpenShift {
	for i := range r.OpenShifts {
		if r.OpenShifts[i].DriverID == driverID {
			return &r.OpenShifts[i]
		}
	}
	return nil
}

// DurationHours переводит продолжительность в часы с округлением до 2 знаков
func DurationHours(d time.Duration) float64 {
	return RoundHours(float64(d.Milliseconds()) / 3600000)
}

// RoundHours округляет до сотых
func RoundHours(hours float64) float64 {
	return math.Round(hours*100) / 100
}

// ClockStatus текущее состояние водителя
type ClockStatus string

const (
	ClockStatusClockedIn  ClockStatus = "clocked_in"
	ClockStatusClockedOut ClockStatus = "clocked_out"
)

// CurrentStatus ответ на запрос текущего статуса
type CurrentStatus struct {
	DriverID  string      `json:"driver_id"`
	Status    ClockStatus `json:"status"`
	OpenSince *time.Time  `json:"open_since,omitempty"`
}

// TicketEntryView талон с адресом фотографии для отображения
type TicketEntryView struct {
	ID           uuid.UUID `json:"id"`
	CompanyName  string    `json:"company_name"`
	TicketNumber string    `json:"ticket_number"`
	Hours        float64   `json:"hours"`
	PhotoURL     string    `json:"photo_url,omitempty"`
	Note         *string   `json:"note,omitempty"`
}

// DaySummary смены за календарный день
type DaySummary struct {
	DriverID      string            `json:"driver_id"`
	Date          string            `json:"date"`
	Shifts        []ShiftInterval   `json:"shifts"`
	TotalHours    float64           `json:"total_hours"`
	TotalFuel     float64           `json:"total_fuel"`
	Notes         string            `json:"notes"`
	TicketEntries []TicketEntryView `json:"ticket_entries"`
	Message       string            `json:"message,omitempty"`
	Anomalies     []Anomaly         `json:"anomalies,omitempty"`
}

// IsEmpty проверяет, что смен за день нет
func (d *DaySummary) IsEmpty() bool {
	return len(d.Shifts) == 0
}

// DayTotals итоги за один день месяца
type DayTotals struct {
	Day         int     `json:"day"`
	HoursWorked float64 `json:"hours_worked"`
	FuelUsed    float64 `json:"fuel_used"`
}

// MonthlyDriverReport помесячный отчет по водителю, строка таблицы
type MonthlyDriverReport struct {
	DriverID   string      `json:"driver_id"`
	DriverName string      `json:"driver_name,omitempty"`
	Year       int         `json:"year"`
	Month      time.Month  `json:"month"`
	Days       []DayTotals `json:"days"`
	TotalHours float64     `json:"total_hours"`
	TotalFuel  float64     `json:"total_fuel"`
	ShiftCount int         `json:"shift_count"`
}

// MonthlyReport отчет по всем водителям за месяц
type MonthlyReport struct {
	Year      int                   `json:"year"`
	Month     time.Month            `json:"month"`
	Timezone  string                `json:"timezone"`
	Drivers   []MonthlyDriverReport `json:"drivers"`
	Anomalies []Anomaly             `json:"anomalies,omitempty"`
}
