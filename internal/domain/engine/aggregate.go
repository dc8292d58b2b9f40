package engine

import (
	"sort"
	"strings"
	"time"

	"shift-tracker/internal/domain/entities"
)

// DateLayout формат календарной даты в API
const DateLayout = "2006-01-02"

// PhotoResolver превращает ссылку на фото в адрес для отображения
type PhotoResolver interface {
	ResolvePhotoURL(ref string) string
}

// ParseDate разбирает дату YYYY-MM-DD
func ParseDate(s string) (time.Time, error) {
	date, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, entities.ErrInvalidDate
	}
	return date, nil
}

// DaysIn возвращает количество дней в месяце
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DayBounds возвращает начало и конец календарного дня в зоне loc.
// Берутся год, месяц и число date без учета ее собственной зоны.
func DayBounds(date time.Time, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// MonthBounds возвращает начало и конец месяца в зоне loc
func MonthBounds(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

// SummarizeDay собирает сводку по сменам, начавшимся в указанный день
func SummarizeDay(driverID string, date time.Time, loc *time.Location, shifts []entities.ShiftInterval, photos PhotoResolver) *entities.DaySummary {
	from, to := DayBounds(date, loc)

	summary := &entities.DaySummary{
		DriverID:      driverID,
		Date:          from.Format(DateLayout),
		Shifts:        []entities.ShiftInterval{},
		TicketEntries: []entities.TicketEntryView{},
	}

	var hours, fuel float64
	var notes []string

	for _, s := range shifts {
		if s.DriverID != driverID || s.Start.Before(from) || !s.Start.Before(to) {
			continue
		}

		summary.Shifts = append(summary.Shifts, s)
		hours += s.DurationHours
		fuel += s.Fuel()

		if s.Note != nil {
			notes = append(notes, *s.Note)
		}

		for _, t := range s.TicketEntries {
			view := entities.TicketEntryView{
				ID:           t.ID,
				CompanyName:  t.CompanyName,
				TicketNumber: t.TicketNumber,
				Hours:        t.Hours,
				Note:         t.Note,
			}
			if t.PhotoRef != nil && photos != nil {
				view.PhotoURL = photos.ResolvePhotoURL(*t.PhotoRef)
			}
			summary.TicketEntries = append(summary.TicketEntries, view)
		}
	}

	summary.TotalHours = entities.RoundHours(hours)
	summary.TotalFuel = entities.RoundHours(fuel)
	summary.Notes = strings.Join(notes, "\n")

	if summary.IsEmpty() {
		summary.Message = entities.NoShiftsMessage
	}

	return summary
}

// BuildMonthlyReports раскладывает смены по дням месяца для каждого водителя.
// Дни без смен присутствуют с нулями, длина Days всегда равна числу дней в месяце.
// Водители из driverIDs получают отчет даже без смен.
func BuildMonthlyReports(year int, month time.Month, loc *time.Location, shifts []entities.ShiftInterval, driverIDs ...string) []entities.MonthlyDriverReport {
	from, to := MonthBounds(year, month, loc)
	days := DaysIn(year, month)

	reports := make(map[string]*entities.MonthlyDriverReport)
	reportFor := func(driverID string) *entities.MonthlyDriverReport {
		if r, ok := reports[driverID]; ok {
			return r
		}
		r := &entities.MonthlyDriverReport{
			DriverID: driverID,
			Year:     year,
			Month:    month,
			Days:     make([]entities.DayTotals, days),
		}
		for i := range r.Days {
			r.Days[i].Day = i + 1
		}
		reports[driverID] = r
		return r
	}

	for _, id := range driverIDs {
		reportFor(id)
	}

	for _, s := range shifts {
		if s.Start.Before(from) || !s.Start.Before(to) {
			continue
		}
		r := reportFor(s.DriverID)
		day := r.Days[s.Start.In(loc).Day()-1]
		day.HoursWorked += s.DurationHours
		day.FuelUsed += s.Fuel()
		r.Days[day.Day-1] = day
		r.ShiftCount++
	}

	ids := make([]string, 0, len(reports))
	for id := range reports {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	result := make([]entities.MonthlyDriverReport, 0, len(ids))
	for _, id := range ids {
		r := reports[id]
		var hours, fuel float64
		for i := range r.Days {
			r.Days[i].HoursWorked = entities.RoundHours(r.Days[i].HoursWorked)
			r.Days[i].FuelUsed = entities.RoundHours(r.Days[i].FuelUsed)
			hours += r.Days[i].HoursWorked
			fuel += r.Days[i].FuelUsed
		}
		r.TotalHours = entities.RoundHours(hours)
		r.TotalFuel = entities.RoundHours(fuel)
		result = append(result, *r)
	}

	return result
}

// WorkedDays возвращает даты месяца, в которые начиналась хотя бы одна смена водителя
func WorkedDays(driverID string, year int, month time.Month, loc *time.Location, shifts []entities.ShiftInterval) []string {
	from, to := MonthBounds(year, month, loc)
	seen := make(map[string]struct{})
	dates := []string{}

	for _, s := range shifts {
		if s.DriverID != driverID || s.Start.Before(from) || !s.Start.Before(to) {
			continue
		}
		d := s.Start.In(loc).Format(DateLayout)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		dates = append(dates, d)
	}

	sort.Strings(dates)
	return dates
}
