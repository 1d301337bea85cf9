package pr

import (
	"fmt"
	"time"

	"github.com/fithub/records/internal/models"
)

// DateHasPR reports whether any PR entry was set on date.
func DateHasPR(prs map[Key]Info, date string) bool {
	for k := range prs {
		if k.Date == date {
			return true
		}
	}
	return false
}

// DateHasCurrentPR reports whether any PR entry set on date is still unbeaten.
func DateHasCurrentPR(prs map[Key]Info, date string) bool {
	for k, info := range prs {
		if k.Date == date && info.IsCurrent() {
			return true
		}
	}
	return false
}

// CalendarDay flags one day of a month view.
type CalendarDay struct {
	Date         string `json:"date"`
	HasPR        bool   `json:"hasPR"`
	HasCurrentPR bool   `json:"hasCurrentPR"`
}

// Calendar returns one entry per day of the given month.
func Calendar(prs map[Key]Info, year int, month time.Month) []CalendarDay {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	days := make([]CalendarDay, 0, 31)
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		date := d.Format(models.DateLayout)
		days = append(days, CalendarDay{
			Date:         date,
			HasPR:        DateHasPR(prs, date),
			HasCurrentPR: DateHasCurrentPR(prs, date),
		})
	}
	return days
}

// ParseMonth parses "YYYY-MM".
func ParseMonth(s string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, fmt.Errorf("month must be formatted as YYYY-MM: %q", s)
	}
	return t.Year(), t.Month(), nil
}
