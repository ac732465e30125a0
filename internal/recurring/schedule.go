// Package recurring schedules recurring-expense templates: due-date
// calculation, idempotent monthly generation of placeholder transactions,
// and re-matching of historical transactions by keyword.
package recurring

import (
	"time"

	"github.com/skarbnik-dev/skarbnik/internal/model"
)

// monthIndex maps a calendar month to an absolute index so interval
// arithmetic is exact at boundaries.
func monthIndex(year int, month time.Month) int {
	return year*12 + int(month) - 1
}

// IsDue reports whether a template is due in the given target month: the
// number of months since its anchor is non-negative and a multiple of the
// interval. Pure function of two calendar months.
func IsDue(e model.RecurringExpense, year int, month time.Month) bool {
	interval := e.IntervalMonths
	if interval < 1 {
		interval = 1
	}
	since := monthIndex(year, month) - monthIndex(e.StartDate.Year(), e.StartDate.Month())
	return since >= 0 && since%interval == 0
}

// dueDate returns the concrete transaction date for a template in a month,
// clamping DayOfMonth to the month's last day.
func dueDate(e model.RecurringExpense, year int, month time.Month) time.Time {
	lastDay := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1).Day()
	day := e.DayOfMonth
	if day < 1 {
		day = 1
	}
	if day > lastDay {
		day = lastDay
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// monthRange returns the first and last day of a month.
func monthRange(year int, month time.Month) (time.Time, time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1)
}
