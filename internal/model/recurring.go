package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecurringExpense is a user-owned template for an expected periodic
// expense (rent, subscriptions). Templates are deactivated rather than
// deleted so historical links survive.
type RecurringExpense struct {
	ID         string
	UserID     string
	Name       string
	Amount     decimal.Decimal // positive
	Currency   string
	CategoryID string // empty = none

	DayOfMonth     int       // 1-31, clamped to the month's last day
	IntervalMonths int       // >= 1
	StartDate      time.Time // first-of-month anchor

	MatchKeywords      []string // lowercase tokens for re-matching
	IsActive           bool
	LastOccurrenceDate time.Time // zero if never matched

	CreatedAt time.Time
}

// RecurringOverride is a per-month exception applied to a template before
// generation. At most one override exists per (expense, month); the store
// enforces this with an upsert on the composite key.
type RecurringOverride struct {
	ID                 string
	RecurringExpenseID string
	Month              time.Time // always the first day of a month

	OverrideAmount      *decimal.Decimal // nil = use template amount
	IsSkipped           bool
	IsManuallyConfirmed bool
	Notes               string
}

// MonthOf truncates a date to the first day of its month.
func MonthOf(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
}
