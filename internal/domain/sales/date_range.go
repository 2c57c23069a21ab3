package sales

import (
	"time"

	"github.com/gasdist/backend/internal/domain/shared"
)

// DateRange is a closed interval of calendar time used for transaction and payment
// queries. A zero bound is open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// NewDateRange validates that from is not after to
func NewDateRange(from, to time.Time) (DateRange, error) {
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return DateRange{}, shared.NewValidationError("Start date must not be after end date")
	}
	return DateRange{From: from, To: to}, nil
}

// Day returns the range covering the calendar day of t in t's location.
func Day(t time.Time) DateRange {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return DateRange{From: start, To: start.AddDate(0, 0, 1).Add(-time.Nanosecond)}
}

// LastDays returns the n whole days before the day of t.
func LastDays(t time.Time, n int) DateRange {
	day := Day(t)
	return DateRange{From: day.From.AddDate(0, 0, -n), To: day.From.Add(-time.Nanosecond)}
}

// Contains reports whether t falls inside the range
func (r DateRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// IsZero reports whether the range is unbounded on both ends
func (r DateRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}
