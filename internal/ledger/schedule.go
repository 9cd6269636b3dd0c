package ledger

import (
	"fmt"
	"time"

	"budgeteer/internal/models"
)

// DateOnly returns midnight UTC of t's calendar date in UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonthClamped moves t to anchorDay of the following month, clamped to
// that month's last day. A zero anchorDay means t's own day. December rolls
// into January of the next year.
func AddMonthClamped(t time.Time, anchorDay int) time.Time {
	if anchorDay <= 0 {
		anchorDay = t.Day()
	}
	year, month := t.Year(), t.Month()+1
	if month > time.December {
		month = time.January
		year++
	}
	day := anchorDay
	if last := DaysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// Advance returns the due date following next for the given interval.
func Advance(next time.Time, interval models.Frequency, anchorDay int) (time.Time, error) {
	switch interval {
	case models.FrequencyDaily:
		return next.AddDate(0, 0, 1), nil
	case models.FrequencyWeekly:
		return next.AddDate(0, 0, 7), nil
	case models.FrequencyMonthly:
		return AddMonthClamped(next, anchorDay), nil
	default:
		return next, fmt.Errorf("unsupported interval %q", interval)
	}
}

// DueDates lists the due dates from next up to and including asOf, at most
// limit of them, and returns the first due date left after those.
// A limit of 1 advances a single period per call.
func DueDates(next, asOf time.Time, interval models.Frequency, anchorDay, limit int) ([]time.Time, time.Time, error) {
	var due []time.Time
	for !next.After(asOf) && len(due) < limit {
		due = append(due, next)
		advanced, err := Advance(next, interval, anchorDay)
		if err != nil {
			return nil, next, err
		}
		next = advanced
	}
	return due, next, nil
}
