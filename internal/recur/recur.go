// Package recur computes the next due date for recurring tasks.
package recur

import (
	"fmt"
	"time"

	"kanri/internal/model"
)

// dateLayout is the wire format for due dates.
const dateLayout = "2006-01-02"

// Next returns the due date following current under the given rule.
// Dates are YYYY-MM-DD strings. Monthly and yearly advances keep the
// day-of-month, clamped to the target month's length (Jan 30 -> Feb 28).
func Next(current string, rule model.RecurrenceRule) (string, error) {
	d, err := time.Parse(dateLayout, current)
	if err != nil {
		return "", fmt.Errorf("parse due date %q: %w", current, err)
	}

	var next time.Time
	switch rule {
	case model.RecurDaily:
		next = d.AddDate(0, 0, 1)
	case model.RecurWeekdays:
		next = d.AddDate(0, 0, 1)
		for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
			next = next.AddDate(0, 0, 1)
		}
	case model.RecurWeekly:
		next = d.AddDate(0, 0, 7)
	case model.RecurBiweekly:
		next = d.AddDate(0, 0, 14)
	case model.RecurMonthly:
		next = addMonthsClamped(d, 1)
	case model.RecurYearly:
		next = addMonthsClamped(d, 12)
	default:
		return "", fmt.Errorf("unknown recurrence rule %q", rule)
	}

	return next.Format(dateLayout), nil
}

// addMonthsClamped advances by whole months without Go's date
// normalization: Jan 30 + 1 month is Feb 28, not Mar 2.
func addMonthsClamped(d time.Time, months int) time.Time {
	year, month, day := d.Date()
	month += time.Month(months)
	for month > 12 {
		month -= 12
		year++
	}
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, d.Location())
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
