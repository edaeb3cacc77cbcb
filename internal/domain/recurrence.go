// Package domain holds the pure types of the Vigor progression engine.
// No infrastructure dependencies — everything here is plain data plus the
// small amount of behavior that belongs to the data itself.
package domain

import "time"

// RecurrencePattern describes how often a task is due.
type RecurrencePattern string

const (
	RecurOnce   RecurrencePattern = "once"
	RecurDaily  RecurrencePattern = "daily"
	RecurCustom RecurrencePattern = "custom"
)

// RecurrenceRule pairs a pattern with the weekdays it applies to.
// CustomDays is only meaningful for RecurCustom and must be non-empty there.
type RecurrenceRule struct {
	Pattern    RecurrencePattern `json:"pattern"`
	CustomDays []time.Weekday    `json:"custom_days,omitempty"`
}

// Validate checks the rule's internal consistency.
func (r RecurrenceRule) Validate() error {
	switch r.Pattern {
	case RecurOnce, RecurDaily:
		return nil
	case RecurCustom:
		if len(r.CustomDays) == 0 {
			return ErrInvalidRule
		}
		for _, d := range r.CustomDays {
			if d < time.Sunday || d > time.Saturday {
				return ErrInvalidRule
			}
		}
		return nil
	default:
		return ErrInvalidRule
	}
}

// DueOn reports whether the rule makes an item due on the given day.
// Days before creation are never due. Once-pattern items have no cadence,
// so DueOn always returns false for them.
func (r RecurrenceRule) DueOn(day, createdAt time.Time) bool {
	day = CanonicalDay(day)
	if day.Before(CanonicalDay(createdAt)) {
		return false
	}
	switch r.Pattern {
	case RecurDaily:
		return true
	case RecurCustom:
		for _, d := range r.CustomDays {
			if day.Weekday() == d {
				return true
			}
		}
	}
	return false
}

// CanonicalDay normalizes a timestamp to its UTC day boundary.
// All streak math compares days through this normalization.
func CanonicalDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
