// Package selector decides which schedules run in the current invocation.
// "Due" means due for the current UTC calendar day: the invoker fires at most
// once a day, so the configured time of day is not consulted.
package selector

import (
	"errors"
	"fmt"
	"time"

	"digest-backend/internal/schedule/domain"

	"go.uber.org/zap"
)

// ErrMalformedRecurrence is returned for recurrences that can never be
// evaluated. Such schedules are never due.
var ErrMalformedRecurrence = errors.New("malformed recurrence")

// IsDue reports whether r matches date's UTC calendar day.
func IsDue(r domain.Recurrence, date time.Time) (bool, error) {
	date = date.UTC()

	switch r.Type {
	case domain.RecurrenceDaily:
		return true, nil

	case domain.RecurrenceWeekly:
		if len(r.Weekdays) == 0 {
			return false, fmt.Errorf("%w: weekly recurrence without weekdays", ErrMalformedRecurrence)
		}
		due := false
		for _, wd := range r.Weekdays {
			if wd < 0 || wd > 6 {
				return false, fmt.Errorf("%w: weekday %d out of range", ErrMalformedRecurrence, wd)
			}
			if time.Weekday(wd) == date.Weekday() {
				due = true
			}
		}
		return due, nil

	case domain.RecurrenceMonthly:
		if r.DayOfMonth < 1 || r.DayOfMonth > 31 {
			return false, fmt.Errorf("%w: day of month %d out of range", ErrMalformedRecurrence, r.DayOfMonth)
		}
		return date.Day() == r.DayOfMonth, nil

	default:
		return false, fmt.Errorf("%w: unknown type %q", ErrMalformedRecurrence, r.Type)
	}
}

// Validate reports whether r can be evaluated at all.
func Validate(r domain.Recurrence) error {
	_, err := IsDue(r, time.Unix(0, 0))
	return err
}

// Due evaluates a stored schedule. Disabled schedules are never due.
func Due(s *domain.Schedule, date time.Time) (bool, error) {
	if s == nil || !s.Enabled {
		return false, nil
	}
	r, err := s.ParseRecurrence()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedRecurrence, err)
	}
	return IsDue(r, date)
}

// SelectDue returns the subset of schedules due on now's UTC date, in input
// order. Malformed schedules are logged and skipped.
func SelectDue(schedules []*domain.Schedule, now time.Time, log *zap.Logger) []*domain.Schedule {
	due := make([]*domain.Schedule, 0, len(schedules))
	for _, s := range schedules {
		ok, err := Due(s, now)
		if err != nil {
			log.Warn("Skipping schedule with malformed recurrence",
				zap.String("schedule_id", s.ID), zap.Error(err))
			continue
		}
		if ok {
			due = append(due, s)
		}
	}
	return due
}
