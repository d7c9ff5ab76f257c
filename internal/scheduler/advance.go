// Package scheduler fires due reminders and reschedules recurring ones.
package scheduler

import (
	"time"

	"github.com/lembrabot/lembrabot/internal/models"
)

// Advance computes the next fire instant after a reminder fires. The
// second return is false for non-recurring reminders: the entry is
// terminal. AddDate keeps the wall clock stable across DST changes,
// so a daily 08:00 reminder stays at 08:00.
func Advance(firedAt time.Time, recurrence models.Recurrence) (time.Time, bool) {
	switch recurrence {
	case models.RecurrenceDaily:
		return firedAt.AddDate(0, 0, 1), true
	case models.RecurrenceWeekly:
		return firedAt.AddDate(0, 0, 7), true
	default:
		return time.Time{}, false
	}
}
