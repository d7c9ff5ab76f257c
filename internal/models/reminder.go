package models

import (
	"time"

	"github.com/google/uuid"
)

// Recurrence is the fixed period added after a reminder fires
type Recurrence string

const (
	RecurrenceNone   Recurrence = "none"
	RecurrenceDaily  Recurrence = "daily"
	RecurrenceWeekly Recurrence = "weekly"
)

// Valid reports whether r is a known recurrence kind
func (r Recurrence) Valid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly:
		return true
	}
	return false
}

// Reminder is a description plus a single absolute future instant plus
// an optional recurrence kind
type Reminder struct {
	ID          uuid.UUID  `json:"id"`
	ChatID      int64      `json:"chat_id"`
	Description string     `json:"description"`
	FireAt      time.Time  `json:"fire_at"`
	Recurrence  Recurrence `json:"recurrence"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// DisplayTimeFormat is how instants are shown to users (pt-BR order).
const DisplayTimeFormat = "02/01/2006 15:04"

// FireAtDisplay formats the fire instant for user-facing messages in
// the given zone.
func (r *Reminder) FireAtDisplay(loc *time.Location) string {
	return r.FireAt.In(loc).Format(DisplayTimeFormat)
}
