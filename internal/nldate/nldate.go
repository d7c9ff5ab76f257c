// Package nldate resolves Brazilian-Portuguese date/time phrases
// ("amanhã às 15h", "última sexta do mês") into absolute instants.
// All functions are pure: the reference instant and timezone are
// explicit parameters, never process-wide state.
package nldate

import (
	"errors"
	"time"
)

var (
	// ErrNoDateFound is returned when no rule recognizes a date phrase.
	// Callers must surface this to the user instead of silently
	// scheduling for today.
	ErrNoDateFound = errors.New("no date expression found")

	// ErrInvalidDate is returned for date strings that name a day that
	// does not exist on the calendar, e.g. 31/02.
	ErrInvalidDate = errors.New("invalid calendar date")
)

// ExtractedTime is a clock time found inside free text. Explicit is
// false when no time pattern matched and the hour/minute were defaulted
// from the reference instant.
type ExtractedTime struct {
	Hour     int
	Minute   int
	Explicit bool
}

// DateSource records which kind of rule produced a ResolvedDate. The
// combiner's rollover policy differs between the two: relative dates in
// the past roll forward one day, explicitly typed dates are accepted
// as-is.
type DateSource int

const (
	// SourceRelative covers weekday names, hoje/amanhã and
	// ordinal-of-month phrases.
	SourceRelative DateSource = iota
	// SourceExplicit covers numeric D/M or D/M/Y dates.
	SourceExplicit
)

// ResolvedDate is a calendar date with no time-of-day component.
type ResolvedDate struct {
	Year   int
	Month  time.Month
	Day    int
	Source DateSource
}

// Date builds the midnight instant of the resolved date in loc.
func (d ResolvedDate) Date(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Result is the outcome of parsing a full scheduling phrase.
type Result struct {
	// At is the resolved instant in the requested timezone.
	At time.Time
	// Residual is the input with the recognized time and date phrases
	// removed; callers use it as the reminder description.
	Residual string
	// ExplicitTime reports whether a clock time was typed or defaulted.
	ExplicitTime bool
}
