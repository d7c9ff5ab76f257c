package nldate

import "time"

// lastDayOfMonth returns the final day of the month containing ref:
// day 1 of the following month, minus one day.
func lastDayOfMonth(year int, month time.Month, loc *time.Location) time.Time {
	return time.Date(year, month+1, 1, 0, 0, 0, 0, loc).AddDate(0, 0, -1)
}

// firstDayOfMonth returns day 1 of the month containing ref.
func firstDayOfMonth(year int, month time.Month, loc *time.Location) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, loc)
}

// lastWeekdayOfMonth scans backward from the last day of the month to
// the most recent day falling on wd.
func lastWeekdayOfMonth(year int, month time.Month, wd time.Weekday, loc *time.Location) time.Time {
	d := lastDayOfMonth(year, month, loc)
	for d.Weekday() != wd {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// firstWeekdayOfMonth scans forward from day 1 to the first day falling
// on wd.
func firstWeekdayOfMonth(year int, month time.Month, wd time.Weekday, loc *time.Location) time.Time {
	d := firstDayOfMonth(year, month, loc)
	for d.Weekday() != wd {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func isBusinessDay(d time.Time) bool {
	wd := d.Weekday()
	return wd >= time.Monday && wd <= time.Friday
}

// lastBusinessDayOfMonth scans backward from the last day of the month
// to the most recent Monday..Friday.
func lastBusinessDayOfMonth(year int, month time.Month, loc *time.Location) time.Time {
	d := lastDayOfMonth(year, month, loc)
	for !isBusinessDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// firstBusinessDayOfMonth scans forward from day 1 to the first
// Monday..Friday.
func firstBusinessDayOfMonth(year int, month time.Month, loc *time.Location) time.Time {
	d := firstDayOfMonth(year, month, loc)
	for !isBusinessDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// sameDate reports whether a and b fall on the same calendar day in
// their respective locations.
func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
