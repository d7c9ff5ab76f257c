package nldate

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// minutesRe is the "daqui 5min" / "em 20 minutos" shortcut. It bypasses
// date resolution and rollover entirely.
var minutesRe = regexp.MustCompile(`(?i)\b(?:daqui\s+(?:a\s+)?|em\s+)(\d{1,4})\s*min(?:utos?)?\b`)

// fillerWords are connectives left dangling once the date and time
// phrases are stripped ("dentista amanhã às 15h" -> "dentista").
var fillerWords = map[string]bool{
	"às": true, "as": true, "ao": true, "no": true, "na": true,
	"dia": true, "em": true, "para": true, "pra": true,
}

// Combine attaches an extracted time to a resolved date in loc and
// applies the past-time rollover policy:
//
//   - defaulted time landing earlier today moves to now.Hour()+1:00,
//     not to tomorrow;
//   - a relative date whose instant is not after now rolls one day
//     forward;
//   - an explicitly typed numeric date is accepted even in the past.
func Combine(d ResolvedDate, xt ExtractedTime, now time.Time, loc *time.Location) time.Time {
	now = now.In(loc)
	at := time.Date(d.Year, d.Month, d.Day, xt.Hour, xt.Minute, 0, 0, loc)

	if !xt.Explicit && sameDate(at, now) && !at.After(now) {
		at = time.Date(d.Year, d.Month, d.Day, now.Hour()+1, 0, 0, 0, loc)
	}

	if d.Source == SourceRelative && !at.After(now) {
		at = at.AddDate(0, 0, 1)
	}

	return at
}

// Parse resolves a full scheduling phrase into an instant. The same
// text with the same now and loc always yields the same instant; there
// is no hidden state. ErrNoDateFound and ErrInvalidDate are returned
// for the caller to surface.
func Parse(text string, now time.Time, loc *time.Location) (Result, error) {
	now = now.In(loc)

	if m := minutesRe.FindStringSubmatchIndex(text); m != nil {
		n, err := strconv.Atoi(text[m[2]:m[3]])
		if err == nil {
			return Result{
				At:           now.Add(time.Duration(n) * time.Minute),
				Residual:     stripFiller(text[:m[0]] + " " + text[m[1]:]),
				ExplicitTime: true,
			}, nil
		}
	}

	residual, xt := ExtractTime(text, now)
	d, matched, err := ResolveDate(residual, now)
	if err != nil {
		return Result{}, err
	}

	residual = strings.Replace(residual, matched, " ", 1)
	return Result{
		At:           Combine(d, xt, now, loc),
		Residual:     stripFiller(residual),
		ExplicitTime: xt.Explicit,
	}, nil
}

// stripFiller drops connective words left dangling at the edges after
// phrase removal, and collapses spaces. Words in the middle of the
// description are kept.
func stripFiller(s string) string {
	fields := strings.Fields(s)
	for len(fields) > 0 && fillerWords[strings.ToLower(fields[0])] {
		fields = fields[1:]
	}
	for len(fields) > 0 && fillerWords[strings.ToLower(fields[len(fields)-1])] {
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}
