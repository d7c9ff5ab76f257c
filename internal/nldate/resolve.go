package nldate

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var weekdayNames = map[string]time.Weekday{
	"domingo": time.Sunday,
	"segunda": time.Monday,
	"terça":   time.Tuesday,
	"terca":   time.Tuesday,
	"quarta":  time.Wednesday,
	"quinta":  time.Thursday,
	"sexta":   time.Friday,
	"sábado":  time.Saturday,
	"sabado":  time.Saturday,
}

const weekdayAlt = `(domingo|segunda|ter[çc]a|quarta|quinta|sexta|s[áa]bado)(?:-feira)?`

// dateRule pairs a matcher with its resolver. The table below is
// evaluated in fixed order and the first match wins, so multi-word
// phrases must come before their single-word substrings ("último
// domingo do mês" before "domingo").
type dateRule struct {
	name    string
	re      *regexp.Regexp
	resolve func(m []string, today time.Time) (ResolvedDate, error)
}

var dateRules = []dateRule{
	{
		name: "ordinal-of-month",
		// (?:^|\s) instead of \b: Go word boundaries are ASCII-only
		// and fail before "ú".
		re: regexp.MustCompile(`(?i)(?:^|\s)([úu]ltim[oa]|primeir[oa])\s+(?:(dia\s+[úu]til)|` + weekdayAlt + `)\s+d[oe]\s+(?:(pr[óo]ximo)\s+)?m[êe]s(\s+que\s+vem)?\b`),
		resolve: resolveOrdinalOfMonth,
	},
	{
		name: "named-weekday",
		re: regexp.MustCompile(`(?i)\b(?:(pr[óo]xim[oa])\s+)?` + weekdayAlt + `(\s+(?:que\s+vem|da\s+semana\s+que\s+vem))?\b`),
		resolve: resolveNamedWeekday,
	},
	{
		name:    "day-after-tomorrow",
		re:      regexp.MustCompile(`(?i)\bdepois\s+de\s+amanh[ãa]`),
		resolve: relativeDays(2),
	},
	{
		name:    "tomorrow",
		re:      regexp.MustCompile(`(?i)\bamanh[ãa]`),
		resolve: relativeDays(1),
	},
	{
		name:    "today",
		re:      regexp.MustCompile(`(?i)\bhoje\b`),
		resolve: relativeDays(0),
	},
	{
		name:    "numeric-date",
		re:      regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?\b`),
		resolve: resolveNumericDate,
	},
}

// ResolveDate maps a phrase to a calendar date using the ordered rule
// cascade. It returns the matched substring so callers can strip the
// date phrase from the reminder description. When no rule matches it
// returns ErrNoDateFound; deciding what to do about that is the
// caller's policy, not this layer's.
func ResolveDate(text string, today time.Time) (ResolvedDate, string, error) {
	for _, rule := range dateRules {
		idx := rule.re.FindStringIndex(text)
		if idx == nil {
			continue
		}
		m := rule.re.FindStringSubmatch(text)
		d, err := rule.resolve(m, today)
		if err != nil {
			return ResolvedDate{}, "", err
		}
		return d, text[idx[0]:idx[1]], nil
	}
	return ResolvedDate{}, "", ErrNoDateFound
}

func fromTime(t time.Time, source DateSource) ResolvedDate {
	return ResolvedDate{Year: t.Year(), Month: t.Month(), Day: t.Day(), Source: source}
}

// resolveOrdinalOfMonth handles "último domingo do mês", "primeiro
// sábado do próximo mês", "último dia útil do mês que vem".
// m: [_, ordinal, dia útil?, weekday?, próximo?, que vem?]
func resolveOrdinalOfMonth(m []string, today time.Time) (ResolvedDate, error) {
	loc := today.Location()
	year, month := today.Year(), today.Month()
	if m[4] != "" || m[5] != "" {
		// "próximo mês" / "mês que vem": time.Date normalizes
		// December+1 into January of the following year.
		next := time.Date(year, month+1, 1, 0, 0, 0, 0, loc)
		year, month = next.Year(), next.Month()
	}

	last := strings.HasPrefix(strings.ToLower(m[1]), "últim") ||
		strings.HasPrefix(strings.ToLower(m[1]), "ultim")

	if m[2] != "" { // dia útil
		if last {
			return fromTime(lastBusinessDayOfMonth(year, month, loc), SourceRelative), nil
		}
		return fromTime(firstBusinessDayOfMonth(year, month, loc), SourceRelative), nil
	}

	wd := weekdayNames[normalizeWeekday(m[3])]
	if last {
		return fromTime(lastWeekdayOfMonth(year, month, wd, loc), SourceRelative), nil
	}
	return fromTime(firstWeekdayOfMonth(year, month, wd, loc), SourceRelative), nil
}

// resolveNamedWeekday handles bare and qualified weekday names. A bare
// weekday always means a future date: when today is that weekday the
// next occurrence is one week out. A "próxima"/"que vem" qualifier adds
// a full week on top of the computed offset.
// m: [_, próximo?, weekday, que vem?]
func resolveNamedWeekday(m []string, today time.Time) (ResolvedDate, error) {
	target := weekdayNames[normalizeWeekday(m[2])]
	qualified := m[1] != "" || m[3] != ""

	daysAhead := (int(target) - int(today.Weekday()) + 7) % 7
	if qualified {
		daysAhead += 7
	} else if daysAhead == 0 {
		daysAhead = 7
	}

	return fromTime(today.AddDate(0, 0, daysAhead), SourceRelative), nil
}

func relativeDays(offset int) func([]string, time.Time) (ResolvedDate, error) {
	return func(_ []string, today time.Time) (ResolvedDate, error) {
		return fromTime(today.AddDate(0, 0, offset), SourceRelative), nil
	}
}

// resolveNumericDate handles D/M and D/M/Y. With the year omitted, a
// month/day already past this year rolls into next year.
func resolveNumericDate(m []string, today time.Time) (ResolvedDate, error) {
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])

	if month < 1 || month > 12 {
		return ResolvedDate{}, ErrInvalidDate
	}

	if m[3] != "" {
		year, _ := strconv.Atoi(m[3])
		if year < 100 {
			year += 2000
		}
		return checkedDate(year, time.Month(month), day, today.Location())
	}

	d, err := checkedDate(today.Year(), time.Month(month), day, today.Location())
	if err != nil {
		return ResolvedDate{}, err
	}
	if d.Date(today.Location()).Before(todayMidnight(today)) {
		return checkedDate(today.Year()+1, time.Month(month), day, today.Location())
	}
	return d, nil
}

// checkedDate rejects days that do not exist: time.Date normalizes
// 31/02 into early March, so a round trip detects the overflow.
func checkedDate(year int, month time.Month, day int, loc *time.Location) (ResolvedDate, error) {
	if day < 1 {
		return ResolvedDate{}, ErrInvalidDate
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return ResolvedDate{}, ErrInvalidDate
	}
	return ResolvedDate{Year: year, Month: month, Day: day, Source: SourceExplicit}, nil
}

func todayMidnight(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// normalizeWeekday lowercases a matched weekday name and drops the
// optional -feira suffix.
func normalizeWeekday(s string) string {
	s = strings.ToLower(s)
	if i := strings.Index(s, "-"); i >= 0 {
		s = s[:i]
	}
	return s
}
