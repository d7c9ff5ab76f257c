package nldate

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Time patterns in priority order. The first match wins and is consumed
// from the text so the numerals cannot confuse date matching later.
// A slash-separated pair like 10/01 is a date, never a time: every
// pattern here requires a ':' or 'h' separator.
var timePatterns = []*regexp.Regexp{
	// 15:30, 15h30
	regexp.MustCompile(`(?i)\b(\d{1,2})[:h](\d{2})\b`),
	// 15h, 15 h, 8 horas
	regexp.MustCompile(`(?i)\b(\d{1,2})\s*h(?:oras?)?\b`),
}

var (
	eveningMarkerRe = regexp.MustCompile(`(?i)(?:^|\s)(?:(?:da|de|à|a)\s+)?(?:tarde|noite)\b`)
	// No trailing \b: Go's word boundary is ASCII-only and never
	// matches after "ã". The leading (?:^|\s) keeps "amanhã" from
	// counting as a morning marker.
	morningMarkerRe = regexp.MustCompile(`(?i)(?:^|\s)(?:(?:da|de)\s+)?manh[ãa]`)
)

// ExtractTime finds the first explicit clock time in text and removes
// it from the returned residual. When nothing matches, the reference
// instant's hour and minute are used and Explicit is false.
func ExtractTime(text string, now time.Time) (string, ExtractedTime) {
	for _, re := range timePatterns {
		m := re.FindStringSubmatchIndex(text)
		if m == nil {
			continue
		}

		hour, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil || hour > 23 {
			continue
		}
		minute := 0
		if len(m) > 4 && m[4] >= 0 {
			minute, err = strconv.Atoi(text[m[4]:m[5]])
			if err != nil || minute > 59 {
				continue
			}
		}

		residual := collapseSpaces(text[:m[0]] + " " + text[m[1]:])
		hour = applyDayPeriod(hour, residual)
		return residual, ExtractedTime{Hour: hour, Minute: minute, Explicit: true}
	}

	return text, ExtractedTime{Hour: now.Hour(), Minute: now.Minute()}
}

// applyDayPeriod disambiguates 12-hour clock references: "3 da tarde"
// means 15h, "12 da manhã" means midnight. The marker is looked up in
// the residual text, after the numeric match was removed.
func applyDayPeriod(hour int, residual string) int {
	if hour < 12 && eveningMarkerRe.MatchString(residual) {
		return hour + 12
	}
	if hour == 12 && morningMarkerRe.MatchString(residual) {
		return 0
	}
	return hour
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
