package nldate

import (
	"regexp"

	"github.com/lembrabot/lembrabot/internal/models"
)

// Recurrence keywords are recognized and stripped before date parsing
// so "todo dia às 8h" leaves "às 8h" for the time extractor.
var recurrencePatterns = []struct {
	re   *regexp.Regexp
	kind models.Recurrence
}{
	{regexp.MustCompile(`(?i)\btodos?\s+os\s+dias\b|\btodo\s+dia\b|\bdiariamente\b`), models.RecurrenceDaily},
	{regexp.MustCompile(`(?i)\btodas?\s+as\s+semanas\b|\btoda\s+semana\b|\bsemanalmente\b`), models.RecurrenceWeekly},
}

// ExtractRecurrence finds a recurrence keyword in text, removes it and
// returns the residual text plus the recurrence kind (RecurrenceNone
// when no keyword is present).
func ExtractRecurrence(text string) (string, models.Recurrence) {
	for _, p := range recurrencePatterns {
		if idx := p.re.FindStringIndex(text); idx != nil {
			residual := collapseSpaces(text[:idx[0]] + " " + text[idx[1]:])
			return residual, p.kind
		}
	}
	return text, models.RecurrenceNone
}
