package scheduling

import (
	"fmt"

	"zapis/internal/models"
)

// ValidateTime checks that t is a real time of day: 0 <= hour < 24 and
// minutes/seconds in [0, 60). Midnight (00:00:00) is valid.
func ValidateTime(t models.TimeOfDay) error {
	if reason := outOfRange(t); reason != "" {
		return fmt.Errorf("%w: %s", ErrInvalidTime, reason)
	}
	return nil
}

func outOfRange(t models.TimeOfDay) string {
	switch {
	case t.Hour < 0 || t.Hour >= 24:
		return fmt.Sprintf("hour %d out of range [0, 24)", t.Hour)
	case t.Minute < 0 || t.Minute >= 60:
		return fmt.Sprintf("minute %d out of range [0, 60)", t.Minute)
	case t.Second < 0 || t.Second >= 60:
		return fmt.Sprintf("second %d out of range [0, 60)", t.Second)
	}
	return ""
}

// ValidateWindow range-checks both bounds. It does not require Start < End.
func ValidateWindow(w models.TimeWindow) Verdict {
	if reason := outOfRange(w.Start); reason != "" {
		return Verdictf(InvalidTime, "start %s: %s", w.Start, reason)
	}
	if reason := outOfRange(w.End); reason != "" {
		return Verdictf(InvalidTime, "end %s: %s", w.End, reason)
	}
	return Verdict{Kind: Available}
}
