// Input validation helpers shared by the workout/exercise/set handlers.
//
// Everything here runs before any service or store call: malformed UUIDs,
// bad dates, out-of-range reps, and over-precise weights are rejected as
// validation_failed with field-keyed messages, never as not_found.
package handlers

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// isoDateLayout is the only accepted calendar-date shape (no time part).
const isoDateLayout = "2006-01-02"

// weightRE accepts decimal text with at most two fraction digits, e.g.
// "225", "102.5", "225.00".
var weightRE = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

// validUUID reports whether s parses as a well-formed UUID.
func validUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// validISODate reports whether s is a strict YYYY-MM-DD calendar date.
func validISODate(s string) bool {
	t, err := time.Parse(isoDateLayout, s)
	// time.Parse tolerates nothing extra with this layout, but normalize
	// round-trip guards against e.g. "2024-2-1".
	return err == nil && t.Format(isoDateLayout) == s
}

// validWeight reports whether s matches the decimal(…,2) text pattern.
func validWeight(s string) bool {
	return weightRE.MatchString(s)
}
