// Package dates converts the free-form date strings found in historical
// ledgers to canonical ISO calendar dates. The attempt order is fixed, so a
// given input string always normalizes the same way; a string no format can
// parse becomes null, never an error and never a guess.
package dates

import (
	"strings"
	"time"
)

// ISO is the canonical output layout (ISO 8601 calendar date).
const ISO = "2006-01-02"

// layouts is the ordered format list tried after the day-first heuristic.
// Order matters: the first successful parse wins.
var layouts = []string{
	"02/01/2006", // day/month/year, the corpus default
	"2006-01-02", // already canonical
	"01/02/2006", // month/day/year
	"02.01.2006", // dot-separated day.month.year
	"2006/01/02", // slash year/month/day
	"02-01-2006", // dash day-month-year
}

// Normalize parses a raw date string into an ISO calendar date. The second
// return is false when the value is empty or no configured format matches.
func Normalize(raw string) (string, bool) {
	t, ok := Parse(raw)
	if !ok {
		return "", false
	}
	return t.Format(ISO), true
}

// Parse is Normalize returning the parsed time for callers that need
// calendar arithmetic (year, month, ordering checks).
func Parse(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	// Day-before-month inference first: slash-separated two-part-day inputs
	// are day-first in this corpus, matching the transcribers' convention.
	if t, err := time.Parse("2/1/2006", s); err == nil {
		return t, true
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// NormalizeYear coerces a raw year cell to an int within [min, max). Values
// outside the window or non-numeric values are treated as malformed and
// yield false.
func NormalizeYear(raw string, min, max int) (int, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	// Transcribed year cells occasionally carry a trailing ".0" from
	// spreadsheet exports.
	s = strings.TrimSuffix(s, ".0")

	year := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		year = year*10 + int(r-'0')
	}
	if year < min || year >= max {
		return 0, false
	}
	return year, true
}
