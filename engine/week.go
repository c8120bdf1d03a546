/*
week.go - ISO-week identifier parsing and distance arithmetic

PURPOSE:
  Parses the canonical week form "YYYY-Www" (two-digit zero-padded week)
  and provides the signed week-distance and ordering used everywhere else
  in the engine.

WEEK DISTANCE:
  Diff uses (yearA-yearB)*52 + (weekA-weekB). This is a calendar-week
  approximation, not true ISO week arithmetic (some ISO years have 53
  weeks). The simplification is an established business convention in the
  upstream EDI data and is reused verbatim for consistency; do not "fix"
  it without sign-off from the domain owners.

SEE ALSO:
  - interval.go: Consumes the signed distance
  - errors.go: InvalidWeekError
*/
package engine

import (
	"regexp"
	"sort"
	"strconv"
)

var weekPattern = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)

// Week is a parsed week identifier.
type Week struct {
	Year int
	Week int
}

// ParseWeek parses a canonical "YYYY-Www" identifier. Any other shape
// fails with InvalidWeekError; callers must reject malformed reference
// weeks before aggregation starts.
func ParseWeek(s string) (Week, error) {
	m := weekPattern.FindStringSubmatch(s)
	if m == nil {
		return Week{}, &InvalidWeekError{Week: s}
	}
	year, _ := strconv.Atoi(m[1])
	week, _ := strconv.Atoi(m[2])
	if week < 1 || week > 53 {
		return Week{}, &InvalidWeekError{Week: s}
	}
	return Week{Year: year, Week: week}, nil
}

// WeekDiff returns the signed number of calendar weeks from b to a.
// The second return is false when either side is unparsable; the caller
// (interval classification) treats an unknown distance as the most urgent
// horizon rather than failing the batch.
func WeekDiff(a, b string) (int, bool) {
	wa, errA := ParseWeek(a)
	wb, errB := ParseWeek(b)
	if errA != nil || errB != nil {
		return 0, false
	}
	return (wa.Year-wb.Year)*52 + (wa.Week - wb.Week), true
}

// CompareWeeks orders two week identifiers chronologically. Unparsable
// identifiers sort before everything parsable so they surface first.
func CompareWeeks(a, b string) int {
	wa, errA := ParseWeek(a)
	wb, errB := ParseWeek(b)
	switch {
	case errA != nil && errB != nil:
		return compareStrings(a, b)
	case errA != nil:
		return -1
	case errB != nil:
		return 1
	}
	if wa.Year != wb.Year {
		return wa.Year - wb.Year
	}
	return wa.Week - wb.Week
}

// SortWeeks sorts week identifiers chronologically in place.
func SortWeeks(weeks []string) {
	sort.SliceStable(weeks, func(i, j int) bool {
		return CompareWeeks(weeks[i], weeks[j]) < 0
	})
}

// ValidateWeeks checks every supplied reference week. The first malformed
// identifier aborts the run: reference weeks are a caller precondition.
func ValidateWeeks(weeks []string) error {
	for _, w := range weeks {
		if _, err := ParseWeek(w); err != nil {
			return err
		}
	}
	return nil
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
