package engine_test

import (
	"errors"
	"testing"

	"github.com/avocarbon/forecast-engine/engine"
)

// =============================================================================
// WEEK PARSING
// =============================================================================

func TestParseWeek_CanonicalForm(t *testing.T) {
	w, err := engine.ParseWeek("2025-W07")
	if err != nil {
		t.Fatalf("expected valid week, got error: %v", err)
	}
	if w.Year != 2025 || w.Week != 7 {
		t.Errorf("expected 2025/7, got %d/%d", w.Year, w.Week)
	}
}

func TestParseWeek_RejectsMalformedShapes(t *testing.T) {
	malformed := []string{
		"",
		"2025W07",
		"2025-w07",  // lowercase marker
		"2025-W7",   // not zero-padded
		"25-W07",    // two-digit year
		"2025-W00",  // week zero
		"2025-W54",  // beyond any ISO year
		"2025-W071", // trailing digit
		"garbage",
	}
	for _, s := range malformed {
		if _, err := engine.ParseWeek(s); err == nil {
			t.Errorf("ParseWeek(%q): expected error, got none", s)
		} else if !errors.Is(err, engine.ErrInvalidWeekFormat) {
			t.Errorf("ParseWeek(%q): error does not unwrap to ErrInvalidWeekFormat: %v", s, err)
		}
	}
}

// =============================================================================
// DISTANCE ARITHMETIC
// =============================================================================

func TestWeekDiff_WithinYear(t *testing.T) {
	d, ok := engine.WeekDiff("2025-W15", "2025-W10")
	if !ok || d != 5 {
		t.Errorf("expected 5, got %d (ok=%v)", d, ok)
	}
}

func TestWeekDiff_AcrossYears_Uses52WeekConvention(t *testing.T) {
	// The 52-week-per-year approximation is an upstream business
	// convention, preserved even though some ISO years have 53 weeks.
	d, ok := engine.WeekDiff("2026-W02", "2025-W50")
	if !ok || d != 4 {
		t.Errorf("expected 4, got %d (ok=%v)", d, ok)
	}
}

func TestWeekDiff_Signed(t *testing.T) {
	d, ok := engine.WeekDiff("2025-W10", "2025-W15")
	if !ok || d != -5 {
		t.Errorf("expected -5, got %d (ok=%v)", d, ok)
	}
}

func TestWeekDiff_UnparsableSideYieldsUnknown(t *testing.T) {
	if _, ok := engine.WeekDiff("", "2025-W10"); ok {
		t.Error("expected unknown distance for empty target week")
	}
	if _, ok := engine.WeekDiff("2025-W10", "not-a-week"); ok {
		t.Error("expected unknown distance for malformed reference week")
	}
}

// =============================================================================
// ORDERING
// =============================================================================

func TestSortWeeks_Chronological(t *testing.T) {
	weeks := []string{"2026-W01", "2025-W09", "2025-W52", "2025-W10"}
	engine.SortWeeks(weeks)

	want := []string{"2025-W09", "2025-W10", "2025-W52", "2026-W01"}
	for i := range want {
		if weeks[i] != want[i] {
			t.Fatalf("position %d: expected %s, got %s (full: %v)", i, want[i], weeks[i], weeks)
		}
	}
}

func TestValidateWeeks_FirstMalformedAborts(t *testing.T) {
	err := engine.ValidateWeeks([]string{"2025-W10", "2025-11", "2025-W12"})
	if !errors.Is(err, engine.ErrInvalidWeekFormat) {
		t.Errorf("expected ErrInvalidWeekFormat, got %v", err)
	}
}
