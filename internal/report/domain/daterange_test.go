package domain

import (
	"testing"
	"time"
)

func TestNormalizeDateRangeDefaults(t *testing.T) {
	now := time.Date(2026, time.August, 18, 14, 30, 0, 0, time.UTC)

	got := NormalizeDateRange("", "", now)

	wantStart := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	if !got.Start.Equal(wantStart) {
		t.Fatalf("start = %v, want %v", got.Start, wantStart)
	}
	if got.End.Year() != 2026 || got.End.Month() != time.August || got.End.Day() != 18 {
		t.Fatalf("end day = %v, want today", got.End)
	}
	if got.End.Hour() != 23 || got.End.Minute() != 59 || got.End.Second() != 59 {
		t.Fatalf("end not widened to end of day: %v", got.End)
	}
}

func TestNormalizeDateRangeWidensBoundaries(t *testing.T) {
	now := time.Date(2026, time.August, 18, 0, 0, 0, 0, time.UTC)

	got := NormalizeDateRange("2026-03-05", "2026-03-10", now)

	if got.Start.Hour() != 0 || got.Start.Day() != 5 {
		t.Fatalf("start = %v", got.Start)
	}
	// A row stamped late on the end day still falls inside the range.
	lateOnEndDay := time.Date(2026, time.March, 10, 23, 58, 0, 0, time.UTC)
	if lateOnEndDay.After(got.End) {
		t.Fatalf("end %v excludes %v", got.End, lateOnEndDay)
	}
	if got.End.Day() != 10 {
		t.Fatalf("end = %v", got.End)
	}
}

func TestNormalizeDateRangeMalformedFallsBack(t *testing.T) {
	now := time.Date(2026, time.August, 18, 0, 0, 0, 0, time.UTC)

	got := NormalizeDateRange("not-a-date", "08/18/2026", now)

	if got.Start.Day() != 1 || got.Start.Month() != time.August {
		t.Fatalf("start = %v, want first of month", got.Start)
	}
	if got.End.Day() != 18 {
		t.Fatalf("end = %v, want today", got.End)
	}
}

func TestNormalizeDateRangeSwapsInverted(t *testing.T) {
	now := time.Date(2026, time.August, 18, 0, 0, 0, 0, time.UTC)

	got := NormalizeDateRange("2026-05-20", "2026-05-01", now)

	if got.Start.Day() != 1 || got.End.Day() != 20 {
		t.Fatalf("range not swapped: %v .. %v", got.Start, got.End)
	}
}

func TestNormalizeYear(t *testing.T) {
	now := time.Date(2026, time.August, 18, 0, 0, 0, 0, time.UTC)

	if got := NormalizeYear("2024", now); got != 2024 {
		t.Fatalf("year = %d", got)
	}
	if got := NormalizeYear("abc", now); got != 2026 {
		t.Fatalf("malformed year = %d, want current", got)
	}
	if got := NormalizeYear("", now); got != 2026 {
		t.Fatalf("empty year = %d, want current", got)
	}
	if got := NormalizeYear("1880", now); got != 2026 {
		t.Fatalf("ancient year = %d, want current", got)
	}
}

func TestYearRange(t *testing.T) {
	got := YearRange(2025)
	if got.Start.Month() != time.January || got.Start.Day() != 1 {
		t.Fatalf("start = %v", got.Start)
	}
	if got.End.Month() != time.December || got.End.Day() != 31 || got.End.Hour() != 23 {
		t.Fatalf("end = %v", got.End)
	}
}
