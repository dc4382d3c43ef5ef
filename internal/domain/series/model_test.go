package series

import (
	"errors"
	"testing"
	"time"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func dp(y int, m time.Month, day int) *time.Time {
	t := d(y, m, day)
	return &t
}

func TestNewDateAxis_Inclusive(t *testing.T) {
	axis, err := NewDateAxis(d(2021, 1, 1), d(2021, 1, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if axis.Len() != 10 {
		t.Fatalf("expected 10 days, got %d", axis.Len())
	}
	if !axis.Start().Equal(d(2021, 1, 1)) {
		t.Errorf("unexpected start: %v", axis.Start())
	}
	if !axis.End().Equal(d(2021, 1, 10)) {
		t.Errorf("unexpected end: %v", axis.End())
	}
	days := axis.Days()
	for i := 1; i < len(days); i++ {
		if !days[i].Equal(days[i-1].AddDate(0, 0, 1)) {
			t.Fatalf("gap in axis between %v and %v", days[i-1], days[i])
		}
	}
}

func TestNewDateAxis_SingleDay(t *testing.T) {
	axis, err := NewDateAxis(d(2021, 6, 15), d(2021, 6, 15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if axis.Len() != 1 {
		t.Errorf("expected 1 day, got %d", axis.Len())
	}
}

func TestNewDateAxis_InvalidRange(t *testing.T) {
	_, err := NewDateAxis(d(2021, 1, 10), d(2021, 1, 1))
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestNewDateAxis_NormalizesTimeOfDay(t *testing.T) {
	axis, err := NewDateAxis(
		time.Date(2021, 1, 1, 13, 45, 0, 0, time.UTC),
		time.Date(2021, 1, 2, 1, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if axis.Len() != 2 {
		t.Errorf("expected 2 days, got %d", axis.Len())
	}
	if !axis.Start().Equal(d(2021, 1, 1)) {
		t.Errorf("start not normalized to midnight: %v", axis.Start())
	}
}

func TestEventTable_AddRowMismatch(t *testing.T) {
	et := NewEventTable("a", "b")
	if err := et.AddRow(dp(2021, 1, 1)); err == nil {
		t.Fatal("expected error for short row")
	}
	if err := et.AddRow(dp(2021, 1, 1), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if et.NumSubjects() != 1 {
		t.Errorf("expected 1 subject, got %d", et.NumSubjects())
	}
}

func TestOptions_Validate(t *testing.T) {
	axis, _ := NewDateAxis(d(2021, 1, 1), d(2021, 1, 2))

	_, err := CountSeries(nil, axis, Options{Rule: "month"})
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration for unknown rule, got %v", err)
	}

	bad := -100.0
	_, err = CountSeries(nil, axis, Options{PopAdjust: &bad})
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration for negative denominator, got %v", err)
	}

	zero := 0.0
	_, err = CountSeries(nil, axis, Options{PopAdjust: &zero})
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration for zero denominator, got %v", err)
	}
}
