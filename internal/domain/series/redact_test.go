package series

import (
	"errors"
	"testing"
)

func TestRedact_MasksSmallCounts(t *testing.T) {
	s := Series{Values: []float64{0, 1, 5, 6, 10}}

	got, err := Redact(s, 6, 2.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{0, 2.5, 2.5, 6, 10}
	for i := range want {
		if got.Values[i] != want[i] {
			t.Errorf("index %d: expected %v, got %v", i, want[i], got.Values[i])
		}
	}
	// Input untouched.
	if s.Values[1] != 1 {
		t.Error("redaction modified its input")
	}
}

func TestRedact_Idempotent(t *testing.T) {
	s := Series{Values: []float64{0, 0.5, 2.5, 3, 5.9, 6, 100}}

	once, err := Redact(s, 6, 2.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	twice, err := Redact(once, 6, 2.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range once.Values {
		if once.Values[i] != twice.Values[i] {
			t.Errorf("index %d: %v became %v on second pass", i, once.Values[i], twice.Values[i])
		}
	}
}

func TestRedact_MarkerValidation(t *testing.T) {
	// The marker 2.5 sits inside (0, 6) on purpose: redaction maps it to
	// itself, so a second pass changes nothing, and the fractional part
	// keeps masked points apart from genuine counts. An integer marker in
	// the same interval would read as a real count.
	if err := ValidateRedaction(DefaultRedactionThreshold, DefaultRedactionMarker); err != nil {
		t.Fatalf("default threshold and marker must validate: %v", err)
	}
	_, err := Redact(Series{}, 6, 2.5)
	if err != nil {
		t.Fatalf("non-integer marker inside the window must be accepted: %v", err)
	}
	_, err = Redact(Series{}, 2, 2.5)
	if err != nil {
		t.Fatalf("marker above threshold must be accepted: %v", err)
	}
	_, err = Redact(Series{}, 6, 3)
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration for integer marker 3 inside (0,6), got %v", err)
	}
	_, err = Redact(Series{}, 6, 7)
	if err != nil {
		t.Fatalf("integer marker outside the window must be accepted: %v", err)
	}
	_, err = Redact(Series{}, 0, 2.5)
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration for non-positive threshold, got %v", err)
	}
}

func TestRedact_NegativeValuesUntouched(t *testing.T) {
	// Negative values only appear in pathological net-attribution output;
	// they are a data-quality signal and must survive redaction.
	got, err := Redact(Series{Values: []float64{-1, 3}}, 6, 2.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Values[0] != -1 {
		t.Errorf("expected -1 preserved, got %v", got.Values[0])
	}
	if got.Values[1] != 2.5 {
		t.Errorf("expected 3 masked to 2.5, got %v", got.Values[1])
	}
}

func TestRedactTable(t *testing.T) {
	tab := Table{
		Columns: []string{"a", "b"},
		Values:  [][]float64{{0, 2, 8}, {5, 6, 1}},
	}
	got, err := RedactTable(tab, 6, 2.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantA := []float64{0, 2.5, 8}
	wantB := []float64{2.5, 6, 2.5}
	for i := range wantA {
		if got.Column("a")[i] != wantA[i] {
			t.Errorf("a[%d]: expected %v, got %v", i, wantA[i], got.Column("a")[i])
		}
		if got.Column("b")[i] != wantB[i] {
			t.Errorf("b[%d]: expected %v, got %v", i, wantB[i], got.Column("b")[i])
		}
	}
}
