package series

import (
	"fmt"
	"math"
)

// Disclosure-control defaults inherited from the reporting conventions this
// engine serves: counts under 6 are masked, and the marker 2.5 is a
// deliberately non-integer value so redacted points remain distinguishable
// from genuine counts in charts and downstream processing.
const (
	DefaultRedactionThreshold = 6
	DefaultRedactionMarker    = 2.5
)

// ValidateRedaction checks a threshold/marker pair. A marker inside the
// masked interval (0, threshold) is permitted only when it is non-integer:
// redaction maps such a marker to itself, so a second pass is a no-op, and
// the fractional part keeps redacted points distinguishable from genuine
// counts. An integer marker inside the interval would read as a real count
// and is rejected.
func ValidateRedaction(threshold, marker float64) error {
	if threshold <= 0 {
		return fmt.Errorf("redaction threshold %v must be positive: %w", threshold, ErrInvalidConfiguration)
	}
	if marker > 0 && marker < threshold && marker == math.Trunc(marker) {
		return fmt.Errorf("integer redaction marker %v inside (0, %v) is indistinguishable from a genuine count: %w",
			marker, threshold, ErrInvalidConfiguration)
	}
	return nil
}

// Redact masks small counts for disclosure control: every value in the open
// interval (0, threshold) is replaced by marker. Zeros and values at or
// above the threshold pass through. The input is not modified; redaction is
// the terminal transformation before a series leaves the engine.
func Redact(s Series, threshold, marker float64) (Series, error) {
	if err := ValidateRedaction(threshold, marker); err != nil {
		return Series{}, err
	}
	out := Series{Days: s.Days, Values: redactValues(s.Values, threshold, marker)}
	return out, nil
}

// RedactTable applies Redact to every column of the table.
func RedactTable(t Table, threshold, marker float64) (Table, error) {
	if err := ValidateRedaction(threshold, marker); err != nil {
		return Table{}, err
	}
	out := Table{Days: t.Days, Columns: t.Columns, Values: make([][]float64, len(t.Values))}
	for i, col := range t.Values {
		out.Values[i] = redactValues(col, threshold, marker)
	}
	return out, nil
}

func redactValues(values []float64, threshold, marker float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if v > 0 && v < threshold {
			out[i] = marker
		} else {
			out[i] = v
		}
	}
	return out
}
