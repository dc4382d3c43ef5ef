package series

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors surfaced by the counting engine. Callers match them with
// errors.Is; the wrapping message carries the offending values.
var (
	ErrInvalidRange         = errors.New("invalid date range")
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// Rule selects the time bucket width for an aggregated series.
type Rule string

const (
	// RuleDay leaves the daily series as-is.
	RuleDay Rule = "day"
	// RuleWeek sums daily counts into weekly buckets. Weeks end on Sunday
	// and each bucket is labelled by its ending Sunday, so the final label
	// may fall after the axis end when the axis does not end on a Sunday.
	RuleWeek Rule = "week"
)

// Options controls resampling and population adjustment for the aggregators.
// PopAdjust, when non-nil, rescales counts to a rate per *PopAdjust subjects:
// every count is divided by (subjects / *PopAdjust). A nil PopAdjust leaves
// raw counts untouched.
type Options struct {
	Rule      Rule
	PopAdjust *float64
}

// Validate rejects unrecognized resample rules and non-positive population
// adjustment denominators.
func (o Options) Validate() error {
	switch o.Rule {
	case "", RuleDay, RuleWeek:
	default:
		return fmt.Errorf("unrecognized resample rule %q: %w", o.Rule, ErrInvalidConfiguration)
	}
	if o.PopAdjust != nil && *o.PopAdjust <= 0 {
		return fmt.Errorf("population adjustment denominator %v must be positive: %w", *o.PopAdjust, ErrInvalidConfiguration)
	}
	return nil
}

func (o Options) weekly() bool { return o.Rule == RuleWeek }

// Day normalizes t to midnight UTC. All engine dates are calendar days; any
// time-of-day or zone component on the input is discarded up front so that
// map lookups and comparisons behave.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateAxis is the contiguous daily calendar all count series are aligned to.
// It is immutable once built.
type DateAxis struct {
	days []time.Time
}

// NewDateAxis builds the inclusive daily calendar [start, end]. It fails
// with ErrInvalidRange when start is after end.
func NewDateAxis(start, end time.Time) (DateAxis, error) {
	start, end = Day(start), Day(end)
	if start.After(end) {
		return DateAxis{}, fmt.Errorf("start date %s after end date %s: %w",
			start.Format(time.DateOnly), end.Format(time.DateOnly), ErrInvalidRange)
	}
	n := int(end.Sub(start).Hours()/24) + 1
	days := make([]time.Time, n)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return DateAxis{days: days}, nil
}

// Start returns the first day of the axis.
func (a DateAxis) Start() time.Time { return a.days[0] }

// End returns the last day of the axis.
func (a DateAxis) End() time.Time { return a.days[len(a.days)-1] }

// Len returns the number of days on the axis.
func (a DateAxis) Len() int { return len(a.days) }

// Days returns a copy of the axis days in ascending order.
func (a DateAxis) Days() []time.Time {
	out := make([]time.Time, len(a.days))
	copy(out, a.days)
	return out
}

// Series is a count (or rate) per bucket, aligned to the axis or to the
// weekly labels derived from it. Days and Values are parallel.
type Series struct {
	Days   []time.Time `json:"days"`
	Values []float64   `json:"values"`
}

// Table is one Series per named column over a shared bucket axis.
// Values[i] holds the column named Columns[i].
type Table struct {
	Days    []time.Time `json:"days"`
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"`
}

// Column returns the values for the named column, or nil if absent.
func (t Table) Column(name string) []float64 {
	for i, c := range t.Columns {
		if c == name {
			return t.Values[i]
		}
	}
	return nil
}

// EventTable is a patient-level table: one row per subject, one optional
// event date per column. A nil cell means the subject never had that event.
// Column order carries the advancement ordering used by net attribution, so
// it is declared explicitly at construction rather than inferred.
type EventTable struct {
	columns []string
	rows    [][]*time.Time
}

// NewEventTable declares the ordered event-date columns of an empty table.
func NewEventTable(columns ...string) *EventTable {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &EventTable{columns: cols}
}

// AddRow appends one subject. Cells must match the declared columns; dates
// are normalized to midnight UTC.
func (t *EventTable) AddRow(cells ...*time.Time) error {
	if len(cells) != len(t.columns) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(cells), len(t.columns))
	}
	row := make([]*time.Time, len(cells))
	for i, c := range cells {
		if c != nil {
			d := Day(*c)
			row[i] = &d
		}
	}
	t.rows = append(t.rows, row)
	return nil
}

// Columns returns the declared column names in order.
func (t *EventTable) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// NumSubjects returns the number of rows.
func (t *EventTable) NumSubjects() int { return len(t.rows) }

// ColumnDates returns the per-subject dates for column index i.
func (t *EventTable) ColumnDates(i int) []*time.Time {
	out := make([]*time.Time, len(t.rows))
	for r, row := range t.rows {
		out[r] = row[i]
	}
	return out
}
