package series

import (
	"fmt"
	"time"
)

// CountSeries counts events per calendar day for a single event-date
// sequence (one optional date per subject; nil contributes nothing) and
// aligns the result to the axis, zero-filling days with no events. Dates
// falling outside the axis are ignored. The optional resample and
// population adjustment from opts are applied afterwards, in that order.
func CountSeries(dates []*time.Time, axis DateAxis, opts Options) (Series, error) {
	if err := opts.Validate(); err != nil {
		return Series{}, err
	}
	days, values := reindex(countByDay(dates), axis)
	if opts.weekly() {
		days, values = resampleWeekly(days, values)
	}
	applyPopAdjust(values, len(dates), opts.PopAdjust)
	return Series{Days: days, Values: values}, nil
}

// CountTable applies CountSeries independently to every column of the
// event table and joins the results on the shared bucket axis. A subject
// with dates in several columns is counted in each of them; there is no
// first-event restriction here.
func CountTable(t *EventTable, axis DateAxis, opts Options) (Table, error) {
	if err := opts.Validate(); err != nil {
		return Table{}, err
	}
	cols := t.Columns()
	out := Table{Columns: cols, Values: make([][]float64, len(cols))}
	for i := range cols {
		days, values := reindex(countByDay(t.ColumnDates(i)), axis)
		if opts.weekly() {
			days, values = resampleWeekly(days, values)
		}
		applyPopAdjust(values, t.NumSubjects(), opts.PopAdjust)
		out.Days = days
		out.Values[i] = values
	}
	if out.Days == nil {
		out.Days = bucketLabels(axis, opts)
	}
	return out, nil
}

// FirstEventCountTable counts first events per subject per column. The
// counting is identical to CountTable; the difference is purely the input
// contract: the caller must supply a table already reduced to each
// subject's first event per column (repeat events filtered upstream, e.g.
// by the first-event source tables). This function does not deduplicate
// and cannot detect unfiltered input.
func FirstEventCountTable(t *EventTable, axis DateAxis, opts Options) (Table, error) {
	return CountTable(t, axis, opts)
}

// AlignDailyCounts reindexes pre-aggregated (day, count) pairs, as returned
// by a GROUP BY date query, onto the axis with zero-fill, then resamples
// per rule. Days outside the axis are dropped. Population adjustment is not
// offered here because the subject denominator is unknown for
// pre-aggregated rows.
func AlignDailyCounts(days []time.Time, counts []float64, axis DateAxis, rule Rule) (Series, error) {
	if err := (Options{Rule: rule}).Validate(); err != nil {
		return Series{}, err
	}
	if len(days) != len(counts) {
		return Series{}, fmt.Errorf("got %d days but %d counts", len(days), len(counts))
	}
	byDay := make(map[time.Time]float64, len(days))
	for i, d := range days {
		byDay[Day(d)] += counts[i]
	}
	outDays, values := reindex(byDay, axis)
	if rule == RuleWeek {
		outDays, values = resampleWeekly(outDays, values)
	}
	return Series{Days: outDays, Values: values}, nil
}

func countByDay(dates []*time.Time) map[time.Time]float64 {
	m := make(map[time.Time]float64)
	for _, d := range dates {
		if d != nil {
			m[Day(*d)]++
		}
	}
	return m
}

// reindex aligns a day->count map onto the axis. Every axis day appears in
// the output, absent days as zero; map entries off the axis are dropped.
func reindex(byDay map[time.Time]float64, axis DateAxis) ([]time.Time, []float64) {
	days := axis.Days()
	values := make([]float64, len(days))
	for i, d := range days {
		values[i] = byDay[d]
	}
	return days, values
}

// weekEnding returns the Sunday that closes the week containing d.
func weekEnding(d time.Time) time.Time {
	return d.AddDate(0, 0, (7-int(d.Weekday()))%7)
}

// resampleWeekly sums daily values into Sunday-ending buckets. Input days
// must be ascending, which the axis guarantees; bucket labels are therefore
// ascending too.
func resampleWeekly(days []time.Time, values []float64) ([]time.Time, []float64) {
	var outDays []time.Time
	var outValues []float64
	for i, d := range days {
		label := weekEnding(d)
		if n := len(outDays); n > 0 && outDays[n-1].Equal(label) {
			outValues[n-1] += values[i]
			continue
		}
		outDays = append(outDays, label)
		outValues = append(outValues, values[i])
	}
	return outDays, outValues
}

// bucketLabels returns the output domain for the given options without any
// counting, used for empty tables.
func bucketLabels(axis DateAxis, opts Options) []time.Time {
	days := axis.Days()
	if opts.weekly() {
		days, _ = resampleWeekly(days, make([]float64, len(days)))
	}
	return days
}

// applyPopAdjust rescales values in place to a rate per *denom subjects.
// With zero subjects every count is already zero and the values are left
// alone, which keeps the all-zero guarantee instead of producing NaN.
func applyPopAdjust(values []float64, subjects int, denom *float64) {
	if denom == nil || subjects == 0 {
		return
	}
	scale := float64(subjects) / *denom
	for i := range values {
		values[i] /= scale
	}
}
