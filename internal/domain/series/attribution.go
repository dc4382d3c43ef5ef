package series

import (
	"time"
)

// QualityWarning flags a net-attribution series that went negative. A
// negative stage population means the advancement ordering was violated in
// the data (a subject left a stage it never entered). The engine reports
// it and moves on; it never clips or corrects the values.
type QualityWarning struct {
	Column string    `json:"column"`
	Day    time.Time `json:"day"`
	Net    float64   `json:"net"`
}

// NetAttributionTable computes, for every axis day, how many subjects are
// currently attributed to each stage: they have reached it but not yet a
// more advanced one. Columns must be ordered least to most advanced.
//
// Per subject and stage i, the entry date is the stage-i date and the exit
// date is the earliest date among stages i+1..N-1. For the final stage the
// exit date is one day past the axis end, so a subject who reaches it stays
// in through the end of the axis. A subject whose stage-i date is missing,
// or strictly later than their exit date, is excluded from both entry and
// exit counts for stage i: their presence is attributed to the more
// advanced stage instead, which avoids double counting when a less
// advanced event is recorded after a more advanced one. Entries and exits
// dated at the same day keep the subject (the stage is occupied for that
// single day's net of zero onwards).
//
// net[i] = cumsum(entries) - cumsum(exits), accumulated along the daily
// axis. When a weekly rule is requested it is applied to the finished net
// series: the bucket value is the sum of the already-cumulative daily
// values within the bucket, a snapshot sum, not a re-aggregation of raw
// events. Population adjustment likewise applies to the net values.
//
// The first day a column goes negative is returned as a QualityWarning
// (at most one per column, checked on the daily series before resampling).
func NetAttributionTable(t *EventTable, axis DateAxis, opts Options) (Table, []QualityWarning, error) {
	if err := opts.Validate(); err != nil {
		return Table{}, nil, err
	}
	cols := t.Columns()
	nCols := len(cols)
	axisExit := axis.End().AddDate(0, 0, 1)

	out := Table{Columns: cols, Values: make([][]float64, nCols)}
	var warnings []QualityWarning

	for i := range cols {
		inByDay := make(map[time.Time]float64)
		outByDay := make(map[time.Time]float64)
		for r := 0; r < t.NumSubjects(); r++ {
			in, exit := stageWindow(t, r, i, nCols, axisExit)
			if in == nil {
				continue
			}
			if exit != nil && in.After(*exit) {
				continue
			}
			inByDay[*in]++
			if exit != nil {
				outByDay[*exit]++
			}
		}

		days, entries := reindex(inByDay, axis)
		_, exits := reindex(outByDay, axis)
		net := make([]float64, len(entries))
		var cumIn, cumOut float64
		warned := false
		for d := range entries {
			cumIn += entries[d]
			cumOut += exits[d]
			net[d] = cumIn - cumOut
			if net[d] < 0 && !warned {
				warnings = append(warnings, QualityWarning{Column: cols[i], Day: days[d], Net: net[d]})
				warned = true
			}
		}

		if opts.weekly() {
			days, net = resampleWeekly(days, net)
		}
		applyPopAdjust(net, t.NumSubjects(), opts.PopAdjust)
		out.Days = days
		out.Values[i] = net
	}
	if out.Days == nil {
		out.Days = bucketLabels(axis, opts)
	}
	return out, warnings, nil
}

// stageWindow resolves a subject's entry and exit dates for stage i. The
// exit is nil when no later stage was reached, except for the final stage
// where it is pinned one day past the axis end.
func stageWindow(t *EventTable, row, i, nCols int, axisExit time.Time) (in, exit *time.Time) {
	in = t.rows[row][i]
	if i == nCols-1 {
		return in, &axisExit
	}
	for j := i + 1; j < nCols; j++ {
		d := t.rows[row][j]
		if d == nil {
			continue
		}
		if exit == nil || d.Before(*exit) {
			exit = d
		}
	}
	return in, exit
}
