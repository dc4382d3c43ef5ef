package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/datalab/coverage/internal/domain/series"
)

// DatasetDefinition declares one linked data source and the query that
// returns its per-day event counts as (event_date, n) rows between $1 and
// $2 inclusive.
type DatasetDefinition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SQL         string `json:"-"`
	// FirstEventOnly marks sources whose tables hold at most one row per
	// patient (first occurrence), so counts read as "patients reaching
	// this event" rather than raw event volume. Informational: the
	// counting is identical either way.
	FirstEventOnly bool `json:"first_event_only"`
}

// DailyCount is one pre-aggregated row from a dataset query.
type DailyCount struct {
	Day   time.Time
	Count int64
}

// ImportStatus reports when a dataset was last imported into the database.
type ImportStatus struct {
	Dataset      string    `json:"dataset"`
	LatestImport time.Time `json:"latest_import"`
}

// DatasetSeries is the computed, redacted coverage series for one dataset.
type DatasetSeries struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	FirstEventOnly bool          `json:"first_event_only"`
	Series         series.Series `json:"series"`
}

// StageResult is the net-attribution table over the ordered stages, with
// any data-quality warnings raised while computing it.
type StageResult struct {
	Stages   []string                `json:"stages"`
	Table    series.Table            `json:"table"`
	Warnings []series.QualityWarning `json:"warnings,omitempty"`
}

// Report is the full output of one run: day- or week-indexed series per
// dataset, the stage attribution table, and per-dataset freshness. Redaction
// has already been applied to every series; it is safe to hand the whole
// structure to a charting consumer.
type Report struct {
	RunID        uuid.UUID       `json:"run_id"`
	GeneratedAt  time.Time       `json:"generated_at"`
	StartDate    time.Time       `json:"start_date"`
	EndDate      time.Time       `json:"end_date"`
	ResampleRule series.Rule     `json:"resample_rule"`
	Datasets     []DatasetSeries `json:"datasets"`
	Stages       *StageResult    `json:"stages,omitempty"`
	Freshness    []ImportStatus  `json:"freshness"`
	// Skipped lists datasets whose queries failed, with the reason. The
	// rest of the report is still produced.
	Skipped map[string]string `json:"skipped,omitempty"`
}
