package report

import (
	"context"
	"time"

	"github.com/datalab/coverage/internal/domain/series"
)

// Repository is the report's view of the clinical database. Every call is a
// one-shot synchronous query with fully materialized results; there is no
// retry, streaming, or cross-query consistency. Each query sees the
// database at the moment it runs, which is acceptable for descriptive
// reporting.
type Repository interface {
	// DailyCounts runs the dataset's query for the inclusive day range
	// [from, to].
	DailyCounts(ctx context.Context, ds DatasetDefinition, from, to time.Time) ([]DailyCount, error)
	// StageDates returns the patient-level first-event table over
	// StageColumns, in advancement order.
	StageDates(ctx context.Context) (*series.EventTable, error)
	// LatestImports returns per-dataset import freshness from build
	// metadata.
	LatestImports(ctx context.Context) ([]ImportStatus, error)
}
