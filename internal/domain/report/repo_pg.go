package report

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/datalab/coverage/internal/domain/series"
)

// PGRepository runs the report queries against PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) DailyCounts(ctx context.Context, ds DatasetDefinition, from, to time.Time) ([]DailyCount, error) {
	rows, err := r.pool.Query(ctx, ds.SQL, from, to)
	if err != nil {
		return nil, fmt.Errorf("query dataset %s: %w", ds.ID, err)
	}
	defer rows.Close()

	var out []DailyCount
	for rows.Next() {
		var dc DailyCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, fmt.Errorf("scan dataset %s row: %w", ds.ID, err)
		}
		out = append(out, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read dataset %s rows: %w", ds.ID, err)
	}
	return out, nil
}

func (r *PGRepository) StageDates(ctx context.Context) (*series.EventTable, error) {
	rows, err := r.pool.Query(ctx, stageDatesSQL)
	if err != nil {
		return nil, fmt.Errorf("query stage dates: %w", err)
	}
	defer rows.Close()

	table := series.NewEventTable(StageColumns...)
	for rows.Next() {
		cells := make([]*time.Time, len(StageColumns))
		dest := make([]any, len(cells))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan stage dates row: %w", err)
		}
		if err := table.AddRow(cells...); err != nil {
			return nil, fmt.Errorf("add stage dates row: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read stage dates rows: %w", err)
	}
	return table, nil
}

func (r *PGRepository) LatestImports(ctx context.Context) ([]ImportStatus, error) {
	rows, err := r.pool.Query(ctx, latestImportsSQL)
	if err != nil {
		return nil, fmt.Errorf("query latest imports: %w", err)
	}
	defer rows.Close()

	var out []ImportStatus
	for rows.Next() {
		var is ImportStatus
		if err := rows.Scan(&is.Dataset, &is.LatestImport); err != nil {
			return nil, fmt.Errorf("scan latest imports row: %w", err)
		}
		out = append(out, is)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read latest imports rows: %w", err)
	}
	return out, nil
}
