package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/datalab/coverage/internal/domain/series"
)

// Params configures one report run. PopAdjust applies only to the stage
// attribution table, where the patient-level denominator is known; dataset
// series come pre-aggregated from SQL and are always raw counts.
type Params struct {
	Start              time.Time
	End                time.Time
	Rule               series.Rule
	PopAdjust          *float64
	RedactionThreshold float64
	RedactionMarker    float64
}

// Service generates coverage reports. It holds no mutable state between
// runs; every Generate call is a pure function of the database contents and
// the configured parameters.
type Service struct {
	repo   Repository
	params Params
	log    zerolog.Logger
}

func NewService(repo Repository, params Params, log zerolog.Logger) *Service {
	return &Service{repo: repo, params: params, log: log}
}

// Generate runs every registered dataset, the stage attribution table, and
// the freshness query, and returns the assembled report. Redaction is the
// last transformation applied to each series before it enters the report.
//
// A failing dataset query does not abort the run: the dataset is recorded
// under Skipped and the rest of the report is produced. Axis construction
// and configuration errors are fatal.
func (s *Service) Generate(ctx context.Context) (*Report, error) {
	axis, err := series.NewDateAxis(s.params.Start, s.params.End)
	if err != nil {
		return nil, fmt.Errorf("build date axis: %w", err)
	}
	if err := series.ValidateRedaction(s.params.RedactionThreshold, s.params.RedactionMarker); err != nil {
		return nil, err
	}
	opts := series.Options{Rule: s.params.Rule, PopAdjust: s.params.PopAdjust}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	rep := &Report{
		RunID:        uuid.New(),
		GeneratedAt:  time.Now().UTC(),
		StartDate:    axis.Start(),
		EndDate:      axis.End(),
		ResampleRule: ruleOrDefault(s.params.Rule),
		Skipped:      map[string]string{},
	}

	for _, ds := range Datasets {
		sr, err := s.datasetSeries(ctx, ds, axis)
		if err != nil {
			s.log.Error().Err(err).Str("dataset", ds.ID).Msg("dataset query failed, skipping")
			rep.Skipped[ds.ID] = err.Error()
			continue
		}
		rep.Datasets = append(rep.Datasets, DatasetSeries{
			ID:             ds.ID,
			Name:           ds.Name,
			FirstEventOnly: ds.FirstEventOnly,
			Series:         sr,
		})
	}

	stages, err := s.stageResult(ctx, axis, opts)
	if err != nil {
		s.log.Error().Err(err).Msg("stage attribution failed, skipping")
		rep.Skipped["stages"] = err.Error()
	} else {
		rep.Stages = stages
	}

	freshness, err := s.repo.LatestImports(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("freshness query failed, skipping")
		rep.Skipped["freshness"] = err.Error()
	} else {
		rep.Freshness = freshness
	}

	if len(rep.Skipped) == 0 {
		rep.Skipped = nil
	}
	return rep, nil
}

func (s *Service) datasetSeries(ctx context.Context, ds DatasetDefinition, axis series.DateAxis) (series.Series, error) {
	counts, err := s.repo.DailyCounts(ctx, ds, axis.Start(), axis.End())
	if err != nil {
		return series.Series{}, err
	}
	days := make([]time.Time, len(counts))
	values := make([]float64, len(counts))
	for i, dc := range counts {
		days[i] = dc.Day
		values[i] = float64(dc.Count)
	}
	sr, err := series.AlignDailyCounts(days, values, axis, s.params.Rule)
	if err != nil {
		return series.Series{}, err
	}
	return series.Redact(sr, s.params.RedactionThreshold, s.params.RedactionMarker)
}

func (s *Service) stageResult(ctx context.Context, axis series.DateAxis, opts series.Options) (*StageResult, error) {
	table, err := s.repo.StageDates(ctx)
	if err != nil {
		return nil, err
	}
	net, warnings, err := series.NetAttributionTable(table, axis, opts)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		s.log.Warn().
			Str("column", w.Column).
			Time("day", w.Day).
			Float64("net", w.Net).
			Msg("net attribution went negative; advancement ordering violated in source data")
	}
	redacted, err := series.RedactTable(net, s.params.RedactionThreshold, s.params.RedactionMarker)
	if err != nil {
		return nil, err
	}
	return &StageResult{Stages: table.Columns(), Table: redacted, Warnings: warnings}, nil
}

func ruleOrDefault(r series.Rule) series.Rule {
	if r == "" {
		return series.RuleDay
	}
	return r
}
