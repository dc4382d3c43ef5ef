package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/datalab/coverage/internal/domain/series"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fakeRepo struct {
	counts    map[string][]DailyCount
	countsErr map[string]error
	stages    *series.EventTable
	stagesErr error
	imports   []ImportStatus
}

func (f *fakeRepo) DailyCounts(_ context.Context, ds DatasetDefinition, _, _ time.Time) ([]DailyCount, error) {
	if err := f.countsErr[ds.ID]; err != nil {
		return nil, err
	}
	return f.counts[ds.ID], nil
}

func (f *fakeRepo) StageDates(context.Context) (*series.EventTable, error) {
	if f.stagesErr != nil {
		return nil, f.stagesErr
	}
	if f.stages != nil {
		return f.stages, nil
	}
	return series.NewEventTable(StageColumns...), nil
}

func (f *fakeRepo) LatestImports(context.Context) ([]ImportStatus, error) {
	return f.imports, nil
}

func testParams() Params {
	return Params{
		Start:              day(2021, 1, 1),
		End:                day(2021, 1, 10),
		Rule:               series.RuleDay,
		RedactionThreshold: series.DefaultRedactionThreshold,
		RedactionMarker:    series.DefaultRedactionMarker,
	}
}

func TestGenerate_FullReport(t *testing.T) {
	repo := &fakeRepo{
		counts: map[string][]DailyCount{
			"hospital-admission": {
				{Day: day(2021, 1, 3), Count: 12},
				{Day: day(2021, 1, 7), Count: 3},
			},
		},
		imports: []ImportStatus{{Dataset: "hospital_admissions", LatestImport: day(2021, 1, 9)}},
	}

	svc := NewService(repo, testParams(), zerolog.Nop())
	rep, err := svc.Generate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rep.Datasets) != len(Datasets) {
		t.Fatalf("expected %d dataset series, got %d", len(Datasets), len(rep.Datasets))
	}
	if rep.Skipped != nil {
		t.Errorf("unexpected skipped entries: %v", rep.Skipped)
	}
	if len(rep.Freshness) != 1 || rep.Freshness[0].Dataset != "hospital_admissions" {
		t.Errorf("unexpected freshness: %v", rep.Freshness)
	}

	var admissions *DatasetSeries
	for i := range rep.Datasets {
		if rep.Datasets[i].ID == "hospital-admission" {
			admissions = &rep.Datasets[i]
		}
	}
	if admissions == nil {
		t.Fatal("hospital-admission series missing from report")
	}
	if len(admissions.Series.Values) != 10 {
		t.Fatalf("expected full axis domain, got %d values", len(admissions.Series.Values))
	}
	// 12 passes through, 3 is redacted to the marker, everything else zero.
	if got := admissions.Series.Values[2]; got != 12 {
		t.Errorf("day 3: expected 12, got %v", got)
	}
	if got := admissions.Series.Values[6]; got != series.DefaultRedactionMarker {
		t.Errorf("day 7: expected redaction marker, got %v", got)
	}
	if got := admissions.Series.Values[0]; got != 0 {
		t.Errorf("day 1: expected 0, got %v", got)
	}
}

func TestGenerate_SkipsFailingDataset(t *testing.T) {
	repo := &fakeRepo{
		countsErr: map[string]error{"test-any": errors.New("relation does not exist")},
	}

	svc := NewService(repo, testParams(), zerolog.Nop())
	rep, err := svc.Generate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rep.Datasets) != len(Datasets)-1 {
		t.Errorf("expected %d dataset series, got %d", len(Datasets)-1, len(rep.Datasets))
	}
	if _, ok := rep.Skipped["test-any"]; !ok {
		t.Error("expected test-any recorded as skipped")
	}
}

func TestGenerate_StageAttribution(t *testing.T) {
	et := series.NewEventTable(StageColumns...)
	// Tested on the 2nd, admitted on the 6th, no further progression. Ten
	// identical subjects keep the counts above the redaction threshold.
	for i := 0; i < 10; i++ {
		test, adm := day(2021, 1, 2), day(2021, 1, 6)
		if err := et.AddRow(&test, nil, &adm, nil, nil); err != nil {
			t.Fatalf("add row: %v", err)
		}
	}
	repo := &fakeRepo{stages: et}

	svc := NewService(repo, testParams(), zerolog.Nop())
	rep, err := svc.Generate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Stages == nil {
		t.Fatal("expected stage attribution in report")
	}
	if len(rep.Stages.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", rep.Stages.Warnings)
	}
	tested := rep.Stages.Table.Column("positive_test")
	admitted := rep.Stages.Table.Column("hospital_admission")
	if tested[1] != 10 || tested[5] != 0 {
		t.Errorf("unexpected positive_test series: %v", tested)
	}
	if admitted[5] != 10 || admitted[9] != 10 {
		t.Errorf("unexpected hospital_admission series: %v", admitted)
	}
}

func TestGenerate_StageRedactionApplied(t *testing.T) {
	et := series.NewEventTable(StageColumns...)
	// Two subjects in the final stage: below the threshold, so the stage
	// series must carry the marker, never the true small count.
	for i := 0; i < 2; i++ {
		death := day(2021, 1, 4)
		if err := et.AddRow(nil, nil, nil, nil, &death); err != nil {
			t.Fatalf("add row: %v", err)
		}
	}
	repo := &fakeRepo{stages: et}

	svc := NewService(repo, testParams(), zerolog.Nop())
	rep, err := svc.Generate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	deaths := rep.Stages.Table.Column("covid_hospital_death")
	if deaths[5] != series.DefaultRedactionMarker {
		t.Errorf("expected redacted count, got %v", deaths[5])
	}
}

func TestGenerate_InvalidAxisFatal(t *testing.T) {
	p := testParams()
	p.Start, p.End = p.End, p.Start

	svc := NewService(&fakeRepo{}, p, zerolog.Nop())
	if _, err := svc.Generate(context.Background()); !errors.Is(err, series.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestGenerate_InvalidMarkerFatal(t *testing.T) {
	p := testParams()
	p.RedactionMarker = 3 // inside (0, 6)

	svc := NewService(&fakeRepo{}, p, zerolog.Nop())
	if _, err := svc.Generate(context.Background()); !errors.Is(err, series.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestGenerate_WeeklyRule(t *testing.T) {
	p := testParams()
	p.Rule = series.RuleWeek
	// Axis 2021-01-01 (Fri) .. 2021-01-10 (Sun): buckets end Jan 3 and Jan 10.
	repo := &fakeRepo{
		counts: map[string][]DailyCount{
			"registered-death": {
				{Day: day(2021, 1, 2), Count: 10},
				{Day: day(2021, 1, 4), Count: 7},
				{Day: day(2021, 1, 8), Count: 8},
			},
		},
	}

	svc := NewService(repo, p, zerolog.Nop())
	rep, err := svc.Generate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var deaths *DatasetSeries
	for i := range rep.Datasets {
		if rep.Datasets[i].ID == "registered-death" {
			deaths = &rep.Datasets[i]
		}
	}
	if deaths == nil {
		t.Fatal("registered-death series missing")
	}
	if len(deaths.Series.Days) != 2 {
		t.Fatalf("expected 2 weekly buckets, got %d", len(deaths.Series.Days))
	}
	if !deaths.Series.Days[0].Equal(day(2021, 1, 3)) || !deaths.Series.Days[1].Equal(day(2021, 1, 10)) {
		t.Errorf("unexpected bucket labels: %v", deaths.Series.Days)
	}
	if deaths.Series.Values[0] != 10 || deaths.Series.Values[1] != 15 {
		t.Errorf("expected weekly values [10 15], got %v", deaths.Series.Values)
	}
}
