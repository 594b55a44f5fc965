package aggregate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/bgricker/adoreport/internal/ado"
	"github.com/bgricker/adoreport/internal/report"
)

// ErrNoCompletedBuild indicates a pipeline has never completed a build.
var ErrNoCompletedBuild = errors.New("no completed build")

// Source is the subset of the remote service the aggregator reads from.
type Source interface {
	GetDefinition(ctx context.Context, project string, id int) (ado.Definition, error)
	GetBuildReport(ctx context.Context, project string, buildID int) (ado.BuildReport, error)
	ListTestRuns(ctx context.Context, project, buildURI string) ([]ado.TestRun, error)
	GetTestRunStatistics(ctx context.Context, project string, runID int) (ado.TestRunStatistics, error)
}

// Options configure an Aggregator.
type Options struct {
	// Project is the id or name used in request paths.
	Project string
	Logger  *slog.Logger
	Now     func() time.Time
}

// Summary counts what happened across all pipelines.
type Summary struct {
	Pipelines   int           `json:"pipelines"`
	WithBuild   int           `json:"with_build"`
	WithTestRun int           `json:"with_test_run"`
	Skipped     int           `json:"skipped"`
	Duration    time.Duration `json:"-"`
}

// Aggregator builds one report row per pipeline, sequentially.
type Aggregator struct {
	src  Source
	opts Options
}

// New creates an aggregator reading from src.
func New(src Source, opts Options) *Aggregator {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Aggregator{src: src, opts: opts}
}

// Run aggregates refs in order. Pipelines without a completed build or without
// a test run still produce a row. Any other failure stops the run; the rows
// finished before it are returned alongside the error.
func (a *Aggregator) Run(ctx context.Context, refs []ado.DefinitionRef) (report.Rows, Summary, error) {
	start := a.opts.Now()
	summary := Summary{}
	rows := make(report.Rows, 0, len(refs))

	for _, ref := range refs {
		row, outcome, err := a.Pipeline(ctx, ref)
		if err != nil {
			summary.Duration = a.opts.Now().Sub(start)
			return rows, summary, fmt.Errorf("aggregate pipeline %s (%d): %w", ref.Name, ref.ID, err)
		}
		rows = append(rows, row)
		summary.Pipelines++
		switch outcome {
		case OutcomeNoBuild:
			summary.Skipped++
		case OutcomeNoTestRun:
			summary.WithBuild++
		case OutcomeComplete:
			summary.WithBuild++
			summary.WithTestRun++
		}
	}

	summary.Duration = a.opts.Now().Sub(start)
	return rows, summary, nil
}

// Outcome records how far aggregation got for a pipeline.
type Outcome int

const (
	OutcomeNoBuild Outcome = iota
	OutcomeNoTestRun
	OutcomeComplete
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoBuild:
		return "no-build"
	case OutcomeNoTestRun:
		return "no-test-run"
	case OutcomeComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Pipeline builds the row for a single definition.
func (a *Aggregator) Pipeline(ctx context.Context, ref ado.DefinitionRef) (*report.Row, Outcome, error) {
	log := a.opts.Logger.With("pipeline", ref.Name, "definition_id", ref.ID)

	row := report.NewRow()
	row.Set(report.FieldID, ref.ID)
	row.Set(report.FieldName, ref.Name)
	row.Set(report.FieldQueueStatus, string(ref.QueueStatus))

	build, err := a.latestBuild(ctx, ref)
	if errors.Is(err, ErrNoCompletedBuild) {
		log.Warn("no completed build, skipping")
		return row, OutcomeNoBuild, nil
	}
	if err != nil {
		return nil, OutcomeNoBuild, err
	}
	row.Merge(buildFields(build))
	log.Info("latest completed build", "build_id", build.ID, "build_uri", build.URI)

	rep, err := a.src.GetBuildReport(ctx, a.opts.Project, build.ID)
	if err != nil {
		return nil, OutcomeNoBuild, err
	}
	row.Merge(reportFields(rep))
	log.Debug("build report fetched", "bytes", len(rep.Content))

	runs, err := a.src.ListTestRuns(ctx, a.opts.Project, build.URI)
	if err != nil {
		return nil, OutcomeNoBuild, err
	}
	run, ok := firstRun(runs)
	if !ok {
		log.Warn("no test run found for build", "build_uri", build.URI)
		return row, OutcomeNoTestRun, nil
	}
	if len(runs) > 1 {
		log.Warn("multiple test runs for build, using the first", "runs", len(runs), "ignored", len(runs)-1)
	}
	row.Merge(runFields(run))
	log.Info("test run", "run_id", run.ID, "state", run.State, "total", run.TotalTests, "passed", run.PassedTests)

	stats, err := a.src.GetTestRunStatistics(ctx, a.opts.Project, run.ID)
	if err != nil {
		return nil, OutcomeNoTestRun, err
	}
	row.Merge(statFields(stats))
	return row, OutcomeComplete, nil
}

func (a *Aggregator) latestBuild(ctx context.Context, ref ado.DefinitionRef) (ado.BuildRef, error) {
	def, err := a.src.GetDefinition(ctx, a.opts.Project, ref.ID)
	if err != nil {
		return ado.BuildRef{}, err
	}
	if def.LatestCompletedBuild == nil || def.LatestCompletedBuild.ID == 0 {
		return ado.BuildRef{}, fmt.Errorf("definition %d: %w", ref.ID, ErrNoCompletedBuild)
	}
	return *def.LatestCompletedBuild, nil
}

// firstRun selects the first run the service returned. Additional runs on the
// same build are not aggregated.
func firstRun(runs []ado.TestRun) (ado.TestRun, bool) {
	if len(runs) == 0 {
		return ado.TestRun{}, false
	}
	return runs[0], true
}

func buildFields(b ado.BuildRef) *report.Row {
	row := report.NewRow()
	row.Set(report.FieldLastBuildID, b.ID)
	row.Set(report.FieldLastBuildURI, b.URI)
	return row
}

func reportFields(r ado.BuildReport) *report.Row {
	row := report.NewRow()
	row.Set(report.FieldReportBuildID, r.BuildID)
	row.Set(report.FieldReportHTML, r.Content)
	return row
}

func runFields(r ado.TestRun) *report.Row {
	row := report.NewRow()
	row.Set(report.FieldRunID, r.ID)
	row.Set(report.FieldRunName, r.Name)
	row.Set(report.FieldRunState, r.State)
	row.Set(report.FieldRunTotal, r.TotalTests)
	row.Set(report.FieldRunPassed, r.PassedTests)
	row.Set(report.FieldRunIncomplete, r.IncompleteTests)
	row.Set(report.FieldRunUnanalyzed, r.UnanalyzedTests)
	row.Set(report.FieldRunNotApplicable, r.NotApplicableTests)
	row.Set(report.FieldRunURL, r.URL)
	row.Set(report.FieldRunStarted, r.StartedDate)
	row.Set(report.FieldRunCompleted, r.CompletedDate)
	return row
}

// statFields emits one field per outcome. Repeated outcomes (one per state)
// are summed.
func statFields(s ado.TestRunStatistics) *report.Row {
	row := report.NewRow()
	for _, st := range s.RunStatistics {
		key := report.StatField(st.Outcome)
		if prev, ok := row.Get(key); ok {
			if n, ok := prev.(int); ok {
				row.Set(key, n+st.Count)
				continue
			}
		}
		row.Set(key, st.Count)
	}
	return row
}
