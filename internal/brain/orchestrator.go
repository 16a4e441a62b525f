package brain

import (
	"context"
	"fmt"

	"github.com/wonny/twitstock/internal/contracts"
	"github.com/wonny/twitstock/internal/forecast"
	"github.com/wonny/twitstock/internal/pipeline"
	"github.com/wonny/twitstock/internal/task"
	"github.com/wonny/twitstock/pkg/logger"
)

// Orchestrator exposes the pipeline operations used by the CLI, API and scheduler.
// Every operation builds a fresh task graph and runs it on the shared executor.
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Orchestrator struct {
	deps     Dependencies
	executor *pipeline.Executor
	logger   *logger.Logger
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(deps Dependencies, executor *pipeline.Executor) *Orchestrator {
	return &Orchestrator{
		deps:     deps,
		executor: executor,
		logger:   deps.Logger.Module("brain"),
	}
}

// Executor returns the shared executor, e.g. to observe task events
func (o *Orchestrator) Executor() *pipeline.Executor { return o.executor }

// Tickers returns the ticker universe
func (o *Orchestrator) Tickers() ([]string, error) { return o.deps.Universe.Tickers() }

// Load builds the feature table of each selected ticker (S0 → S1)
func (o *Orchestrator) Load(ctx context.Context, selection []string) (*pipeline.Report, error) {
	f := NewFactory(o.deps)
	root, err := f.LoadAll(selection)
	if err != nil {
		return nil, err
	}
	return o.run(ctx, "load", root)
}

// Analyze builds the prediction table of each selected ticker (S0 → S2)
func (o *Orchestrator) Analyze(ctx context.Context, selection []string) (*pipeline.Report, error) {
	f := NewFactory(o.deps)
	root, err := f.AnalyzeAll(selection)
	if err != nil {
		return nil, err
	}
	return o.run(ctx, "analyze", root)
}

// UploadCashtags copies the ticker list to the data store
func (o *Orchestrator) UploadCashtags(ctx context.Context) (*pipeline.Report, error) {
	return o.run(ctx, "upload-cashtags", NewFactory(o.deps).CashtagsUpload())
}

// Predict returns the rendered BUY/SELL line for ticker on date (S0 → S3).
// The report is returned even when the run fails.
func (o *Orchestrator) Predict(ctx context.Context, ticker, date string) (string, *pipeline.Report, error) {
	t, err := NewFactory(o.deps).Predict(ticker, date)
	if err != nil {
		return "", nil, err
	}

	report, err := o.run(ctx, "predict", t)
	if err != nil {
		return "", report, err
	}

	line, err := t.Result(ctx)
	if err != nil {
		return "", report, err
	}
	return line, report, nil
}

// Graph compares buy-and-hold with the prediction strategy for ticker
func (o *Orchestrator) Graph(ctx context.Context, ticker string) ([]contracts.NAVPoint, *pipeline.Report, error) {
	ticker, err := contracts.NormalizeTicker(ticker)
	if err != nil {
		return nil, nil, err
	}

	t := NewFactory(o.deps).Analyze(ticker)
	report, err := o.run(ctx, "graph", t)
	if err != nil {
		return nil, report, err
	}

	rows, err := forecast.ReadPredictions(ctx, t.Target())
	if err != nil {
		return nil, report, err
	}
	return forecast.NAV(rows), report, nil
}

// run executes root and turns task failures into an error.
// Graph errors (cycles) come back without a report.
func (o *Orchestrator) run(ctx context.Context, command string, root task.Task) (*pipeline.Report, error) {
	o.logger.WithFields(map[string]interface{}{
		"command": command,
		"root":    root.ID().String(),
	}).Info("Starting pipeline run")

	report, err := o.executor.Run(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", command, err)
	}
	if !report.Success() {
		cause := report.Err()
		if cause == nil {
			cause = contracts.ErrUpstreamFailed
		}
		return report, fmt.Errorf("%s: %w", command, cause)
	}
	return report, nil
}
