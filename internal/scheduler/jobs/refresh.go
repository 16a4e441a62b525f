package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/wonny/twitstock/internal/contracts"
	"github.com/wonny/twitstock/internal/pipeline"
	"github.com/wonny/twitstock/internal/pipelineconfig"
	"github.com/wonny/twitstock/pkg/logger"
)

// Analyzer runs the analyze workflow for a ticker selection
type Analyzer interface {
	Analyze(ctx context.Context, selection []string) (*pipeline.Report, error)
}

// PipelineRefreshJob rebuilds features and predictions on a schedule.
// Outputs that already exist are skipped by the executor, so a refresh only
// does work for tickers whose inputs were dropped or newly exported.
type PipelineRefreshJob struct {
	analyzer Analyzer
	cfg      pipelineconfig.Refresh
	logger   *logger.Logger

	mu   sync.Mutex
	last *contracts.PipelineResult
}

// NewPipelineRefreshJob creates a new refresh job
func NewPipelineRefreshJob(analyzer Analyzer, cfg pipelineconfig.Refresh, log *logger.Logger) *PipelineRefreshJob {
	return &PipelineRefreshJob{
		analyzer: analyzer,
		cfg:      cfg,
		logger:   log,
	}
}

// Name returns the job name
func (j *PipelineRefreshJob) Name() string {
	return "pipeline_refresh"
}

// Schedule returns the configured cron schedule
func (j *PipelineRefreshJob) Schedule() string {
	return j.cfg.Schedule
}

// Run executes the analyze workflow
func (j *PipelineRefreshJob) Run(ctx context.Context) error {
	selection := j.cfg.Tickers
	if len(selection) == 0 {
		selection = []string{"all"}
	}

	j.logger.WithField("tickers", selection).Info("Starting scheduled pipeline refresh")

	report, err := j.analyzer.Analyze(ctx, selection)
	if report != nil {
		summary := report.Summary(j.Name())
		j.setLast(&summary)
		j.logger.WithFields(map[string]interface{}{
			"tasks":    summary.Tasks,
			"done":     summary.Done,
			"skipped":  summary.Skipped,
			"failed":   summary.Failed,
			"blocked":  summary.Blocked,
			"duration": summary.Duration,
		}).Info("Pipeline refresh finished")
	}
	if err != nil {
		return fmt.Errorf("pipeline refresh: %w", err)
	}

	return nil
}

// LastSummary returns the report summary of the most recent run
func (j *PipelineRefreshJob) LastSummary() *contracts.PipelineResult {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.last
}

func (j *PipelineRefreshJob) setLast(s *contracts.PipelineResult) {
	j.mu.Lock()
	j.last = s
	j.mu.Unlock()
}
