package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/twitstock/internal/pipeline"
	"github.com/wonny/twitstock/internal/pipelineconfig"
	"github.com/wonny/twitstock/internal/task"
	"github.com/wonny/twitstock/pkg/logger"
)

type fakePipeline struct {
	selection []string
	status    pipeline.Status
	err       error
}

func (f *fakePipeline) report() *pipeline.Report {
	id := task.NewID("AnalyzeAll", "all")
	return &pipeline.Report{
		Roots:   []task.ID{id},
		Order:   []task.ID{id},
		Results: map[task.ID]*pipeline.Result{id: {ID: id, Status: f.status}},
	}
}

func (f *fakePipeline) Analyze(ctx context.Context, selection []string) (*pipeline.Report, error) {
	f.selection = selection
	return f.report(), f.err
}

func (f *fakePipeline) UploadCashtags(ctx context.Context) (*pipeline.Report, error) {
	return f.report(), f.err
}

func TestPipelineRefreshJob(t *testing.T) {
	tests := []struct {
		name    string
		tickers []string
		want    []string
	}{
		{"default selection", nil, []string{"all"}},
		{"configured tickers", []string{"AAL", "AAPL"}, []string{"AAL", "AAPL"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakePipeline{status: pipeline.StatusDone}
			cfg := pipelineconfig.Refresh{Schedule: "0 6 * * 1-5", Tickers: tt.tickers}
			job := NewPipelineRefreshJob(fake, cfg, logger.Nop())

			assert.Equal(t, "pipeline_refresh", job.Name())
			assert.Equal(t, "0 6 * * 1-5", job.Schedule())

			require.Nil(t, job.LastSummary())
			require.NoError(t, job.Run(context.Background()))
			assert.Equal(t, tt.want, fake.selection)

			summary := job.LastSummary()
			require.NotNil(t, summary)
			assert.Equal(t, "pipeline_refresh", summary.Command)
			assert.True(t, summary.Success)
			assert.Equal(t, 1, summary.Done)
		})
	}
}

func TestPipelineRefreshJobFailure(t *testing.T) {
	cause := errors.New("upstream down")
	fake := &fakePipeline{status: pipeline.StatusFailed, err: cause}
	job := NewPipelineRefreshJob(fake, pipelineconfig.Default().Refresh, logger.Nop())

	err := job.Run(context.Background())
	assert.ErrorIs(t, err, cause)

	require.NotNil(t, job.LastSummary())
	assert.False(t, job.LastSummary().Success)
	assert.Equal(t, 1, job.LastSummary().Failed)
}

func TestCashtagsSyncJob(t *testing.T) {
	job := NewCashtagsSyncJob(&fakePipeline{status: pipeline.StatusSkipped}, logger.Nop())
	assert.Equal(t, "cashtags_sync", job.Name())
	assert.NoError(t, job.Run(context.Background()))

	job = NewCashtagsSyncJob(&fakePipeline{err: errors.New("no list")}, logger.Nop())
	assert.Error(t, job.Run(context.Background()))
}
