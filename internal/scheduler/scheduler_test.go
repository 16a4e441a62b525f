package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/twitstock/internal/contracts"
	"github.com/wonny/twitstock/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	failures int32 // Run fails this many times before succeeding
	calls    atomic.Int32
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }

func (j *fakeJob) Run(ctx context.Context) error {
	n := j.calls.Add(1)
	if n <= j.failures {
		return errors.New("boom")
	}
	return nil
}

func newTestScheduler() *Scheduler {
	return New(logger.Nop(), WithRetry(2, time.Millisecond))
}

func TestAddJob(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.AddJob(&fakeJob{name: "b", schedule: "0 6 * * 1-5"}))
	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "@daily"}))

	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())

	err := s.AddJob(&fakeJob{name: "a", schedule: "@daily"})
	assert.ErrorContains(t, err, "already exists")
}

func TestAddJobRejectsBadSchedule(t *testing.T) {
	s := newTestScheduler()

	tests := []string{"every day", "0 0 6 * * 1-5", ""}
	for _, schedule := range tests {
		t.Run(schedule, func(t *testing.T) {
			err := s.AddJob(&fakeJob{name: "job-" + schedule, schedule: schedule})
			assert.Error(t, err)
		})
	}
	assert.Empty(t, s.GetAllJobs())
}

func TestRunJobRetries(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "flaky", schedule: "@daily", failures: 2}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJob(context.Background(), "flaky")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, int32(3), job.calls.Load())
	assert.Nil(t, result.Summary)

	history, err := s.GetJobHistory("flaky")
	require.NoError(t, err)
	require.Len(t, history.Results, 1)
	assert.Equal(t, 1.0, history.GetSuccessRate())
}

func TestRunJobGivesUp(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "broken", schedule: "@daily", failures: 100}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJob(context.Background(), "broken")
	require.Error(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "boom", result.Error)
	assert.Equal(t, 3, result.Attempts) // first attempt + 2 retries

	stats := s.GetJobStats()["broken"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.FailureCount)
	assert.Equal(t, "@daily", stats.Schedule)
	require.NotNil(t, stats.LastFailure)
	assert.Nil(t, stats.LastSuccess)
}

func TestRunJobUnknown(t *testing.T) {
	s := newTestScheduler()

	_, err := s.RunJob(context.Background(), "missing")
	assert.ErrorContains(t, err, "not found")

	_, err = s.GetJobHistory("missing")
	assert.Error(t, err)
}

func TestJobHistoryKeepsLatest(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < maxHistory+10; i++ {
		h.AddResult(JobResult{JobName: "x", Success: i%2 == 0})
	}

	assert.Len(t, h.Results, maxHistory)
	assert.Len(t, h.GetLatestResults(5), 5)
	assert.Len(t, h.GetFailedResults(), maxHistory/2)
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 1e-9)
}

type reportingJob struct {
	fakeJob
}

func (j *reportingJob) LastSummary() *contracts.PipelineResult {
	return &contracts.PipelineResult{Command: j.name, Success: true, Done: 4}
}

func TestRunJobAttachesSummary(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&reportingJob{fakeJob{name: "refresh", schedule: "@daily"}}))

	result, err := s.RunJob(context.Background(), "refresh")
	require.NoError(t, err)
	require.NotNil(t, result.Summary)
	assert.Equal(t, 4, result.Summary.Done)
}
