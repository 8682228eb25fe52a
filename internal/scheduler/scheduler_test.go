package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	// zone-pinned schedules must parse without a system zoneinfo directory
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/verdict/internal/faults"
	"github.com/wonny/verdict/pkg/logger"
)

type stubJob struct {
	name     string
	schedule string
	failures int
	err      error
	runs     int
}

func (j *stubJob) Name() string     { return j.name }
func (j *stubJob) Schedule() string { return j.schedule }

func (j *stubJob) Run(context.Context) error {
	j.runs++
	if j.runs <= j.failures {
		return j.err
	}
	return nil
}

func newTestScheduler() *Scheduler {
	s := New(logger.NewNop())
	s.retryDelay = time.Millisecond
	return s
}

func TestAddJob_RejectsDuplicateName(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.AddJob(&stubJob{name: "eod_run_JP", schedule: "0 30 16 * * MON-FRI"}))
	err := s.AddJob(&stubJob{name: "eod_run_JP", schedule: "0 30 16 * * MON-FRI"})
	assert.Error(t, err)
}

func TestAddJob_AcceptsZonePinnedSchedule(t *testing.T) {
	s := newTestScheduler()

	err := s.AddJob(&stubJob{name: "eod_run_JP", schedule: "CRON_TZ=Asia/Tokyo 0 30 16 * * MON-FRI"})
	require.NoError(t, err)
	assert.Contains(t, s.GetAllJobs(), "eod_run_JP")
}

func TestAddJob_RejectsInvalidSchedule(t *testing.T) {
	s := newTestScheduler()

	err := s.AddJob(&stubJob{name: "bad", schedule: "not a cron expression"})
	assert.Error(t, err)
	assert.Empty(t, s.GetAllJobs())
}

func TestRunJob_UnknownName(t *testing.T) {
	s := newTestScheduler()
	assert.Error(t, s.RunJob("missing"))
}

func TestRunJob_RetriesTransientFailure(t *testing.T) {
	s := newTestScheduler()
	job := &stubJob{
		name:     "eod_run_JP",
		schedule: "0 30 16 * * MON-FRI",
		failures: 2,
		err:      faults.ExternalData("upstream timeout"),
	}
	require.NoError(t, s.AddJob(job))

	s.runJob(job)

	assert.Equal(t, 3, job.runs)

	history, err := s.GetJobHistory("eod_run_JP")
	require.NoError(t, err)
	require.Len(t, history.Results, 1)
	assert.True(t, history.Results[0].Success)
	assert.Equal(t, 3, history.Results[0].Attempts)
}

func TestRunJob_ConfigurationErrorDoesNotRetry(t *testing.T) {
	s := newTestScheduler()
	job := &stubJob{
		name:     "eod_run_JP",
		schedule: "0 30 16 * * MON-FRI",
		failures: 10,
		err:      faults.Configuration("unknown market: XX"),
	}
	require.NoError(t, s.AddJob(job))

	s.runJob(job)

	assert.Equal(t, 1, job.runs)

	history, err := s.GetJobHistory("eod_run_JP")
	require.NoError(t, err)
	require.Len(t, history.Results, 1)
	assert.False(t, history.Results[0].Success)
	assert.Contains(t, history.Results[0].Error, "CONFIGURATION_ERROR")
}

func TestRunJob_ExhaustsRetries(t *testing.T) {
	s := newTestScheduler()
	job := &stubJob{
		name:     "eod_run_US",
		schedule: "0 30 17 * * MON-FRI",
		failures: 10,
		err:      errors.New("network down"),
	}
	require.NoError(t, s.AddJob(job))

	s.runJob(job)

	assert.Equal(t, s.maxRetries+1, job.runs)

	history, err := s.GetJobHistory("eod_run_US")
	require.NoError(t, err)
	require.Len(t, history.Results, 1)
	assert.False(t, history.Results[0].Success)
}

func TestJobHistory_KeepsLast100(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < 150; i++ {
		h.AddResult(JobResult{JobName: "j", Success: i%2 == 0})
	}

	assert.Len(t, h.Results, 100)
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 0.01)
	assert.Len(t, h.GetLatestResults(10), 10)
}

func TestGetJobStats(t *testing.T) {
	s := newTestScheduler()
	job := &stubJob{name: "eod_run_JP", schedule: "0 30 16 * * MON-FRI"}
	require.NoError(t, s.AddJob(job))

	s.runJob(job)

	stats := s.GetJobStats()
	require.Contains(t, stats, "eod_run_JP")
	assert.Equal(t, 1, stats["eod_run_JP"].TotalRuns)
	assert.Equal(t, 1, stats["eod_run_JP"].SuccessCount)
	assert.Equal(t, 1.0, stats["eod_run_JP"].SuccessRate)
	require.NotNil(t, stats["eod_run_JP"].LastRun)
}
