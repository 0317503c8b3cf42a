package scheduler

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/quantbt/pkg/logger"
)

func TestJobHistory_AddResultTrimsToCap(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < historyCap+10; i++ {
		h.AddResult(JobResult{JobName: fmt.Sprintf("run-%d", i), Success: true})
	}

	require.Len(t, h.Results, historyCap)
	// Oldest entries are dropped, newest are kept
	assert.Equal(t, "run-10", h.Results[0].JobName)
	assert.Equal(t, fmt.Sprintf("run-%d", historyCap+9), h.Results[historyCap-1].JobName)
}

func TestJobHistory_LastResult(t *testing.T) {
	h := &JobHistory{}

	_, ok := h.LastResult()
	assert.False(t, ok)

	h.AddResult(JobResult{JobName: "first", Success: true})
	h.AddResult(JobResult{JobName: "second", Success: false, Error: "boom"})

	last, ok := h.LastResult()
	require.True(t, ok)
	assert.Equal(t, "second", last.JobName)
	assert.False(t, last.Success)
}

func TestJobHistory_SuccessRate(t *testing.T) {
	h := &JobHistory{}
	assert.Equal(t, 0.0, h.SuccessRate())

	h.AddResult(JobResult{Success: true})
	h.AddResult(JobResult{Success: true})
	h.AddResult(JobResult{Success: false})
	h.AddResult(JobResult{Success: true})

	assert.InDelta(t, 0.75, h.SuccessRate(), 1e-12)
}

// stubJob satisfies Job with a canned schedule.
type stubJob struct {
	name     string
	schedule string
}

func (j *stubJob) Name() string                  { return j.name }
func (j *stubJob) Run(ctx context.Context) error { return nil }
func (j *stubJob) Schedule() string              { return j.schedule }

func TestScheduler_AddJob(t *testing.T) {
	s := New(logger.NewNop())

	err := s.AddJob(&stubJob{name: "collect", schedule: "0 0 17 * * MON-FRI"})
	require.NoError(t, err)

	// Duplicate names are rejected
	err = s.AddJob(&stubJob{name: "collect", schedule: "@daily"})
	assert.Error(t, err)

	// Invalid cron expressions are rejected
	err = s.AddJob(&stubJob{name: "broken", schedule: "not a schedule"})
	assert.Error(t, err)

	history, err := s.GetJobHistory("collect")
	require.NoError(t, err)
	assert.Empty(t, history.Results)

	_, err = s.GetJobHistory("missing")
	assert.Error(t, err)
}
