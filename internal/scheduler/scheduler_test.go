package scheduler

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	runs atomic.Int32
}

func (j *countingJob) Run() error {
	j.runs.Add(1)
	return nil
}

func (j *countingJob) Name() string { return "counting" }

func TestScheduler_AddJobValidatesSchedule(t *testing.T) {
	sched := New(zerolog.Nop())

	assert.NoError(t, sched.AddJob("@hourly", &countingJob{}))
	assert.Error(t, sched.AddJob("not a schedule", &countingJob{}))
}

func TestScheduler_RunNow(t *testing.T) {
	sched := New(zerolog.Nop())

	job := &countingJob{}
	require.NoError(t, sched.RunNow(job))
	assert.EqualValues(t, 1, job.runs.Load())
}

type failingJob struct{}

func (j *failingJob) Run() error   { return fmt.Errorf("boom") }
func (j *failingJob) Name() string { return "failing" }

func TestScheduler_RunNowPropagatesJobError(t *testing.T) {
	sched := New(zerolog.Nop())

	assert.Error(t, sched.RunNow(&failingJob{}))
}

func TestBenchmarkJob_Name(t *testing.T) {
	job := NewBenchmarkJob(nil, nil, zerolog.Nop())
	assert.Equal(t, "tomography_benchmark", job.Name())
}
