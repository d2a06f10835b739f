package service

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketsynth/internal/models"
)

func TestTracker_Lifecycle(t *testing.T) {
	tr := NewTracker()
	tr.Start("job-1")

	st, ok := tr.Status("job-1")
	require.True(t, ok)
	assert.Equal(t, models.JobRunning, st.State)
	assert.Equal(t, 0.0, st.Progress)
	assert.False(t, st.StartedAt.IsZero())

	tr.SetProgress("job-1", 0.4)
	st, _ = tr.Status("job-1")
	assert.Equal(t, 0.4, st.Progress)

	tr.Complete("job-1")
	st, _ = tr.Status("job-1")
	assert.Equal(t, models.JobCompleted, st.State)
	assert.Equal(t, 1.0, st.Progress)
}

func TestTracker_ProgressNeverDecreases(t *testing.T) {
	tr := NewTracker()
	tr.Start("job-1")

	tr.SetProgress("job-1", 0.7)
	tr.SetProgress("job-1", 0.3)
	st, _ := tr.Status("job-1")
	assert.Equal(t, 0.7, st.Progress)
}

func TestTracker_ProgressClamped(t *testing.T) {
	tr := NewTracker()
	tr.Start("job-1")

	tr.SetProgress("job-1", -0.5)
	st, _ := tr.Status("job-1")
	assert.Equal(t, 0.0, st.Progress)

	tr.SetProgress("job-1", 1.5)
	st, _ = tr.Status("job-1")
	assert.Equal(t, 1.0, st.Progress)
}

func TestTracker_TerminalStatesFreezeProgress(t *testing.T) {
	tr := NewTracker()
	tr.Start("job-1")
	tr.SetProgress("job-1", 0.5)
	tr.Fail("job-1", stderrors.New("boom"))

	tr.SetProgress("job-1", 0.9)
	st, _ := tr.Status("job-1")
	assert.Equal(t, models.JobFailed, st.State)
	assert.Equal(t, 0.5, st.Progress)
	assert.Equal(t, "boom", st.Error)
}

func TestTracker_UnknownJob(t *testing.T) {
	tr := NewTracker()
	_, ok := tr.Status("nope")
	assert.False(t, ok)

	// No-ops rather than panics.
	tr.SetProgress("nope", 0.5)
	tr.Complete("nope")
	tr.Fail("nope", nil)
}
