package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStatusTransitions(t *testing.T) {
	cases := []struct {
		from    JobStatus
		to      JobStatus
		allowed bool
	}{
		{JobStatusPending, JobStatusQueued, true},
		{JobStatusPending, JobStatusCancelled, true},
		{JobStatusPending, JobStatusFailed, true},
		{JobStatusPending, JobStatusProcessing, false},
		{JobStatusPending, JobStatusCompleted, false},
		{JobStatusQueued, JobStatusProcessing, true},
		{JobStatusQueued, JobStatusCancelled, true},
		{JobStatusQueued, JobStatusFailed, true},
		{JobStatusQueued, JobStatusCompleted, false},
		{JobStatusProcessing, JobStatusCompleted, true},
		{JobStatusProcessing, JobStatusFailed, true},
		{JobStatusProcessing, JobStatusCancelled, true},
		{JobStatusProcessing, JobStatusQueued, false},
		{JobStatusCompleted, JobStatusQueued, false},
		{JobStatusCompleted, JobStatusFailed, false},
		{JobStatusFailed, JobStatusQueued, false},
		{JobStatusCancelled, JobStatusProcessing, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestTransitionSources(t *testing.T) {
	cases := []struct {
		target  JobStatus
		sources []JobStatus
	}{
		{JobStatusQueued, []JobStatus{JobStatusPending}},
		{JobStatusProcessing, []JobStatus{JobStatusQueued}},
		{JobStatusCompleted, []JobStatus{JobStatusProcessing}},
		{JobStatusFailed, []JobStatus{JobStatusPending, JobStatusQueued, JobStatusProcessing}},
		{JobStatusCancelled, []JobStatus{JobStatusPending, JobStatusQueued, JobStatusProcessing}},
		{JobStatusPending, nil},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.sources, TransitionSources(tc.target), "sources of %s", tc.target)
	}
}

func TestTransitionTo(t *testing.T) {
	job := &Job{ID: uuid.New(), Status: JobStatusPending}

	require.NoError(t, job.TransitionTo(JobStatusQueued))
	assert.Equal(t, JobStatusQueued, job.Status)

	err := job.TransitionTo(JobStatusCompleted)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, JobStatusQueued, job.Status, "failed transition must not mutate status")
}

func TestTerminalStatesHaveNoOutgoingEdges(t *testing.T) {
	all := []JobStatus{
		JobStatusPending, JobStatusQueued, JobStatusProcessing,
		JobStatusCompleted, JobStatusFailed, JobStatusCancelled,
	}
	for _, from := range all {
		if !from.IsTerminal() {
			continue
		}
		for _, to := range all {
			assert.False(t, from.CanTransitionTo(to), "%s -> %s must be rejected", from, to)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, JobStatusPending.IsTerminal())
	assert.False(t, JobStatusQueued.IsTerminal())
	assert.False(t, JobStatusProcessing.IsTerminal())
	assert.True(t, JobStatusCompleted.IsTerminal())
	assert.True(t, JobStatusFailed.IsTerminal())
	assert.True(t, JobStatusCancelled.IsTerminal())
}

func TestHasArtifact(t *testing.T) {
	now := time.Now()

	job := &Job{Status: JobStatusCompleted, ArtifactKey: "artifacts/x.csv"}
	assert.True(t, job.HasArtifact())

	purged := &Job{Status: JobStatusCompleted, ArtifactKey: "artifacts/x.csv", ArtifactPurgedAt: &now}
	assert.False(t, purged.HasArtifact())

	failed := &Job{Status: JobStatusFailed, ArtifactKey: "artifacts/x.csv"}
	assert.False(t, failed.HasArtifact())

	noKey := &Job{Status: JobStatusCompleted}
	assert.False(t, noKey.HasArtifact())
}
