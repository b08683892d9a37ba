package entity

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// ErrInvalidTransition is a programming error: no external input may cause it.
var ErrInvalidTransition = errors.New("invalid job status transition")

// validTransitions lists every legal edge of the job lifecycle. Terminal
// states (completed, failed, cancelled) have no outgoing edges.
var validTransitions = map[JobStatus][]JobStatus{
	JobStatusPending:    {JobStatusQueued, JobStatusCancelled, JobStatusFailed},
	JobStatusQueued:     {JobStatusProcessing, JobStatusCancelled, JobStatusFailed},
	JobStatusProcessing: {JobStatusCompleted, JobStatusFailed, JobStatusCancelled},
}

// statusOrder fixes the lifecycle order used when deriving status sets.
var statusOrder = []JobStatus{
	JobStatusPending,
	JobStatusQueued,
	JobStatusProcessing,
	JobStatusCompleted,
	JobStatusFailed,
	JobStatusCancelled,
}

// TransitionSources returns every status with a legal edge to target, in
// lifecycle order. Repository status guards derive from this table rather
// than restating the edges.
func TransitionSources(target JobStatus) []JobStatus {
	var sources []JobStatus
	for _, from := range statusOrder {
		if from.CanTransitionTo(target) {
			sources = append(sources, from)
		}
	}
	return sources
}

func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	for _, allowed := range validTransitions[s] {
		if next == allowed {
			return true
		}
	}
	return false
}

func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

type Job struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	DataType string    `json:"data_type" gorm:"not null;index"`
	// SchemaDef holds the frozen custom schema definition captured at
	// submission time. Null for builtin kinds, which are immutable anyway.
	SchemaDef    datatypes.JSON `json:"schema_def,omitempty" gorm:"type:jsonb"`
	RecordCount  int            `json:"record_count" gorm:"not null"`
	OutputFormat string         `json:"output_format" gorm:"not null"`
	Seed         int64          `json:"seed" gorm:"not null"`

	Status       JobStatus `json:"status" gorm:"not null;index"`
	Progress     float64   `json:"progress" gorm:"not null;default:0"`
	ErrorMessage string    `json:"error_message,omitempty" gorm:"type:text"`

	ArtifactKey      string     `json:"artifact_key,omitempty"`
	ArtifactSize     int64      `json:"artifact_size,omitempty"`
	ArtifactPurgedAt *time.Time `json:"artifact_purged_at,omitempty"`

	CreatedAt   time.Time  `json:"created_at" gorm:"index"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TransitionTo moves the job to next, rejecting illegal edges.
func (j *Job) TransitionTo(next JobStatus) error {
	if !j.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, next)
	}
	j.Status = next
	return nil
}

// HasArtifact reports whether the job's artifact still exists in storage.
func (j *Job) HasArtifact() bool {
	return j.Status == JobStatusCompleted && j.ArtifactKey != "" && j.ArtifactPurgedAt == nil
}
