package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type JobStatus string

// Job statuses. Completed, failed and cancelled are terminal.
const (
	JobStatusPending   JobStatus = "pending"
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Generation job types.
const (
	JobTypeTabular    = "tabular"
	JobTypeTimeseries = "timeseries"
	JobTypeText       = "text"
	JobTypeImage      = "image"
)

// statusTransitions holds the legal edges of the job lifecycle.
var statusTransitions = map[JobStatus][]JobStatus{
	JobStatusPending: {JobStatusQueued, JobStatusFailed, JobStatusCancelled},
	JobStatusQueued:  {JobStatusRunning, JobStatusFailed, JobStatusCancelled},
	JobStatusRunning: {JobStatusCompleted, JobStatusFailed, JobStatusCancelled},
}

func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

func (s JobStatus) CanTransition(to JobStatus) bool {
	for _, next := range statusTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// ErrInvalidTransition is returned when a status change violates the lifecycle.
type ErrInvalidTransition struct {
	From JobStatus
	To   JobStatus
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid job status transition %s -> %s", e.From, e.To)
}

type Job struct {
	ID         uuid.UUID `gorm:"primaryKey;"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  *time.Time
	ProjectID  uuid.UUID                  `gorm:"not null;index:jobs_project_id_idx"`
	OrgID      string                     `gorm:"not null;index:jobs_org_id_idx"`
	Username   string                     `gorm:"type:VARCHAR;size:256"`
	Type       string                     `gorm:"not null"`
	Config     *JSONField[map[string]any] `gorm:"type:jsonb"`
	Status     JobStatus                  `gorm:"not null;default:pending;index:jobs_status_idx"`
	StatusInfo string

	// Reference to the external generation pipeline execution.
	PipelineJobID *string `gorm:"index:jobs_pipeline_job_id_idx"`

	ResultDatasetID *uuid.UUID
	StartedAt       *time.Time
	CompletedAt     *time.Time
}

type JobList []Job

func (j Job) String() string {
	val, _ := json.Marshal(j)
	return string(val)
}

func NewJobFromID(id uuid.UUID) *Job {
	return &Job{ID: id}
}

// Transition moves the job to the given status, stamping the lifecycle
// timestamps. Terminal statuses admit no further transition.
func (j *Job) Transition(to JobStatus, now time.Time) error {
	if !j.Status.CanTransition(to) {
		return &ErrInvalidTransition{From: j.Status, To: to}
	}

	j.Status = to
	switch {
	case to == JobStatusRunning:
		j.StartedAt = &now
	case to.IsTerminal():
		j.CompletedAt = &now
	}

	return nil
}
