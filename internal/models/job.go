package models

import (
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	JobTypeEmailRules JobType = "email_rules"
)

// JobStatus represents the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusInProgress JobStatus = "in-progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Job represents a background job. Result holds the JSON run summary once
// the job has finished.
type Job struct {
	ID           string     `json:"id" db:"id"`
	FormID       string     `json:"form_id" db:"form_id"`
	SubmissionID *string    `json:"submission_id" db:"submission_id"`
	JobType      JobType    `json:"job_type" db:"job_type"`
	Status       JobStatus  `json:"status" db:"status"`
	ErrorMessage *string    `json:"error_message" db:"error_message"`
	Result       *string    `json:"result" db:"result"`
	StartedAt    *time.Time `json:"started_at" db:"started_at"`
	CompletedAt  *time.Time `json:"completed_at" db:"completed_at"`
	WorkerID     *string    `json:"worker_id" db:"worker_id"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// NewJob creates a new Job with a generated UUID
func NewJob(formID string, jobType JobType) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.New().String(),
		FormID:    formID,
		JobType:   jobType,
		Status:    JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MarkStarted marks the job as started by a worker
func (j *Job) MarkStarted(workerID string) {
	now := time.Now()
	j.Status = JobStatusInProgress
	j.StartedAt = &now
	j.WorkerID = &workerID
}

// MarkCompleted marks the job as completed with its summary
func (j *Job) MarkCompleted(result string) {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.CompletedAt = &now
	j.Result = &result
}

// MarkFailed marks the job as failed
func (j *Job) MarkFailed(message string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.ErrorMessage = &message
}
