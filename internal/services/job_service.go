package services

import (
	"context"
	"fmt"

	"github.com/alimgiray/formpilot/internal/models"
	"github.com/alimgiray/formpilot/internal/repositories"
)

// JobService handles job creation and management
type JobService struct {
	jobRepo *repositories.JobRepository
}

// NewJobService creates a new job service
func NewJobService(jobRepo *repositories.JobRepository) *JobService {
	return &JobService{
		jobRepo: jobRepo,
	}
}

// EnqueueEmailRules creates a pending email-rules job for a submission
func (s *JobService) EnqueueEmailRules(ctx context.Context, formID, submissionID string) (*models.Job, error) {
	job := models.NewJob(formID, models.JobTypeEmailRules)
	job.SubmissionID = &submissionID

	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return job, nil
}

// GetJob retrieves a job by ID
func (s *JobService) GetJob(ctx context.Context, id string) (*models.Job, error) {
	return s.jobRepo.GetByID(ctx, id)
}

// GetJobsByForm retrieves all jobs of a form
func (s *JobService) GetJobsByForm(ctx context.Context, formID string) ([]*models.Job, error) {
	return s.jobRepo.GetByFormID(ctx, formID)
}

// GetNextPendingJob claims the next job of jobType for workerID
func (s *JobService) GetNextPendingJob(ctx context.Context, jobType models.JobType, workerID string) (*models.Job, error) {
	return s.jobRepo.GetNextPendingJob(ctx, jobType, workerID)
}

// CompleteJob marks a job completed with its JSON summary
func (s *JobService) CompleteJob(ctx context.Context, job *models.Job, result string) error {
	job.MarkCompleted(result)
	return s.jobRepo.Update(ctx, job)
}

// FailJob marks a job failed
func (s *JobService) FailJob(ctx context.Context, job *models.Job, message string) error {
	job.MarkFailed(message)
	return s.jobRepo.Update(ctx, job)
}

// RecoverInterrupted puts jobs left in-progress by a previous process back
// in the queue
func (s *JobService) RecoverInterrupted(ctx context.Context, jobType models.JobType) (int64, error) {
	return s.jobRepo.ResetInProgress(ctx, jobType)
}
