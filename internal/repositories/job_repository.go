package repositories

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/alimgiray/formpilot/internal/models"
	"github.com/alimgiray/formpilot/pkg/database"
)

// JobRepository handles database operations for jobs
type JobRepository struct {
	q  *database.Queries
	mu sync.Mutex
}

// NewJobRepository creates a new JobRepository
func NewJobRepository(q *database.Queries) *JobRepository {
	return &JobRepository{q: q}
}

// Create creates a new job
func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	_, err := r.q.Exec(ctx, "create-job",
		job.ID,
		job.FormID,
		job.SubmissionID,
		job.JobType,
		job.Status,
		job.ErrorMessage,
		job.Result,
		job.StartedAt,
		job.CompletedAt,
		job.WorkerID,
		job.CreatedAt,
		job.UpdatedAt,
	)
	return err
}

// GetByID retrieves a job by ID
func (r *JobRepository) GetByID(ctx context.Context, id string) (*models.Job, error) {
	job := &models.Job{}
	if err := r.q.Get(ctx, "get-job", job, id); err != nil {
		return nil, notFound(err, models.ErrNotFound, "job")
	}
	return job, nil
}

// GetByFormID retrieves all jobs of a form, newest first
func (r *JobRepository) GetByFormID(ctx context.Context, formID string) ([]*models.Job, error) {
	var jobs []*models.Job
	if err := r.q.Select(ctx, "list-jobs-by-form", &jobs, formID); err != nil {
		return nil, err
	}
	return jobs, nil
}

// GetNextPendingJob claims the oldest pending job of jobType for workerID
// and returns it marked in-progress. It returns nil, nil when the queue is
// empty. The claim is a conditional update, so two processes racing for the
// same row cannot both win.
func (r *JobRepository) GetNextPendingJob(ctx context.Context, jobType models.JobType, workerID string) (*models.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		job := &models.Job{}
		err := r.q.Get(ctx, "next-pending-job", job, models.JobStatusPending, jobType)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}

		job.MarkStarted(workerID)
		job.UpdatedAt = time.Now()
		res, err := r.q.Exec(ctx, "claim-job",
			job.Status,
			job.StartedAt,
			job.WorkerID,
			job.UpdatedAt,
			job.ID,
			models.JobStatusPending,
		)
		if err != nil {
			return nil, err
		}
		if n, err := res.RowsAffected(); err != nil {
			return nil, err
		} else if n == 1 {
			return job, nil
		}
		// Claimed elsewhere; look again
	}
}

// Update updates a job's status fields
func (r *JobRepository) Update(ctx context.Context, job *models.Job) error {
	job.UpdatedAt = time.Now()
	res, err := r.q.Exec(ctx, "update-job",
		job.Status,
		job.ErrorMessage,
		job.Result,
		job.StartedAt,
		job.CompletedAt,
		job.WorkerID,
		job.UpdatedAt,
		job.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res, models.ErrNotFound)
}

// ResetInProgress returns jobs left in-progress by a previous process to
// the pending queue. It reports how many were reset.
func (r *JobRepository) ResetInProgress(ctx context.Context, jobType models.JobType) (int64, error) {
	res, err := r.q.Exec(ctx, "reset-stale-jobs",
		models.JobStatusPending,
		time.Now(),
		models.JobStatusInProgress,
		jobType,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
