package repositories

import (
	"context"

	"github.com/alimgiray/formpilot/internal/models"
	"github.com/alimgiray/formpilot/pkg/database"
)

// SubmissionRepository handles database operations for submissions
type SubmissionRepository struct {
	q *database.Queries
}

// NewSubmissionRepository creates a new SubmissionRepository
func NewSubmissionRepository(q *database.Queries) *SubmissionRepository {
	return &SubmissionRepository{q: q}
}

// Create creates a new submission
func (r *SubmissionRepository) Create(ctx context.Context, s *models.Submission) error {
	_, err := r.q.Exec(ctx, "create-submission",
		s.ID,
		s.FormID,
		s.LeadID,
		s.Data,
		s.TimeStamp,
		s.CreatedAt,
	)
	return err
}

// GetByID retrieves a submission by ID
func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	s := &models.Submission{}
	if err := r.q.Get(ctx, "get-submission", s, id); err != nil {
		return nil, notFound(err, models.ErrNotFound, "submission")
	}
	return s, nil
}

// GetByFormID retrieves all submissions of a form, newest first
func (r *SubmissionRepository) GetByFormID(ctx context.Context, formID string) ([]*models.Submission, error) {
	var submissions []*models.Submission
	if err := r.q.Select(ctx, "list-submissions-by-form", &submissions, formID); err != nil {
		return nil, err
	}
	return submissions, nil
}
