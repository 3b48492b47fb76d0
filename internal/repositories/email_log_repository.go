package repositories

import (
	"context"

	"github.com/alimgiray/formpilot/internal/models"
	"github.com/alimgiray/formpilot/pkg/database"
)

const defaultEmailLogLimit = 500

// EmailLogFilter narrows a log listing. Empty fields match everything.
type EmailLogFilter struct {
	FormID string
	RuleID string
	Limit  int
}

// EmailLogRepository handles database operations for email logs
type EmailLogRepository struct {
	q *database.Queries
}

// NewEmailLogRepository creates a new EmailLogRepository
func NewEmailLogRepository(q *database.Queries) *EmailLogRepository {
	return &EmailLogRepository{q: q}
}

// Create creates a new log entry
func (r *EmailLogRepository) Create(ctx context.Context, l *models.EmailLog) error {
	_, err := r.q.Exec(ctx, "create-email-log",
		l.ID,
		l.FormID,
		l.RuleID,
		l.TemplateID,
		l.SubmissionID,
		l.Recipient,
		l.Subject,
		l.Status,
		l.ErrorMessage,
		l.CreatedAt,
	)
	return err
}

// List retrieves log entries newest first
func (r *EmailLogRepository) List(ctx context.Context, filter EmailLogFilter) ([]*models.EmailLog, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultEmailLogLimit
	}

	var logs []*models.EmailLog
	err := r.q.Select(ctx, "list-email-logs", &logs,
		filter.FormID, filter.FormID,
		filter.RuleID, filter.RuleID,
		limit,
	)
	if err != nil {
		return nil, err
	}
	return logs, nil
}
