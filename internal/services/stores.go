package services

import (
	"context"
	"errors"
	"time"

	"github.com/alimgiray/formpilot/internal/models"
	"github.com/alimgiray/formpilot/internal/rules"
)

// Narrow views of the repositories the rule pipeline reads and writes.
// The concrete repositories in internal/repositories satisfy them.

type RuleStore interface {
	GetActiveRulesForForm(ctx context.Context, formID string) ([]*models.EmailRule, error)
}

type SubmissionStore interface {
	GetByID(ctx context.Context, id string) (*models.Submission, error)
}

type LeadStore interface {
	GetByID(ctx context.Context, id string) (*models.Lead, error)
}

type FieldStore interface {
	GetResolvedFields(ctx context.Context, formID string) (*rules.FieldIndex, error)
}

type EmailLogStore interface {
	Create(ctx context.Context, l *models.EmailLog) error
}

const defaultPersistenceTimeout = 5 * time.Second

// withTimeout bounds one persistence or transport call
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = defaultPersistenceTimeout
	}
	return context.WithTimeout(ctx, d)
}

// isTimeout reports whether err came from a bounded call running out of time
func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
