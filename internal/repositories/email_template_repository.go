package repositories

import (
	"context"
	"time"

	"github.com/alimgiray/formpilot/internal/models"
	"github.com/alimgiray/formpilot/pkg/database"
)

// EmailTemplateRepository handles database operations for email templates
type EmailTemplateRepository struct {
	q *database.Queries
}

// NewEmailTemplateRepository creates a new EmailTemplateRepository
func NewEmailTemplateRepository(q *database.Queries) *EmailTemplateRepository {
	return &EmailTemplateRepository{q: q}
}

// Create creates a new template
func (r *EmailTemplateRepository) Create(ctx context.Context, t *models.EmailTemplate) error {
	_, err := r.q.Exec(ctx, "create-email-template",
		t.ID,
		t.Name,
		t.Subject,
		t.Body,
		t.CC,
		t.BCC,
		t.CreatedAt,
		t.UpdatedAt,
	)
	return err
}

// GetByID retrieves a template by ID
func (r *EmailTemplateRepository) GetByID(ctx context.Context, id string) (*models.EmailTemplate, error) {
	t := &models.EmailTemplate{}
	if err := r.q.Get(ctx, "get-email-template", t, id); err != nil {
		return nil, notFound(err, models.ErrTemplateNotFound, "email template")
	}
	return t, nil
}

// List retrieves all templates ordered by name
func (r *EmailTemplateRepository) List(ctx context.Context) ([]*models.EmailTemplate, error) {
	var templates []*models.EmailTemplate
	if err := r.q.Select(ctx, "list-email-templates", &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

// Update updates a template
func (r *EmailTemplateRepository) Update(ctx context.Context, t *models.EmailTemplate) error {
	t.UpdatedAt = time.Now()
	res, err := r.q.Exec(ctx, "update-email-template",
		t.Name,
		t.Subject,
		t.Body,
		t.CC,
		t.BCC,
		t.UpdatedAt,
		t.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res, models.ErrTemplateNotFound)
}

// Delete deletes a template by ID
func (r *EmailTemplateRepository) Delete(ctx context.Context, id string) error {
	res, err := r.q.Exec(ctx, "delete-email-template", id)
	if err != nil {
		return err
	}
	return requireRow(res, models.ErrTemplateNotFound)
}
