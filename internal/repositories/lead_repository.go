package repositories

import (
	"context"

	"github.com/alimgiray/formpilot/internal/models"
	"github.com/alimgiray/formpilot/pkg/database"
)

// LeadRepository handles database operations for leads
type LeadRepository struct {
	q *database.Queries
}

// NewLeadRepository creates a new LeadRepository
func NewLeadRepository(q *database.Queries) *LeadRepository {
	return &LeadRepository{q: q}
}

// Create creates a new lead
func (r *LeadRepository) Create(ctx context.Context, lead *models.Lead) error {
	_, err := r.q.Exec(ctx, "create-lead",
		lead.ID,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.CreatedAt,
		lead.UpdatedAt,
	)
	return err
}

// GetByID retrieves a lead by ID
func (r *LeadRepository) GetByID(ctx context.Context, id string) (*models.Lead, error) {
	lead := &models.Lead{}
	if err := r.q.Get(ctx, "get-lead", lead, id); err != nil {
		return nil, notFound(err, models.ErrNotFound, "lead")
	}
	return lead, nil
}

// GetByEmail retrieves the oldest lead with the given address (case-insensitive)
func (r *LeadRepository) GetByEmail(ctx context.Context, email string) (*models.Lead, error) {
	lead := &models.Lead{}
	if err := r.q.Get(ctx, "get-lead-by-email", lead, email); err != nil {
		return nil, notFound(err, models.ErrNotFound, "lead")
	}
	return lead, nil
}
