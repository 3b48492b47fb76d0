package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/alimgiray/formpilot/internal/models"
	"github.com/alimgiray/formpilot/pkg/database"
)

// FormRepository handles database operations for forms, sections and fields
type FormRepository struct {
	q *database.Queries
}

// NewFormRepository creates a new FormRepository
func NewFormRepository(q *database.Queries) *FormRepository {
	return &FormRepository{q: q}
}

// Create creates a new form
func (r *FormRepository) Create(ctx context.Context, form *models.Form) error {
	_, err := r.q.Exec(ctx, "create-form",
		form.ID,
		form.Name,
		form.Slug,
		form.Description,
		form.CreatedAt,
		form.UpdatedAt,
	)
	return err
}

// GetByID retrieves a form by ID without its sections
func (r *FormRepository) GetByID(ctx context.Context, id string) (*models.Form, error) {
	form := &models.Form{}
	if err := r.q.Get(ctx, "get-form", form, id); err != nil {
		return nil, notFound(err, models.ErrFormNotFound, "form")
	}
	return form, nil
}

// List retrieves all forms, newest first
func (r *FormRepository) List(ctx context.Context) ([]*models.Form, error) {
	var forms []*models.Form
	if err := r.q.Select(ctx, "list-forms", &forms); err != nil {
		return nil, err
	}
	return forms, nil
}

// Update updates a form's name and description
func (r *FormRepository) Update(ctx context.Context, form *models.Form) error {
	form.UpdatedAt = time.Now()
	res, err := r.q.Exec(ctx, "update-form",
		form.Name,
		form.Slug,
		form.Description,
		form.UpdatedAt,
		form.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res, models.ErrFormNotFound)
}

// Delete deletes a form; sections, fields, rules and submissions cascade
func (r *FormRepository) Delete(ctx context.Context, id string) error {
	res, err := r.q.Exec(ctx, "delete-form", id)
	if err != nil {
		return err
	}
	return requireRow(res, models.ErrFormNotFound)
}

// GetSections retrieves a form's sections with their fields attached
func (r *FormRepository) GetSections(ctx context.Context, formID string) ([]*models.FormSection, error) {
	var sections []*models.FormSection
	if err := r.q.Select(ctx, "list-form-sections", &sections, formID); err != nil {
		return nil, err
	}

	fields, err := r.GetFields(ctx, formID)
	if err != nil {
		return nil, err
	}

	bySection := make(map[string]*models.FormSection, len(sections))
	for _, s := range sections {
		bySection[s.ID] = s
	}
	for _, f := range fields {
		if s, ok := bySection[f.SectionID]; ok {
			s.Fields = append(s.Fields, f)
		}
	}
	return sections, nil
}

// GetFields retrieves all fields of a form in section then field order
func (r *FormRepository) GetFields(ctx context.Context, formID string) ([]*models.FormField, error) {
	var fields []*models.FormField
	if err := r.q.Select(ctx, "list-form-fields", &fields, formID); err != nil {
		return nil, err
	}
	return fields, nil
}

// ReplaceStructure deletes and recreates every section and field of a form
// in one transaction. Callers are responsible for assigning stable ids.
func (r *FormRepository) ReplaceStructure(ctx context.Context, formID string, sections []*models.FormSection) error {
	return r.q.InTx(ctx, func(tx *database.Tx) error {
		if _, err := tx.Exec(ctx, "delete-form-fields", formID); err != nil {
			return fmt.Errorf("failed to delete fields: %w", err)
		}
		if _, err := tx.Exec(ctx, "delete-form-sections", formID); err != nil {
			return fmt.Errorf("failed to delete sections: %w", err)
		}

		for _, s := range sections {
			if _, err := tx.Exec(ctx, "create-form-section", s.ID, formID, s.Title, s.Position, s.CreatedAt); err != nil {
				return fmt.Errorf("failed to create section: %w", err)
			}
			for _, f := range s.Fields {
				_, err := tx.Exec(ctx, "create-form-field",
					f.ID,
					f.StableID,
					formID,
					s.ID,
					f.Label,
					f.Type,
					f.Options,
					f.Mapping,
					f.Position,
					f.CreatedAt,
				)
				if err != nil {
					return fmt.Errorf("failed to create field %q: %w", f.Label, err)
				}
			}
		}

		_, err := tx.Exec(ctx, "touch-form", time.Now(), formID)
		return err
	})
}

// SetStableID stores a stable id on a field that has none yet.
// It reports whether the row was updated.
func (r *FormRepository) SetStableID(ctx context.Context, fieldID, stableID string) (bool, error) {
	res, err := r.q.Exec(ctx, "set-field-stable-id", stableID, fieldID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
