package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/alimgiray/formpilot/internal/models"
	"github.com/alimgiray/formpilot/internal/repositories"
	"github.com/alimgiray/formpilot/internal/rules"
	"github.com/alimgiray/formpilot/pkg/logger"
)

// FormService handles forms and their field structure
type FormService struct {
	formRepo *repositories.FormRepository
	timeout  time.Duration
}

// NewFormService creates a new form service
func NewFormService(formRepo *repositories.FormRepository, timeout time.Duration) *FormService {
	return &FormService{
		formRepo: formRepo,
		timeout:  timeout,
	}
}

// CreateForm creates an empty form
func (s *FormService) CreateForm(ctx context.Context, name, description string) (*models.Form, error) {
	form := models.NewForm(name, description)
	if err := form.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.formRepo.Create(ctx, form); err != nil {
		return nil, fmt.Errorf("failed to create form: %w", err)
	}
	return form, nil
}

// GetForm retrieves a form with its sections and fields
func (s *FormService) GetForm(ctx context.Context, id string) (*models.Form, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	form, err := s.formRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sections, err := s.formRepo.GetSections(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load form sections: %w", err)
	}
	form.Sections = sections
	return form, nil
}

// ListForms retrieves all forms without their structure
func (s *FormService) ListForms(ctx context.Context) ([]*models.Form, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return s.formRepo.List(ctx)
}

// UpdateForm renames a form or changes its description
func (s *FormService) UpdateForm(ctx context.Context, id, name, description string) (*models.Form, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	form, err := s.formRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	form.Name = strings.TrimSpace(name)
	form.Slug = models.Slugify(name)
	form.Description = description
	if err := form.Validate(); err != nil {
		return nil, err
	}
	if err := s.formRepo.Update(ctx, form); err != nil {
		return nil, err
	}
	return form, nil
}

// DeleteForm deletes a form and everything attached to it
func (s *FormService) DeleteForm(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return s.formRepo.Delete(ctx, id)
}

// SaveFormFields replaces the whole structure of a form. Every section and
// field gets a new row id. Each field keeps the stable id it was sent with;
// failing that, the stable id of the previous row with the same id; failing
// that, a new one. A stable id is never given to two fields.
func (s *FormService) SaveFormFields(ctx context.Context, formID string, sections []*models.FormSection) (*models.Form, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.formRepo.GetByID(ctx, formID); err != nil {
		return nil, err
	}

	previous, err := s.formRepo.GetFields(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing fields: %w", err)
	}
	stableByRow := make(map[string]string, len(previous))
	for _, f := range previous {
		if f.StableID != "" {
			stableByRow[f.ID] = f.StableID
		}
	}

	now := time.Now()
	used := make(map[string]bool)
	for si, section := range sections {
		if section == nil {
			return nil, &models.ValidationError{Field: "sections", Message: "Section must not be empty"}
		}
		section.ID = uuid.New().String()
		section.FormID = formID
		section.Position = si
		section.CreatedAt = now

		for fi, field := range section.Fields {
			if field == nil || strings.TrimSpace(field.Label) == "" {
				return nil, &models.ValidationError{Field: "fields.label", Message: "Field label is required"}
			}

			stable := strings.TrimSpace(field.StableID)
			if stable == "" {
				stable = stableByRow[field.ID]
			}
			if stable == "" || used[stable] {
				stable = models.NewStableID()
			}
			used[stable] = true

			field.StableID = stable
			field.ID = uuid.New().String()
			field.FormID = formID
			field.SectionID = section.ID
			field.Label = strings.TrimSpace(field.Label)
			field.Mapping = strings.TrimSpace(field.Mapping)
			field.Position = fi
			field.CreatedAt = now
			if field.Type == "" {
				field.Type = models.FieldTypeText
			}
		}
	}

	if err := s.formRepo.ReplaceStructure(ctx, formID, sections); err != nil {
		return nil, fmt.Errorf("failed to save form fields: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"form_id":  formID,
		"sections": len(sections),
		"fields":   len(used),
	}).Info("Form fields saved")

	return s.GetForm(ctx, formID)
}

// BackfillStableIDs assigns stable ids to fields saved before they existed.
// It returns how many fields were updated.
func (s *FormService) BackfillStableIDs(ctx context.Context, formID string) (int, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	fields, err := s.formRepo.GetFields(ctx, formID)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, f := range fields {
		if f.StableID != "" {
			continue
		}
		ok, err := s.formRepo.SetStableID(ctx, f.ID, models.NewStableID())
		if err != nil {
			return updated, fmt.Errorf("failed to backfill field %s: %w", f.ID, err)
		}
		if ok {
			updated++
		}
	}
	return updated, nil
}

// GetResolvedFields returns the field index rules resolve references against
func (s *FormService) GetResolvedFields(ctx context.Context, formID string) (*rules.FieldIndex, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	fields, err := s.formRepo.GetFields(ctx, formID)
	if err != nil {
		return nil, err
	}
	return rules.NewFieldIndex(fields), nil
}
