package services

import (
	"context"
	"fmt"
	"time"

	"github.com/alimgiray/formpilot/internal/models"
	"github.com/alimgiray/formpilot/internal/repositories"
	"github.com/alimgiray/formpilot/internal/rules"
)

// Preview is a rendered subject and body plus the placeholders that could
// not be filled from the sample data
type Preview struct {
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	Unresolved []string `json:"unresolved"`
}

// RenderPreview renders a single template string against sample data.
// It is the Template Renderer exposed for diagnostic tools.
func RenderPreview(template string, sample map[string]any) string {
	return rules.Render(template, rules.DataContext(sample))
}

// BuildPreview renders a subject and body against sample data
func BuildPreview(subject, body string, sample map[string]any) *Preview {
	data := rules.DataContext(sample)
	unresolved := append(rules.Unresolved(subject, data), rules.Unresolved(body, data)...)
	return &Preview{
		Subject:    rules.Render(subject, data),
		Body:       rules.Render(body, data),
		Unresolved: dedupe(unresolved),
	}
}

func dedupe(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}

// EmailTemplateService handles email template management
type EmailTemplateService struct {
	templateRepo *repositories.EmailTemplateRepository
	timeout      time.Duration
}

// NewEmailTemplateService creates a new email template service
func NewEmailTemplateService(templateRepo *repositories.EmailTemplateRepository, timeout time.Duration) *EmailTemplateService {
	return &EmailTemplateService{
		templateRepo: templateRepo,
		timeout:      timeout,
	}
}

// CreateTemplate validates and stores a new template
func (s *EmailTemplateService) CreateTemplate(ctx context.Context, input *models.EmailTemplate) (*models.EmailTemplate, error) {
	tpl := models.NewEmailTemplate(input.Name, input.Subject, input.Body)
	tpl.CC = input.CC
	tpl.BCC = input.BCC
	if err := tpl.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.templateRepo.Create(ctx, tpl); err != nil {
		return nil, fmt.Errorf("failed to create email template: %w", err)
	}
	return tpl, nil
}

// GetTemplate retrieves a template by ID
func (s *EmailTemplateService) GetTemplate(ctx context.Context, id string) (*models.EmailTemplate, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return s.templateRepo.GetByID(ctx, id)
}

// ListTemplates retrieves all templates
func (s *EmailTemplateService) ListTemplates(ctx context.Context) ([]*models.EmailTemplate, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return s.templateRepo.List(ctx)
}

// UpdateTemplate replaces a template's content
func (s *EmailTemplateService) UpdateTemplate(ctx context.Context, id string, input *models.EmailTemplate) (*models.EmailTemplate, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	tpl, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tpl.Name = input.Name
	tpl.Subject = input.Subject
	tpl.Body = input.Body
	tpl.CC = input.CC
	tpl.BCC = input.BCC
	if err := tpl.Validate(); err != nil {
		return nil, err
	}

	if err := s.templateRepo.Update(ctx, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

// DeleteTemplate deletes a template. Rules still pointing at it are logged
// as template_missing when they match.
func (s *EmailTemplateService) DeleteTemplate(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return s.templateRepo.Delete(ctx, id)
}

// PreviewTemplate renders a stored template against sample data
func (s *EmailTemplateService) PreviewTemplate(ctx context.Context, id string, sample map[string]any) (*Preview, error) {
	tpl, err := s.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	return BuildPreview(tpl.Subject, tpl.Body, sample), nil
}
