package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alimgiray/formpilot/internal/models"
	"github.com/alimgiray/formpilot/internal/repositories"
	"github.com/alimgiray/formpilot/pkg/logger"
)

// ErrRuleNeedsConditions is returned when activating a rule without conditions
var ErrRuleNeedsConditions = &models.ValidationError{
	Field:   "conditions",
	Message: "An active rule needs at least one condition",
}

// EmailRuleService handles email rule management
type EmailRuleService struct {
	ruleRepo     *repositories.EmailRuleRepository
	templateRepo *repositories.EmailTemplateRepository
	formRepo     *repositories.FormRepository
	timeout      time.Duration
}

// NewEmailRuleService creates a new email rule service
func NewEmailRuleService(ruleRepo *repositories.EmailRuleRepository, templateRepo *repositories.EmailTemplateRepository, formRepo *repositories.FormRepository, timeout time.Duration) *EmailRuleService {
	return &EmailRuleService{
		ruleRepo:     ruleRepo,
		templateRepo: templateRepo,
		formRepo:     formRepo,
		timeout:      timeout,
	}
}

// CreateRule validates and stores a new rule. rule.Conditions is the source
// of truth and is stored in normalized form.
func (s *EmailRuleService) CreateRule(ctx context.Context, rule *models.EmailRule) (*models.EmailRule, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	now := time.Now()
	fresh := models.NewEmailRule(rule.Name, rule.FormID, rule.TemplateID)
	fresh.Active = rule.Active
	fresh.Conditions = rule.Conditions
	fresh.RecipientType = rule.RecipientType
	fresh.RecipientEmail = strings.TrimSpace(rule.RecipientEmail)
	fresh.RecipientField = strings.TrimSpace(rule.RecipientField)
	fresh.CC = rule.CC
	fresh.BCC = rule.BCC
	fresh.CreatedAt, fresh.UpdatedAt = now, now

	if err := s.prepare(ctx, fresh); err != nil {
		return nil, err
	}
	if _, err := s.formRepo.GetByID(ctx, fresh.FormID); err != nil {
		return nil, err
	}

	if err := s.ruleRepo.Create(ctx, fresh); err != nil {
		return nil, fmt.Errorf("failed to create email rule: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"rule_id": fresh.ID,
		"form_id": fresh.FormID,
	}).Info("Email rule created")
	return fresh, nil
}

// UpdateRule replaces the editable attributes of an existing rule
func (s *EmailRuleService) UpdateRule(ctx context.Context, id string, input *models.EmailRule) (*models.EmailRule, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	rule, err := s.ruleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rule.Name = input.Name
	rule.TemplateID = input.TemplateID
	rule.Active = input.Active
	rule.Conditions = input.Conditions
	rule.RecipientType = input.RecipientType
	rule.RecipientEmail = strings.TrimSpace(input.RecipientEmail)
	rule.RecipientField = strings.TrimSpace(input.RecipientField)
	rule.CC = input.CC
	rule.BCC = input.BCC

	if err := s.prepare(ctx, rule); err != nil {
		return nil, err
	}
	if err := s.ruleRepo.Update(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// prepare validates a rule, checks its template and encodes its conditions
func (s *EmailRuleService) prepare(ctx context.Context, rule *models.EmailRule) error {
	if rule.RecipientType == "" {
		rule.RecipientType = models.RecipientTypeForm
	}
	for i := range rule.Conditions {
		rule.Conditions[i].Field = strings.TrimSpace(rule.Conditions[i].Field)
		rule.Conditions[i].Operator = models.NormalizeOperator(string(rule.Conditions[i].Operator))
	}

	encoded, err := models.EncodeConditions(rule.Conditions)
	if err != nil {
		return err
	}
	rule.ConditionsRaw = encoded

	if err := rule.Validate(); err != nil {
		return err
	}
	if rule.Active && len(rule.Conditions) == 0 {
		return ErrRuleNeedsConditions
	}

	if _, err := s.templateRepo.GetByID(ctx, rule.TemplateID); err != nil {
		return err
	}
	return nil
}

// GetRule retrieves a rule with its parsed conditions
func (s *EmailRuleService) GetRule(ctx context.Context, id string) (*models.EmailRule, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	rule, err := s.ruleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	decodeConditions(rule)
	return rule, nil
}

// GetRulesByForm retrieves every rule of a form with parsed conditions
func (s *EmailRuleService) GetRulesByForm(ctx context.Context, formID string) ([]*models.EmailRule, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	rules, err := s.ruleRepo.GetByFormID(ctx, formID)
	if err != nil {
		return nil, err
	}
	for _, r := range rules {
		decodeConditions(r)
	}
	return rules, nil
}

// DeleteRule deletes a rule
func (s *EmailRuleService) DeleteRule(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return s.ruleRepo.Delete(ctx, id)
}

// decodeConditions fills rule.Conditions for API output. Malformed stored
// text leaves it empty.
func decodeConditions(rule *models.EmailRule) {
	conditions, err := models.ParseConditions(rule.ConditionsRaw)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"rule_id": rule.ID,
			"error":   err.Error(),
		}).Warn("Stored rule conditions are malformed")
		rule.Conditions = []models.Condition{}
		return
	}
	if conditions == nil {
		conditions = []models.Condition{}
	}
	rule.Conditions = conditions
}

// MigrateFieldReferences rewrites every condition field and recipient field
// of a form's rules that equals fromRef to toStableID. Rules whose stored
// conditions cannot be parsed are left untouched. It returns the number of
// rules changed.
func (s *EmailRuleService) MigrateFieldReferences(ctx context.Context, formID, fromRef, toStableID string) (int, error) {
	fromRef = strings.TrimSpace(fromRef)
	toStableID = strings.TrimSpace(toStableID)
	if fromRef == "" || toStableID == "" {
		return 0, &models.ValidationError{Field: "from", Message: "Both the old reference and the new stable id are required"}
	}
	if fromRef == toStableID {
		return 0, nil
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	rules, err := s.ruleRepo.GetByFormID(ctx, formID)
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, rule := range rules {
		updated, err := rewriteReferences(rule, fromRef, toStableID)
		if err != nil {
			if errors.Is(err, models.ErrInvalidConditions) {
				logger.WithField("rule_id", rule.ID).Warn("Skipping rule with malformed conditions during field migration")
				continue
			}
			return changed, err
		}
		if !updated {
			continue
		}
		if err := s.ruleRepo.UpdateReferences(ctx, rule); err != nil {
			return changed, fmt.Errorf("failed to update rule %s: %w", rule.ID, err)
		}
		changed++
	}

	logger.WithFields(logrus.Fields{
		"form_id": formID,
		"from":    fromRef,
		"to":      toStableID,
		"changed": changed,
	}).Info("Migrated field references")
	return changed, nil
}

func rewriteReferences(rule *models.EmailRule, fromRef, toStableID string) (bool, error) {
	conditions, err := models.ParseConditions(rule.ConditionsRaw)
	if err != nil {
		return false, err
	}

	updated := false
	for i := range conditions {
		if conditions[i].Field == fromRef {
			conditions[i].Field = toStableID
			updated = true
		}
	}
	if rule.RecipientField == fromRef {
		rule.RecipientField = toStableID
		updated = true
	}
	if !updated {
		return false, nil
	}

	encoded, err := models.EncodeConditions(conditions)
	if err != nil {
		return false, err
	}
	rule.ConditionsRaw = encoded
	rule.Conditions = conditions
	return true, nil
}
