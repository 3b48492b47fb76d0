package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/alimgiray/formpilot/internal/models"
	"github.com/alimgiray/formpilot/pkg/database"
)

// EmailRuleRepository handles database operations for email rules
type EmailRuleRepository struct {
	q *database.Queries
}

// NewEmailRuleRepository creates a new EmailRuleRepository
func NewEmailRuleRepository(q *database.Queries) *EmailRuleRepository {
	return &EmailRuleRepository{q: q}
}

// ruleWithTemplate is one row of the active-rules join
type ruleWithTemplate struct {
	models.EmailRule
	TplID      sql.NullString    `db:"tpl_id"`
	TplName    sql.NullString    `db:"tpl_name"`
	TplSubject sql.NullString    `db:"tpl_subject"`
	TplBody    sql.NullString    `db:"tpl_body"`
	TplCC      models.StringList `db:"tpl_cc"`
	TplBCC     models.StringList `db:"tpl_bcc"`
}

// Create creates a new rule
func (r *EmailRuleRepository) Create(ctx context.Context, rule *models.EmailRule) error {
	_, err := r.q.Exec(ctx, "create-email-rule",
		rule.ID,
		rule.Name,
		rule.FormID,
		rule.TemplateID,
		rule.Active,
		rule.ConditionsRaw,
		rule.RecipientType,
		rule.RecipientEmail,
		rule.RecipientField,
		rule.CC,
		rule.BCC,
		rule.CreatedAt,
		rule.UpdatedAt,
	)
	return err
}

// GetByID retrieves a rule by ID
func (r *EmailRuleRepository) GetByID(ctx context.Context, id string) (*models.EmailRule, error) {
	rule := &models.EmailRule{}
	if err := r.q.Get(ctx, "get-email-rule", rule, id); err != nil {
		return nil, notFound(err, models.ErrNotFound, "email rule")
	}
	return rule, nil
}

// GetByFormID retrieves every rule of a form in creation order
func (r *EmailRuleRepository) GetByFormID(ctx context.Context, formID string) ([]*models.EmailRule, error) {
	var rules []*models.EmailRule
	if err := r.q.Select(ctx, "list-email-rules-by-form", &rules, formID); err != nil {
		return nil, err
	}
	return rules, nil
}

// GetActiveRulesForForm retrieves active rules in creation order with
// their template attached. Template is nil when the template row is gone.
func (r *EmailRuleRepository) GetActiveRulesForForm(ctx context.Context, formID string) ([]*models.EmailRule, error) {
	var rows []ruleWithTemplate
	if err := r.q.Select(ctx, "list-active-email-rules-with-template", &rows, formID, true); err != nil {
		return nil, err
	}

	rules := make([]*models.EmailRule, 0, len(rows))
	for i := range rows {
		row := rows[i]
		rule := row.EmailRule
		if row.TplID.Valid {
			rule.Template = &models.TemplateSummary{
				ID:      row.TplID.String,
				Name:    row.TplName.String,
				Subject: row.TplSubject.String,
				Body:    row.TplBody.String,
				CC:      row.TplCC,
				BCC:     row.TplBCC,
			}
		}
		rules = append(rules, &rule)
	}
	return rules, nil
}

// Update updates a rule
func (r *EmailRuleRepository) Update(ctx context.Context, rule *models.EmailRule) error {
	rule.UpdatedAt = time.Now()
	res, err := r.q.Exec(ctx, "update-email-rule",
		rule.Name,
		rule.TemplateID,
		rule.Active,
		rule.ConditionsRaw,
		rule.RecipientType,
		rule.RecipientEmail,
		rule.RecipientField,
		rule.CC,
		rule.BCC,
		rule.UpdatedAt,
		rule.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res, models.ErrNotFound)
}

// UpdateReferences rewrites only the field references of a rule
func (r *EmailRuleRepository) UpdateReferences(ctx context.Context, rule *models.EmailRule) error {
	rule.UpdatedAt = time.Now()
	_, err := r.q.Exec(ctx, "update-email-rule-references",
		rule.ConditionsRaw,
		rule.RecipientField,
		rule.UpdatedAt,
		rule.ID,
	)
	return err
}

// Delete deletes a rule by ID
func (r *EmailRuleRepository) Delete(ctx context.Context, id string) error {
	res, err := r.q.Exec(ctx, "delete-email-rule", id)
	if err != nil {
		return err
	}
	return requireRow(res, models.ErrNotFound)
}
