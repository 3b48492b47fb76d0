package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RecipientType selects where a rule sends its email
type RecipientType string

const (
	RecipientTypeForm   RecipientType = "form"
	RecipientTypeCustom RecipientType = "custom"
	RecipientTypeField  RecipientType = "field"
)

// EmailRule binds a form to a template. ConditionsRaw is the stored JSON
// text; Conditions is only populated on API input and output.
type EmailRule struct {
	ID             string        `json:"id" db:"id"`
	Name           string        `json:"name" db:"name"`
	FormID         string        `json:"form_id" db:"form_id"`
	TemplateID     string        `json:"template_id" db:"template_id"`
	Active         bool          `json:"active" db:"active"`
	ConditionsRaw  string        `json:"-" db:"conditions"`
	Conditions     []Condition   `json:"conditions" db:"-"`
	RecipientType  RecipientType `json:"recipient_type" db:"recipient_type"`
	RecipientEmail string        `json:"recipient_email" db:"recipient_email"`
	RecipientField string        `json:"recipient_field" db:"recipient_field"`
	CC             StringList    `json:"cc" db:"cc"`
	BCC            StringList    `json:"bcc" db:"bcc"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`

	Template *TemplateSummary `json:"template,omitempty" db:"-"`
}

// TemplateSummary is the part of a template the rule pipeline needs
type TemplateSummary struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Subject string     `json:"subject"`
	Body    string     `json:"body"`
	CC      StringList `json:"cc"`
	BCC     StringList `json:"bcc"`
}

// NewEmailRule creates a new active EmailRule with a generated UUID
func NewEmailRule(name, formID, templateID string) *EmailRule {
	now := time.Now()
	return &EmailRule{
		ID:            uuid.New().String(),
		Name:          strings.TrimSpace(name),
		FormID:        formID,
		TemplateID:    templateID,
		Active:        true,
		ConditionsRaw: "[]",
		RecipientType: RecipientTypeForm,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// EffectiveRecipientType defaults unknown or empty types to form
func (r *EmailRule) EffectiveRecipientType() RecipientType {
	switch r.RecipientType {
	case RecipientTypeCustom, RecipientTypeField:
		return r.RecipientType
	default:
		return RecipientTypeForm
	}
}

// HasConditions reports whether the stored condition text holds at least
// one clause. Malformed text counts as having conditions so that the rule
// is evaluated (and logged as malformed) rather than silently dropped.
func (r *EmailRule) HasConditions() bool {
	conditions, err := ParseConditions(r.ConditionsRaw)
	if err != nil {
		return true
	}
	return len(conditions) > 0
}

func (r *EmailRule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrRuleNameRequired
	}
	if r.FormID == "" {
		return ErrRuleFormRequired
	}
	if r.TemplateID == "" {
		return ErrRuleTemplateRequired
	}
	switch r.RecipientType {
	case "", RecipientTypeForm:
	case RecipientTypeCustom:
		if strings.TrimSpace(r.RecipientEmail) == "" {
			return &ValidationError{Field: "recipient_email", Message: "Custom recipient email is required"}
		}
	case RecipientTypeField:
		if strings.TrimSpace(r.RecipientField) == "" {
			return &ValidationError{Field: "recipient_field", Message: "Recipient field is required"}
		}
	default:
		return &ValidationError{Field: "recipient_type", Message: "Recipient type must be form, custom or field"}
	}
	for _, c := range r.Conditions {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}
