package models

import "errors"

// Common errors
var (
	ErrNotFound          = errors.New("record not found")
	ErrFormNotFound      = errors.New("form not found")
	ErrTemplateNotFound  = errors.New("email template not found")
	ErrInvalidConditions = errors.New("invalid rule conditions")
	ErrNoRecipient       = errors.New("no recipient address")

	ErrFormNameRequired     = &ValidationError{Field: "name", Message: "Form name is required"}
	ErrTemplateNameRequired = &ValidationError{Field: "name", Message: "Template name is required"}
	ErrRuleNameRequired     = &ValidationError{Field: "name", Message: "Rule name is required"}
	ErrRuleFormRequired     = &ValidationError{Field: "form_id", Message: "Rule form is required"}
	ErrRuleTemplateRequired = &ValidationError{Field: "template_id", Message: "Rule template is required"}
)

// ValidationError describes a single invalid input field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
