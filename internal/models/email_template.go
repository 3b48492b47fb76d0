package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// EmailTemplate holds a subject and body with {{name}} placeholders
type EmailTemplate struct {
	ID        string     `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Subject   string     `json:"subject" db:"subject"`
	Body      string     `json:"body" db:"body"`
	CC        StringList `json:"cc" db:"cc"`
	BCC       StringList `json:"bcc" db:"bcc"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// NewEmailTemplate creates a new EmailTemplate with a generated UUID
func NewEmailTemplate(name, subject, body string) *EmailTemplate {
	now := time.Now()
	return &EmailTemplate{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(name),
		Subject:   subject,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (t *EmailTemplate) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrTemplateNameRequired
	}
	return nil
}
