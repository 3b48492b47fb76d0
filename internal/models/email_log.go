package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailLogStatus is the outcome of one send attempt
type EmailLogStatus string

const (
	EmailLogStatusSent   EmailLogStatus = "sent"
	EmailLogStatusFailed EmailLogStatus = "failed"
)

// EmailLog records one attempt to deliver a rule's email
type EmailLog struct {
	ID           string         `json:"id" db:"id"`
	FormID       string         `json:"form_id" db:"form_id"`
	RuleID       string         `json:"rule_id" db:"rule_id"`
	TemplateID   string         `json:"template_id" db:"template_id"`
	SubmissionID *string        `json:"submission_id" db:"submission_id"`
	Recipient    string         `json:"recipient" db:"recipient"`
	Subject      string         `json:"subject" db:"subject"`
	Status       EmailLogStatus `json:"status" db:"status"`
	ErrorMessage *string        `json:"error_message" db:"error_message"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
}

// NewEmailLog creates a new EmailLog with a generated UUID
func NewEmailLog(formID, ruleID, templateID string) *EmailLog {
	return &EmailLog{
		ID:         uuid.New().String(),
		FormID:     formID,
		RuleID:     ruleID,
		TemplateID: templateID,
		CreatedAt:  time.Now(),
	}
}

// MarkSent marks the attempt as delivered to the transport
func (l *EmailLog) MarkSent() {
	l.Status = EmailLogStatusSent
	l.ErrorMessage = nil
}

// MarkFailed marks the attempt as failed with a reason
func (l *EmailLog) MarkFailed(reason string) {
	l.Status = EmailLogStatusFailed
	l.ErrorMessage = &reason
}
