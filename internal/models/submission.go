package models

import (
	"time"

	"github.com/google/uuid"
)

// Submission is a stored form submission
type Submission struct {
	ID        string     `json:"id" db:"id"`
	FormID    string     `json:"form_id" db:"form_id"`
	LeadID    *string    `json:"lead_id" db:"lead_id"`
	Data      JSONMap    `json:"data" db:"data"`
	TimeStamp *time.Time `json:"time_stamp" db:"time_stamp"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// NewSubmission creates a new Submission with a generated UUID
func NewSubmission(formID string, data map[string]any, leadID *string) *Submission {
	now := time.Now().UTC()
	return &Submission{
		ID:        uuid.New().String(),
		FormID:    formID,
		LeadID:    leadID,
		Data:      JSONMap(data),
		TimeStamp: &now,
		CreatedAt: now,
	}
}

// Lead is a contact linked to submissions
type Lead struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Phone     string    `json:"phone" db:"phone"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewLead creates a new Lead with a generated UUID
func NewLead(name, email, phone string) *Lead {
	now := time.Now()
	return &Lead{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
