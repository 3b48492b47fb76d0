package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// FieldType is the semantic type of a form field
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeEmail    FieldType = "email"
	FieldTypeTel      FieldType = "tel"
	FieldTypeNumber   FieldType = "number"
	FieldTypeDate     FieldType = "date"
	FieldTypeSelect   FieldType = "select"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeRadio    FieldType = "radio"
)

// Form is an authored form made of ordered sections
type Form struct {
	ID          string         `json:"id" db:"id"`
	Name        string         `json:"name" db:"name"`
	Slug        string         `json:"slug" db:"slug"`
	Description string         `json:"description" db:"description"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
	Sections    []*FormSection `json:"sections,omitempty" db:"-"`
}

// FormSection groups fields on a form
type FormSection struct {
	ID        string       `json:"id" db:"id"`
	FormID    string       `json:"form_id" db:"form_id"`
	Title     string       `json:"title" db:"title"`
	Position  int          `json:"position" db:"position"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	Fields    []*FormField `json:"fields,omitempty" db:"-"`
}

// FormField is a single input. ID is the row id and changes every time the
// form is saved; StableID survives recreation and is what rules should store.
type FormField struct {
	ID        string       `json:"id" db:"id"`
	StableID  string       `json:"stable_id" db:"stable_id"`
	FormID    string       `json:"form_id" db:"form_id"`
	SectionID string       `json:"section_id" db:"section_id"`
	Label     string       `json:"label" db:"label"`
	Type      FieldType    `json:"type" db:"type"`
	Options   FieldOptions `json:"options" db:"options"`
	Mapping   string       `json:"mapping" db:"mapping"`
	Position  int          `json:"position" db:"position"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}

// NewForm creates a new Form with a generated UUID
func NewForm(name, description string) *Form {
	now := time.Now()
	return &Form{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(name),
		Slug:        Slugify(name),
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (f *Form) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return ErrFormNameRequired
	}
	return nil
}

// NewStableID returns a fresh stable field identifier
func NewStableID() string {
	return "fld_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}

// Slugify lowercases s and joins its alphanumeric runs with dashes
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteRune('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
