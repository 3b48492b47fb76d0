package rules

import (
	"testing"

	"github.com/alimgiray/formpilot/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestResolveRecipient(t *testing.T) {
	idx := NewFieldIndex([]*models.FormField{
		{ID: "row-9", StableID: "fld_planner", Label: "Planner Email", Type: models.FieldTypeEmail},
	})

	testCases := []struct {
		name      string
		rule      models.EmailRule
		ctx       DataContext
		expected  string
		expectHit bool
	}{
		{
			name:      "Form submitter",
			rule:      models.EmailRule{RecipientType: models.RecipientTypeForm},
			ctx:       DataContext{"email": "c@d.com"},
			expected:  "c@d.com",
			expectHit: true,
		},
		{
			name:      "Empty type defaults to form",
			rule:      models.EmailRule{},
			ctx:       DataContext{"email": " c@d.com "},
			expected:  "c@d.com",
			expectHit: true,
		},
		{
			name:      "Custom address verbatim",
			rule:      models.EmailRule{RecipientType: models.RecipientTypeCustom, RecipientEmail: "owner@studio.com"},
			ctx:       DataContext{"email": "c@d.com"},
			expected:  "owner@studio.com",
			expectHit: true,
		},
		{
			name:      "Custom without address",
			rule:      models.EmailRule{RecipientType: models.RecipientTypeCustom},
			ctx:       DataContext{"email": "c@d.com"},
			expectHit: false,
		},
		{
			name:      "Field present",
			rule:      models.EmailRule{RecipientType: models.RecipientTypeField, RecipientField: "notifyEmail"},
			ctx:       DataContext{"notifyEmail": "n@x.com", "email": "a@b.com"},
			expected:  "n@x.com",
			expectHit: true,
		},
		{
			name:      "Field missing falls back to submitter",
			rule:      models.EmailRule{RecipientType: models.RecipientTypeField, RecipientField: "notifyEmail"},
			ctx:       DataContext{"email": "a@b.com"},
			expected:  "a@b.com",
			expectHit: true,
		},
		{
			name:      "Field referenced by stable id",
			rule:      models.EmailRule{RecipientType: models.RecipientTypeField, RecipientField: "fld_planner"},
			ctx:       DataContext{"plannerEmail": "p@x.com", "email": "a@b.com"},
			expected:  "p@x.com",
			expectHit: true,
		},
		{
			name:      "Field blank falls back to submitter",
			rule:      models.EmailRule{RecipientType: models.RecipientTypeField, RecipientField: "notifyEmail"},
			ctx:       DataContext{"notifyEmail": "  ", "email": "a@b.com"},
			expected:  "a@b.com",
			expectHit: true,
		},
		{
			name:      "Nothing usable",
			rule:      models.EmailRule{RecipientType: models.RecipientTypeField, RecipientField: "notifyEmail"},
			ctx:       DataContext{"name": "Ana"},
			expectHit: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rule := tc.rule
			addr, ok := ResolveRecipient(&rule, tc.ctx, idx)
			assert.Equal(t, tc.expectHit, ok)
			if tc.expectHit {
				assert.Equal(t, tc.expected, addr)
			}
		})
	}
}
