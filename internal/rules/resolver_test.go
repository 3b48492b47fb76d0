package rules

import (
	"testing"

	"github.com/alimgiray/formpilot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelKey(t *testing.T) {
	testCases := []struct {
		label    string
		expected string
	}{
		{"First Name", "firstName"},
		{"first name", "firstName"},
		{"Nombre Completo", "nombreCompleto"},
		{"Número de invitados", "numeroDeInvitados"},
		{"E-mail address", "eMailAddress"},
		{"  Venue  ", "venue"},
		{"Guests (2024)", "guests2024"},
		{"", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.label, func(t *testing.T) {
			assert.Equal(t, tc.expected, LabelKey(tc.label))
		})
	}
}

func TestFieldIndex_Lookup(t *testing.T) {
	idx := NewFieldIndex([]*models.FormField{
		{ID: "row-1", StableID: "fld_1", Label: "Full Name", Mapping: "name"},
		{ID: "row-2", StableID: "", Label: "Phone Number", Mapping: "phone"},
		nil,
	})

	require.Len(t, idx.Fields(), 2)

	field, ok := idx.Lookup("fld_1")
	require.True(t, ok)
	assert.Equal(t, "row-1", field.EphemeralID)

	field, ok = idx.Lookup("row-1")
	require.True(t, ok)
	assert.Equal(t, "fld_1", field.StableID)

	field, ok = idx.Lookup("NAME")
	require.True(t, ok)
	assert.Equal(t, "fld_1", field.StableID)

	field, ok = idx.Lookup("fullName")
	require.True(t, ok)
	assert.Equal(t, "fld_1", field.StableID)

	// Legacy field without a stable id uses its row id
	field, ok = idx.Lookup("row-2")
	require.True(t, ok)
	assert.Equal(t, "row-2", field.StableID)

	_, ok = idx.Lookup("unknown")
	assert.False(t, ok)

	var empty *FieldIndex
	_, ok = empty.Lookup("fld_1")
	assert.False(t, ok)
}

func TestFieldIndex_ContextKeyStrategyOrder(t *testing.T) {
	idx := NewFieldIndex([]*models.FormField{
		{ID: "row-1", StableID: "fld_1", Label: "Full Name", Mapping: "name"},
	})

	// The reference itself wins when present
	key, ok := idx.ContextKey("fld_1", DataContext{"fld_1": "A", "name": "B"})
	require.True(t, ok)
	assert.Equal(t, "fld_1", key)

	// Old rules store the row id while data is keyed by stable id
	key, ok = idx.ContextKey("row-1", DataContext{"fld_1": "A"})
	require.True(t, ok)
	assert.Equal(t, "fld_1", key)

	// Mapping before label key
	key, ok = idx.ContextKey("fld_1", DataContext{"name": "B", "fullName": "C"})
	require.True(t, ok)
	assert.Equal(t, "name", key)

	key, ok = idx.ContextKey("fld_1", DataContext{"fullName": "C"})
	require.True(t, ok)
	assert.Equal(t, "fullName", key)

	_, ok = idx.ContextKey("fld_1", DataContext{"other": "x"})
	assert.False(t, ok)

	_, ok = idx.ContextKey("  ", DataContext{"": "x"})
	assert.False(t, ok)
}

func TestFieldIndex_WithAliases(t *testing.T) {
	idx := NewFieldIndex([]*models.FormField{
		{ID: "row-1", StableID: "fld_name", Label: "Full Name", Mapping: "name"},
		{ID: "row-2", StableID: "fld_guests", Label: "Number of Guests"},
		{ID: "row-3", StableID: "fld_venue", Label: "Venue"},
	})

	ctx := DataContext{
		"fld_name":  "Ana Ruiz",
		"row-2":     float64(80),
		"venue":     "kept",
		"fld_venue": "Old Mill",
	}
	out := idx.WithAliases(ctx)

	assert.Equal(t, "Ana Ruiz", out["name"])
	assert.Equal(t, "Ana Ruiz", out["fullName"])
	assert.Equal(t, float64(80), out["numberOfGuests"])
	assert.Equal(t, "kept", out["venue"], "existing keys win")
	assert.NotContains(t, ctx, "name", "input is not modified")
}
