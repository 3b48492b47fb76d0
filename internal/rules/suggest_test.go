package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alimgiray/formpilot/internal/models"
)

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("guestCount", "guest_count"))
	assert.Equal(t, 0.0, Similarity("", "status"))
	assert.Greater(t, Similarity("guestCnt", "guestCount"), 0.6)
	assert.Less(t, Similarity("venue", "phone"), 0.6)
	assert.LessOrEqual(t, Similarity("status", "statusCode"), 1.0)
}

func TestFieldIndex_Suggest(t *testing.T) {
	idx := NewFieldIndex([]*models.FormField{
		{ID: "row-1", StableID: "fld_guests", Label: "Guest Count"},
		{ID: "row-2", StableID: "fld_status", Label: "Booking Status"},
	})

	f, ok := idx.Suggest("guestCnt")
	require.True(t, ok)
	assert.Equal(t, "fld_guests", f.StableID)

	_, ok = idx.Suggest("zzz")
	assert.False(t, ok)

	var empty *FieldIndex
	_, ok = empty.Suggest("status")
	assert.False(t, ok)
}

func TestExplain_SuggestsClosestField(t *testing.T) {
	idx := NewFieldIndex([]*models.FormField{{ID: "row-1", StableID: "fld_guests", Label: "Guest Count"}})
	conditions := []models.Condition{{Field: "guestCnt", Operator: models.OperatorGreaterThan, Value: "10"}}

	result := Explain(conditions, DataContext{"fld_guests": "40"}, idx)
	assert.False(t, result.Matched)
	assert.Contains(t, result.Reason, `closest form field is "fld_guests" (Guest Count)`)

	known := []models.Condition{{Field: "fld_guests", Operator: models.OperatorGreaterThan, Value: "10"}}
	result = Explain(known, DataContext{}, idx)
	assert.NotContains(t, result.Reason, "closest")
}
