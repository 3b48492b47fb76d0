package services

import (
	"context"
	"testing"
	"time"

	"github.com/alimgiray/formpilot/internal/models"
	"github.com/alimgiray/formpilot/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEnricher(subs *fakeSubmissionStore, leads *fakeLeadStore) *EnrichmentService {
	s := NewEnrichmentService(subs, leads, time.Second)
	s.now = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) }
	return s
}

func TestEnrich_WithoutSubmissionAddsOnlyFormID(t *testing.T) {
	s := newTestEnricher(&fakeSubmissionStore{}, &fakeLeadStore{})

	result, err := s.Enrich(context.Background(), "form-1", "", map[string]any{"status": "new"}, nil)
	require.NoError(t, err)
	assert.Equal(t, rules.DataContext{"status": "new", "formId": "form-1"}, result.Context)
	assert.Empty(t, result.Warnings)
}

func TestEnrich_StoredPayloadWinsAndMetadataAdded(t *testing.T) {
	stamp := time.Date(2026, 2, 14, 18, 0, 0, 0, time.UTC)
	subs := &fakeSubmissionStore{submissions: map[string]*models.Submission{
		"s1": {ID: "s1", FormID: "form-1", Data: models.JSONMap{"status": "stored", "guests": float64(40)}, TimeStamp: &stamp},
	}}
	s := newTestEnricher(subs, &fakeLeadStore{})

	result, err := s.Enrich(context.Background(), "form-1", "s1", map[string]any{"status": "caller", "extra": "x"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "stored", result.Context["status"])
	assert.Equal(t, "x", result.Context["extra"])
	assert.Equal(t, float64(40), result.Context["guests"])
	assert.Equal(t, "s1", result.Context["submissionId"])
	assert.Equal(t, "form-1", result.Context["formId"])
	assert.Equal(t, "2026-02-14T18:00:00Z", result.Context["timeStamp"])
}

func TestEnrich_MissingTimestampDefaultsToNow(t *testing.T) {
	subs := &fakeSubmissionStore{submissions: map[string]*models.Submission{
		"s1": {ID: "s1", FormID: "form-1", Data: models.JSONMap{}},
	}}
	s := newTestEnricher(subs, &fakeLeadStore{})

	result, err := s.Enrich(context.Background(), "form-1", "s1", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01T09:30:00Z", result.Context["timeStamp"])
}

func TestEnrich_LeadOverridesPayload(t *testing.T) {
	leadID := "lead-1"
	subs := &fakeSubmissionStore{submissions: map[string]*models.Submission{
		"s1": {ID: "s1", FormID: "form-1", LeadID: &leadID, Data: models.JSONMap{
			"name": "typed name", "email": "typed@x.com", "phone": "111",
		}},
	}}
	leads := &fakeLeadStore{leads: map[string]*models.Lead{
		leadID: {ID: leadID, Name: "  Ana   Maria Ruiz ", Email: "ana@example.com", Phone: ""},
	}}
	s := newTestEnricher(subs, leads)

	result, err := s.Enrich(context.Background(), "form-1", "s1", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "lead-1", result.Context["leadId"])
	assert.Equal(t, "Ana   Maria Ruiz", result.Context["name"])
	assert.Equal(t, "Ana", result.Context["firstName"])
	assert.Equal(t, "ana@example.com", result.Context["email"])
	assert.Equal(t, "111", result.Context["phone"], "empty lead values keep the payload value")
}

func TestEnrich_LeadWithoutNameHasNoFirstName(t *testing.T) {
	leadID := "lead-1"
	subs := &fakeSubmissionStore{submissions: map[string]*models.Submission{
		"s1": {ID: "s1", FormID: "form-1", LeadID: &leadID, Data: models.JSONMap{}},
	}}
	leads := &fakeLeadStore{leads: map[string]*models.Lead{leadID: {ID: leadID, Email: "a@b.com"}}}
	s := newTestEnricher(subs, leads)

	result, err := s.Enrich(context.Background(), "form-1", "s1", nil, nil)
	require.NoError(t, err)
	assert.NotContains(t, result.Context, "firstName")
	assert.NotContains(t, result.Context, "name")
}

func TestEnrich_MissingRecordsAreWarnings(t *testing.T) {
	t.Run("submission", func(t *testing.T) {
		s := newTestEnricher(&fakeSubmissionStore{submissions: map[string]*models.Submission{}}, &fakeLeadStore{})
		result, err := s.Enrich(context.Background(), "form-1", "gone", map[string]any{"email": "c@d.com"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "c@d.com", result.Context["email"])
		assert.Equal(t, "gone", result.Context["submissionId"])
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], "not found")
	})

	t.Run("lead", func(t *testing.T) {
		leadID := "gone"
		subs := &fakeSubmissionStore{submissions: map[string]*models.Submission{
			"s1": {ID: "s1", FormID: "form-1", LeadID: &leadID, Data: models.JSONMap{"email": "c@d.com"}},
		}}
		s := newTestEnricher(subs, &fakeLeadStore{leads: map[string]*models.Lead{}})
		result, err := s.Enrich(context.Background(), "form-1", "s1", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "c@d.com", result.Context["email"])
		assert.NotContains(t, result.Context, "leadId")
		require.Len(t, result.Warnings, 1)
	})

	t.Run("lead timeout", func(t *testing.T) {
		leadID := "lead-1"
		subs := &fakeSubmissionStore{submissions: map[string]*models.Submission{
			"s1": {ID: "s1", FormID: "form-1", LeadID: &leadID, Data: models.JSONMap{"email": "c@d.com"}},
		}}
		s := newTestEnricher(subs, &fakeLeadStore{err: context.DeadlineExceeded})
		result, err := s.Enrich(context.Background(), "form-1", "s1", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "c@d.com", result.Context["email"])
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], "timed out")
	})

	t.Run("lead store failure aborts", func(t *testing.T) {
		leadID := "lead-1"
		subs := &fakeSubmissionStore{submissions: map[string]*models.Submission{
			"s1": {ID: "s1", FormID: "form-1", LeadID: &leadID, Data: models.JSONMap{"email": "c@d.com"}},
		}}
		s := newTestEnricher(subs, &fakeLeadStore{err: errDatabaseDown})
		result, err := s.Enrich(context.Background(), "form-1", "s1", nil, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, errDatabaseDown)
		assert.Nil(t, result)
	})
}

func TestEnrich_TimeoutIsWarning(t *testing.T) {
	s := newTestEnricher(&fakeSubmissionStore{err: context.DeadlineExceeded}, &fakeLeadStore{})
	result, err := s.Enrich(context.Background(), "form-1", "s1", map[string]any{"status": "new"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "new", result.Context["status"])
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "timed out")
}

func TestEnrich_AddsFieldAliases(t *testing.T) {
	subs := &fakeSubmissionStore{submissions: map[string]*models.Submission{
		"s1": {ID: "s1", FormID: "form-1", Data: models.JSONMap{"fld_guests": "120"}},
	}}
	idx := rules.NewFieldIndex([]*models.FormField{{ID: "row-1", StableID: "fld_guests", Label: "Guest Count"}})
	s := newTestEnricher(subs, &fakeLeadStore{})

	result, err := s.Enrich(context.Background(), "form-1", "s1", nil, idx)
	require.NoError(t, err)
	assert.Equal(t, "120", result.Context["guestCount"])
}
