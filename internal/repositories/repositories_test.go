package repositories

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alimgiray/formpilot/internal/models"
	"github.com/alimgiray/formpilot/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupQueries(t *testing.T) *database.Queries {
	t.Helper()
	db, err := database.Open("sqlite://" + filepath.Join(t.TempDir(), "repo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.MigrateUp(db))
	q, err := database.LoadQueries(db)
	require.NoError(t, err)
	return q
}

func createForm(t *testing.T, repo *FormRepository) *models.Form {
	t.Helper()
	form := models.NewForm("Wedding Inquiry", "")
	require.NoError(t, repo.Create(context.Background(), form))
	return form
}

func TestFormRepository_ReplaceStructure(t *testing.T) {
	q := setupQueries(t)
	repo := NewFormRepository(q)
	ctx := context.Background()
	form := createForm(t, repo)

	now := time.Now()
	sections := []*models.FormSection{
		{
			ID: "sec-1", Title: "Contact", Position: 0, CreatedAt: now,
			Fields: []*models.FormField{
				{ID: "f-1", StableID: "fld_name", Label: "Full Name", Type: models.FieldTypeText, Position: 0, CreatedAt: now},
				{ID: "f-2", StableID: "fld_mail", Label: "Email", Type: models.FieldTypeEmail, Mapping: "email", Position: 1, CreatedAt: now},
			},
		},
		{
			ID: "sec-2", Title: "Event", Position: 1, CreatedAt: now,
			Fields: []*models.FormField{
				{ID: "f-3", StableID: "", Label: "Guests", Type: models.FieldTypeSelect, Position: 0, CreatedAt: now,
					Options: models.FieldOptions{{Value: "50", Label: "Up to 50"}}},
			},
		},
	}
	require.NoError(t, repo.ReplaceStructure(ctx, form.ID, sections))

	fields, err := repo.GetFields(ctx, form.ID)
	require.NoError(t, err)
	require.Len(t, fields, 3)
	assert.Equal(t, "fld_name", fields[0].StableID)
	assert.Equal(t, "email", fields[1].Mapping)
	assert.Equal(t, "Up to 50", fields[2].Options[0].Label)

	updated, err := repo.SetStableID(ctx, "f-3", "fld_guests")
	require.NoError(t, err)
	assert.True(t, updated)

	updated, err = repo.SetStableID(ctx, "f-3", "fld_other")
	require.NoError(t, err)
	assert.False(t, updated, "an existing stable id is never overwritten")

	// Saving again replaces rows
	sections[0].Fields = sections[0].Fields[:1]
	sections[0].ID, sections[0].Fields[0].ID = "sec-1b", "f-1b"
	require.NoError(t, repo.ReplaceStructure(ctx, form.ID, sections[:1]))

	got, err := repo.GetSections(ctx, form.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, got[0].Fields, 1)
	assert.Equal(t, "fld_name", got[0].Fields[0].StableID)
}

func TestFormRepository_NotFound(t *testing.T) {
	q := setupQueries(t)
	repo := NewFormRepository(q)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrFormNotFound)
	assert.ErrorIs(t, repo.Delete(context.Background(), "missing"), models.ErrFormNotFound)
}

func TestEmailRuleRepository_ActiveRulesWithTemplate(t *testing.T) {
	q := setupQueries(t)
	ctx := context.Background()
	form := createForm(t, NewFormRepository(q))

	templates := NewEmailTemplateRepository(q)
	tpl := models.NewEmailTemplate("Welcome", "Hi {{firstName}}", "<p>Thanks</p>")
	tpl.CC = models.StringList{"team@studio.com"}
	require.NoError(t, templates.Create(ctx, tpl))

	rules := NewEmailRuleRepository(q)
	base := time.Now().Add(-time.Hour)

	first := models.NewEmailRule("First", form.ID, tpl.ID)
	first.ConditionsRaw = `[{"field":"status","operator":"equals","value":"confirmed"}]`
	first.CreatedAt = base
	require.NoError(t, rules.Create(ctx, first))

	orphan := models.NewEmailRule("Orphan", form.ID, "deleted-template")
	orphan.CreatedAt = base.Add(time.Minute)
	require.NoError(t, rules.Create(ctx, orphan))

	inactive := models.NewEmailRule("Inactive", form.ID, tpl.ID)
	inactive.Active = false
	inactive.CreatedAt = base.Add(2 * time.Minute)
	require.NoError(t, rules.Create(ctx, inactive))

	active, err := rules.GetActiveRulesForForm(ctx, form.ID)
	require.NoError(t, err)
	require.Len(t, active, 2)

	assert.Equal(t, "First", active[0].Name)
	require.NotNil(t, active[0].Template)
	assert.Equal(t, "Hi {{firstName}}", active[0].Template.Subject)
	assert.Equal(t, models.StringList{"team@studio.com"}, active[0].Template.CC)
	assert.True(t, active[0].HasConditions())

	assert.Equal(t, "Orphan", active[1].Name)
	assert.Nil(t, active[1].Template)

	all, err := rules.GetByFormID(ctx, form.ID)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestJobRepository_ClaimLifecycle(t *testing.T) {
	q := setupQueries(t)
	ctx := context.Background()
	repo := NewJobRepository(q)

	older := models.NewJob("form-1", models.JobTypeEmailRules)
	older.CreatedAt = time.Now().Add(-time.Minute)
	newer := models.NewJob("form-1", models.JobTypeEmailRules)
	require.NoError(t, repo.Create(ctx, newer))
	require.NoError(t, repo.Create(ctx, older))

	claimed, err := repo.GetNextPendingJob(ctx, models.JobTypeEmailRules, "worker-1")
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, older.ID, claimed.ID)
	assert.Equal(t, models.JobStatusInProgress, claimed.Status)

	stored, err := repo.GetByID(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusInProgress, stored.Status)
	require.NotNil(t, stored.WorkerID)
	assert.Equal(t, "worker-1", *stored.WorkerID)

	claimed.MarkCompleted(`{"processed_rule_count":1}`)
	require.NoError(t, repo.Update(ctx, claimed))

	second, err := repo.GetNextPendingJob(ctx, models.JobTypeEmailRules, "worker-1")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, newer.ID, second.ID)

	n, err := repo.ResetInProgress(ctx, models.JobTypeEmailRules)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	again, err := repo.GetNextPendingJob(ctx, models.JobTypeEmailRules, "worker-2")
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, newer.ID, again.ID)

	none, err := repo.GetNextPendingJob(ctx, models.JobTypeEmailRules, "worker-2")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestEmailLogRepository_Filter(t *testing.T) {
	q := setupQueries(t)
	ctx := context.Background()
	repo := NewEmailLogRepository(q)

	sent := models.NewEmailLog("form-1", "rule-1", "tpl-1")
	sent.Recipient = "a@b.com"
	sent.MarkSent()
	require.NoError(t, repo.Create(ctx, sent))

	failed := models.NewEmailLog("form-1", "rule-2", "tpl-1")
	failed.MarkFailed("no recipient address")
	require.NoError(t, repo.Create(ctx, failed))

	other := models.NewEmailLog("form-2", "rule-3", "tpl-1")
	other.MarkSent()
	require.NoError(t, repo.Create(ctx, other))

	all, err := repo.List(ctx, EmailLogFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byForm, err := repo.List(ctx, EmailLogFilter{FormID: "form-1"})
	require.NoError(t, err)
	assert.Len(t, byForm, 2)

	byRule, err := repo.List(ctx, EmailLogFilter{FormID: "form-1", RuleID: "rule-2"})
	require.NoError(t, err)
	require.Len(t, byRule, 1)
	assert.Equal(t, models.EmailLogStatusFailed, byRule[0].Status)
	require.NotNil(t, byRule[0].ErrorMessage)
	assert.Equal(t, "no recipient address", *byRule[0].ErrorMessage)
}

func TestSubmissionAndLeadRepository(t *testing.T) {
	q := setupQueries(t)
	ctx := context.Background()
	form := createForm(t, NewFormRepository(q))

	leads := NewLeadRepository(q)
	lead := models.NewLead("Ana Ruiz", "Ana@Example.com", "555")
	require.NoError(t, leads.Create(ctx, lead))

	found, err := leads.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, lead.ID, found.ID)

	submissions := NewSubmissionRepository(q)
	sub := models.NewSubmission(form.ID, map[string]any{"guests": float64(80), "status": "new"}, &lead.ID)
	require.NoError(t, submissions.Create(ctx, sub))

	got, err := submissions.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(80), got.Data["guests"])
	require.NotNil(t, got.LeadID)
	assert.Equal(t, lead.ID, *got.LeadID)
	require.NotNil(t, got.TimeStamp)

	_, err = submissions.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
