package services

import (
	"context"
	"errors"
	"sync"

	"github.com/alimgiray/formpilot/internal/email"
	"github.com/alimgiray/formpilot/internal/models"
	"github.com/alimgiray/formpilot/internal/rules"
)

type fakeRuleStore struct {
	rules []*models.EmailRule
	err   error
}

func (f *fakeRuleStore) GetActiveRulesForForm(ctx context.Context, formID string) ([]*models.EmailRule, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.EmailRule
	for _, r := range f.rules {
		if r.FormID == formID && r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeFieldStore struct {
	fields []*models.FormField
	err    error
}

func (f *fakeFieldStore) GetResolvedFields(ctx context.Context, formID string) (*rules.FieldIndex, error) {
	if f.err != nil {
		return nil, f.err
	}
	return rules.NewFieldIndex(f.fields), nil
}

type fakeSubmissionStore struct {
	submissions map[string]*models.Submission
	err         error
}

func (f *fakeSubmissionStore) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	if f.err != nil {
		return nil, f.err
	}
	if s, ok := f.submissions[id]; ok {
		return s, nil
	}
	return nil, models.ErrNotFound
}

type fakeLeadStore struct {
	leads map[string]*models.Lead
	err   error
}

func (f *fakeLeadStore) GetByID(ctx context.Context, id string) (*models.Lead, error) {
	if f.err != nil {
		return nil, f.err
	}
	if l, ok := f.leads[id]; ok {
		return l, nil
	}
	return nil, models.ErrNotFound
}

type fakeLogStore struct {
	mu   sync.Mutex
	logs []*models.EmailLog
	err  error
}

func (f *fakeLogStore) Create(ctx context.Context, l *models.EmailLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.logs = append(f.logs, l)
	return nil
}

type fakeSender struct {
	mu   sync.Mutex
	sent []email.Message
	fail map[string]error
}

func (f *fakeSender) Send(ctx context.Context, msg email.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.fail[msg.To[0]]; ok {
		return err
	}
	f.sent = append(f.sent, msg)
	return nil
}

var errDatabaseDown = errors.New("database is down")

func newTemplate(subject, body string) *models.TemplateSummary {
	return &models.TemplateSummary{ID: "tpl-1", Name: "Default", Subject: subject, Body: body}
}

func newRule(id, conditions string) *models.EmailRule {
	rule := models.NewEmailRule("Rule "+id, "form-1", "tpl-1")
	rule.ID = id
	rule.ConditionsRaw = conditions
	rule.Template = newTemplate("Hello {{firstName}}", "<p>Status: {{status}}</p>")
	return rule
}
