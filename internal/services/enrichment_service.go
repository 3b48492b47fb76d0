package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alimgiray/formpilot/internal/models"
	"github.com/alimgiray/formpilot/internal/rules"
	"github.com/alimgiray/formpilot/pkg/logger"
)

// Context keys added by enrichment
const (
	KeyFormID       = "formId"
	KeySubmissionID = "submissionId"
	KeyTimeStamp    = "timeStamp"
	KeyLeadID       = "leadId"
	KeyName         = "name"
	KeyEmail        = "email"
	KeyPhone        = "phone"
	KeyFirstName    = "firstName"
)

// Enrichment is the data context for one run plus anything that was
// skipped while building it
type Enrichment struct {
	Context  rules.DataContext
	Warnings []string
}

func (e *Enrichment) warn(format string, args ...interface{}) {
	e.Warnings = append(e.Warnings, fmt.Sprintf(format, args...))
}

// EnrichmentService builds the flattened data context rules run against
type EnrichmentService struct {
	submissions SubmissionStore
	leads       LeadStore
	timeout     time.Duration
	now         func() time.Time
}

// NewEnrichmentService creates a new enrichment service
func NewEnrichmentService(submissions SubmissionStore, leads LeadStore, timeout time.Duration) *EnrichmentService {
	return &EnrichmentService{
		submissions: submissions,
		leads:       leads,
		timeout:     timeout,
		now:         time.Now,
	}
}

// Enrich merges, in increasing precedence: the caller's payload, the stored
// submission payload, submission metadata, then the linked lead. Field
// aliases from idx are added without overwriting anything. Without a
// submission id only formId is added.
//
// A missing submission or lead and any timeout are recorded as warnings.
// Other errors reading the submission or lead are returned.
func (s *EnrichmentService) Enrich(ctx context.Context, formID, submissionID string, raw map[string]any, idx *rules.FieldIndex) (*Enrichment, error) {
	result := &Enrichment{Context: make(rules.DataContext, len(raw)+8)}
	for k, v := range raw {
		result.Context[k] = v
	}

	if submissionID == "" {
		result.Context[KeyFormID] = formID
		result.Context = idx.WithAliases(result.Context)
		return result, nil
	}

	submission, err := s.fetchSubmission(ctx, submissionID)
	switch {
	case err == nil:
		for k, v := range submission.Data {
			result.Context[k] = v
		}
	case errors.Is(err, models.ErrNotFound):
		result.warn("submission %s not found; using supplied payload", submissionID)
	case isTimeout(err):
		result.warn("submission %s lookup timed out; using supplied payload", submissionID)
	default:
		return nil, fmt.Errorf("failed to load submission %s: %w", submissionID, err)
	}

	result.Context[KeySubmissionID] = submissionID
	result.Context[KeyFormID] = formID
	result.Context[KeyTimeStamp] = s.timeStamp(submission)
	result.Context = idx.WithAliases(result.Context)

	if submission != nil && submission.LeadID != nil && *submission.LeadID != "" {
		if err := s.mergeLead(ctx, result, *submission.LeadID); err != nil {
			return nil, err
		}
	}

	for _, w := range result.Warnings {
		logger.WithFields(logrus.Fields{
			"form_id":       formID,
			"submission_id": submissionID,
		}).Warn(w)
	}
	return result, nil
}

func (s *EnrichmentService) fetchSubmission(ctx context.Context, id string) (*models.Submission, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return s.submissions.GetByID(ctx, id)
}

func (s *EnrichmentService) timeStamp(submission *models.Submission) string {
	if submission != nil && submission.TimeStamp != nil && !submission.TimeStamp.IsZero() {
		return submission.TimeStamp.UTC().Format(time.RFC3339)
	}
	return s.now().UTC().Format(time.RFC3339)
}

// mergeLead overlays lead values. Empty lead values leave payload values alone.
func (s *EnrichmentService) mergeLead(ctx context.Context, result *Enrichment, leadID string) error {
	lctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	lead, err := s.leads.GetByID(lctx, leadID)
	switch {
	case err == nil:
	case errors.Is(err, models.ErrNotFound):
		result.warn("lead %s not found", leadID)
		return nil
	case isTimeout(err):
		result.warn("lead %s lookup timed out", leadID)
		return nil
	default:
		return fmt.Errorf("failed to load lead %s: %w", leadID, err)
	}

	result.Context[KeyLeadID] = lead.ID
	setIfPresent(result.Context, KeyName, lead.Name)
	setIfPresent(result.Context, KeyEmail, lead.Email)
	setIfPresent(result.Context, KeyPhone, lead.Phone)
	if first := firstToken(lead.Name); first != "" {
		result.Context[KeyFirstName] = first
	}
	return nil
}

func setIfPresent(ctx rules.DataContext, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		ctx[key] = value
	}
}

func firstToken(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
