package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alimgiray/formpilot/internal/models"
	"github.com/alimgiray/formpilot/internal/repositories"
	"github.com/alimgiray/formpilot/pkg/logger"
)

// SubmissionService stores submissions and hands rule processing to the
// job queue
type SubmissionService struct {
	submissionRepo *repositories.SubmissionRepository
	leadRepo       *repositories.LeadRepository
	formRepo       *repositories.FormRepository
	jobService     *JobService
	timeout        time.Duration
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(submissionRepo *repositories.SubmissionRepository, leadRepo *repositories.LeadRepository, formRepo *repositories.FormRepository, jobService *JobService, timeout time.Duration) *SubmissionService {
	return &SubmissionService{
		submissionRepo: submissionRepo,
		leadRepo:       leadRepo,
		formRepo:       formRepo,
		jobService:     jobService,
		timeout:        timeout,
	}
}

// CreateSubmission persists a submission and enqueues an email-rules job
// for it. The job is nil when it could not be enqueued; the submission is
// still stored and returned.
//
// Without an explicit lead, a lead is found or created from the payload's
// email, name and phone keys.
func (s *SubmissionService) CreateSubmission(ctx context.Context, formID string, payload map[string]any, leadID *string) (*models.Submission, *models.Job, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.formRepo.GetByID(ctx, formID); err != nil {
		return nil, nil, err
	}
	if payload == nil {
		payload = map[string]any{}
	}

	if leadID == nil || *leadID == "" {
		leadID = s.matchLead(ctx, payload)
	}

	submission := models.NewSubmission(formID, payload, leadID)
	if err := s.submissionRepo.Create(ctx, submission); err != nil {
		return nil, nil, fmt.Errorf("failed to store submission: %w", err)
	}

	job, err := s.jobService.EnqueueEmailRules(ctx, formID, submission.ID)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"form_id":       formID,
			"submission_id": submission.ID,
			"error":         err.Error(),
		}).Error("Failed to enqueue email rules job")
		return submission, nil, nil
	}

	return submission, job, nil
}

// GetSubmission retrieves a submission by ID
func (s *SubmissionService) GetSubmission(ctx context.Context, id string) (*models.Submission, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return s.submissionRepo.GetByID(ctx, id)
}

// ListSubmissions retrieves the submissions of a form
func (s *SubmissionService) ListSubmissions(ctx context.Context, formID string) ([]*models.Submission, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return s.submissionRepo.GetByFormID(ctx, formID)
}

// matchLead returns the id of the lead for the payload's email, creating
// one when needed. Lead problems never block the submission.
func (s *SubmissionService) matchLead(ctx context.Context, payload map[string]any) *string {
	address := payloadString(payload, KeyEmail)
	if address == "" {
		return nil
	}

	lead, err := s.leadRepo.GetByEmail(ctx, address)
	if err == nil {
		return &lead.ID
	}
	if !errors.Is(err, models.ErrNotFound) {
		logger.WithError(err).Warn("Lead lookup failed; storing submission without lead")
		return nil
	}

	lead = models.NewLead(payloadString(payload, KeyName), address, payloadString(payload, KeyPhone))
	if err := s.leadRepo.Create(ctx, lead); err != nil {
		logger.WithError(err).Warn("Lead creation failed; storing submission without lead")
		return nil
	}
	return &lead.ID
}

func payloadString(payload map[string]any, key string) string {
	if s, ok := payload[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}
