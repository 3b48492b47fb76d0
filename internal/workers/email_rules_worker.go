package workers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alimgiray/formpilot/internal/models"
	"github.com/alimgiray/formpilot/internal/services"
	"github.com/alimgiray/formpilot/pkg/logger"
)

// JobQueue is the part of the job service a worker needs
type JobQueue interface {
	GetNextPendingJob(ctx context.Context, jobType models.JobType, workerID string) (*models.Job, error)
	CompleteJob(ctx context.Context, job *models.Job, result string) error
	FailJob(ctx context.Context, job *models.Job, message string) error
}

// RuleProcessor runs a form's email rules against one submission
type RuleProcessor interface {
	ProcessEmailRules(ctx context.Context, formID, submissionID string, raw map[string]any) (*services.ProcessResult, error)
}

const errorBackoff = 5 * time.Second

// EmailRulesWorker runs queued email-rules jobs
type EmailRulesWorker struct {
	*BaseWorker
	jobs         JobQueue
	processor    RuleProcessor
	pollInterval time.Duration
}

// NewEmailRulesWorker creates a new email rules worker
func NewEmailRulesWorker(workerID string, jobs JobQueue, processor RuleProcessor, pollInterval time.Duration) *EmailRulesWorker {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &EmailRulesWorker{
		BaseWorker:   NewBaseWorker(workerID, models.JobTypeEmailRules),
		jobs:         jobs,
		processor:    processor,
		pollInterval: pollInterval,
	}
}

// Start begins the email rules worker process
func (w *EmailRulesWorker) Start(ctx context.Context) error {
	w.setRunning(true)
	defer w.setRunning(false)
	logger.WithField("worker_id", w.WorkerID).Info("Email rules worker started")

	for {
		select {
		case <-ctx.Done():
			logger.WithField("worker_id", w.WorkerID).Info("Email rules worker stopping due to context cancellation")
			return ctx.Err()
		case <-w.StopChan:
			logger.WithField("worker_id", w.WorkerID).Info("Email rules worker stopping")
			return nil
		default:
		}

		job, err := w.jobs.GetNextPendingJob(ctx, models.JobTypeEmailRules, w.WorkerID)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"worker_id": w.WorkerID,
				"error":     err.Error(),
			}).Error("Error getting job")
			w.wait(ctx, errorBackoff)
			continue
		}

		if job == nil {
			w.wait(ctx, w.pollInterval)
			continue
		}

		w.processJob(ctx, job)
	}
}

// processJob runs the rules for the job's submission and records the result
func (w *EmailRulesWorker) processJob(ctx context.Context, job *models.Job) {
	fields := logrus.Fields{
		"worker_id": w.WorkerID,
		"job_id":    job.ID,
		"form_id":   job.FormID,
	}
	logger.WithFields(fields).Info("Processing email rules job")

	submissionID := ""
	if job.SubmissionID != nil {
		submissionID = *job.SubmissionID
	}

	result, err := w.processor.ProcessEmailRules(ctx, job.FormID, submissionID, nil)

	// Status writes outlive ctx so a cancelled run is still recorded
	statusCtx := context.WithoutCancel(ctx)
	if err != nil {
		logger.WithFields(fields).WithError(err).Error("Email rules job failed")
		if ferr := w.jobs.FailJob(statusCtx, job, err.Error()); ferr != nil {
			logger.WithFields(fields).WithError(ferr).Error("Error marking job failed")
		}
		return
	}

	summary, err := json.Marshal(result)
	if err != nil {
		summary = []byte("{}")
	}
	if err := w.jobs.CompleteJob(statusCtx, job, string(summary)); err != nil {
		logger.WithFields(fields).WithError(err).Error("Error completing job")
		return
	}

	logger.WithFields(fields).WithFields(logrus.Fields{
		"processed_rule_count": result.ProcessedRuleCount,
		"queued_email_count":   result.QueuedEmailCount,
	}).Info("Email rules job completed")
}
