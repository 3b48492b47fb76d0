package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alimgiray/formpilot/internal/email"
	"github.com/alimgiray/formpilot/internal/models"
	"github.com/alimgiray/formpilot/internal/rules"
	"github.com/alimgiray/formpilot/pkg/logger"
)

// RuleOutcome is what happened to one rule during a run
type RuleOutcome string

const (
	OutcomeSent              RuleOutcome = "sent"
	OutcomeMatched           RuleOutcome = "matched"
	OutcomeNoMatch           RuleOutcome = "no_match"
	OutcomeNoConditions      RuleOutcome = "no_conditions"
	OutcomeInvalidConditions RuleOutcome = "invalid_conditions"
	OutcomeNoRecipient       RuleOutcome = "no_recipient"
	OutcomeTemplateMissing   RuleOutcome = "template_missing"
	OutcomeSendFailed        RuleOutcome = "send_failed"
)

// RuleLog is the per-rule record returned from a run
type RuleLog struct {
	RuleID    string      `json:"rule_id"`
	RuleName  string      `json:"rule_name"`
	Outcome   RuleOutcome `json:"outcome"`
	Recipient string      `json:"recipient,omitempty"`
	Subject   string      `json:"subject,omitempty"`
	Reason    string      `json:"reason,omitempty"`
}

// ProcessResult summarizes one run. QueuedEmailCount counts messages the
// transport accepted (or, on a dry run, messages that would be sent).
type ProcessResult struct {
	ProcessedRuleCount int       `json:"processed_rule_count"`
	QueuedEmailCount   int       `json:"queued_email_count"`
	RuleLogs           []RuleLog `json:"rule_logs"`
	Warnings           []string  `json:"warnings,omitempty"`
	DryRun             bool      `json:"dry_run,omitempty"`
}

// EmailRulePipeline turns a submission into zero or more sent emails
type EmailRulePipeline struct {
	rules            RuleStore
	fields           FieldStore
	enricher         *EnrichmentService
	logs             EmailLogStore
	sender           email.Sender
	from             string
	persistTimeout   time.Duration
	transportTimeout time.Duration
}

// PipelineConfig carries the sender address and per-call timeouts
type PipelineConfig struct {
	From               string
	PersistenceTimeout time.Duration
	TransportTimeout   time.Duration
}

// NewEmailRulePipeline creates a new pipeline
func NewEmailRulePipeline(ruleStore RuleStore, fieldStore FieldStore, enricher *EnrichmentService, logStore EmailLogStore, sender email.Sender, cfg PipelineConfig) *EmailRulePipeline {
	return &EmailRulePipeline{
		rules:            ruleStore,
		fields:           fieldStore,
		enricher:         enricher,
		logs:             logStore,
		sender:           sender,
		from:             cfg.From,
		persistTimeout:   cfg.PersistenceTimeout,
		transportTimeout: cfg.TransportTimeout,
	}
}

// ProcessEmailRules evaluates every active rule of a form against a
// submission and sends the emails that match. It only fails when the form
// fields, the submission or the rule set cannot be loaded; every per-rule
// problem is reported in the result instead.
func (p *EmailRulePipeline) ProcessEmailRules(ctx context.Context, formID, submissionID string, raw map[string]any) (*ProcessResult, error) {
	return p.run(ctx, formID, submissionID, raw, false)
}

// DryRun evaluates and renders like ProcessEmailRules without sending
// anything or writing email logs.
func (p *EmailRulePipeline) DryRun(ctx context.Context, formID string, raw map[string]any) (*ProcessResult, error) {
	return p.run(ctx, formID, "", raw, true)
}

func (p *EmailRulePipeline) run(ctx context.Context, formID, submissionID string, raw map[string]any, dryRun bool) (*ProcessResult, error) {
	idx, err := p.loadFields(ctx, formID)
	if err != nil {
		return nil, err
	}

	enrichment, err := p.enricher.Enrich(ctx, formID, submissionID, raw, idx)
	if err != nil {
		return nil, err
	}

	active, err := p.loadRules(ctx, formID)
	if err != nil {
		return nil, err
	}

	result := &ProcessResult{
		RuleLogs: make([]RuleLog, 0, len(active)),
		Warnings: enrichment.Warnings,
		DryRun:   dryRun,
	}

	for _, rule := range rules.OrderRules(active) {
		entry := p.processRule(ctx, rule, submissionID, enrichment.Context, idx, dryRun)
		result.ProcessedRuleCount++
		if entry.Outcome == OutcomeSent || entry.Outcome == OutcomeMatched {
			result.QueuedEmailCount++
		}
		result.RuleLogs = append(result.RuleLogs, entry)

		logger.WithFields(logrus.Fields{
			"form_id":       formID,
			"submission_id": submissionID,
			"rule_id":       entry.RuleID,
			"outcome":       entry.Outcome,
			"recipient":     entry.Recipient,
			"dry_run":       dryRun,
		}).Info(ruleLogMessage(entry))
	}

	return result, nil
}

func (p *EmailRulePipeline) loadFields(ctx context.Context, formID string) (*rules.FieldIndex, error) {
	ctx, cancel := withTimeout(ctx, p.persistTimeout)
	defer cancel()

	idx, err := p.fields.GetResolvedFields(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("failed to load form fields: %w", err)
	}
	return idx, nil
}

func (p *EmailRulePipeline) loadRules(ctx context.Context, formID string) ([]*models.EmailRule, error) {
	ctx, cancel := withTimeout(ctx, p.persistTimeout)
	defer cancel()

	active, err := p.rules.GetActiveRulesForForm(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("failed to load email rules: %w", err)
	}
	return active, nil
}

func (p *EmailRulePipeline) processRule(ctx context.Context, rule *models.EmailRule, submissionID string, data rules.DataContext, idx *rules.FieldIndex, dryRun bool) RuleLog {
	entry := RuleLog{RuleID: rule.ID, RuleName: rule.Name}

	conditions, err := models.ParseConditions(rule.ConditionsRaw)
	if err != nil {
		entry.Outcome = OutcomeInvalidConditions
		entry.Reason = err.Error()
		return entry
	}
	if len(conditions) == 0 {
		entry.Outcome = OutcomeNoConditions
		entry.Reason = "rule has no conditions and never fires"
		return entry
	}

	evaluation := rules.Explain(conditions, data, idx)
	if !evaluation.Matched {
		entry.Outcome = OutcomeNoMatch
		entry.Reason = evaluation.Reason
		return entry
	}

	// Matched: from here on every outcome is a send attempt and is logged
	attempt := models.NewEmailLog(rule.FormID, rule.ID, rule.TemplateID)
	if submissionID != "" {
		attempt.SubmissionID = &submissionID
	}

	if rule.Template == nil {
		entry.Outcome = OutcomeTemplateMissing
		entry.Reason = models.ErrTemplateNotFound.Error()
		p.recordAttempt(ctx, attempt, entry, dryRun)
		return entry
	}

	entry.Subject = rules.Render(rule.Template.Subject, data)
	attempt.Subject = entry.Subject

	recipient, ok := rules.ResolveRecipient(rule, data, idx)
	if !ok {
		entry.Outcome = OutcomeNoRecipient
		entry.Reason = models.ErrNoRecipient.Error()
		p.recordAttempt(ctx, attempt, entry, dryRun)
		return entry
	}
	entry.Recipient = recipient
	attempt.Recipient = recipient

	if dryRun {
		entry.Outcome = OutcomeMatched
		return entry
	}

	msg := email.Message{
		From:    p.from,
		To:      []string{recipient},
		CC:      mergeAddresses(rule.CC, rule.Template.CC),
		BCC:     mergeAddresses(rule.BCC, rule.Template.BCC),
		Subject: entry.Subject,
		HTML:    rules.RenderHTML(rule.Template.Body, data),
	}

	if err := p.send(ctx, msg); err != nil {
		entry.Outcome = OutcomeSendFailed
		entry.Reason = err.Error()
	} else {
		entry.Outcome = OutcomeSent
	}
	p.recordAttempt(ctx, attempt, entry, dryRun)
	return entry
}

func (p *EmailRulePipeline) send(ctx context.Context, msg email.Message) error {
	ctx, cancel := withTimeout(ctx, p.transportTimeout)
	defer cancel()
	return p.sender.Send(ctx, msg)
}

// recordAttempt persists the email log for a matched rule. A failed write
// is logged and does not change the rule's outcome.
func (p *EmailRulePipeline) recordAttempt(ctx context.Context, attempt *models.EmailLog, entry RuleLog, dryRun bool) {
	if dryRun {
		return
	}
	if entry.Outcome == OutcomeSent {
		attempt.MarkSent()
	} else {
		attempt.MarkFailed(entry.Reason)
	}

	ctx, cancel := withTimeout(ctx, p.persistTimeout)
	defer cancel()
	if err := p.logs.Create(ctx, attempt); err != nil {
		logger.WithFields(logrus.Fields{
			"rule_id": entry.RuleID,
			"error":   err.Error(),
		}).Warn("Failed to write email log")
	}
}

// mergeAddresses joins address lists in order, dropping blanks and
// case-insensitive duplicates
func mergeAddresses(lists ...[]string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, list := range lists {
		for _, addr := range list {
			addr = strings.TrimSpace(addr)
			key := strings.ToLower(addr)
			if addr == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, addr)
		}
	}
	return out
}

func ruleLogMessage(entry RuleLog) string {
	switch entry.Outcome {
	case OutcomeSent:
		return "Email rule sent"
	case OutcomeMatched:
		return "Email rule matched"
	case OutcomeNoMatch:
		return "Email rule did not match"
	case OutcomeNoConditions:
		return "Email rule skipped: no conditions"
	case OutcomeInvalidConditions:
		return "Email rule skipped: malformed conditions"
	case OutcomeNoRecipient:
		return "Email rule skipped: no recipient"
	case OutcomeTemplateMissing:
		return "Email rule skipped: template missing"
	default:
		return "Email rule send failed"
	}
}
