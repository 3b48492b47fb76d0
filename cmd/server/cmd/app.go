package cmd

import (
	"fmt"

	"github.com/alimgiray/formpilot/internal/email"
	"github.com/alimgiray/formpilot/internal/handlers"
	"github.com/alimgiray/formpilot/internal/repositories"
	"github.com/alimgiray/formpilot/internal/services"
	"github.com/alimgiray/formpilot/pkg/config"
	"github.com/alimgiray/formpilot/pkg/database"
)

// app holds the wired services shared by the commands
type app struct {
	cfg               *config.Config
	jobService        *services.JobService
	submissionService *services.SubmissionService
	pipeline          *services.EmailRulePipeline
	handlers          *handlers.Handlers
}

// newApp opens the database and wires repositories, services and handlers.
// Callers must call database.Close.
func newApp(cfg *config.Config) (*app, error) {
	queries, err := database.Init(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	sender, err := email.NewSender(cfg.Email)
	if err != nil {
		database.Close()
		return nil, err
	}

	timeout := cfg.Database.Timeout

	formRepo := repositories.NewFormRepository(queries)
	templateRepo := repositories.NewEmailTemplateRepository(queries)
	ruleRepo := repositories.NewEmailRuleRepository(queries)
	submissionRepo := repositories.NewSubmissionRepository(queries)
	leadRepo := repositories.NewLeadRepository(queries)
	logRepo := repositories.NewEmailLogRepository(queries)
	jobRepo := repositories.NewJobRepository(queries)

	jobService := services.NewJobService(jobRepo)
	formService := services.NewFormService(formRepo, timeout)
	submissionService := services.NewSubmissionService(submissionRepo, leadRepo, formRepo, jobService, timeout)
	ruleService := services.NewEmailRuleService(ruleRepo, templateRepo, formRepo, timeout)
	templateService := services.NewEmailTemplateService(templateRepo, timeout)
	logService := services.NewEmailLogService(logRepo, timeout)

	enricher := services.NewEnrichmentService(submissionRepo, leadRepo, timeout)
	pipeline := services.NewEmailRulePipeline(ruleRepo, formService, enricher, logRepo, sender, services.PipelineConfig{
		From:               cfg.Email.From,
		PersistenceTimeout: timeout,
		TransportTimeout:   cfg.Email.Timeout,
	})

	return &app{
		cfg:               cfg,
		jobService:        jobService,
		submissionService: submissionService,
		pipeline:          pipeline,
		handlers: &handlers.Handlers{
			Form:          handlers.NewFormHandler(formService, submissionService, jobService),
			Submission:    handlers.NewSubmissionHandler(submissionService),
			EmailRule:     handlers.NewEmailRuleHandler(ruleService, pipeline),
			EmailTemplate: handlers.NewEmailTemplateHandler(templateService),
			EmailLog:      handlers.NewEmailLogHandler(logService),
			Health:        handlers.NewHealthHandler(database.DB),
			NotFound:      handlers.NewNotFoundHandler(),
		},
	}, nil
}
