package handlers

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/alimgiray/formpilot/internal/middleware"
	"github.com/alimgiray/formpilot/pkg/config"
)

// Handlers groups every HTTP handler the router mounts
type Handlers struct {
	Form          *FormHandler
	Submission    *SubmissionHandler
	EmailRule     *EmailRuleHandler
	EmailTemplate *EmailTemplateHandler
	EmailLog      *EmailLogHandler
	Health        *HealthHandler
	NotFound      *NotFoundHandler
}

// SetupRouter builds the gin engine with public and admin routes
func SetupRouter(h *Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	router.GET("/health", h.Health.HealthCheck)
	router.NoRoute(h.NotFound.NotFound)

	public := router.Group("/api/public")
	public.Use(cors.New(corsConfig(cfg.Server.CORSOrigins)))
	{
		public.POST("/forms/:id/submissions", h.Submission.Submit)
		public.OPTIONS("/forms/:id/submissions", func(c *gin.Context) {})
	}

	api := router.Group("/api")
	api.Use(middleware.AdminAuthRequired(cfg.Admin.Token))
	{
		api.GET("/forms", h.Form.ListForms)
		api.POST("/forms", h.Form.CreateForm)
		api.GET("/forms/:id", h.Form.GetForm)
		api.PUT("/forms/:id", h.Form.UpdateForm)
		api.DELETE("/forms/:id", h.Form.DeleteForm)
		api.PUT("/forms/:id/fields", h.Form.SaveFields)
		api.POST("/forms/:id/fields/backfill", h.Form.BackfillStableIDs)
		api.GET("/forms/:id/submissions", h.Form.ListSubmissions)
		api.GET("/forms/:id/jobs", h.Form.ListJobs)

		api.GET("/forms/:id/email-rules", h.EmailRule.ListRules)
		api.POST("/forms/:id/email-rules", h.EmailRule.CreateRule)
		api.POST("/forms/:id/email-rules/test", h.EmailRule.TestRules)
		api.POST("/forms/:id/email-rules/process", h.EmailRule.ProcessRules)
		api.POST("/forms/:id/email-rules/migrate-field", h.EmailRule.MigrateField)
		api.GET("/email-rules/:id", h.EmailRule.GetRule)
		api.PUT("/email-rules/:id", h.EmailRule.UpdateRule)
		api.DELETE("/email-rules/:id", h.EmailRule.DeleteRule)

		api.GET("/email-templates", h.EmailTemplate.ListTemplates)
		api.POST("/email-templates", h.EmailTemplate.CreateTemplate)
		api.POST("/email-templates/preview", h.EmailTemplate.Preview)
		api.GET("/email-templates/:id", h.EmailTemplate.GetTemplate)
		api.PUT("/email-templates/:id", h.EmailTemplate.UpdateTemplate)
		api.DELETE("/email-templates/:id", h.EmailTemplate.DeleteTemplate)
		api.POST("/email-templates/:id/preview", h.EmailTemplate.PreviewStored)

		api.GET("/email-logs", h.EmailLog.ListLogs)
		api.GET("/email-logs/export", h.EmailLog.ExportLogs)

		api.GET("/submissions/:id", h.Form.GetSubmission)
		api.GET("/jobs/:id", h.Form.GetJob)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
