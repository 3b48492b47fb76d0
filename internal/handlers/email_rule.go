package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alimgiray/formpilot/internal/models"
	"github.com/alimgiray/formpilot/internal/services"
)

type EmailRuleHandler struct {
	ruleService *services.EmailRuleService
	pipeline    *services.EmailRulePipeline
}

func NewEmailRuleHandler(ruleService *services.EmailRuleService, pipeline *services.EmailRulePipeline) *EmailRuleHandler {
	return &EmailRuleHandler{
		ruleService: ruleService,
		pipeline:    pipeline,
	}
}

// ruleRequest accepts conditions in any of the stored shapes
type ruleRequest struct {
	Name           string               `json:"name"`
	TemplateID     string               `json:"template_id"`
	Active         *bool                `json:"active"`
	Conditions     json.RawMessage      `json:"conditions"`
	RecipientType  models.RecipientType `json:"recipient_type"`
	RecipientEmail string               `json:"recipient_email"`
	RecipientField string               `json:"recipient_field"`
	CC             models.StringList    `json:"cc"`
	BCC            models.StringList    `json:"bcc"`
}

// toRule builds the rule input. active is used when the request omits it.
func (r *ruleRequest) toRule(formID string, active bool) (*models.EmailRule, error) {
	conditions, err := models.ParseConditions(string(r.Conditions))
	if err != nil {
		return nil, err
	}
	if r.Active != nil {
		active = *r.Active
	}
	return &models.EmailRule{
		Name:           r.Name,
		FormID:         formID,
		TemplateID:     r.TemplateID,
		Active:         active,
		Conditions:     conditions,
		RecipientType:  r.RecipientType,
		RecipientEmail: r.RecipientEmail,
		RecipientField: r.RecipientField,
		CC:             r.CC,
		BCC:            r.BCC,
	}, nil
}

type testRequest struct {
	Data map[string]any `json:"data"`
}

type processRequest struct {
	SubmissionID string         `json:"submission_id"`
	Data         map[string]any `json:"data"`
}

type migrateFieldRequest struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

// ListRules returns the rules of a form
func (h *EmailRuleHandler) ListRules(c *gin.Context) {
	rules, err := h.ruleService.GetRulesByForm(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Email rules retrieved", rules)
}

// CreateRule creates a rule on a form
func (h *EmailRuleHandler) CreateRule(c *gin.Context) {
	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	input, err := req.toRule(c.Param("id"), true)
	if err != nil {
		respondError(c, err)
		return
	}

	rule, err := h.ruleService.CreateRule(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Email rule created", rule)
}

// GetRule returns one rule
func (h *EmailRuleHandler) GetRule(c *gin.Context) {
	rule, err := h.ruleService.GetRule(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Email rule retrieved", rule)
}

// UpdateRule replaces a rule's attributes. An omitted active flag keeps the
// stored one.
func (h *EmailRuleHandler) UpdateRule(c *gin.Context) {
	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	active := true
	if req.Active == nil {
		existing, err := h.ruleService.GetRule(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		active = existing.Active
	}

	input, err := req.toRule("", active)
	if err != nil {
		respondError(c, err)
		return
	}

	rule, err := h.ruleService.UpdateRule(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Email rule updated", rule)
}

// DeleteRule deletes a rule
func (h *EmailRuleHandler) DeleteRule(c *gin.Context) {
	if err := h.ruleService.DeleteRule(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Email rule deleted", nil)
}

// TestRules evaluates a form's active rules against sample data without
// sending anything
func (h *EmailRuleHandler) TestRules(c *gin.Context) {
	var req testRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	result, err := h.pipeline.DryRun(c.Request.Context(), c.Param("id"), req.Data)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Email rules evaluated", result)
}

// ProcessRules runs a form's rules for a submission synchronously and
// sends the matching emails
func (h *EmailRuleHandler) ProcessRules(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	result, err := h.pipeline.ProcessEmailRules(c.Request.Context(), c.Param("id"), req.SubmissionID, req.Data)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Email rules processed", result)
}

// MigrateField rewrites rule references from an old field identifier to a
// stable id
func (h *EmailRuleHandler) MigrateField(c *gin.Context) {
	var req migrateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	changed, err := h.ruleService.MigrateFieldReferences(c.Request.Context(), c.Param("id"), req.From, req.To)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Field references migrated", gin.H{"updated_rules": changed})
}
