package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alimgiray/formpilot/internal/models"
	"github.com/alimgiray/formpilot/internal/services"
)

type EmailTemplateHandler struct {
	templateService *services.EmailTemplateService
}

func NewEmailTemplateHandler(templateService *services.EmailTemplateService) *EmailTemplateHandler {
	return &EmailTemplateHandler{templateService: templateService}
}

type previewRequest struct {
	Subject string         `json:"subject"`
	Body    string         `json:"body"`
	Data    map[string]any `json:"data"`
}

// ListTemplates returns every template
func (h *EmailTemplateHandler) ListTemplates(c *gin.Context) {
	templates, err := h.templateService.ListTemplates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Email templates retrieved", templates)
}

// CreateTemplate creates a template
func (h *EmailTemplateHandler) CreateTemplate(c *gin.Context) {
	var req models.EmailTemplate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	tpl, err := h.templateService.CreateTemplate(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Email template created", tpl)
}

// GetTemplate returns one template
func (h *EmailTemplateHandler) GetTemplate(c *gin.Context) {
	tpl, err := h.templateService.GetTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Email template retrieved", tpl)
}

// UpdateTemplate replaces a template's content
func (h *EmailTemplateHandler) UpdateTemplate(c *gin.Context) {
	var req models.EmailTemplate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	tpl, err := h.templateService.UpdateTemplate(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Email template updated", tpl)
}

// DeleteTemplate deletes a template
func (h *EmailTemplateHandler) DeleteTemplate(c *gin.Context) {
	if err := h.templateService.DeleteTemplate(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Email template deleted", nil)
}

// Preview renders an unsaved subject and body against sample data
func (h *EmailTemplateHandler) Preview(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	respond(c, http.StatusOK, "Preview rendered", services.BuildPreview(req.Subject, req.Body, req.Data))
}

// PreviewStored renders a saved template against sample data
func (h *EmailTemplateHandler) PreviewStored(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	preview, err := h.templateService.PreviewTemplate(c.Request.Context(), c.Param("id"), req.Data)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Preview rendered", preview)
}
