package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alimgiray/formpilot/internal/models"
	"github.com/alimgiray/formpilot/internal/services"
)

type FormHandler struct {
	formService       *services.FormService
	submissionService *services.SubmissionService
	jobService        *services.JobService
}

func NewFormHandler(formService *services.FormService, submissionService *services.SubmissionService, jobService *services.JobService) *FormHandler {
	return &FormHandler{
		formService:       formService,
		submissionService: submissionService,
		jobService:        jobService,
	}
}

type formRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type fieldsRequest struct {
	Sections []*models.FormSection `json:"sections"`
}

// ListForms returns every form
func (h *FormHandler) ListForms(c *gin.Context) {
	forms, err := h.formService.ListForms(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Forms retrieved", forms)
}

// CreateForm creates an empty form
func (h *FormHandler) CreateForm(c *gin.Context) {
	var req formRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	form, err := h.formService.CreateForm(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Form created", form)
}

// GetForm returns a form with its sections and fields
func (h *FormHandler) GetForm(c *gin.Context) {
	form, err := h.formService.GetForm(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Form retrieved", form)
}

// UpdateForm renames a form
func (h *FormHandler) UpdateForm(c *gin.Context) {
	var req formRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	form, err := h.formService.UpdateForm(c.Request.Context(), c.Param("id"), req.Name, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Form updated", form)
}

// DeleteForm deletes a form
func (h *FormHandler) DeleteForm(c *gin.Context) {
	if err := h.formService.DeleteForm(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Form deleted", nil)
}

// SaveFields replaces the sections and fields of a form
func (h *FormHandler) SaveFields(c *gin.Context) {
	var req fieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	form, err := h.formService.SaveFormFields(c.Request.Context(), c.Param("id"), req.Sections)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Form fields saved", form)
}

// BackfillStableIDs assigns stable ids to legacy fields
func (h *FormHandler) BackfillStableIDs(c *gin.Context) {
	n, err := h.formService.BackfillStableIDs(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Stable ids backfilled", gin.H{"updated": n})
}

// ListSubmissions returns the submissions of a form
func (h *FormHandler) ListSubmissions(c *gin.Context) {
	submissions, err := h.submissionService.ListSubmissions(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Submissions retrieved", submissions)
}

// GetSubmission returns one submission
func (h *FormHandler) GetSubmission(c *gin.Context) {
	submission, err := h.submissionService.GetSubmission(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Submission retrieved", submission)
}

// ListJobs returns the jobs of a form
func (h *FormHandler) ListJobs(c *gin.Context) {
	jobs, err := h.jobService.GetJobsByForm(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Jobs retrieved", jobs)
}

// GetJob returns the status of one job
func (h *FormHandler) GetJob(c *gin.Context) {
	job, err := h.jobService.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Job retrieved", job)
}
