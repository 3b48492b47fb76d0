package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alimgiray/formpilot/internal/services"
)

type SubmissionHandler struct {
	submissionService *services.SubmissionService
}

func NewSubmissionHandler(submissionService *services.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: submissionService}
}

type submissionRequest struct {
	Data   map[string]any `json:"data"`
	LeadID *string        `json:"lead_id"`
}

// Submit stores a public form submission. Email rules run afterwards on a
// background job, so their outcome never changes this response.
func (h *SubmissionHandler) Submit(c *gin.Context) {
	var req submissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	submission, job, err := h.submissionService.CreateSubmission(c.Request.Context(), c.Param("id"), req.Data, req.LeadID)
	if err != nil {
		respondError(c, err)
		return
	}

	data := gin.H{"submission_id": submission.ID}
	if job != nil {
		data["job_id"] = job.ID
	}
	respond(c, http.StatusAccepted, "Submission received", data)
}
