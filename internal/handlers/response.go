package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alimgiray/formpilot/internal/models"
	"github.com/alimgiray/formpilot/pkg/logger"
)

func respond(c *gin.Context, status int, message string, data interface{}) {
	body := gin.H{
		"success": status < http.StatusBadRequest,
		"message": message,
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, message string) {
	respond(c, http.StatusBadRequest, message, nil)
}

// respondError maps service errors onto the JSON envelope
func respondError(c *gin.Context, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		respond(c, http.StatusBadRequest, verr.Message, gin.H{"field": verr.Field})
	case errors.Is(err, models.ErrInvalidConditions):
		respond(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, models.ErrFormNotFound):
		respond(c, http.StatusNotFound, "Form not found", nil)
	case errors.Is(err, models.ErrTemplateNotFound):
		respond(c, http.StatusNotFound, "Email template not found", nil)
	case errors.Is(err, models.ErrNotFound):
		respond(c, http.StatusNotFound, "Not found", nil)
	default:
		_ = c.Error(err)
		logger.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		respond(c, http.StatusInternalServerError, "Internal server error", nil)
	}
}
