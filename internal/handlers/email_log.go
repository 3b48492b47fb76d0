package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alimgiray/formpilot/internal/repositories"
	"github.com/alimgiray/formpilot/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type EmailLogHandler struct {
	logService *services.EmailLogService
}

func NewEmailLogHandler(logService *services.EmailLogService) *EmailLogHandler {
	return &EmailLogHandler{logService: logService}
}

func logFilter(c *gin.Context) (repositories.EmailLogFilter, error) {
	filter := repositories.EmailLogFilter{
		FormID: c.Query("form_id"),
		RuleID: c.Query("rule_id"),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return filter, fmt.Errorf("limit must be a positive integer")
		}
		filter.Limit = limit
	}
	return filter, nil
}

// ListLogs returns email logs, newest first
func (h *EmailLogHandler) ListLogs(c *gin.Context) {
	filter, err := logFilter(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	logs, err := h.logService.ListLogs(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Email logs retrieved", logs)
}

// ExportLogs downloads email logs as a spreadsheet
func (h *EmailLogHandler) ExportLogs(c *gin.Context) {
	filter, err := logFilter(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := h.logService.ExportXLSX(c.Request.Context(), filter, &buf); err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("email-logs-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
