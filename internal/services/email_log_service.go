package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/alimgiray/formpilot/internal/models"
	"github.com/alimgiray/formpilot/internal/repositories"
)

const emailLogSheet = "Email Logs"

var emailLogColumns = []string{"Sent At", "Form", "Rule", "Template", "Submission", "Recipient", "Subject", "Status", "Error"}

// EmailLogService reads email logs and exports them
type EmailLogService struct {
	logRepo *repositories.EmailLogRepository
	timeout time.Duration
}

// NewEmailLogService creates a new email log service
func NewEmailLogService(logRepo *repositories.EmailLogRepository, timeout time.Duration) *EmailLogService {
	return &EmailLogService{
		logRepo: logRepo,
		timeout: timeout,
	}
}

// ListLogs retrieves logs matching filter, newest first
func (s *EmailLogService) ListLogs(ctx context.Context, filter repositories.EmailLogFilter) ([]*models.EmailLog, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return s.logRepo.List(ctx, filter)
}

// ExportXLSX writes the logs matching filter to w as a spreadsheet
func (s *EmailLogService) ExportXLSX(ctx context.Context, filter repositories.EmailLogFilter, w io.Writer) error {
	logs, err := s.ListLogs(ctx, filter)
	if err != nil {
		return err
	}
	return WriteEmailLogsXLSX(logs, w)
}

// WriteEmailLogsXLSX renders logs into a one-sheet workbook
func WriteEmailLogsXLSX(logs []*models.EmailLog, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", emailLogSheet); err != nil {
		return err
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	for i, title := range emailLogColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(emailLogSheet, cell, title); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(emailLogColumns), 1)
	if err := f.SetCellStyle(emailLogSheet, "A1", last, header); err != nil {
		return err
	}

	for r, l := range logs {
		row := []interface{}{
			l.CreatedAt.UTC().Format(time.RFC3339),
			l.FormID,
			l.RuleID,
			l.TemplateID,
			deref(l.SubmissionID),
			l.Recipient,
			l.Subject,
			string(l.Status),
			deref(l.ErrorMessage),
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(emailLogSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+2, err)
		}
	}

	_, err = f.WriteTo(w)
	return err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
