package email

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/alimgiray/formpilot/pkg/logger"
)

// LogSender writes messages to the application log instead of sending them
type LogSender struct{}

// NewLogSender creates a new LogSender
func NewLogSender() *LogSender {
	return &LogSender{}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"to":      strings.Join(msg.To, ","),
		"cc":      strings.Join(msg.CC, ","),
		"bcc":     strings.Join(msg.BCC, ","),
		"subject": msg.Subject,
		"bytes":   len(msg.HTML),
	}).Info("Email delivered to log sink")
	return nil
}
