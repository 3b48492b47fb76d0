// Package email delivers rendered rule emails.
package email

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alimgiray/formpilot/pkg/config"
)

// Message is one rendered email ready for delivery
type Message struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	CC      []string `json:"cc,omitempty"`
	BCC     []string `json:"bcc,omitempty"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Validate checks the fields every transport needs
func (m Message) Validate() error {
	if m.From == "" {
		return errors.New("sender address is required")
	}
	if len(m.To) == 0 {
		return errors.New("at least one recipient is required")
	}
	return nil
}

// Sender hands a message to a delivery transport
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender builds the transport selected by cfg.Provider
func NewSender(cfg config.EmailConfig) (Sender, error) {
	switch cfg.Provider {
	case config.ProviderResend:
		return NewResendSender(cfg.Endpoint, cfg.APIKey, cfg.Timeout), nil
	case config.ProviderLog, "":
		return NewLogSender(), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}

func clientWithTimeout(c *http.Client, timeout time.Duration) *http.Client {
	if timeout > 0 {
		c.Timeout = timeout
	}
	return c
}
