package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const maxErrorBody = 4096

// ResendSender posts messages to a Resend-compatible transactional API
// with bearer authentication.
type ResendSender struct {
	endpoint string
	client   *http.Client
}

// NewResendSender creates a sender for endpoint authenticated with apiKey
func NewResendSender(endpoint, apiKey string, timeout time.Duration) *ResendSender {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: apiKey},
	)
	client := oauth2.NewClient(context.Background(), ts)

	return &ResendSender{
		endpoint: endpoint,
		client:   clientWithTimeout(client, timeout),
	}
}

// Send posts msg as JSON. Any status outside 2xx is an error carrying the
// status and the start of the response body.
func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("email send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("email send failed: %s body=%s", resp.Status, strings.TrimSpace(string(respBody)))
	}
	return nil
}
