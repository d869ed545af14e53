package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultSendTimeout = 5 * time.Second

// Sender delivers a rendered report payload to an endpoint.
type Sender interface {
	Send(ctx context.Context, endpoint string, payload Payload) error
}

// WebhookSender posts reports as JSON to incoming-webhook endpoints.
type WebhookSender struct {
	client *http.Client
}

// SenderOption applies a configuration option to the WebhookSender.
type SenderOption func(*WebhookSender)

// WithTimeout bounds every outbound webhook call.
func WithTimeout(d time.Duration) SenderOption {
	return func(s *WebhookSender) {
		if d > 0 {
			s.client.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) SenderOption {
	return func(s *WebhookSender) {
		if c != nil {
			s.client = c
		}
	}
}

// NewWebhookSender creates a webhook sender with a bounded per-call
// timeout.
func NewWebhookSender(opts ...SenderOption) *WebhookSender {
	s := &WebhookSender{
		client: &http.Client{Timeout: defaultSendTimeout},
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send posts the payload to endpoint and fails on any non-2xx status.
func (s *WebhookSender) Send(ctx context.Context, endpoint string, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: status %d", ErrDeliveryFailed, resp.StatusCode)
	}
	return nil
}
