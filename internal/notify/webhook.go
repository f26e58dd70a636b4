package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/stayline/concierge/pkg/logging"
)

// WebhookSender posts notification payloads to a staff-facing webhook
// (typically a team chat integration).
type WebhookSender struct {
	httpClient *http.Client
	url        string
	logger     *logging.Logger
}

// NewWebhookSender creates a webhook sender. Returns nil for an empty URL.
func NewWebhookSender(url string, logger *logging.Logger) *WebhookSender {
	if url == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookSender{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		url:        url,
		logger:     logger,
	}
}

// Post sends payload as JSON.
func (w *WebhookSender) Post(ctx context.Context, payload any) error {
	if w == nil {
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("notify: build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: webhook post: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notify: webhook returned %d", resp.StatusCode)
	}
	return nil
}
