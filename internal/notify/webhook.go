package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SecretHeader carries the shared secret on relay requests.
const SecretHeader = "X-Notify-Secret"

// WebhookNotifier POSTs messages to a transactional email relay.
type WebhookNotifier struct {
	url        string
	secret     string
	httpClient *http.Client
}

type webhookPayload struct {
	Message
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewWebhookNotifier creates a notifier for the relay at url.
func NewWebhookNotifier(url, secret string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		url:        strings.TrimSpace(url),
		secret:     secret,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Notify implements Notifier.
func (n *WebhookNotifier) Notify(ctx context.Context, msg Message) (Result, error) {
	subject, body := Render(msg)
	jsonData, err := json.Marshal(webhookPayload{Message: msg, Subject: subject, Body: body})
	if err != nil {
		return Result{}, fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(jsonData))
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.secret != "" {
		req.Header.Set(SecretHeader, n.secret)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Result{}, fmt.Errorf("notify relay returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return Result{Delivered: true}, nil
}
