package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	svix "github.com/svix/svix-webhooks/go"
)

// Svix 签名请求头
const (
	WebhookIDHeader        = "svix-id"
	WebhookTimestampHeader = "svix-timestamp"
	WebhookSignatureHeader = "svix-signature"
)

var (
	ErrWebhookSecretMissing  = errors.New("webhook secret not configured")
	ErrWebhookSignature      = errors.New("webhook signature invalid or expired")
	ErrWebhookHeadersMissing = errors.New("webhook signature headers missing")
)

// VerifyWebhook checks a Svix-signed delivery. The svix library enforces the
// signature and its five minute timestamp tolerance.
func VerifyWebhook(secret string, headers http.Header, body []byte) error {
	wh, err := newWebhook(secret)
	if err != nil {
		return err
	}
	if headers.Get(WebhookIDHeader) == "" || headers.Get(WebhookTimestampHeader) == "" || headers.Get(WebhookSignatureHeader) == "" {
		return ErrWebhookHeadersMissing
	}
	if err := wh.Verify(body, headers); err != nil {
		return fmt.Errorf("%w: %v", ErrWebhookSignature, err)
	}
	return nil
}

// SignWebhook produces the "v1,<sig>" header value for a payload.
func SignWebhook(secret, msgID string, timestamp time.Time, body []byte) (string, error) {
	wh, err := newWebhook(secret)
	if err != nil {
		return "", err
	}
	return wh.Sign(msgID, timestamp, body)
}

// WebhookHeaders builds the headers of a signed delivery.
func WebhookHeaders(secret, msgID string, timestamp time.Time, body []byte) (http.Header, error) {
	sig, err := SignWebhook(secret, msgID, timestamp, body)
	if err != nil {
		return nil, err
	}
	headers := http.Header{}
	headers.Set(WebhookIDHeader, msgID)
	headers.Set(WebhookTimestampHeader, fmt.Sprintf("%d", timestamp.Unix()))
	headers.Set(WebhookSignatureHeader, sig)
	return headers, nil
}

func newWebhook(secret string) (*svix.Webhook, error) {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return nil, ErrWebhookSecretMissing
	}
	wh, err := svix.NewWebhook(trimmed)
	if err != nil {
		return nil, fmt.Errorf("decode webhook secret: %w", err)
	}
	return wh, nil
}
