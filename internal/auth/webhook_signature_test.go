package auth

import (
	"encoding/base64"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestWebhookSignatureRoundTrip(t *testing.T) {
	secret := "whsec_" + base64.StdEncoding.EncodeToString([]byte("super-secret-key"))
	body := []byte(`{"type":"user.created"}`)
	now := time.Now()

	headers, err := WebhookHeaders(secret, "msg_1", now, body)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if err := VerifyWebhook(secret, headers, body); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}

	stale, err := WebhookHeaders(secret, "msg_1", now.Add(-10*time.Minute), body)
	if err != nil {
		t.Fatalf("sign stale: %v", err)
	}
	otherKey, err := WebhookHeaders("whsec_"+base64.StdEncoding.EncodeToString([]byte("another-key")), "msg_1", now, body)
	if err != nil {
		t.Fatalf("sign other key: %v", err)
	}
	partial := headers.Clone()
	partial.Del(WebhookIDHeader)

	tests := []struct {
		name    string
		secret  string
		headers http.Header
		body    []byte
		want    error
	}{
		{name: "missing secret", secret: "", headers: headers, body: body, want: ErrWebhookSecretMissing},
		{name: "missing headers", secret: secret, headers: partial, body: body, want: ErrWebhookHeadersMissing},
		{name: "tampered body", secret: secret, headers: headers, body: []byte(`{}`), want: ErrWebhookSignature},
		{name: "wrong key", secret: secret, headers: otherKey, body: body, want: ErrWebhookSignature},
		{name: "stale", secret: secret, headers: stale, body: body, want: ErrWebhookSignature},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyWebhook(tt.secret, tt.headers, tt.body)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
