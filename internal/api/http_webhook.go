package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"irportal/internal/auth"
	"irportal/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const maxWebhookBody = 1 << 20

// Stack Auth webhook 事件类型
const (
	stackEventUserCreated = "user.created"
	stackEventUserUpdated = "user.updated"
	stackEventUserDeleted = "user.deleted"
)

type stackWebhookEvent struct {
	Type string           `json:"type"`
	Data stackWebhookUser `json:"data"`
}

type stackWebhookUser struct {
	ID                   string `json:"id"`
	PrimaryEmail         string `json:"primary_email"`
	PrimaryEmailVerified bool   `json:"primary_email_verified"`
	DisplayName          string `json:"display_name"`
}

// StackAuthWebhook 同步身份提供方的用户变更
func (h *HTTPHandler) StackAuthWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		InvalidPayload(c)
		return
	}

	err = auth.VerifyWebhook(h.cfg.StackWebhookSecret, c.Request.Header, body)
	if err != nil {
		if errors.Is(err, auth.ErrWebhookSecretMissing) {
			logrus.Error("stack auth webhook received but STACK_WEBHOOK_SECRET is not configured")
			InternalError(c, "webhook not configured")
			return
		}
		logrus.WithError(err).WithField("svix_id", c.GetHeader(auth.WebhookIDHeader)).Warn("rejected stack auth webhook")
		ErrorResponse(c, http.StatusUnauthorized, ErrCodeInvalidSignature, "invalid webhook signature")
		return
	}

	var event stackWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		InvalidPayload(c)
		return
	}
	if strings.TrimSpace(event.Data.ID) == "" {
		MissingField(c, "data.id")
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	switch event.Type {
	case stackEventUserCreated, stackEventUserUpdated:
		first, last := service.SplitName(event.Data.DisplayName)
		_, err := h.authService.SyncProviderUser(ctx, service.ProviderProfile{
			StackUserID:   event.Data.ID,
			Email:         event.Data.PrimaryEmail,
			FirstName:     first,
			LastName:      last,
			EmailVerified: event.Data.PrimaryEmailVerified,
		})
		if err != nil {
			if errors.Is(err, service.ErrProviderUserUnknown) {
				MissingField(c, "data.primary_email")
				return
			}
			RespondServiceError(c, err, "failed to sync provider user")
			return
		}
	case stackEventUserDeleted:
		if err := h.authService.DeleteProviderUser(ctx, event.Data.ID); err != nil {
			RespondServiceError(c, err, "failed to delete provider user")
			return
		}
	default:
		logrus.WithField("type", event.Type).Debug("ignoring stack auth webhook event")
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
