package api

import (
	"net/http"

	"irportal/internal/entity/dto"

	"github.com/gin-gonic/gin"
)

// SubscribeNewsletter 订阅官网邮件，重复订阅返回 200
func (h *HTTPHandler) SubscribeNewsletter(c *gin.Context) {
	var req dto.NewsletterRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	created, err := h.newsletterService.Subscribe(ctx, req.Email, req.Source)
	if err != nil {
		RespondServiceError(c, err, "failed to store newsletter signup")
		return
	}
	if !created {
		c.JSON(http.StatusOK, dto.MessageResponse{OK: true, Message: "already subscribed"})
		return
	}
	c.JSON(http.StatusCreated, dto.MessageResponse{OK: true, Message: "subscribed"})
}
