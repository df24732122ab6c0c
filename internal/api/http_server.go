package api

import (
	"context"
	"time"

	"irportal/internal/config"
	"irportal/internal/model"
	"irportal/internal/service"

	"github.com/gin-gonic/gin"
)

// HTTPHandler HTTP 请求处理器
type HTTPHandler struct {
	cfg  config.Config
	repo model.Repository

	// 服务层
	authService        *service.AuthService
	applicationService *service.ApplicationService
	newsletterService  *service.NewsletterService

	// 页面壳，由 web 包提供
	shell []byte
}

// NewHTTPHandler 创建 HTTP 处理器实例
func NewHTTPHandler(cfg config.Config, repo model.Repository, authSvc *service.AuthService, appSvc *service.ApplicationService, newsletterSvc *service.NewsletterService, shell []byte) *HTTPHandler {
	return &HTTPHandler{
		cfg:                cfg,
		repo:               repo,
		authService:        authSvc,
		applicationService: appSvc,
		newsletterService:  newsletterSvc,
		shell:              shell,
	}
}

// requestContext 为每个请求派生带超时的上下文
func (h *HTTPHandler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	timeout := h.cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(c.Request.Context(), timeout)
}
