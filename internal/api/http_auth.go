package api

import (
	"net/http"
	"time"

	"irportal/internal/entity/converter"
	"irportal/internal/entity/dto"
	"irportal/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Signup 注册账户并签发会话
func (h *HTTPHandler) Signup(c *gin.Context) {
	var req dto.AuthSignupRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	result, err := h.authService.Signup(ctx, service.SignupInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
	}, h.sessionMeta(c))
	if err != nil {
		RespondServiceError(c, err, "failed to sign up user")
		return
	}

	h.setSessionCookie(c, result.Token, result.ExpiresAt)
	c.JSON(http.StatusCreated, dto.AuthResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      converter.UserToSummary(result.User),
	})
}

// Login 密码登录
func (h *HTTPHandler) Login(c *gin.Context) {
	var req dto.AuthLoginRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	result, err := h.authService.Login(ctx, req.Email, req.Password, h.sessionMeta(c))
	if err != nil {
		RespondServiceError(c, err, "failed to log in user")
		return
	}

	h.setSessionCookie(c, result.Token, result.ExpiresAt)
	c.JSON(http.StatusOK, dto.AuthResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      converter.UserToSummary(result.User),
	})
}

// Logout 注销当前会话，重复调用同样返回成功
func (h *HTTPHandler) Logout(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	for _, token := range h.sessionTokens(c) {
		if err := h.authService.Logout(ctx, token); err != nil {
			// cookie 仍然清除，失败只记录
			logrus.WithError(err).Warn("failed to revoke session")
		}
	}
	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, dto.MessageResponse{OK: true})
}

// Me 返回当前用户，角色以数据库为准
func (h *HTTPHandler) Me(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, unauthorizedMessage)
		return
	}
	c.JSON(http.StatusOK, dto.MeResponse{User: converter.UserToSummary(user)})
}

// ForgotPassword 发起密码重置，不暴露账户是否存在
func (h *HTTPHandler) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.authService.ForgotPassword(ctx, req.Email); err != nil {
		RespondServiceError(c, err, "failed to start password reset")
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{
		OK:      true,
		Message: "if the account exists, a reset link has been sent",
	})
}

// ResetPassword 使用重置令牌设置新密码
func (h *HTTPHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.authService.ResetPassword(ctx, req.Token, req.Password); err != nil {
		RespondServiceError(c, err, "failed to reset password")
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{OK: true, Message: "password updated"})
}

func (h *HTTPHandler) sessionMeta(c *gin.Context) service.SessionMeta {
	return service.SessionMeta{
		UserAgent: c.Request.UserAgent(),
		IP:        c.ClientIP(),
	}
}

func (h *HTTPHandler) setSessionCookie(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = int(h.cfg.SessionTTL.Seconds())
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.cfg.CookieDomain,
		MaxAge:   maxAge,
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *HTTPHandler) clearSessionCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.cfg.CookieDomain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}
