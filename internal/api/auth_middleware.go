package api

import (
	"errors"
	"net/http"
	"strings"

	"irportal/internal/access"
	"irportal/internal/entity/db"
	"irportal/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	currentUserContextKey = "current-user"
)

// CurrentUser 从上下文获取当前认证用户
func CurrentUser(c *gin.Context) *db.User {
	value, exists := c.Get(currentUserContextKey)
	if !exists {
		return nil
	}
	user, ok := value.(*db.User)
	if !ok {
		return nil
	}
	return user
}

// sessionTokens 收集会话 cookie 和 Bearer 头中的令牌，去重后按此顺序返回
func (h *HTTPHandler) sessionTokens(c *gin.Context) []string {
	var tokens []string
	if cookie, err := c.Cookie(h.cfg.CookieName); err == nil && strings.TrimSpace(cookie) != "" {
		tokens = append(tokens, strings.TrimSpace(cookie))
	}
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		if bearer := strings.TrimSpace(parts[1]); bearer != "" && (len(tokens) == 0 || tokens[0] != bearer) {
			tokens = append(tokens, bearer)
		}
	}
	return tokens
}

// resolveState 将请求解析为访问控制状态，任一令牌通过认证即可
func (h *HTTPHandler) resolveState(c *gin.Context) (access.State, *db.User) {
	tokens := h.sessionTokens(c)
	if len(tokens) == 0 {
		return access.Anonymous(), nil
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	for _, token := range tokens {
		user, err := h.authService.Authenticate(ctx, token)
		if err == nil {
			return access.SignedIn(access.Identity{UserID: user.ID, Email: user.Email, Role: user.Role}), user
		}
		if !errors.Is(err, service.ErrUnauthorized) {
			return access.Errored(err.Error()), nil
		}
	}
	return access.Anonymous(), nil
}

// AuthMiddleware 会话认证中间件，按 req 判定访问权限
func (h *HTTPHandler) AuthMiddleware(req access.Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		state, user := h.resolveState(c)
		if state.Kind == access.Failed {
			logrus.WithField("reason", state.Reason).Error("failed to resolve session")
			InternalError(c, "internal server error")
			c.Abort()
			return
		}

		switch access.Decide(state, req, c.Request.URL.Path).Kind {
		case access.RedirectToLogin:
			c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{
				Code:    ErrCodeUnauthorized,
				Message: unauthorizedMessage,
			})
			return
		case access.Forbidden:
			c.AbortWithStatusJSON(http.StatusForbidden, APIError{
				Code:    ErrCodeForbidden,
				Message: "insufficient role",
			})
			return
		}

		if user != nil {
			c.Set(currentUserContextKey, user)
		}
		c.Next()
	}
}
