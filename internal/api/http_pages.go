package api

import (
	"net/http"
	"strings"

	"irportal/internal/access"
	"irportal/internal/entity/db"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// publicPages 始终可访问的页面
var publicPages = []string{"/", "/login", "/signup", "/team", "/financials", "/safe", "/forgot-password", "/reset-password"}

// pageRequirement 返回页面路径对应的访问要求
func pageRequirement(path string) access.Requirement {
	switch {
	case path == "/admin" || strings.HasPrefix(path, "/admin/"):
		return access.AnyOf(db.UserRoleAdmin)
	case path == "/portal" || strings.HasPrefix(path, "/portal/"):
		return access.AnyAuthenticated()
	default:
		return access.Public()
	}
}

// ServePage 输出前端页面壳，受保护页面先做访问判定
func (h *HTTPHandler) ServePage(c *gin.Context) {
	path := c.Request.URL.Path
	req := pageRequirement(path)

	state := access.Anonymous()
	if !req.IsPublic() {
		state, _ = h.resolveState(c)
		if state.Kind == access.Failed {
			logrus.WithField("reason", state.Reason).Error("failed to resolve page session")
			state = access.Anonymous()
		}
	}

	target := path
	if raw := c.Request.URL.RawQuery; raw != "" {
		target += "?" + raw
	}

	decision := access.Decide(state, req, target)
	switch decision.Kind {
	case access.RedirectToLogin:
		c.Redirect(http.StatusFound, access.LoginRedirect(decision.Next))
	case access.Forbidden:
		h.writeShell(c, http.StatusForbidden)
	default:
		h.writeShell(c, http.StatusOK)
	}
}

// NotFoundPage 未匹配的 API 路径返回 JSON，其余返回页面壳
func (h *HTTPHandler) NotFoundPage(c *gin.Context) {
	path := c.Request.URL.Path
	if strings.HasPrefix(path, "/api/") || c.Request.Method != http.MethodGet {
		NotFound(c, ErrCodeNotFound, "route not found")
		return
	}
	if !pageRequirement(path).IsPublic() || isPublicPage(path) {
		h.ServePage(c)
		return
	}
	h.writeShell(c, http.StatusNotFound)
}

func (h *HTTPHandler) writeShell(c *gin.Context, status int) {
	c.Data(status, "text/html; charset=utf-8", h.shell)
}

func isPublicPage(path string) bool {
	for _, p := range publicPages {
		if p == path {
			return true
		}
	}
	return false
}

// Health 健康检查
func (h *HTTPHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
