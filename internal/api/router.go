package api

import (
	"net/http"

	"irportal/internal/access"
	"irportal/internal/entity/db"

	"github.com/gin-gonic/gin"
)

// NewRouter 注册中间件与全部路由
func NewRouter(h *HTTPHandler) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	// 添加中间件
	r.Use(LoggingMiddleware())
	r.Use(CORSMiddleware())
	r.Use(gin.Recovery())

	r.NoMethod(func(c *gin.Context) {
		ErrorResponse(c, http.StatusMethodNotAllowed, ErrCodeInvalidRequest, "method not allowed")
	})
	r.NoRoute(h.NotFoundPage)

	r.GET("/health", h.Health)

	apiGroup := r.Group("/api")

	authGroup := apiGroup.Group("/auth")
	authGroup.POST("/signup", h.Signup)
	authGroup.POST("/login", h.Login)
	authGroup.POST("/logout", h.Logout)
	authGroup.POST("/forgot-password", h.ForgotPassword)
	authGroup.POST("/reset-password", h.ResetPassword)
	authGroup.GET("/me", h.AuthMiddleware(access.AnyAuthenticated()), h.Me)

	investor := apiGroup.Group("/investor")
	investor.Use(h.AuthMiddleware(access.AnyAuthenticated()))
	investor.POST("/apply", h.Apply)
	investor.GET("/application", h.GetApplication)
	investor.POST("/application/evidence", h.UploadEvidence)

	admin := apiGroup.Group("/admin")
	admin.Use(h.AuthMiddleware(access.AnyOf(db.UserRoleAdmin)))
	admin.GET("/requests", h.ListRequests)
	admin.POST("/requests", h.DecideRequest)
	admin.GET("/requests/:id/evidence", h.DownloadEvidence)
	admin.POST("/db-migrate", h.MigrateDatabase)

	apiGroup.POST("/newsletter", h.SubscribeNewsletter)
	apiGroup.POST("/webhooks/stack-auth", h.StackAuthWebhook)

	//前端页面，/portal 与 /admin 由 NoRoute 按访问规则处理
	for _, page := range publicPages {
		r.GET(page, h.ServePage)
	}

	return r
}
