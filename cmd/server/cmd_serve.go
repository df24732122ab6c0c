package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"irportal/internal/api"
	"irportal/internal/auth"
	"irportal/internal/config"
	"irportal/internal/model"
	"irportal/internal/notify"
	"irportal/internal/notion"
	"irportal/internal/service"
	"irportal/internal/storage"
	"irportal/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

// serveCmd runs the HTTP server until SIGINT/SIGTERM
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := model.InitRepository(ctx, &cfg)
	if err != nil {
		logger.WithError(err).Error("failed to initialise repository")
		return err
	}
	defer repo.Close()

	tokens, err := auth.NewManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.SessionTTL)
	if err != nil {
		logger.WithError(err).Error("failed to initialise token manager")
		return err
	}

	store, err := storage.NewStorage(cfg)
	if err != nil {
		logger.WithError(err).Error("failed to initialise storage")
		return err
	}

	dispatcher := notify.NewDispatcher(newNotifier(cfg, logger), cfg.NotifyTimeout, logger)

	authSvc := service.NewAuthService(cfg, repo, tokens, dispatcher)
	appSvc := service.NewApplicationService(cfg, repo, store, dispatcher)

	if cfg.StackAuthEnabled() {
		verifier, err := auth.NewProviderVerifier(cfg.StackJWKSURL, cfg.StackIssuer, cfg.StackProjectID)
		if err != nil {
			logger.WithError(err).Error("failed to initialise stack auth verifier")
			return err
		}
		authSvc.SetProviderVerifier(verifier)
		logger.WithField("project_id", cfg.StackProjectID).Info("stack auth tokens enabled")
	}

	var mirror *notion.Mirror
	if cfg.NotionMirrorEnabled() {
		mirror = notion.NewMirror(cfg.NotionBaseURL, cfg.NotionToken, cfg.NotionUsersDatabaseID, cfg.NotifyTimeout, logger)
		authSvc.SetMirror(mirror)
		appSvc.SetMirror(mirror)
		logger.Info("notion user mirror enabled")
	}

	handler := api.NewHTTPHandler(cfg, repo, authSvc, appSvc, service.NewNewsletterService(repo), web.IndexHTML())

	// 设置Gin模式
	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(handler)

	serverHost := fmt.Sprintf("0.0.0.0:%s", cfg.HTTPPort)
	httpServer := &http.Server{
		Addr:              serverHost,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.WithField("host", serverHost).Info("服务器启动")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logger.WithError(err).Error("服务器启动失败")
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("http server shutdown incomplete")
	}

	// 等待后台通知和镜像完成
	dispatcher.Wait()
	if mirror != nil {
		mirror.Wait()
	}
	logger.Info("服务器已停止")
	return nil
}

// newNotifier 配置了 webhook 时投递到邮件中继，否则只记录日志
func newNotifier(cfg config.Config, logger *logrus.Logger) notify.Notifier {
	if cfg.NotifyWebhookURL == "" {
		logger.Warn("NOTIFY_WEBHOOK_URL not set, notifications are logged only")
		return notify.NewLogNotifier(logger)
	}
	return notify.NewWebhookNotifier(cfg.NotifyWebhookURL, cfg.NotifyWebhookSecret, cfg.NotifyTimeout)
}
