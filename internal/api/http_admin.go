package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"irportal/internal/entity/converter"
	"irportal/internal/entity/dto"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ListRequests 管理员查看全部申请，最新提交在前
func (h *HTTPHandler) ListRequests(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	rows, err := h.applicationService.List(ctx)
	if err != nil {
		RespondServiceError(c, err, "failed to list applications")
		return
	}
	c.JSON(http.StatusOK, dto.ApplicationListResponse{Applications: converter.ApplicationRowsToItems(rows)})
}

// DecideRequest 管理员批准或拒绝申请
func (h *HTTPHandler) DecideRequest(c *gin.Context) {
	admin := CurrentUser(c)
	if admin == nil {
		Unauthorized(c, unauthorizedMessage)
		return
	}

	var req dto.DecisionRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	result, err := h.applicationService.Decide(ctx, admin.ID, req.ApplicationID, req.Decision)
	if err != nil {
		RespondServiceError(c, err, "failed to decide application")
		return
	}
	c.JSON(http.StatusOK, dto.DecisionResponse{
		OK:            true,
		Decision:      result.Application.Status,
		ApplicationID: result.Application.ID,
	})
}

// DownloadEvidence 管理员下载申请的资质证明
func (h *HTTPHandler) DownloadEvidence(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		BadRequest(c, ErrCodeInvalidRequest, "invalid application id")
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	evidence, err := h.applicationService.OpenEvidence(ctx, uint(id))
	if err != nil {
		RespondServiceError(c, err, "failed to open evidence")
		return
	}
	defer evidence.Body.Close()

	c.Header("Content-Type", evidence.ContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", evidence.Filename))
	c.Header("Cache-Control", "no-store")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, evidence.Body); err != nil {
		logrus.WithError(err).WithField("application_id", id).Warn("evidence stream interrupted")
	}
}

// MigrateDatabase 管理员触发数据库迁移
func (h *HTTPHandler) MigrateDatabase(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.repo.Migrate(ctx); err != nil {
		logrus.WithError(err).Error("database migration failed")
		InternalError(c, "migration failed")
		return
	}
	logrus.WithField("admin_id", CurrentUser(c).ID).Info("database migrated")
	c.JSON(http.StatusOK, dto.MessageResponse{OK: true, Message: "migrations applied"})
}
