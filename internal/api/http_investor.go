package api

import (
	"errors"
	"io"
	"net/http"

	"irportal/internal/entity/converter"
	"irportal/internal/entity/dto"
	"irportal/internal/service"

	"github.com/gin-gonic/gin"
)

// multipart 头部等额外开销
const multipartOverhead = 64 << 10

// Apply 提交或重新提交投资人申请
func (h *HTTPHandler) Apply(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, unauthorizedMessage)
		return
	}

	var req dto.ApplyRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	app, err := h.applicationService.Submit(ctx, user.ID, req.Pitch, req.Accreditation)
	if err != nil {
		RespondServiceError(c, err, "failed to submit application")
		return
	}
	c.JSON(http.StatusOK, dto.ApplicationResponse{Application: converter.ApplicationToItem(app)})
}

// GetApplication 返回当前用户自己的申请
func (h *HTTPHandler) GetApplication(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, unauthorizedMessage)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	app, err := h.applicationService.GetOwn(ctx, user.ID)
	if err != nil {
		RespondServiceError(c, err, "failed to load application")
		return
	}
	c.JSON(http.StatusOK, dto.ApplicationResponse{Application: converter.ApplicationToItem(app)})
}

// UploadEvidence 上传资质证明文件（multipart 字段 file）
func (h *HTTPHandler) UploadEvidence(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, unauthorizedMessage)
		return
	}

	limit := h.cfg.EvidenceMaxBytes
	if limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			BadRequest(c, ErrCodeEvidenceTooLarge, "evidence document is too large")
			return
		}
		MissingField(c, "file")
		return
	}
	if limit > 0 && fileHeader.Size > limit {
		BadRequest(c, ErrCodeEvidenceTooLarge, "evidence document is too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		InvalidPayload(c)
		return
	}
	defer file.Close()

	var reader io.Reader = file
	if limit > 0 {
		reader = io.LimitReader(file, limit+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	app, err := h.applicationService.AttachEvidence(ctx, user.ID, fileHeader.Filename, data)
	if err != nil {
		if errors.Is(err, service.ErrApplicationNotFound) {
			NotFound(c, ErrCodeApplicationNotFound, "submit an application before uploading evidence")
			return
		}
		RespondServiceError(c, err, "failed to attach evidence")
		return
	}
	c.JSON(http.StatusOK, dto.ApplicationResponse{Application: converter.ApplicationToItem(app)})
}
