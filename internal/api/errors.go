package api

import (
	"errors"
	"net/http"
	"strings"

	"irportal/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// 错误码定义
const (
	// 通用错误码
	ErrCodeInvalidRequest     = "ERR_INVALID_REQUEST"
	ErrCodeUnauthorized       = "ERR_UNAUTHORIZED"
	ErrCodeForbidden          = "ERR_FORBIDDEN"
	ErrCodeNotFound           = "ERR_NOT_FOUND"
	ErrCodeInternalError      = "ERR_INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "ERR_SERVICE_UNAVAILABLE"

	// 认证错误码
	ErrCodeInvalidCredentials = "ERR_INVALID_CREDENTIALS"
	ErrCodeEmailExists        = "ERR_EMAIL_EXISTS"
	ErrCodePasswordTooShort   = "ERR_PASSWORD_TOO_SHORT"
	ErrCodePasswordTooLong    = "ERR_PASSWORD_TOO_LONG"
	ErrCodePasswordBlank      = "ERR_PASSWORD_BLANK"
	ErrCodeInvalidEmail       = "ERR_INVALID_EMAIL"
	ErrCodeInvalidResetToken  = "ERR_INVALID_RESET_TOKEN"
	ErrCodeInvalidSignature   = "ERR_INVALID_SIGNATURE"

	// 资源错误码
	ErrCodeApplicationNotFound = "ERR_APPLICATION_NOT_FOUND"
	ErrCodeEvidenceNotFound    = "ERR_EVIDENCE_NOT_FOUND"

	// 业务逻辑错误码
	ErrCodeMissingField     = "ERR_MISSING_FIELD"
	ErrCodeInvalidDecision  = "ERR_INVALID_DECISION"
	ErrCodeInvalidEvidence  = "ERR_INVALID_EVIDENCE"
	ErrCodeEvidenceTooLarge = "ERR_EVIDENCE_TOO_LARGE"
)

// unauthorizedMessage 所有未认证情况使用同一条消息
const unauthorizedMessage = "authentication required"

const (
	passwordTooShortMessage = "password must be at least 8 characters"
	passwordTooLongMessage  = "password must be at most 72 bytes"
	invalidDecisionMessage  = "decision must be approved or denied"
)

// APIError 统一的 API 错误响应结构
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse 返回统一格式的错误响应
func ErrorResponse(c *gin.Context, status int, code string, message string) {
	c.JSON(status, APIError{
		Code:    code,
		Message: message,
	})
}

// ErrorResponseWithDetails 返回带详情的错误响应
func ErrorResponseWithDetails(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, APIError{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// 常用错误响应快捷函数

// BadRequest 400 错误请求
func BadRequest(c *gin.Context, code string, message string) {
	ErrorResponse(c, http.StatusBadRequest, code, message)
}

// Unauthorized 401 未授权
func Unauthorized(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// Forbidden 403 禁止访问
func Forbidden(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusForbidden, ErrCodeForbidden, message)
}

// NotFound 404 资源不存在
func NotFound(c *gin.Context, code string, message string) {
	ErrorResponse(c, http.StatusNotFound, code, message)
}

// InternalError 500 服务器内部错误
func InternalError(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// ServiceUnavailable 503 服务不可用
func ServiceUnavailable(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, message)
}

// MissingField 缺少必填字段
func MissingField(c *gin.Context, field string) {
	ErrorResponseWithDetails(c, http.StatusBadRequest, ErrCodeMissingField, field+" is required", gin.H{"field": field})
}

// InvalidPayload 无效的请求体
func InvalidPayload(c *gin.Context) {
	ErrorResponse(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request payload")
}

// RespondServiceError 将服务层错误翻译为 HTTP 响应，未知错误只记录日志
func RespondServiceError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, service.ErrMissingField):
		field := strings.TrimSpace(strings.TrimPrefix(err.Error(), service.ErrMissingField.Error()+":"))
		MissingField(c, field)
	case errors.Is(err, service.ErrInvalidEmail):
		BadRequest(c, ErrCodeInvalidEmail, "invalid email address")
	case errors.Is(err, service.ErrPasswordTooShort):
		BadRequest(c, ErrCodePasswordTooShort, passwordTooShortMessage)
	case errors.Is(err, service.ErrPasswordTooLong):
		BadRequest(c, ErrCodePasswordTooLong, passwordTooLongMessage)
	case errors.Is(err, service.ErrPasswordBlank):
		BadRequest(c, ErrCodePasswordBlank, "password must not be blank")
	case errors.Is(err, service.ErrInvalidDecision):
		BadRequest(c, ErrCodeInvalidDecision, invalidDecisionMessage)
	case errors.Is(err, service.ErrInvalidResetToken):
		BadRequest(c, ErrCodeInvalidResetToken, "reset link is invalid or has expired")
	case errors.Is(err, service.ErrInvalidEvidence):
		BadRequest(c, ErrCodeInvalidEvidence, "evidence must be a pdf, png or jpeg document")
	case errors.Is(err, service.ErrEvidenceTooLarge):
		BadRequest(c, ErrCodeEvidenceTooLarge, "evidence document is too large")
	case errors.Is(err, service.ErrInvalidCredentials):
		ErrorResponse(c, http.StatusUnauthorized, ErrCodeInvalidCredentials, "invalid email or password")
	case errors.Is(err, service.ErrUnauthorized):
		Unauthorized(c, unauthorizedMessage)
	case errors.Is(err, service.ErrEmailExists):
		ErrorResponse(c, http.StatusConflict, ErrCodeEmailExists, "email already registered")
	case errors.Is(err, service.ErrApplicationNotFound):
		NotFound(c, ErrCodeApplicationNotFound, "application not found")
	case errors.Is(err, service.ErrEvidenceNotFound):
		NotFound(c, ErrCodeEvidenceNotFound, "no evidence on file")
	case errors.Is(err, service.ErrStorageUnavailable):
		ServiceUnavailable(c, "evidence storage not configured")
	default:
		logrus.WithError(err).WithFields(logrus.Fields{
			"path":       c.Request.URL.Path,
			"request_id": c.GetString(requestIDContextKey),
		}).Error(logMsg)
		InternalError(c, "internal server error")
	}
}
