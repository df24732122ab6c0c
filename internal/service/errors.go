package service

import (
	"errors"
	"fmt"
)

// 业务错误，由 api 层通过 errors.Is 翻译为 HTTP 响应
var (
	ErrMissingField        = errors.New("missing field")
	ErrInvalidEmail        = errors.New("invalid email")
	ErrPasswordTooShort    = errors.New("password too short")
	ErrPasswordTooLong     = errors.New("password too long")
	ErrPasswordBlank       = errors.New("password must not be blank")
	ErrEmailExists         = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidResetToken   = errors.New("invalid or expired reset token")
	ErrApplicationNotFound = errors.New("application not found")
	ErrInvalidDecision     = errors.New("invalid decision")
	ErrInvalidEvidence     = errors.New("unsupported evidence document")
	ErrEvidenceTooLarge    = errors.New("evidence document too large")
	ErrEvidenceNotFound    = errors.New("evidence not found")
	ErrStorageUnavailable  = errors.New("evidence storage not configured")
	ErrProviderUserUnknown = errors.New("provider user has no linked account")
)

// missingField wraps ErrMissingField with the field name.
func missingField(field string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, field)
}
