package sql

import (
	"context"
	"fmt"
	"time"

	"irportal/internal/entity/db"

	"gorm.io/gorm"
)

// CreatePasswordResetToken stores a hashed reset token.
func (r *GormRepository) CreatePasswordResetToken(ctx context.Context, token *db.PasswordResetToken) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if token == nil || token.UserID == 0 || token.TokenHash == "" {
		return fmt.Errorf("invalid reset token")
	}
	return classifyError(r.db.WithContext(ctx).Create(token).Error)
}

// GetActivePasswordResetToken returns the token only while it is unexpired and unused.
func (r *GormRepository) GetActivePasswordResetToken(ctx context.Context, tokenHash string, now time.Time) (*db.PasswordResetToken, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	var token db.PasswordResetToken
	err := r.db.WithContext(ctx).
		Where("token_hash = ? AND used_at IS NULL AND expires_at > ?", tokenHash, now).
		First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// ConsumePasswordResetToken sets the new password, marks the token used and
// revokes the user's sessions in one transaction. A token consumed concurrently
// yields gorm.ErrRecordNotFound.
func (r *GormRepository) ConsumePasswordResetToken(ctx context.Context, tokenID uint, userID uint, passwordHash string, now time.Time) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&db.PasswordResetToken{}).
			Where("id = ? AND user_id = ? AND used_at IS NULL AND expires_at > ?", tokenID, userID, now).
			Update("used_at", now)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		result = tx.Model(&db.User{}).Where("id = ?", userID).Update("password_hash", passwordHash)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return revokeUserSessions(tx, userID, now)
	})
}
