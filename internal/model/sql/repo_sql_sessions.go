package sql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"irportal/internal/entity/db"

	"gorm.io/gorm"
)

// CreateSession records an issued session token.
func (r *GormRepository) CreateSession(ctx context.Context, session *db.Session) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if session == nil || strings.TrimSpace(session.ID) == "" || session.UserID == 0 {
		return fmt.Errorf("invalid session")
	}
	return r.db.WithContext(ctx).Create(session).Error
}

// GetSession loads a session by its token id.
func (r *GormRepository) GetSession(ctx context.Context, id string) (*db.Session, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if strings.TrimSpace(id) == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var session db.Session
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// RevokeSession marks one session revoked. Revoking twice is a no-op.
func (r *GormRepository) RevokeSession(ctx context.Context, id string, at time.Time) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	return r.db.WithContext(ctx).
		Model(&db.Session{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", at).Error
}

// RevokeUserSessions revokes every live session of a user.
func (r *GormRepository) RevokeUserSessions(ctx context.Context, userID uint, at time.Time) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	return revokeUserSessions(r.db.WithContext(ctx), userID, at)
}

func revokeUserSessions(tx *gorm.DB, userID uint, at time.Time) error {
	return tx.Model(&db.Session{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", at).Error
}
