package sql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"irportal/internal/entity/db"

	"gorm.io/gorm/clause"
)

// CreateNewsletterSignup stores the address once. created is false when it was already subscribed.
func (r *GormRepository) CreateNewsletterSignup(ctx context.Context, signup *db.NewsletterSignup) (bool, error) {
	if r == nil || r.db == nil {
		return false, fmt.Errorf("repository not initialised")
	}
	if signup == nil {
		return false, fmt.Errorf("signup is nil")
	}
	signup.Email = strings.ToLower(strings.TrimSpace(signup.Email))
	if signup.Email == "" {
		return false, fmt.Errorf("email is empty")
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(signup)
	if result.Error != nil {
		err := classifyError(result.Error)
		if errors.Is(err, ErrDuplicate) {
			return false, nil
		}
		return false, err
	}
	return result.RowsAffected > 0, nil
}
