package converter

import (
	"irportal/internal/entity/db"
	"irportal/internal/entity/dto"
)

// UserToSummary converts a db.User to dto.UserSummary.
func UserToSummary(u *db.User) dto.UserSummary {
	if u == nil {
		return dto.UserSummary{}
	}
	summary := dto.UserSummary{
		ID:         u.ID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Role:       u.Role,
		UserType:   u.Role,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
	if u.StackUserID != nil {
		summary.StackUserID = *u.StackUserID
	}
	return summary
}
