package dto

import "time"

// UserSummary is a lightweight user description returned to clients.
type UserSummary struct {
	ID          uint      `json:"id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Role        string    `json:"role"`
	UserType    string    `json:"userType"`
	IsVerified  bool      `json:"isVerified"`
	StackUserID string    `json:"stackUserId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// MeResponse wraps the resolved user for auth/me.
type MeResponse struct {
	User UserSummary `json:"user"`
}
