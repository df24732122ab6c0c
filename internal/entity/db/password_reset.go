package db

import "time"

// PasswordResetToken stores only the SHA-256 of the token handed to the user.
type PasswordResetToken struct {
	ID        uint       `gorm:"primarykey" json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UserID    uint       `gorm:"column:user_id;index;not null" json:"user_id"`
	TokenHash string     `gorm:"column:token_hash;type:varchar(128);uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time  `gorm:"column:expires_at;not null" json:"expires_at"`
	UsedAt    *time.Time `gorm:"column:used_at" json:"used_at"`
}

// TableName 指定表名
func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}
