package db

import "time"

// Session 记录一次签发的会话令牌（jti），登出或重置密码时吊销。
type Session struct {
	ID        string     `gorm:"primarykey;type:varchar(64)" json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UserID    uint       `gorm:"column:user_id;index;not null" json:"user_id"`
	ExpiresAt time.Time  `gorm:"column:expires_at;index;not null" json:"expires_at"`
	RevokedAt *time.Time `gorm:"column:revoked_at" json:"revoked_at"`
	UserAgent string     `gorm:"column:user_agent;type:varchar(512)" json:"user_agent"`
	IP        string     `gorm:"column:ip;type:varchar(64)" json:"ip"`
}

// TableName 指定表名
func (Session) TableName() string {
	return "portal_sessions"
}

// Active reports whether the session may still authenticate requests at now.
func (s *Session) Active(now time.Time) bool {
	return s != nil && s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
