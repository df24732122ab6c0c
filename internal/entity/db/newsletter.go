package db

import "time"

// NewsletterSignup 官网订阅邮箱
type NewsletterSignup struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Email     string    `gorm:"column:email;type:varchar(255);uniqueIndex;not null" json:"email"`
	Source    string    `gorm:"column:source;type:varchar(100)" json:"source"`
}

// TableName 指定表名
func (NewsletterSignup) TableName() string {
	return "newsletter_signups"
}
