package db

import "time"

const (
	UserRoleStandard = "standard"
	UserRoleInvestor = "investor"
	UserRoleAdmin    = "admin"
)

// User 表示持久化的用户账户。role 是唯一的授权字段，user_type 仅为兼容旧读取方而保留，始终与 role 一致。
type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	StackUserID  *string   `gorm:"column:stack_user_id;type:varchar(255);uniqueIndex" json:"stack_user_id,omitempty"`
	Email        string    `gorm:"column:email;type:varchar(255);uniqueIndex;not null" json:"email"`
	FirstName    string    `gorm:"column:first_name;type:varchar(255)" json:"first_name"`
	LastName     string    `gorm:"column:last_name;type:varchar(255)" json:"last_name"`
	PasswordHash *string   `gorm:"column:password_hash;type:varchar(255)" json:"-"`
	Role         string    `gorm:"column:role;type:varchar(50);index;not null;default:'standard'" json:"role"`
	UserType     string    `gorm:"column:user_type;type:varchar(50)" json:"user_type"`
	IsVerified   bool      `gorm:"column:is_verified;not null;default:false" json:"is_verified"`
}

// TableName 指定表名。
func (User) TableName() string {
	return "users"
}

// HasPassword 判断账户是否设置了本地密码（身份提供方创建的账户没有）。
func (u *User) HasPassword() bool {
	return u != nil && u.PasswordHash != nil && *u.PasswordHash != ""
}

// IsValidRole reports whether role is one of the known roles.
func IsValidRole(role string) bool {
	switch role {
	case UserRoleStandard, UserRoleInvestor, UserRoleAdmin:
		return true
	default:
		return false
	}
}
