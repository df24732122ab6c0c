package db

// UserUpdates 用户更新字段
type UserUpdates struct {
	FirstName    *string
	LastName     *string
	Email        *string
	Role         *string
	PasswordHash *string
	IsVerified   *bool
	StackUserID  *string
}

// ToMap 转换为 GORM 更新 map（内部使用）。role 与 user_type 总是一起写入。
func (u UserUpdates) ToMap() map[string]interface{} {
	updates := make(map[string]interface{})
	if u.FirstName != nil {
		updates["first_name"] = *u.FirstName
	}
	if u.LastName != nil {
		updates["last_name"] = *u.LastName
	}
	if u.Email != nil {
		updates["email"] = *u.Email
	}
	if u.Role != nil {
		updates["role"] = *u.Role
		updates["user_type"] = *u.Role
	}
	if u.PasswordHash != nil {
		updates["password_hash"] = *u.PasswordHash
	}
	if u.IsVerified != nil {
		updates["is_verified"] = *u.IsVerified
	}
	if u.StackUserID != nil {
		updates["stack_user_id"] = *u.StackUserID
	}
	return updates
}

// IsEmpty 检查是否没有任何更新字段
func (u UserUpdates) IsEmpty() bool {
	return len(u.ToMap()) == 0
}
