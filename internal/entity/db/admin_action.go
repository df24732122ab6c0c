package db

import "time"

const (
	AdminActionApproveApplication = "approve_investor_application"
	AdminActionDenyApplication    = "deny_investor_application"
)

// AdminAction is an append-only audit row; it is never updated or deleted.
type AdminAction struct {
	ID                  uint      `gorm:"primarykey" json:"id"`
	CreatedAt           time.Time `json:"created_at"`
	AdminID             uint      `gorm:"column:admin_id;index;not null" json:"admin_id"`
	Action              string    `gorm:"column:action;type:varchar(100);not null" json:"action"`
	TargetApplicationID uint      `gorm:"column:target_application_id;index;not null" json:"target_application_id"`
}

// TableName 指定表名
func (AdminAction) TableName() string {
	return "admin_actions"
}

// AdminActionForDecision maps an application decision to its audit label.
func AdminActionForDecision(decision string) string {
	if decision == ApplicationStatusApproved {
		return AdminActionApproveApplication
	}
	return AdminActionDenyApplication
}
