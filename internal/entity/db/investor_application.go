package db

import "time"

const (
	ApplicationStatusPending  = "pending"
	ApplicationStatusApproved = "approved"
	ApplicationStatusDenied   = "denied"
)

// InvestorApplication 投资人申请，每个用户至多一条，重新提交会覆盖。
type InvestorApplication struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint  `gorm:"column:user_id;uniqueIndex;not null" json:"user_id"`
	User   *User `gorm:"foreignKey:UserID" json:"-"`

	Pitch         string `gorm:"column:pitch;type:text;not null" json:"pitch"`
	Accreditation bool   `gorm:"column:accreditation;not null;default:false" json:"accreditation"`
	Status        string `gorm:"column:status;type:varchar(20);index;not null;default:'pending'" json:"status"`

	DecidedBy   *uint      `gorm:"column:decided_by" json:"decided_by"`
	DecidedAt   *time.Time `gorm:"column:decided_at" json:"decided_at"`
	SubmittedAt time.Time  `gorm:"column:submitted_at;index;not null" json:"submitted_at"`

	EvidencePath string `gorm:"column:evidence_path;type:varchar(1024)" json:"evidence_path"`
}

// TableName 指定表名
func (InvestorApplication) TableName() string {
	return "investor_applications"
}

// IsValidDecision reports whether decision is a terminal status an admin may set.
func IsValidDecision(decision string) bool {
	return decision == ApplicationStatusApproved || decision == ApplicationStatusDenied
}

// ApplicationRow is an application joined with its submitter and decider.
type ApplicationRow struct {
	InvestorApplication
	Email          string
	FirstName      string
	LastName       string
	DecidedByEmail string
}

// DecisionResult is what a committed admin decision changed.
type DecisionResult struct {
	Application *InvestorApplication
	Owner       *User
	Action      *AdminAction
}
