package model

import (
	"context"
	"irportal/internal/entity/db"
	"irportal/internal/model/sql"
	"time"
)

// ErrDuplicate 唯一约束冲突（邮箱重复等）
var ErrDuplicate = sql.ErrDuplicate

// Repository 定义数据库操作接口
type Repository interface {
	// 用户管理
	CreateUser(ctx context.Context, user *db.User) error
	UpdateUser(ctx context.Context, id uint, updates db.UserUpdates) error
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	GetUserByID(ctx context.Context, id uint) (*db.User, error)
	GetUserByStackID(ctx context.Context, stackUserID string) (*db.User, error)
	DeleteUser(ctx context.Context, id uint) error

	// 会话
	CreateSession(ctx context.Context, session *db.Session) error
	GetSession(ctx context.Context, id string) (*db.Session, error)
	RevokeSession(ctx context.Context, id string, at time.Time) error
	RevokeUserSessions(ctx context.Context, userID uint, at time.Time) error

	// 密码重置
	CreatePasswordResetToken(ctx context.Context, token *db.PasswordResetToken) error
	GetActivePasswordResetToken(ctx context.Context, tokenHash string, now time.Time) (*db.PasswordResetToken, error)
	ConsumePasswordResetToken(ctx context.Context, tokenID uint, userID uint, passwordHash string, now time.Time) error

	// 投资人申请
	UpsertApplication(ctx context.Context, app *db.InvestorApplication) (*db.InvestorApplication, error)
	GetApplication(ctx context.Context, id uint) (*db.InvestorApplication, error)
	GetApplicationByUser(ctx context.Context, userID uint) (*db.InvestorApplication, error)
	SetApplicationEvidence(ctx context.Context, id uint, path string) error
	ListApplications(ctx context.Context) ([]db.ApplicationRow, error)
	DecideApplication(ctx context.Context, adminID, applicationID uint, decision string, at time.Time) (*db.DecisionResult, error)
	ListAdminActions(ctx context.Context, applicationID uint) ([]db.AdminAction, error)

	// 订阅
	CreateNewsletterSignup(ctx context.Context, signup *db.NewsletterSignup) (bool, error)

	Migrate(ctx context.Context) error
	Close() error
}
