package sql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"irportal/internal/entity/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertApplication inserts the user's application or overwrites the existing one.
// Resubmission resets the status to pending and clears the previous decision.
func (r *GormRepository) UpsertApplication(ctx context.Context, app *db.InvestorApplication) (*db.InvestorApplication, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if app == nil || app.UserID == 0 {
		return nil, fmt.Errorf("invalid application")
	}

	now := time.Now().UTC()
	if app.SubmittedAt.IsZero() {
		app.SubmittedAt = now
	}
	app.Status = db.ApplicationStatusPending
	app.DecidedBy = nil
	app.DecidedAt = nil

	row := &db.InvestorApplication{
		UserID:        app.UserID,
		Pitch:         app.Pitch,
		Accreditation: app.Accreditation,
		Status:        app.Status,
		SubmittedAt:   app.SubmittedAt,
		EvidencePath:  app.EvidencePath,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"pitch":         app.Pitch,
			"accreditation": app.Accreditation,
			"status":        db.ApplicationStatusPending,
			"decided_by":    nil,
			"decided_at":    nil,
			"submitted_at":  app.SubmittedAt,
			"updated_at":    now,
		}),
	}).Create(row).Error
	if err != nil {
		return nil, classifyError(err)
	}

	return r.GetApplicationByUser(ctx, app.UserID)
}

// GetApplication loads an application by id.
func (r *GormRepository) GetApplication(ctx context.Context, id uint) (*db.InvestorApplication, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	var app db.InvestorApplication
	if err := r.db.WithContext(ctx).First(&app, id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

// GetApplicationByUser loads the application owned by a user.
func (r *GormRepository) GetApplicationByUser(ctx context.Context, userID uint) (*db.InvestorApplication, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	var app db.InvestorApplication
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&app).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

// SetApplicationEvidence records the storage path of an uploaded evidence document.
func (r *GormRepository) SetApplicationEvidence(ctx context.Context, id uint, path string) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	result := r.db.WithContext(ctx).
		Model(&db.InvestorApplication{}).
		Where("id = ?", id).
		Update("evidence_path", strings.TrimSpace(path))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListApplications returns every application with submitter and decider details,
// newest submission first.
func (r *GormRepository) ListApplications(ctx context.Context) ([]db.ApplicationRow, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}

	var rows []db.ApplicationRow
	err := r.db.WithContext(ctx).
		Table("investor_applications AS a").
		Select(`a.id, a.created_at, a.updated_at, a.user_id, a.pitch, a.accreditation, a.status,
			a.decided_by, a.decided_at, a.submitted_at, a.evidence_path,
			u.email AS email, u.first_name AS first_name, u.last_name AS last_name,
			COALESCE(d.email, '') AS decided_by_email`).
		Joins("JOIN users u ON u.id = a.user_id").
		Joins("LEFT JOIN users d ON d.id = a.decided_by").
		Order("a.submitted_at DESC, a.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DecideApplication applies an admin decision atomically: the status change,
// the owner's role promotion on approval and the audit row commit together.
func (r *GormRepository) DecideApplication(ctx context.Context, adminID, applicationID uint, decision string, at time.Time) (*db.DecisionResult, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if !db.IsValidDecision(decision) {
		return nil, fmt.Errorf("invalid decision %q", decision)
	}

	var result db.DecisionResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx
		if r.supportsRowLocks() {
			query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var app db.InvestorApplication
		if err := query.First(&app, applicationID).Error; err != nil {
			return err
		}

		decidedBy := adminID
		decidedAt := at.UTC()
		if err := tx.Model(&db.InvestorApplication{}).Where("id = ?", app.ID).Updates(map[string]interface{}{
			"status":     decision,
			"decided_by": decidedBy,
			"decided_at": decidedAt,
		}).Error; err != nil {
			return err
		}
		app.Status = decision
		app.DecidedBy = &decidedBy
		app.DecidedAt = &decidedAt

		var owner db.User
		if err := tx.First(&owner, app.UserID).Error; err != nil {
			return err
		}
		// 批准时提升为投资人，管理员不降级；拒绝不改变角色
		if decision == db.ApplicationStatusApproved && owner.Role != db.UserRoleAdmin {
			if err := tx.Model(&db.User{}).Where("id = ?", owner.ID).Updates(map[string]interface{}{
				"role":      db.UserRoleInvestor,
				"user_type": db.UserRoleInvestor,
			}).Error; err != nil {
				return err
			}
			owner.Role = db.UserRoleInvestor
			owner.UserType = db.UserRoleInvestor
		}

		action := &db.AdminAction{
			CreatedAt:           decidedAt,
			AdminID:             adminID,
			Action:              db.AdminActionForDecision(decision),
			TargetApplicationID: app.ID,
		}
		if err := tx.Create(action).Error; err != nil {
			return err
		}

		result = db.DecisionResult{Application: &app, Owner: &owner, Action: action}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListAdminActions returns the audit trail of an application in insertion order.
func (r *GormRepository) ListAdminActions(ctx context.Context, applicationID uint) ([]db.AdminAction, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	var actions []db.AdminAction
	if err := r.db.WithContext(ctx).
		Where("target_application_id = ?", applicationID).
		Order("id ASC").
		Find(&actions).Error; err != nil {
		return nil, err
	}
	return actions, nil
}
