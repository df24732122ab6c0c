package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"irportal/internal/config"
	"irportal/internal/entity/db"
	"irportal/internal/model"
	"irportal/internal/notify"
	"irportal/internal/storage"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// 允许上传的证明文件类型：扩展名 -> 嗅探到的 MIME 类型
var evidenceTypes = map[string]string{
	"pdf":  "application/pdf",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
}

// ApplicationService 投资人申请流程
type ApplicationService struct {
	cfg        config.Config
	repo       model.Repository
	storage    storage.Storage
	dispatcher *notify.Dispatcher
	mirror     UserMirror
	now        func() time.Time
}

// NewApplicationService 创建申请服务
func NewApplicationService(cfg config.Config, repo model.Repository, store storage.Storage, dispatcher *notify.Dispatcher) *ApplicationService {
	return &ApplicationService{
		cfg:        cfg,
		repo:       repo,
		storage:    store,
		dispatcher: dispatcher,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetMirror enables user export after role changes.
func (s *ApplicationService) SetMirror(m UserMirror) {
	s.mirror = m
}

// Submit creates or replaces the user's application and resets it to pending.
func (s *ApplicationService) Submit(ctx context.Context, userID uint, pitch string, accreditation bool) (*db.InvestorApplication, error) {
	pitch = strings.TrimSpace(pitch)
	if pitch == "" {
		return nil, missingField("pitch")
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("load applicant: %w", err)
	}

	app, err := s.repo.UpsertApplication(ctx, &db.InvestorApplication{
		UserID:        userID,
		Pitch:         pitch,
		Accreditation: accreditation,
		SubmittedAt:   s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("upsert application: %w", err)
	}

	s.dispatcher.Dispatch(notify.Message{Type: notify.EventApplicationReceived, To: user.Email, FirstName: user.FirstName})
	for _, admin := range s.cfg.AdminEmails {
		s.dispatcher.Dispatch(notify.Message{
			Type: notify.EventAdminAlert,
			To:   admin,
			Data: map[string]string{
				"applicant":     user.Email,
				"accreditation": strconv.FormatBool(accreditation),
				"applicationId": strconv.FormatUint(uint64(app.ID), 10),
			},
		})
	}

	logrus.WithFields(logrus.Fields{"user_id": userID, "application_id": app.ID}).Info("investor application submitted")
	return app, nil
}

// Decide records an admin decision. See Repository.DecideApplication for atomicity.
func (s *ApplicationService) Decide(ctx context.Context, adminID, applicationID uint, decision string) (*db.DecisionResult, error) {
	decision = strings.ToLower(strings.TrimSpace(decision))
	if !db.IsValidDecision(decision) {
		return nil, ErrInvalidDecision
	}
	if applicationID == 0 {
		return nil, missingField("applicationId")
	}

	result, err := s.repo.DecideApplication(ctx, adminID, applicationID, decision, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("decide application: %w", err)
	}

	if result.Owner != nil {
		if s.mirror != nil {
			s.mirror.PushUser(result.Owner)
		}
		s.dispatcher.Dispatch(notify.Message{
			Type:      notify.EventApplicationDecided,
			To:        result.Owner.Email,
			FirstName: result.Owner.FirstName,
			Data:      map[string]string{"decision": decision},
		})
	}

	logrus.WithFields(logrus.Fields{
		"admin_id":       adminID,
		"application_id": applicationID,
		"decision":       decision,
	}).Info("investor application decided")
	return result, nil
}

// List returns every application for the admin dashboard.
func (s *ApplicationService) List(ctx context.Context) ([]db.ApplicationRow, error) {
	rows, err := s.repo.ListApplications(ctx)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return rows, nil
}

// GetOwn returns the caller's application.
func (s *ApplicationService) GetOwn(ctx context.Context, userID uint) (*db.InvestorApplication, error) {
	app, err := s.repo.GetApplicationByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("load application: %w", err)
	}
	return app, nil
}

// AttachEvidence stores an accreditation document for the caller's application.
func (s *ApplicationService) AttachEvidence(ctx context.Context, userID uint, filename string, data []byte) (*db.InvestorApplication, error) {
	if s.storage == nil {
		return nil, ErrStorageUnavailable
	}
	if len(data) == 0 {
		return nil, missingField("file")
	}
	if s.cfg.EvidenceMaxBytes > 0 && int64(len(data)) > s.cfg.EvidenceMaxBytes {
		return nil, ErrEvidenceTooLarge
	}
	ext, err := evidenceExtension(filename, data)
	if err != nil {
		return nil, err
	}

	app, err := s.GetOwn(ctx, userID)
	if err != nil {
		return nil, err
	}

	key, err := s.storage.Save(ctx, data, storage.SaveOptions{
		Category:  "evidence",
		BaseName:  fmt.Sprintf("application-%d-%d", app.ID, s.now().UnixNano()),
		Extension: ext,
	})
	if err != nil {
		return nil, fmt.Errorf("store evidence: %w", err)
	}
	if err := s.repo.SetApplicationEvidence(ctx, app.ID, key); err != nil {
		return nil, fmt.Errorf("record evidence: %w", err)
	}
	app.EvidencePath = key
	logrus.WithFields(logrus.Fields{"application_id": app.ID, "key": key}).Info("evidence attached")
	return app, nil
}

// Evidence is an opened evidence document.
type Evidence struct {
	Body        io.ReadCloser
	ContentType string
	Filename    string
}

// OpenEvidence opens the evidence document of an application for admin download.
func (s *ApplicationService) OpenEvidence(ctx context.Context, applicationID uint) (*Evidence, error) {
	if s.storage == nil {
		return nil, ErrStorageUnavailable
	}
	app, err := s.repo.GetApplication(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("load application: %w", err)
	}
	if strings.TrimSpace(app.EvidencePath) == "" {
		return nil, ErrEvidenceNotFound
	}
	body, err := s.storage.Open(ctx, app.EvidencePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrEvidenceNotFound
		}
		return nil, fmt.Errorf("open evidence: %w", err)
	}
	return &Evidence{
		Body:        body,
		ContentType: storage.ContentTypeFor(app.EvidencePath),
		Filename:    filepath.Base(app.EvidencePath),
	}, nil
}

// evidenceExtension checks both the declared extension and the sniffed content.
func evidenceExtension(filename string, data []byte) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(strings.TrimSpace(filename)), "."))
	want, ok := evidenceTypes[ext]
	if !ok {
		return "", ErrInvalidEvidence
	}
	sniffed := http.DetectContentType(data)
	if !strings.HasPrefix(sniffed, want) {
		return "", ErrInvalidEvidence
	}
	if ext == "jpeg" {
		ext = "jpg"
	}
	return ext, nil
}
