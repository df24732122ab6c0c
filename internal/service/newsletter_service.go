package service

import (
	"context"
	"fmt"
	"strings"

	"irportal/internal/entity/db"
	"irportal/internal/model"

	"github.com/sirupsen/logrus"
)

// NewsletterService 官网邮件订阅
type NewsletterService struct {
	repo model.Repository
}

// NewNewsletterService 创建订阅服务
func NewNewsletterService(repo model.Repository) *NewsletterService {
	return &NewsletterService{repo: repo}
}

// Subscribe stores email once. created is false when it was already on the list.
func (s *NewsletterService) Subscribe(ctx context.Context, email, source string) (bool, error) {
	normalised, err := normaliseEmail(email)
	if err != nil {
		return false, err
	}
	created, err := s.repo.CreateNewsletterSignup(ctx, &db.NewsletterSignup{
		Email:  normalised,
		Source: truncate(strings.TrimSpace(source), 100),
	})
	if err != nil {
		return false, fmt.Errorf("store signup: %w", err)
	}
	if created {
		logrus.WithField("source", source).Info("newsletter signup")
	}
	return created, nil
}
