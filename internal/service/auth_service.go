package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"irportal/internal/auth"
	"irportal/internal/config"
	"irportal/internal/entity/db"
	"irportal/internal/model"
	"irportal/internal/notify"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ProviderTokenVerifier verifies identity-provider bearer tokens.
type ProviderTokenVerifier interface {
	Verify(token string) (*auth.ProviderClaims, error)
}

// UserMirror receives user changes for best-effort export.
type UserMirror interface {
	PushUser(user *db.User)
}

// SessionMeta describes the client a session is issued to.
type SessionMeta struct {
	UserAgent string
	IP        string
}

// SignupInput is a signup request after transport decoding.
type SignupInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
}

// AuthResult is an issued session.
type AuthResult struct {
	User      *db.User
	Token     string
	ExpiresAt time.Time
}

// ProviderProfile is the identity-provider view of a user.
type ProviderProfile struct {
	StackUserID   string
	Email         string
	FirstName     string
	LastName      string
	EmailVerified bool
}

// AuthService 账户、会话与密码重置
type AuthService struct {
	cfg        config.Config
	repo       model.Repository
	tokens     *auth.Manager
	provider   ProviderTokenVerifier
	dispatcher *notify.Dispatcher
	mirror     UserMirror
	now        func() time.Time
}

// NewAuthService 创建认证服务
func NewAuthService(cfg config.Config, repo model.Repository, tokens *auth.Manager, dispatcher *notify.Dispatcher) *AuthService {
	return &AuthService{
		cfg:        cfg,
		repo:       repo,
		tokens:     tokens,
		dispatcher: dispatcher,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetProviderVerifier enables identity-provider bearer tokens.
func (s *AuthService) SetProviderVerifier(v ProviderTokenVerifier) {
	s.provider = v
}

// SetMirror enables user export on changes.
func (s *AuthService) SetMirror(m UserMirror) {
	s.mirror = m
}

// Signup creates a password account and issues its first session.
func (s *AuthService) Signup(ctx context.Context, in SignupInput, meta SessionMeta) (*AuthResult, error) {
	email, err := normaliseEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := s.resolveSignupRole(email, in.Role)
	user := &db.User{
		Email:        email,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PasswordHash: &hash,
		Role:         role,
		UserType:     role,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	result, err := s.issueSession(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(notify.Message{Type: notify.EventSignupWelcome, To: user.Email, FirstName: user.FirstName})
	s.pushMirror(user)
	logrus.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("user signed up")
	return result, nil
}

// resolveSignupRole: allow-listed emails are admins; otherwise only "investor" may be requested.
func (s *AuthService) resolveSignupRole(email, requested string) string {
	if s.cfg.IsAdminEmail(email) {
		return db.UserRoleAdmin
	}
	if strings.EqualFold(strings.TrimSpace(requested), db.UserRoleInvestor) {
		return db.UserRoleInvestor
	}
	return db.UserRoleStandard
}

// Login verifies a password and issues a session.
func (s *AuthService) Login(ctx context.Context, email, password string, meta SessionMeta) (*AuthResult, error) {
	normalised, err := normaliseEmail(email)
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, missingField("password")
	}

	user, err := s.repo.GetUserByEmail(ctx, normalised)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			auth.EqualiseTiming(password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.HasPassword() {
		auth.EqualiseTiming(password)
		return nil, ErrInvalidCredentials
	}
	if err := auth.VerifyPassword(*user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	if s.cfg.IsAdminEmail(user.Email) && user.Role != db.UserRoleAdmin {
		role := db.UserRoleAdmin
		if err := s.repo.UpdateUser(ctx, user.ID, db.UserUpdates{Role: &role}); err != nil {
			return nil, fmt.Errorf("promote admin: %w", err)
		}
		user.Role = role
		user.UserType = role
		s.pushMirror(user)
		logrus.WithField("user_id", user.ID).Info("allow-listed user promoted to admin")
	}

	return s.issueSession(ctx, user, meta)
}

func (s *AuthService) issueSession(ctx context.Context, user *db.User, meta SessionMeta) (*AuthResult, error) {
	sessionID := uuid.NewString()
	token, expiresAt, err := s.tokens.GenerateToken(user, sessionID)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	session := &db.Session{
		ID:        sessionID,
		UserID:    user.ID,
		ExpiresAt: expiresAt,
		UserAgent: truncate(meta.UserAgent, 512),
		IP:        truncate(meta.IP, 64),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// Logout revokes the session behind token. Unknown or invalid tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return nil
	}
	return s.repo.RevokeSession(ctx, claims.SessionID(), s.now())
}

// Authenticate resolves a bearer or cookie token to the current user row.
// Portal session tokens are tried first, then identity-provider tokens.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*db.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnauthorized
	}

	claims, err := s.tokens.ParseToken(token)
	if err == nil {
		return s.resolveSession(ctx, claims)
	}
	if s.provider == nil {
		return nil, ErrUnauthorized
	}

	providerClaims, perr := s.provider.Verify(token)
	if perr != nil {
		return nil, ErrUnauthorized
	}
	first, last := SplitName(providerClaims.DisplayName)
	user, err := s.SyncProviderUser(ctx, ProviderProfile{
		StackUserID:   providerClaims.Subject,
		Email:         providerClaims.Email,
		FirstName:     first,
		LastName:      last,
		EmailVerified: providerClaims.EmailVerified,
	})
	if err != nil {
		if errors.Is(err, ErrProviderUserUnknown) || errors.Is(err, ErrInvalidEmail) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) resolveSession(ctx context.Context, claims *auth.Claims) (*db.User, error) {
	session, err := s.repo.GetSession(ctx, claims.SessionID())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !session.Active(s.now()) || session.UserID != claims.UserID {
		return nil, ErrUnauthorized
	}
	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// ForgotPassword issues a reset token when the account exists. The caller always
// reports success so account existence is not revealed.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	normalised, err := normaliseEmail(email)
	if err != nil {
		return err
	}
	user, err := s.repo.GetUserByEmail(ctx, normalised)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("load user: %w", err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)
	record := &db.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: hashResetToken(token),
		ExpiresAt: s.now().Add(s.cfg.ResetTokenTTL),
	}
	if err := s.repo.CreatePasswordResetToken(ctx, record); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	resetURL := strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/reset-password?token=" + token
	s.dispatcher.Dispatch(notify.Message{
		Type:      notify.EventPasswordReset,
		To:        user.Email,
		FirstName: user.FirstName,
		Data: map[string]string{
			"resetURL":  resetURL,
			"token":     token,
			"expiresIn": s.cfg.ResetTokenTTL.String(),
		},
	})
	return nil
}

// ResetPassword consumes a reset token, sets the password and revokes every session of the user.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return missingField("token")
	}
	if err := validatePassword(password); err != nil {
		return err
	}

	now := s.now()
	record, err := s.repo.GetActivePasswordResetToken(ctx, hashResetToken(token), now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("load reset token: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.ConsumePasswordResetToken(ctx, record.ID, record.UserID, hash, now); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("consume reset token: %w", err)
	}
	logrus.WithField("user_id", record.UserID).Info("password reset completed")
	return nil
}

// SyncProviderUser links or creates the account for an identity-provider user.
func (s *AuthService) SyncProviderUser(ctx context.Context, p ProviderProfile) (*db.User, error) {
	stackID := strings.TrimSpace(p.StackUserID)
	if stackID == "" {
		return nil, missingField("id")
	}

	user, err := s.repo.GetUserByStackID(ctx, stackID)
	switch {
	case err == nil:
		return s.refreshProviderUser(ctx, user, p)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("load provider user: %w", err)
	}

	if strings.TrimSpace(p.Email) == "" {
		return nil, ErrProviderUserUnknown
	}
	email, err := normaliseEmail(p.Email)
	if err != nil {
		return nil, err
	}

	user, err = s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		// 按邮箱关联已有账户
		verified := user.IsVerified || p.EmailVerified
		if err := s.repo.UpdateUser(ctx, user.ID, db.UserUpdates{StackUserID: &stackID, IsVerified: &verified}); err != nil {
			return nil, fmt.Errorf("link provider user: %w", err)
		}
		user.StackUserID = &stackID
		user.IsVerified = verified
		s.pushMirror(user)
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load user: %w", err)
	}

	role := s.resolveSignupRole(email, "")
	user = &db.User{
		StackUserID: &stackID,
		Email:       email,
		FirstName:   strings.TrimSpace(p.FirstName),
		LastName:    strings.TrimSpace(p.LastName),
		Role:        role,
		UserType:    role,
		IsVerified:  p.EmailVerified,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create provider user: %w", err)
	}
	s.pushMirror(user)
	logrus.WithFields(logrus.Fields{"user_id": user.ID, "stack_user_id": stackID}).Info("provider user created")
	return user, nil
}

func (s *AuthService) refreshProviderUser(ctx context.Context, user *db.User, p ProviderProfile) (*db.User, error) {
	var updates db.UserUpdates
	if email, err := normaliseEmail(p.Email); err == nil && email != user.Email {
		updates.Email = &email
	}
	if first := strings.TrimSpace(p.FirstName); first != "" && first != user.FirstName {
		updates.FirstName = &first
	}
	if last := strings.TrimSpace(p.LastName); last != "" && last != user.LastName {
		updates.LastName = &last
	}
	if p.EmailVerified && !user.IsVerified {
		verified := true
		updates.IsVerified = &verified
	}
	if updates.IsEmpty() {
		return user, nil
	}
	if err := s.repo.UpdateUser(ctx, user.ID, updates); err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("update provider user: %w", err)
	}
	refreshed, err := s.repo.GetUserByID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("reload user: %w", err)
	}
	s.pushMirror(refreshed)
	return refreshed, nil
}

// DeleteProviderUser removes the account linked to stackUserID, if any.
func (s *AuthService) DeleteProviderUser(ctx context.Context, stackUserID string) error {
	user, err := s.repo.GetUserByStackID(ctx, stackUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("load provider user: %w", err)
	}
	if err := s.repo.DeleteUser(ctx, user.ID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	logrus.WithFields(logrus.Fields{"user_id": user.ID, "stack_user_id": stackUserID}).Info("provider user deleted")
	return nil
}

// EnsureAdmin creates an admin account or promotes an existing one. A non-empty
// password replaces the stored one.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) (*db.User, error) {
	normalised, err := normaliseEmail(email)
	if err != nil {
		return nil, err
	}
	if password != "" {
		if err := validatePassword(password); err != nil {
			return nil, err
		}
	}

	var hash *string
	if password != "" {
		h, err := auth.HashPassword(password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		hash = &h
	}

	role := db.UserRoleAdmin
	user, err := s.repo.GetUserByEmail(ctx, normalised)
	if err == nil {
		if err := s.repo.UpdateUser(ctx, user.ID, db.UserUpdates{Role: &role, PasswordHash: hash}); err != nil {
			return nil, fmt.Errorf("promote user: %w", err)
		}
		return s.repo.GetUserByID(ctx, user.ID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if hash == nil {
		return nil, missingField("password")
	}
	user = &db.User{Email: normalised, PasswordHash: hash, Role: role, UserType: role}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return user, nil
}

func (s *AuthService) pushMirror(user *db.User) {
	if s.mirror != nil && user != nil {
		s.mirror.PushUser(user)
	}
}

var emailValidator = validator.New()

func normaliseEmail(value string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return "", missingField("email")
	}
	if err := emailValidator.Var(trimmed, "required,email"); err != nil {
		return "", ErrInvalidEmail
	}
	return trimmed, nil
}

// validatePassword 在哈希前校验长度，超过 bcrypt 上限或全为空白的密码直接拒绝
func validatePassword(password string) error {
	switch {
	case password == "":
		return missingField("password")
	case strings.TrimSpace(password) == "":
		return ErrPasswordBlank
	case len(password) < auth.MinPasswordLength:
		return ErrPasswordTooShort
	case len(password) > auth.MaxPasswordLength:
		return ErrPasswordTooLong
	}
	return nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// SplitName 将显示名拆为名和姓，首个单词为名
func SplitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max]
}
