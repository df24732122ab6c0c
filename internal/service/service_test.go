package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"irportal/internal/auth"
	"irportal/internal/config"
	"irportal/internal/entity/db"
	"irportal/internal/model"
	"irportal/internal/notify"
	"irportal/internal/storage"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type recordingNotifier struct {
	mu       sync.Mutex
	messages []notify.Message
}

func (r *recordingNotifier) Notify(ctx context.Context, msg notify.Message) (notify.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return notify.Result{Delivered: true}, nil
}

func (r *recordingNotifier) byType(t notify.EventType) []notify.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notify.Message
	for _, m := range r.messages {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

type recordingMirror struct {
	mu    sync.Mutex
	users []db.User
}

func (m *recordingMirror) PushUser(user *db.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = append(m.users, *user)
}

type fixture struct {
	cfg        config.Config
	repo       model.Repository
	auth       *AuthService
	apps       *ApplicationService
	newsletter *NewsletterService
	notifier   *recordingNotifier
	dispatcher *notify.Dispatcher
	mirror     *recordingMirror
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Config{
		DBType:           config.DBTypeSQLite,
		DBPath:           filepath.Join(dir, "test.db"),
		JWTSecret:        testSecret,
		JWTIssuer:        "irportal",
		SessionTTL:       7 * 24 * time.Hour,
		ResetTokenTTL:    time.Hour,
		AdminEmails:      []string{"boss@example.com"},
		PublicBaseURL:    "https://portal.example.com/",
		EvidenceMaxBytes: 1024,
	}
	repo, err := model.InitRepository(context.Background(), &cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	tokens, err := auth.NewManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.SessionTTL)
	require.NoError(t, err)

	store, err := storage.NewLocalStorage(filepath.Join(dir, "evidence"))
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	notifier := &recordingNotifier{}
	dispatcher := notify.NewDispatcher(notifier, time.Second, logger)
	mirror := &recordingMirror{}

	authSvc := NewAuthService(cfg, repo, tokens, dispatcher)
	authSvc.SetMirror(mirror)
	apps := NewApplicationService(cfg, repo, store, dispatcher)
	apps.SetMirror(mirror)

	return &fixture{
		cfg:        cfg,
		repo:       repo,
		auth:       authSvc,
		apps:       apps,
		newsletter: NewNewsletterService(repo),
		notifier:   notifier,
		dispatcher: dispatcher,
		mirror:     mirror,
	}
}

func (f *fixture) signup(t *testing.T, email, role string) *AuthResult {
	t.Helper()
	res, err := f.auth.Signup(context.Background(), SignupInput{Email: email, Password: "password123", FirstName: "Ada", Role: role}, SessionMeta{})
	require.NoError(t, err)
	return res
}

func TestSignupRoleResolution(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		email     string
		requested string
		want      string
	}{
		{email: "plain@example.com", requested: "", want: db.UserRoleStandard},
		{email: "inv@example.com", requested: "investor", want: db.UserRoleInvestor},
		{email: "sneaky@example.com", requested: "admin", want: db.UserRoleStandard},
		{email: "Boss@Example.com", requested: "", want: db.UserRoleAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			res := f.signup(t, tt.email, tt.requested)
			require.Equal(t, tt.want, res.User.Role)
			require.Equal(t, tt.want, res.User.UserType)
			require.NotEmpty(t, res.Token)
			require.True(t, res.ExpiresAt.After(time.Now().Add(6*24*time.Hour)))
		})
	}

	f.dispatcher.Wait()
	require.Len(t, f.notifier.byType(notify.EventSignupWelcome), len(tests))
}

func TestSignupValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Signup(ctx, SignupInput{Email: "short@example.com", Password: "1234567"}, SessionMeta{})
	require.ErrorIs(t, err, ErrPasswordTooShort)
	_, err = f.repo.GetUserByEmail(ctx, "short@example.com")
	require.Error(t, err, "no row may be created for a rejected signup")

	_, err = f.auth.Signup(ctx, SignupInput{Email: "not-an-email", Password: "password123"}, SessionMeta{})
	require.ErrorIs(t, err, ErrInvalidEmail)

	_, err = f.auth.Signup(ctx, SignupInput{Email: "", Password: "password123"}, SessionMeta{})
	require.ErrorIs(t, err, ErrMissingField)

	f.signup(t, "dup@example.com", "")
	_, err = f.auth.Signup(ctx, SignupInput{Email: "DUP@example.com", Password: "password123"}, SessionMeta{})
	require.ErrorIs(t, err, ErrEmailExists)
}

func TestSignupRejectsUnhashablePasswords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		password string
		want     error
	}{
		{"over bcrypt limit", strings.Repeat("a", auth.MaxPasswordLength+1), ErrPasswordTooLong},
		{"only spaces", strings.Repeat(" ", 10), ErrPasswordBlank},
		{"only tabs short", "\t\t", ErrPasswordBlank},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.auth.Signup(ctx, SignupInput{Email: "limits@example.com", Password: tt.password}, SessionMeta{})
			require.ErrorIs(t, err, tt.want)
		})
	}
	_, err := f.repo.GetUserByEmail(ctx, "limits@example.com")
	require.Error(t, err, "no row may be created for a rejected signup")

	res, err := f.auth.Signup(ctx, SignupInput{Email: "limits@example.com", Password: strings.Repeat("a", auth.MaxPasswordLength)}, SessionMeta{})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
}

func TestLoginAndSessionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signup(t, "user@example.com", "")

	_, err := f.auth.Login(ctx, "user@example.com", "wrong-password", SessionMeta{})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.auth.Login(ctx, "nobody@example.com", "password123", SessionMeta{})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	res, err := f.auth.Login(ctx, " USER@example.com ", "password123", SessionMeta{UserAgent: "test", IP: "127.0.0.1"})
	require.NoError(t, err)

	user, err := f.auth.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	require.Equal(t, res.User.ID, user.ID)

	require.NoError(t, f.auth.Logout(ctx, res.Token))
	_, err = f.auth.Authenticate(ctx, res.Token)
	require.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, f.auth.Logout(ctx, "garbage"))
	_, err = f.auth.Authenticate(ctx, "garbage")
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.auth.Authenticate(ctx, "")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestLoginPromotesAllowListedUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	require.NoError(t, f.repo.CreateUser(ctx, &db.User{Email: "boss@example.com", PasswordHash: &hash, Role: db.UserRoleStandard}))

	res, err := f.auth.Login(ctx, "boss@example.com", "password123", SessionMeta{})
	require.NoError(t, err)
	require.Equal(t, db.UserRoleAdmin, res.User.Role)

	stored, err := f.repo.GetUserByEmail(ctx, "boss@example.com")
	require.NoError(t, err)
	require.Equal(t, db.UserRoleAdmin, stored.Role)
	require.Equal(t, db.UserRoleAdmin, stored.UserType)
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.signup(t, "reset@example.com", "")

	require.NoError(t, f.auth.ForgotPassword(ctx, "nobody@example.com"))
	require.NoError(t, f.auth.ForgotPassword(ctx, "Reset@Example.com"))
	f.dispatcher.Wait()

	resets := f.notifier.byType(notify.EventPasswordReset)
	require.Len(t, resets, 1)
	token := resets[0].Data["token"]
	require.NotEmpty(t, token)
	require.Equal(t, "https://portal.example.com/reset-password?token="+token, resets[0].Data["resetURL"])

	require.ErrorIs(t, f.auth.ResetPassword(ctx, token, "short"), ErrPasswordTooShort)
	require.ErrorIs(t, f.auth.ResetPassword(ctx, token, strings.Repeat("x", 73)), ErrPasswordTooLong)
	require.ErrorIs(t, f.auth.ResetPassword(ctx, token, "          "), ErrPasswordBlank)
	require.ErrorIs(t, f.auth.ResetPassword(ctx, "bogus", "new-password-1"), ErrInvalidResetToken)
	require.NoError(t, f.auth.ResetPassword(ctx, token, "new-password-1"))
	require.ErrorIs(t, f.auth.ResetPassword(ctx, token, "new-password-2"), ErrInvalidResetToken)

	_, err := f.auth.Authenticate(ctx, first.Token)
	require.ErrorIs(t, err, ErrUnauthorized, "existing sessions are revoked by a reset")

	_, err = f.auth.Login(ctx, "reset@example.com", "password123", SessionMeta{})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.auth.Login(ctx, "reset@example.com", "new-password-1", SessionMeta{})
	require.NoError(t, err)
}

func TestResetTokenExpires(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signup(t, "late@example.com", "")

	require.NoError(t, f.auth.ForgotPassword(ctx, "late@example.com"))
	f.dispatcher.Wait()
	token := f.notifier.byType(notify.EventPasswordReset)[0].Data["token"]

	f.auth.now = func() time.Time { return time.Now().UTC().Add(2 * time.Hour) }
	require.ErrorIs(t, f.auth.ResetPassword(ctx, token, "new-password-1"), ErrInvalidResetToken)
}

func TestApplicationWorkflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	applicant := f.signup(t, "applicant@example.com", "")
	admin := f.signup(t, "boss@example.com", "")

	_, err := f.apps.Submit(ctx, applicant.User.ID, "   ", true)
	require.ErrorIs(t, err, ErrMissingField)

	app, err := f.apps.Submit(ctx, applicant.User.ID, "I invest in seed rounds", true)
	require.NoError(t, err)
	require.Equal(t, db.ApplicationStatusPending, app.Status)

	own, err := f.apps.GetOwn(ctx, applicant.User.ID)
	require.NoError(t, err)
	require.Equal(t, app.ID, own.ID)

	_, err = f.apps.Decide(ctx, admin.User.ID, app.ID, "maybe")
	require.ErrorIs(t, err, ErrInvalidDecision)
	_, err = f.apps.Decide(ctx, admin.User.ID, app.ID+100, db.ApplicationStatusApproved)
	require.ErrorIs(t, err, ErrApplicationNotFound)

	result, err := f.apps.Decide(ctx, admin.User.ID, app.ID, "Approved")
	require.NoError(t, err)
	require.Equal(t, db.ApplicationStatusApproved, result.Application.Status)

	// 角色以数据库为准，旧令牌中的快照不影响授权
	user, err := f.auth.Authenticate(ctx, applicant.Token)
	require.NoError(t, err)
	require.Equal(t, db.UserRoleInvestor, user.Role)

	rows, err := f.apps.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "boss@example.com", rows[0].DecidedByEmail)

	actions, err := f.repo.ListAdminActions(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, actions, 1)

	resubmitted, err := f.apps.Submit(ctx, applicant.User.ID, "updated pitch", false)
	require.NoError(t, err)
	require.Equal(t, app.ID, resubmitted.ID)
	require.Equal(t, db.ApplicationStatusPending, resubmitted.Status)
	require.Nil(t, resubmitted.DecidedBy)

	f.dispatcher.Wait()
	require.Len(t, f.notifier.byType(notify.EventApplicationReceived), 2)
	alerts := f.notifier.byType(notify.EventAdminAlert)
	require.Len(t, alerts, 2)
	require.Equal(t, "boss@example.com", alerts[0].To)
	require.Len(t, f.notifier.byType(notify.EventApplicationDecided), 1)
}

func TestGetOwnWithoutApplication(t *testing.T) {
	f := newFixture(t)
	res := f.signup(t, "none@example.com", "")
	_, err := f.apps.GetOwn(context.Background(), res.User.ID)
	require.ErrorIs(t, err, ErrApplicationNotFound)
}

func TestEvidenceUpload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.signup(t, "docs@example.com", "")
	pdf := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")

	_, err := f.apps.AttachEvidence(ctx, res.User.ID, "letter.pdf", pdf)
	require.ErrorIs(t, err, ErrApplicationNotFound)

	app, err := f.apps.Submit(ctx, res.User.ID, "pitch", true)
	require.NoError(t, err)

	_, err = f.apps.AttachEvidence(ctx, res.User.ID, "letter.exe", pdf)
	require.ErrorIs(t, err, ErrInvalidEvidence)
	_, err = f.apps.AttachEvidence(ctx, res.User.ID, "letter.png", pdf)
	require.ErrorIs(t, err, ErrInvalidEvidence)
	_, err = f.apps.AttachEvidence(ctx, res.User.ID, "big.pdf", append(pdf, make([]byte, 2048)...))
	require.ErrorIs(t, err, ErrEvidenceTooLarge)

	_, err = f.apps.OpenEvidence(ctx, app.ID)
	require.ErrorIs(t, err, ErrEvidenceNotFound)

	updated, err := f.apps.AttachEvidence(ctx, res.User.ID, "Letter.PDF", pdf)
	require.NoError(t, err)
	require.NotEmpty(t, updated.EvidencePath)

	ev, err := f.apps.OpenEvidence(ctx, app.ID)
	require.NoError(t, err)
	defer ev.Body.Close()
	body, err := io.ReadAll(ev.Body)
	require.NoError(t, err)
	require.Equal(t, pdf, body)
	require.Equal(t, "application/pdf", ev.ContentType)

	resubmitted, err := f.apps.Submit(ctx, res.User.ID, "new pitch", true)
	require.NoError(t, err)
	require.Equal(t, updated.EvidencePath, resubmitted.EvidencePath)
}

type fakeProvider struct {
	claims *auth.ProviderClaims
}

func (p fakeProvider) Verify(token string) (*auth.ProviderClaims, error) {
	if token != "provider-token" || p.claims == nil {
		return nil, errors.New("bad token")
	}
	return p.claims, nil
}

func TestProviderTokenCreatesAndLinksUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	existing := f.signup(t, "linked@example.com", "")

	f.auth.SetProviderVerifier(fakeProvider{claims: &auth.ProviderClaims{
		Email:            "Linked@Example.com",
		EmailVerified:    true,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "stack-1"},
	}})
	user, err := f.auth.Authenticate(ctx, "provider-token")
	require.NoError(t, err)
	require.Equal(t, existing.User.ID, user.ID)
	require.NotNil(t, user.StackUserID)
	require.Equal(t, "stack-1", *user.StackUserID)
	require.True(t, user.IsVerified)

	f.auth.SetProviderVerifier(fakeProvider{claims: &auth.ProviderClaims{
		Email:            "fresh@example.com",
		DisplayName:      "Grace Brewster Hopper",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "stack-2"},
	}})
	created, err := f.auth.Authenticate(ctx, "provider-token")
	require.NoError(t, err)
	require.Equal(t, "Grace", created.FirstName)
	require.Equal(t, "Brewster Hopper", created.LastName)
	require.Equal(t, db.UserRoleStandard, created.Role)
	require.False(t, created.HasPassword())

	_, err = f.auth.Authenticate(ctx, "other-token")
	require.ErrorIs(t, err, ErrUnauthorized)

	f.auth.SetProviderVerifier(fakeProvider{claims: &auth.ProviderClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "stack-unknown"}}})
	_, err = f.auth.Authenticate(ctx, "provider-token")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestProviderWebhookSync(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.auth.SyncProviderUser(ctx, ProviderProfile{StackUserID: "s-1", Email: "hook@example.com", FirstName: "Hook"})
	require.NoError(t, err)

	updated, err := f.auth.SyncProviderUser(ctx, ProviderProfile{StackUserID: "s-1", Email: "hook@example.com", LastName: "Handler", EmailVerified: true})
	require.NoError(t, err)
	require.Equal(t, user.ID, updated.ID)
	require.Equal(t, "Hook", updated.FirstName)
	require.Equal(t, "Handler", updated.LastName)
	require.True(t, updated.IsVerified)

	_, err = f.apps.Submit(ctx, user.ID, "pitch", false)
	require.NoError(t, err)

	require.NoError(t, f.auth.DeleteProviderUser(ctx, "s-1"))
	require.NoError(t, f.auth.DeleteProviderUser(ctx, "s-1"))
	_, err = f.repo.GetUserByStackID(ctx, "s-1")
	require.Error(t, err)
	_, err = f.apps.GetOwn(ctx, user.ID)
	require.ErrorIs(t, err, ErrApplicationNotFound)

	_, err = f.auth.SyncProviderUser(ctx, ProviderProfile{})
	require.ErrorIs(t, err, ErrMissingField)

	f.mirror.mu.Lock()
	defer f.mirror.mu.Unlock()
	require.NotEmpty(t, f.mirror.users)
}

func TestEnsureAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.auth.EnsureAdmin(ctx, "ops@example.com", "password123")
	require.NoError(t, err)
	require.Equal(t, db.UserRoleAdmin, created.Role)

	f.signup(t, "promote@example.com", "")
	promoted, err := f.auth.EnsureAdmin(ctx, "promote@example.com", "")
	require.NoError(t, err)
	require.Equal(t, db.UserRoleAdmin, promoted.Role)
	_, err = f.auth.Login(ctx, "promote@example.com", "password123", SessionMeta{})
	require.NoError(t, err)

	_, err = f.auth.EnsureAdmin(ctx, "new@example.com", "")
	require.ErrorIs(t, err, ErrMissingField)

	_, err = f.auth.EnsureAdmin(ctx, "ops@example.com", strings.Repeat("p", 100))
	require.ErrorIs(t, err, ErrPasswordTooLong)
	_, err = f.auth.EnsureAdmin(ctx, "ops@example.com", "         ")
	require.ErrorIs(t, err, ErrPasswordBlank)
}

func TestNewsletterSubscribe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.newsletter.Subscribe(ctx, "Reader@Example.com", "footer")
	require.NoError(t, err)
	require.True(t, created)

	created, err = f.newsletter.Subscribe(ctx, "reader@example.com", "")
	require.NoError(t, err)
	require.False(t, created)

	_, err = f.newsletter.Subscribe(ctx, "nope", "")
	require.ErrorIs(t, err, ErrInvalidEmail)
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		in, first, last string
	}{
		{"", "", ""},
		{"  Ada  ", "Ada", ""},
		{"Ada King Lovelace", "Ada", "King Lovelace"},
	}
	for _, tt := range tests {
		first, last := SplitName(tt.in)
		require.Equal(t, tt.first, first, tt.in)
		require.Equal(t, tt.last, last, tt.in)
	}
}
