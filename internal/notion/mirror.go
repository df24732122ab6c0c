package notion

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"irportal/internal/entity/db"

	"github.com/jomei/notionapi"
	"github.com/sirupsen/logrus"
)

const (
	defaultBaseURL = "https://api.notion.com"
	queueSize      = 256
)

// SyncOutcome reports what Sync did.
type SyncOutcome string

const (
	OutcomeCreated   SyncOutcome = "created"
	OutcomeUpdated   SyncOutcome = "updated"
	OutcomeUnchanged SyncOutcome = "unchanged"
)

// Mirror pushes user records to a Notion database. The database is never read back as a source of truth.
type Mirror struct {
	client     *notionapi.Client
	databaseID notionapi.DatabaseID
	timeout    time.Duration
	logger     *logrus.Logger

	// 单个 worker 按顺序处理推送，同一用户的查询和创建不会并发
	queue chan UserRecord
	start sync.Once
	wg    sync.WaitGroup
}

// NewMirror creates a mirror client. A non-default baseURL redirects API calls, used for self-hosted proxies and tests.
func NewMirror(baseURL, token, databaseID string, timeout time.Duration, logger *logrus.Logger) *Mirror {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	httpClient := &http.Client{Timeout: timeout}
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base != "" && base != defaultBaseURL {
		if target, err := url.Parse(base); err == nil && target.Host != "" {
			httpClient.Transport = &rebaseTransport{target: target, next: http.DefaultTransport}
		} else {
			logger.WithField("base_url", baseURL).Warn("invalid NOTION_BASE_URL, using api.notion.com")
		}
	}

	return &Mirror{
		client:     notionapi.NewClient(notionapi.Token(token), notionapi.WithHTTPClient(httpClient)),
		databaseID: notionapi.DatabaseID(databaseID),
		timeout:    timeout,
		logger:     logger,
		queue:      make(chan UserRecord, queueSize),
	}
}

// PushUser queues user for mirroring. Failures are logged only, and a full queue drops the push.
func (m *Mirror) PushUser(user *db.User) {
	if m == nil || user == nil {
		return
	}
	m.start.Do(func() { go m.run() })

	rec := RecordFromUser(user)
	m.wg.Add(1)
	select {
	case m.queue <- rec:
	default:
		m.wg.Done()
		m.logger.WithField("user_id", rec.UserID).Warn("notion mirror queue full, push dropped")
	}
}

func (m *Mirror) run() {
	for rec := range m.queue {
		m.push(rec)
	}
}

func (m *Mirror) push(rec UserRecord) {
	defer m.wg.Done()
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	outcome, err := m.Sync(ctx, rec)
	if err != nil {
		m.logger.WithError(err).WithField("user_id", rec.UserID).Warn("notion mirror failed")
		return
	}
	m.logger.WithFields(logrus.Fields{"user_id": rec.UserID, "outcome": outcome}).Debug("notion mirror synced")
}

// Wait blocks until queued pushes finish.
func (m *Mirror) Wait() {
	if m == nil {
		return
	}
	m.wg.Wait()
}

// Sync creates or updates the page for rec, skipping the write when nothing changed.
func (m *Mirror) Sync(ctx context.Context, rec UserRecord) (SyncOutcome, error) {
	if strings.TrimSpace(rec.Email) == "" {
		return "", fmt.Errorf("record has no email")
	}
	existing, err := m.findByEmail(ctx, rec.Email)
	if err != nil {
		return "", err
	}
	if existing == nil {
		_, err := m.client.Page.Create(ctx, &notionapi.PageCreateRequest{
			Parent: notionapi.Parent{
				Type:       notionapi.ParentTypeDatabaseID,
				DatabaseID: m.databaseID,
			},
			Properties: rec.ToProperties(),
		})
		if err != nil {
			return "", fmt.Errorf("create notion page: %w", err)
		}
		return OutcomeCreated, nil
	}

	current := FromPage(*existing)
	if current.SameContent(rec) {
		return OutcomeUnchanged, nil
	}
	_, err = m.client.Page.Update(ctx, notionapi.PageID(existing.ID), &notionapi.PageUpdateRequest{
		Properties: rec.ToProperties(),
	})
	if err != nil {
		return "", fmt.Errorf("update notion page: %w", err)
	}
	return OutcomeUpdated, nil
}

func (m *Mirror) findByEmail(ctx context.Context, email string) (*notionapi.Page, error) {
	resp, err := m.client.Database.Query(ctx, m.databaseID, &notionapi.DatabaseQueryRequest{
		Filter: &notionapi.PropertyFilter{
			Property: PropEmail,
			RichText: &notionapi.TextFilterCondition{Equals: strings.ToLower(email)},
		},
		PageSize: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("query notion database: %w", err)
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	return &resp.Results[0], nil
}

// rebaseTransport sends requests to target instead of api.notion.com.
type rebaseTransport struct {
	target *url.URL
	next   http.RoundTripper
}

func (t *rebaseTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = t.target.Scheme
	out.URL.Host = t.target.Host
	out.URL.Path = strings.TrimRight(t.target.Path, "/") + req.URL.Path
	out.Host = t.target.Host
	return t.next.RoundTrip(out)
}
