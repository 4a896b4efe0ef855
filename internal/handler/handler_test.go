package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/risk-auth/internal/domain"
	"github.com/prperemyshlev/risk-auth/internal/provider"
	"github.com/prperemyshlev/risk-auth/internal/repository"
	"github.com/prperemyshlev/risk-auth/internal/service"
	"github.com/prperemyshlev/risk-auth/internal/utils"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	handlerSecret = "handler-test-secret-that-is-at-least-32-chars"
	cookieDomain  = "risk.example.com"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubProvider struct {
	platform domain.Platform
	name     string
	duration time.Duration
}

func (p *stubProvider) Platform() domain.Platform      { return p.platform }
func (p *stubProvider) SessionDuration() time.Duration { return p.duration }

func (p *stubProvider) AuthCodeURL(state string) string {
	return "https://provider.example.com/authorize?state=" + url.QueryEscape(state)
}

func (p *stubProvider) Exchange(ctx context.Context, code string) (*domain.ProviderToken, error) {
	if code == "" {
		return nil, domain.ErrTokenExchange
	}
	return &domain.ProviderToken{AccessToken: "access-" + code}, nil
}

func (p *stubProvider) FetchProfile(ctx context.Context, token *domain.ProviderToken) (*domain.ExternalProfile, error) {
	raw, _ := json.Marshal(map[string]string{"username": p.name})
	return &domain.ExternalProfile{DisplayName: p.name, Platform: p.platform, Raw: raw}, nil
}

type memoryUsers struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	nextID int64
}

func key(username string, platform domain.Platform) string {
	return strings.ToLower(username) + "|" + string(platform)
}

func (m *memoryUsers) Upsert(ctx context.Context, username string, platform domain.Platform) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[key(username, platform)]; !ok {
		m.nextID++
		m.users[key(username, platform)] = &domain.User{
			ID:        m.nextID,
			Username:  username,
			Platform:  platform,
			CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		}
	}
	return nil
}

func (m *memoryUsers) Load(ctx context.Context, username string, platform domain.Platform) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[key(username, platform)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

type memoryAudit struct {
	mu      sync.Mutex
	entries []domain.AuditLogEntry
}

func (m *memoryAudit) Append(ctx context.Context, entry *domain.AuditLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *entry)
	return nil
}

type memoryBans map[int64]bool

func (m memoryBans) IsBanned(ctx context.Context, userID int64) (bool, error) {
	return m[userID], nil
}

type failingEncoder struct{}

func (failingEncoder) Encode(domain.Claims) (string, error) {
	return "", errors.New("encoder exploded")
}

type testEnv struct {
	router *gin.Engine
	codec  *utils.ClaimsCodec
	users  *memoryUsers
	audit  *memoryAudit
	bans   memoryBans
}

func newTestEnv(t *testing.T, encoder service.ClaimsEncoder) *testEnv {
	t.Helper()

	codec, err := utils.NewClaimsCodec(handlerSecret)
	require.NoError(t, err)

	env := &testEnv{
		codec: codec,
		users: &memoryUsers{users: make(map[string]*domain.User)},
		audit: &memoryAudit{},
		bans:  memoryBans{},
	}
	if encoder == nil {
		encoder = codec
	}

	registry := provider.NewRegistry()
	require.NoError(t, registry.Register(&stubProvider{platform: domain.PlatformDiscord, name: "bob", duration: 168 * time.Hour}))

	logger := zaptest.NewLogger(t)
	gate := service.NewSecurityGate(env.audit, service.NewBanListPolicy(env.bans), logger)
	issuer := service.NewSessionIssuer(registry, env.users, gate, encoder, nil, logger)

	h := NewAuthHandler(issuer, env.users, Options{
		Cookies:        CookiePolicy{Domain: cookieDomain},
		HomeURL:        "/",
		ClientIPHeader: "CF-Connecting-IP",
	}, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/login/:provider", h.Login)
	router.GET("/auth/:provider", h.Callback)
	router.GET("/:provider/logout", h.Logout)
	api := router.Group("/api", UsernameGuard())
	api.GET("/whoami", h.WhoAmI)
	api.GET("/me", ClaimsGuard(codec), RequireMatchingIdentity(), h.Me)

	env.router = router
	return env
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return e.do(req)
}

// mintToken encodes claims for an existing user the way a login would
func (e *testEnv) mintToken(t *testing.T, username string, expiresAt time.Time) string {
	t.Helper()
	require.NoError(t, e.users.Upsert(context.Background(), username, domain.PlatformDiscord))
	user, err := e.users.Load(context.Background(), username, domain.PlatformDiscord)
	require.NoError(t, err)

	token, err := e.codec.Encode(domain.Claims{
		UserID:      user.ID,
		Username:    user.Username,
		Platform:    user.Platform,
		AccessToken: "a",
		ExpiresAt:   expiresAt,
	})
	require.NoError(t, err)
	return token
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func rawSetCookie(rec *httptest.ResponseRecorder, name string) string {
	for _, h := range rec.Result().Header.Values("Set-Cookie") {
		if strings.HasPrefix(h, name+"=") {
			return h
		}
	}
	return ""
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), fmt.Sprintf("body: %s", rec.Body.String()))
	return body
}
