package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prperemyshlev/risk-auth/internal/domain"
	"github.com/prperemyshlev/risk-auth/internal/repository"
)

type fakeProvider struct {
	platform   domain.Platform
	duration   time.Duration
	token      *domain.ProviderToken
	profile    *domain.ExternalProfile
	exchangeErr error
	profileErr error
}

func newFakeProvider(platform domain.Platform, duration time.Duration, displayName string) *fakeProvider {
	refresh := "refresh-" + displayName
	field := "username"
	if platform == domain.PlatformReddit {
		field = "name"
	}
	raw, _ := json.Marshal(map[string]string{field: displayName})
	return &fakeProvider{
		platform: platform,
		duration: duration,
		token:    &domain.ProviderToken{AccessToken: "access-" + displayName, RefreshToken: &refresh},
		profile:  &domain.ExternalProfile{DisplayName: displayName, Platform: platform, Raw: raw},
	}
}

func (p *fakeProvider) Platform() domain.Platform      { return p.platform }
func (p *fakeProvider) SessionDuration() time.Duration { return p.duration }

func (p *fakeProvider) AuthCodeURL(state string) string {
	return fmt.Sprintf("https://%s.example.com/authorize?state=%s", p.platform, state)
}

func (p *fakeProvider) Exchange(ctx context.Context, code string) (*domain.ProviderToken, error) {
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	return p.token, nil
}

func (p *fakeProvider) FetchProfile(ctx context.Context, token *domain.ProviderToken) (*domain.ExternalProfile, error) {
	if p.profileErr != nil {
		return nil, p.profileErr
	}
	return p.profile, nil
}

// memoryUsers mimics the citext unique constraint of the users table
type memoryUsers struct {
	mu        sync.Mutex
	users     map[string]*domain.User
	nextID    int64
	upsertErr error
	loadErr   error
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: make(map[string]*domain.User)}
}

func userKey(username string, platform domain.Platform) string {
	return strings.ToLower(username) + "|" + strings.ToLower(string(platform))
}

func (m *memoryUsers) Upsert(ctx context.Context, username string, platform domain.Platform) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := userKey(username, platform)
	if _, ok := m.users[key]; ok {
		return nil
	}
	m.nextID++
	m.users[key] = &domain.User{ID: m.nextID, Username: username, Platform: platform, CreatedAt: time.Now()}
	return nil
}

func (m *memoryUsers) Load(ctx context.Context, username string, platform domain.Platform) (*domain.User, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userKey(username, platform)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *memoryUsers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

type memoryAudit struct {
	mu      sync.Mutex
	entries []domain.AuditLogEntry
	err     error
}

func (m *memoryAudit) Append(ctx context.Context, entry *domain.AuditLogEntry) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = int64(len(m.entries) + 1)
	entry.Timestamp = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryAudit) all() []domain.AuditLogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.AuditLogEntry(nil), m.entries...)
}

type memoryBans struct {
	banned map[int64]bool
	err    error
}

func (m *memoryBans) IsBanned(ctx context.Context, userID int64) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.banned[userID], nil
}

// spyPolicy records whether it ran and returns a fixed result
type spyPolicy struct {
	called bool
	result error
}

func (p *spyPolicy) Evaluate(ctx context.Context, user *domain.User, profile *domain.ExternalProfile, clientIP *string) error {
	p.called = true
	return p.result
}

type failingEncoder struct{}

func (failingEncoder) Encode(domain.Claims) (string, error) {
	return "", errors.New("encoder exploded")
}

func strPtr(s string) *string { return &s }
