package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/prperemyshlev/risk-auth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserAgent = "RiskAuthTest/1.0"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type fakeServer struct {
	*httptest.Server
	tokenHandler   http.HandlerFunc
	profileHandler http.HandlerFunc
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) { fs.tokenHandler(w, r) })
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) { fs.profileHandler(w, r) })
	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

// point redirects a provider's token and profile endpoints to the fake server.
func (fs *fakeServer) point(p *OAuthProvider) *OAuthProvider {
	p.oauth.Endpoint.TokenURL = fs.URL + "/token"
	p.profileURL = fs.URL + "/me"
	return p
}

func testConfig(fs *fakeServer) Config {
	return Config{
		ClientID:        "client-id",
		ClientSecret:    "client-secret",
		RedirectURL:     "https://risk.example.com/auth/test",
		Scopes:          []string{"identity"},
		UserAgent:       testUserAgent,
		SessionDuration: time.Hour,
		Timeout:         5 * time.Second,
		HTTPClient:      fs.Client(),
	}
}

func TestExchange_Success(t *testing.T) {
	fs := newFakeServer(t)
	fs.tokenHandler = func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testUserAgent, r.Header.Get("User-Agent"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "auth-code", r.PostForm.Get("code"))
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  "access-1",
			"refresh_token": "refresh-1",
			"token_type":    "bearer",
			"expires_in":    3600,
		})
	}
	p := fs.point(NewDiscord(testConfig(fs)))

	tok, err := p.Exchange(context.Background(), "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "access-1", tok.AccessToken)
	require.NotNil(t, tok.RefreshToken)
	assert.Equal(t, "refresh-1", *tok.RefreshToken)
}

func TestExchange_NoRefreshToken(t *testing.T) {
	fs := newFakeServer(t)
	fs.tokenHandler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "access-1", "token_type": "bearer"})
	}
	p := fs.point(NewDiscord(testConfig(fs)))

	tok, err := p.Exchange(context.Background(), "auth-code")
	require.NoError(t, err)
	assert.Nil(t, tok.RefreshToken)
}

func TestExchange_Rejected(t *testing.T) {
	fs := newFakeServer(t)
	fs.tokenHandler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
	}
	p := fs.point(NewDiscord(testConfig(fs)))

	_, err := p.Exchange(context.Background(), "stale-code")
	assert.ErrorIs(t, err, domain.ErrTokenExchange)
}

func TestExchange_EmptyCode(t *testing.T) {
	fs := newFakeServer(t)
	p := fs.point(NewDiscord(testConfig(fs)))

	_, err := p.Exchange(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrTokenExchange)
}

func TestFetchProfile_Success(t *testing.T) {
	fs := newFakeServer(t)
	fs.profileHandler = func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
		assert.Equal(t, testUserAgent, r.Header.Get("User-Agent"))
		writeJSON(w, http.StatusOK, map[string]any{"id": "123", "username": "Alice"})
	}
	p := fs.point(NewDiscord(testConfig(fs)))

	profile, err := p.FetchProfile(context.Background(), &domain.ProviderToken{AccessToken: "access-1"})
	require.NoError(t, err)
	assert.Equal(t, "Alice", profile.DisplayName)
	assert.Equal(t, domain.PlatformDiscord, profile.Platform)
	assert.JSONEq(t, `{"id":"123","username":"Alice"}`, string(profile.Raw))
}

func TestFetchProfile_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantErr: domain.ErrProviderNetwork,
		},
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "401: Unauthorized"})
			},
			wantErr: domain.ErrProviderBadPayload,
		},
		{
			name: "invalid json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>oops</html>"))
			},
			wantErr: domain.ErrProviderBadPayload,
		},
		{
			name: "missing field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{"id": "123"})
			},
			wantErr: domain.ErrProviderBadPayload,
		},
		{
			name: "field not a string",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{"username": 42})
			},
			wantErr: domain.ErrProviderBadPayload,
		},
		{
			name: "blank name",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{"username": "   "})
			},
			wantErr: domain.ErrProviderBadPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newFakeServer(t)
			fs.profileHandler = tt.handler
			p := fs.point(NewDiscord(testConfig(fs)))

			_, err := p.FetchProfile(context.Background(), &domain.ProviderToken{AccessToken: "a"})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFetchProfile_TransportFailure(t *testing.T) {
	fs := newFakeServer(t)
	p := fs.point(NewDiscord(testConfig(fs)))
	fs.Close()

	_, err := p.FetchProfile(context.Background(), &domain.ProviderToken{AccessToken: "a"})
	assert.ErrorIs(t, err, domain.ErrProviderNetwork)
}

func TestFetchProfile_CanceledContext(t *testing.T) {
	fs := newFakeServer(t)
	fs.profileHandler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"username": "alice"})
	}
	p := fs.point(NewDiscord(testConfig(fs)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.FetchProfile(ctx, &domain.ProviderToken{AccessToken: "a"})
	assert.ErrorIs(t, err, domain.ErrProviderNetwork)
}

func TestDiscordAuthCodeURL(t *testing.T) {
	p := NewDiscord(Config{
		ClientID:    "discord-client",
		RedirectURL: "https://risk.example.com/auth/discord",
		Scopes:      []string{"identify"},
	})

	u, err := url.Parse(p.AuthCodeURL("state-1"))
	require.NoError(t, err)

	assert.Equal(t, "discord.com", u.Host)
	q := u.Query()
	assert.Equal(t, "discord-client", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "identify", q.Get("scope"))
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "https://risk.example.com/auth/discord", q.Get("redirect_uri"))
	assert.Empty(t, q.Get("duration"))
}

func TestEndpointOverrides(t *testing.T) {
	fs := newFakeServer(t)
	fs.tokenHandler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "a", "token_type": "bearer"})
	}
	fs.profileHandler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"name": "override"})
	}

	cfg := testConfig(fs)
	cfg.AuthURL = fs.URL + "/authorize"
	cfg.TokenURL = fs.URL + "/token"
	cfg.ProfileURL = fs.URL + "/me"
	p := NewReddit(cfg)

	assert.Contains(t, p.AuthCodeURL("s"), fs.URL+"/authorize?")

	tok, err := p.Exchange(context.Background(), "code")
	require.NoError(t, err)
	profile, err := p.FetchProfile(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "override", profile.DisplayName)
}
