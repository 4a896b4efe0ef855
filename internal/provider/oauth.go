package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prperemyshlev/risk-auth/internal/domain"
	"github.com/prperemyshlev/risk-auth/internal/utils"
	"golang.org/x/oauth2"
)

// maxProfileBytes caps how much of a profile response is read.
const maxProfileBytes = 1 << 20

// Config holds the OAuth2 client settings shared by every provider.
type Config struct {
	ClientID        string
	ClientSecret    string
	RedirectURL     string
	Scopes          []string
	UserAgent       string
	SessionDuration time.Duration

	// Optional endpoint overrides
	AuthURL    string
	TokenURL   string
	ProfileURL string

	// Timeout bounds each outbound call. HTTPClient, when set, supplies the
	// underlying transport.
	Timeout    time.Duration
	HTTPClient *http.Client
}

// OAuthProvider is an authorization-code provider whose profile endpoint
// returns a JSON object carrying the display name in a single string field.
type OAuthProvider struct {
	platform        domain.Platform
	oauth           *oauth2.Config
	authOptions     []oauth2.AuthCodeOption
	httpClient      *http.Client
	profileURL      string
	nameField       string
	sessionDuration time.Duration
}

func newOAuthProvider(platform domain.Platform, cfg Config, endpoint oauth2.Endpoint, profileURL, nameField string) *OAuthProvider {
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	if cfg.ProfileURL != "" {
		profileURL = cfg.ProfileURL
	}

	return &OAuthProvider{
		platform: platform,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     endpoint,
		},
		httpClient:      newHTTPClient(cfg.HTTPClient, cfg.UserAgent, cfg.Timeout),
		profileURL:      profileURL,
		nameField:       nameField,
		sessionDuration: cfg.SessionDuration,
	}
}

func (p *OAuthProvider) Platform() domain.Platform { return p.platform }

func (p *OAuthProvider) SessionDuration() time.Duration { return p.sessionDuration }

func (p *OAuthProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, p.authOptions...)
}

func (p *OAuthProvider) Exchange(ctx context.Context, code string) (*domain.ProviderToken, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: missing authorization code", domain.ErrTokenExchange)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	tok, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrTokenExchange, p.platform, err)
	}

	token := &domain.ProviderToken{AccessToken: tok.AccessToken}
	if tok.RefreshToken != "" {
		refresh := tok.RefreshToken
		token.RefreshToken = &refresh
	}

	return token, nil
}

func (p *OAuthProvider) FetchProfile(ctx context.Context, token *domain.ProviderToken) (*domain.ExternalProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.profileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrProviderNetwork, p.platform, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: reading response: %v", domain.ErrProviderNetwork, p.platform, err)
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: %s: status %d", domain.ErrProviderNetwork, p.platform, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: %s: status %d", domain.ErrProviderBadPayload, p.platform, resp.StatusCode)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: invalid JSON: %v", domain.ErrProviderBadPayload, p.platform, err)
	}

	rawName, ok := doc[p.nameField]
	if !ok {
		return nil, fmt.Errorf("%w: %s: missing %q field", domain.ErrProviderBadPayload, p.platform, p.nameField)
	}

	var name string
	if err := json.Unmarshal(rawName, &name); err != nil {
		return nil, fmt.Errorf("%w: %s: %q is not a string", domain.ErrProviderBadPayload, p.platform, p.nameField)
	}

	if !utils.ValidateUsername(name) {
		return nil, fmt.Errorf("%w: %s: invalid display name", domain.ErrProviderBadPayload, p.platform)
	}

	return &domain.ExternalProfile{
		DisplayName: name,
		Platform:    p.platform,
		Raw:         json.RawMessage(body),
	}, nil
}
