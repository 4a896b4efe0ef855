package provider

import (
	"github.com/prperemyshlev/risk-auth/internal/domain"
	"golang.org/x/oauth2"
)

const (
	redditAuthURL    = "https://www.reddit.com/api/v1/authorize"
	redditTokenURL   = "https://www.reddit.com/api/v1/access_token"
	redditProfileURL = "https://oauth.reddit.com/api/v1/me"
)

// NewReddit creates the Reddit provider. Reddit wants client credentials in
// basic auth and only issues a refresh token for duration=permanent.
func NewReddit(cfg Config) *OAuthProvider {
	p := newOAuthProvider(domain.PlatformReddit, cfg, oauth2.Endpoint{
		AuthURL:   redditAuthURL,
		TokenURL:  redditTokenURL,
		AuthStyle: oauth2.AuthStyleInHeader,
	}, redditProfileURL, "name")
	p.authOptions = []oauth2.AuthCodeOption{oauth2.SetAuthURLParam("duration", "permanent")}
	return p
}
