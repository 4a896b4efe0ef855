package provider

import (
	"github.com/prperemyshlev/risk-auth/internal/domain"
	"golang.org/x/oauth2"
)

const (
	discordAuthURL    = "https://discord.com/oauth2/authorize"
	discordTokenURL   = "https://discord.com/api/oauth2/token"
	discordProfileURL = "https://discord.com/api/users/@me"
)

// NewDiscord creates the Discord provider.
func NewDiscord(cfg Config) *OAuthProvider {
	return newOAuthProvider(domain.PlatformDiscord, cfg, oauth2.Endpoint{
		AuthURL:   discordAuthURL,
		TokenURL:  discordTokenURL,
		AuthStyle: oauth2.AuthStyleInParams,
	}, discordProfileURL, "username")
}
