package app

import (
	"fmt"
	"time"

	"github.com/prperemyshlev/risk-auth/internal/config"
	"github.com/prperemyshlev/risk-auth/internal/provider"
)

// newProviderRegistry registers every provider that has client credentials
func newProviderRegistry(cfg *config.Config) (*provider.Registry, error) {
	registry := provider.NewRegistry()
	timeout := cfg.ProviderHTTPTimeout.Duration

	if cfg.Reddit.Enabled() {
		if err := registry.Register(provider.NewReddit(providerConfig(cfg.Reddit, timeout))); err != nil {
			return nil, fmt.Errorf("failed to register reddit: %w", err)
		}
	}

	if cfg.Discord.Enabled() {
		if err := registry.Register(provider.NewDiscord(providerConfig(cfg.Discord, timeout))); err != nil {
			return nil, fmt.Errorf("failed to register discord: %w", err)
		}
	}

	return registry, nil
}

func providerConfig(p config.ProviderConfig, timeout time.Duration) provider.Config {
	return provider.Config{
		ClientID:        p.ClientID,
		ClientSecret:    p.ClientSecret,
		RedirectURL:     p.RedirectURL,
		Scopes:          p.Scopes,
		UserAgent:       p.UserAgent,
		SessionDuration: p.SessionDuration.Duration,
		AuthURL:         p.AuthURL,
		TokenURL:        p.TokenURL,
		ProfileURL:      p.ProfileURL,
		Timeout:         timeout,
	}
}
