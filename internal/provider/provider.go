package provider

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/prperemyshlev/risk-auth/internal/domain"
)

// Provider is an OAuth2 identity provider a player can sign in with.
type Provider interface {
	Platform() domain.Platform
	// AuthCodeURL builds the authorize redirect carrying the given state.
	AuthCodeURL(state string) string
	// Exchange trades an authorization code for the provider's tokens.
	Exchange(ctx context.Context, code string) (*domain.ProviderToken, error)
	// FetchProfile loads the signed-in user's profile with the access token.
	FetchProfile(ctx context.Context, token *domain.ProviderToken) (*domain.ExternalProfile, error)
	// SessionDuration is how long a session minted through this provider lives.
	SessionDuration() time.Duration
}

// Registry maps platforms to their providers.
type Registry struct {
	providers map[domain.Platform]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[domain.Platform]Provider),
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(p Provider) error {
	platform := p.Platform()
	if _, exists := r.providers[platform]; exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateProvider, platform)
	}
	r.providers[platform] = p
	return nil
}

// Get returns the provider for a platform.
func (r *Registry) Get(platform domain.Platform) (Provider, error) {
	p, ok := r.providers[platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrProviderNotFound, platform)
	}
	return p, nil
}

// Platforms returns the registered platforms in sorted order.
func (r *Registry) Platforms() []domain.Platform {
	platforms := make([]domain.Platform, 0, len(r.providers))
	for platform := range r.providers {
		platforms = append(platforms, platform)
	}
	sort.Slice(platforms, func(i, j int) bool { return platforms[i] < platforms[j] })
	return platforms
}
