package service

import (
	"context"

	"github.com/prperemyshlev/risk-auth/internal/domain"
)

// ClaimsEncoder turns minted claims into the session cookie value
type ClaimsEncoder interface {
	Encode(claims domain.Claims) (string, error)
}

// LoginPolicy decides whether an already-audited login may proceed. It
// returns a *domain.DenyError to reject the attempt; any other error is an
// internal failure.
type LoginPolicy interface {
	Evaluate(ctx context.Context, user *domain.User, profile *domain.ExternalProfile, clientIP *string) error
}
