package service

import (
	"context"
	"fmt"

	"github.com/prperemyshlev/risk-auth/internal/domain"
	"github.com/prperemyshlev/risk-auth/internal/repository"
)

// AllowAll admits every login
type AllowAll struct{}

func (AllowAll) Evaluate(context.Context, *domain.User, *domain.ExternalProfile, *string) error {
	return nil
}

// BanListPolicy denies users with an active entry in the ban list
type BanListPolicy struct {
	bans repository.BanRepository
}

// NewBanListPolicy creates a ban list policy
func NewBanListPolicy(bans repository.BanRepository) *BanListPolicy {
	return &BanListPolicy{bans: bans}
}

func (p *BanListPolicy) Evaluate(ctx context.Context, user *domain.User, _ *domain.ExternalProfile, _ *string) error {
	banned, err := p.bans.IsBanned(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("ban list lookup: %w", err)
	}
	if banned {
		return domain.Deny(domain.DenyBanned, fmt.Sprintf("user %d", user.ID))
	}
	return nil
}

// PolicyChain evaluates policies in order and stops at the first error
type PolicyChain []LoginPolicy

func (c PolicyChain) Evaluate(ctx context.Context, user *domain.User, profile *domain.ExternalProfile, clientIP *string) error {
	for _, p := range c {
		if err := p.Evaluate(ctx, user, profile, clientIP); err != nil {
			return err
		}
	}
	return nil
}
