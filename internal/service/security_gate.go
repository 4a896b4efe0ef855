package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/prperemyshlev/risk-auth/internal/domain"
	"github.com/prperemyshlev/risk-auth/internal/repository"
	"go.uber.org/zap"
)

// SecurityGate audits every login attempt and then applies the login policy.
// The audit record is written before the decision, so denied attempts are
// recorded too.
type SecurityGate struct {
	audit  repository.AuditRepository
	policy LoginPolicy
	logger *zap.Logger
}

// NewSecurityGate creates a gate. A nil policy admits every login.
func NewSecurityGate(audit repository.AuditRepository, policy LoginPolicy, logger *zap.Logger) *SecurityGate {
	if policy == nil {
		policy = AllowAll{}
	}
	return &SecurityGate{
		audit:  audit,
		policy: policy,
		logger: logger,
	}
}

// Check writes the audit record for this attempt and returns nil to allow,
// a *domain.DenyError to deny, or an error wrapping domain.ErrAuditFailure
// when the audit write fails.
func (g *SecurityGate) Check(ctx context.Context, user *domain.User, profile *domain.ExternalProfile, clientIP *string) error {
	entry := &domain.AuditLogEntry{
		UserID:    user.ID,
		EventKind: domain.AuditEventLoginAttempt,
		Data:      profile.Raw,
		ClientIP:  clientIP,
	}

	if err := g.audit.Append(ctx, entry); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrAuditFailure, err)
	}

	if err := g.policy.Evaluate(ctx, user, profile, clientIP); err != nil {
		var deny *domain.DenyError
		if errors.As(err, &deny) {
			g.logger.Info("login denied",
				zap.Int64("user_id", user.ID),
				zap.String("platform", user.Platform.String()),
				zap.Stringer("reason", deny.Reason),
				zap.Int64("audit_id", entry.ID),
			)
		}
		return err
	}

	return nil
}
