package repository

import (
	"context"

	"github.com/prperemyshlev/risk-auth/internal/domain"
)

// UserRepository is the user directory. Usernames compare case-insensitively.
type UserRepository interface {
	// Upsert ensures a record exists for (username, platform). Repeating it is a no-op.
	Upsert(ctx context.Context, username string, platform domain.Platform) error
	Load(ctx context.Context, username string, platform domain.Platform) (*domain.User, error)
}

// AuditRepository is the append-only login audit trail
type AuditRepository interface {
	Append(ctx context.Context, entry *domain.AuditLogEntry) error
}

// BanRepository answers whether a user is currently banned
type BanRepository interface {
	IsBanned(ctx context.Context, userID int64) (bool, error)
}
