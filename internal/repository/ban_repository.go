package repository

import (
	"context"
	"fmt"

	"github.com/prperemyshlev/risk-auth/pkg/database"
)

type banRepository struct {
	db *database.Postgres
}

// NewBanRepository creates a new ban list repository
func NewBanRepository(db *database.Postgres) BanRepository {
	return &banRepository{db: db}
}

// IsBanned reports whether the user has a ban that has not expired
func (r *banRepository) IsBanned(ctx context.Context, userID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bans
			WHERE user_id = $1 AND (expires_at IS NULL OR expires_at > NOW())
		)
	`

	var banned bool
	if err := r.db.DB.QueryRowContext(ctx, query, userID).Scan(&banned); err != nil {
		return false, fmt.Errorf("failed to check ban list: %w: %w", ErrUnavailable, err)
	}

	return banned, nil
}
