package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/prperemyshlev/risk-auth/internal/domain"
	"github.com/prperemyshlev/risk-auth/pkg/database"
)

// userRepository implements UserRepository interface
type userRepository struct {
	db *database.Postgres
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.Postgres) UserRepository {
	return &userRepository{db: db}
}

// Upsert inserts the user unless a case-insensitive match already exists.
// The unique constraint makes concurrent identical upserts safe.
func (r *userRepository) Upsert(ctx context.Context, username string, platform domain.Platform) error {
	query := `
		INSERT INTO users (uname, platform)
		VALUES ($1, $2)
		ON CONFLICT (uname, platform) DO NOTHING
	`

	if _, err := r.db.DB.ExecContext(ctx, query, username, string(platform)); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return fmt.Errorf("user %s on %s: %w", username, platform, ErrConflict)
		}
		return fmt.Errorf("failed to upsert user: %w: %w", ErrUnavailable, err)
	}

	return nil
}

// Load retrieves the canonical record for (username, platform)
func (r *userRepository) Load(ctx context.Context, username string, platform domain.Platform) (*domain.User, error) {
	query := `
		SELECT id, uname, platform, created_at
		FROM users
		WHERE uname = $1 AND platform = $2
	`

	user := &domain.User{}
	var p string

	err := r.db.DB.QueryRowContext(ctx, query, username, string(platform)).Scan(
		&user.ID,
		&user.Username,
		&p,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s on %s not found: %w", username, platform, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load user: %w: %w", ErrUnavailable, err)
	}

	user.Platform = domain.Platform(p)

	return user, nil
}
