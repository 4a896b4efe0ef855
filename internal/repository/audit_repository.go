package repository

import (
	"context"
	"fmt"

	"github.com/prperemyshlev/risk-auth/internal/domain"
	"github.com/prperemyshlev/risk-auth/pkg/database"
)

type auditRepository struct {
	db *database.Postgres
}

// NewAuditRepository creates a new audit log repository
func NewAuditRepository(db *database.Postgres) AuditRepository {
	return &auditRepository{db: db}
}

// Append writes one audit record and fills in its ID and Timestamp
func (r *auditRepository) Append(ctx context.Context, entry *domain.AuditLogEntry) error {
	query := `
		INSERT INTO audit_log (user_id, event, data, cip)
		VALUES ($1, $2, $3, $4)
		RETURNING id, timestamp
	`

	// json column; a nil interface stores SQL NULL
	var data any
	if len(entry.Data) > 0 {
		data = string(entry.Data)
	}

	err := r.db.DB.QueryRowContext(ctx, query,
		entry.UserID,
		int(entry.EventKind),
		data,
		entry.ClientIP,
	).Scan(&entry.ID, &entry.Timestamp)

	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w: %w", ErrUnavailable, err)
	}

	return nil
}
