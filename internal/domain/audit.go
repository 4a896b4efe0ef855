package domain

import (
	"encoding/json"
	"time"
)

// AuditEvent is the integer event code stored in the audit log
type AuditEvent int

const (
	AuditEventLoginAttempt AuditEvent = 1
)

// AuditLogEntry is an append-only record of a security relevant event
type AuditLogEntry struct {
	ID        int64           `json:"id" db:"id"`
	UserID    int64           `json:"user_id" db:"user_id"`
	EventKind AuditEvent      `json:"event" db:"event"`
	Timestamp time.Time       `json:"timestamp" db:"timestamp"`
	Data      json.RawMessage `json:"data" db:"data"`
	ClientIP  *string         `json:"cip" db:"cip"`
}
