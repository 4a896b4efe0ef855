package domain

import (
	"errors"
	"fmt"
)

var (
	// Provider errors
	ErrProviderNotFound   = errors.New("provider not found")
	ErrDuplicateProvider  = errors.New("duplicate provider registration")
	ErrTokenExchange      = errors.New("provider code exchange failed")
	ErrProviderNetwork    = errors.New("provider request failed")
	ErrProviderBadPayload = errors.New("provider returned an unusable profile")

	// Claims codec errors
	ErrClaimsInvalid = errors.New("invalid session token")
	ErrClaimsExpired = errors.New("expired session token")

	// Session errors
	ErrAuditFailure = errors.New("failed to write audit record")
)

// DenyReason classifies why the security gate rejected a login
type DenyReason int

const (
	DenyBanned DenyReason = iota + 1
	DenyPolicyViolation
)

func (r DenyReason) String() string {
	switch r {
	case DenyBanned:
		return "banned"
	case DenyPolicyViolation:
		return "policy_violation"
	default:
		return fmt.Sprintf("DenyReason(%d)", int(r))
	}
}

// DenyError is returned by a login policy to reject an attempt
type DenyError struct {
	Reason DenyReason
	Detail string
}

func (e *DenyError) Error() string {
	if e.Detail == "" {
		return "login denied: " + e.Reason.String()
	}
	return fmt.Sprintf("login denied: %s: %s", e.Reason, e.Detail)
}

// Deny builds a DenyError
func Deny(reason DenyReason, detail string) error {
	return &DenyError{Reason: reason, Detail: detail}
}
