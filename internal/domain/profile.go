package domain

import (
	"encoding/json"
	"fmt"
)

// ProviderToken is the access/refresh token pair returned by a provider's
// code exchange. The values are opaque and must never be logged.
type ProviderToken struct {
	AccessToken  string
	RefreshToken *string
}

// String redacts the token values so a ProviderToken is safe to pass to a logger.
func (t ProviderToken) String() string {
	return fmt.Sprintf("ProviderToken{access:%s refresh:%s}", redact(t.AccessToken), redactPtr(t.RefreshToken))
}

// GoString keeps %#v from printing the token values.
func (t ProviderToken) GoString() string {
	return t.String()
}

func redact(s string) string {
	if s == "" {
		return "<empty>"
	}
	return "<redacted>"
}

func redactPtr(s *string) string {
	if s == nil {
		return "<none>"
	}
	return redact(*s)
}

// ExternalProfile is the normalized result of a provider profile fetch. Raw
// keeps the provider's JSON document for the audit snapshot.
type ExternalProfile struct {
	DisplayName string
	Platform    Platform
	Raw         json.RawMessage
}
