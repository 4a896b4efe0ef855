package domain

import (
	"fmt"
	"strings"
	"time"
)

// Platform identifies the identity provider a user signed in with
type Platform string

const (
	PlatformReddit  Platform = "reddit"
	PlatformDiscord Platform = "discord"
)

// ParsePlatform maps a URL path segment to a known platform, case-insensitively
func ParsePlatform(s string) (Platform, error) {
	switch p := Platform(strings.ToLower(s)); p {
	case PlatformReddit, PlatformDiscord:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrProviderNotFound, s)
	}
}

func (p Platform) String() string {
	return string(p)
}

// User represents a player account. Username is compared case-insensitively
// and (Username, Platform) is unique.
type User struct {
	ID        int64     `json:"id" db:"id"`
	Username  string    `json:"username" db:"uname"`
	Platform  Platform  `json:"platform" db:"platform"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
