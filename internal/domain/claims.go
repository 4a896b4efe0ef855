package domain

import "time"

// Claims is the decoded payload of the signed session cookie. It is never
// persisted server-side.
type Claims struct {
	UserID       int64
	Username     string
	Platform     Platform
	AccessToken  string
	RefreshToken *string
	ExpiresAt    time.Time
}
