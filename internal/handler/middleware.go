package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/risk-auth/internal/domain"
	"github.com/prperemyshlev/risk-auth/internal/dto"
)

// Context keys set by the guards
const (
	ContextUsername = "username"
	ContextClaims   = "claims"
)

// ClaimsDecoder verifies a claims cookie value
type ClaimsDecoder interface {
	Decode(token string) (*domain.Claims, error)
}

// UsernameGuard establishes the low-trust identity from the username cookie.
// A missing cookie is not an error; the request continues anonymously.
func UsernameGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		if username, err := c.Cookie(UsernameCookie); err == nil && username != "" {
			c.Set(ContextUsername, username)
		}
		c.Next()
	}
}

// ClaimsGuard establishes the high-trust identity from the claims cookie and
// rejects the request when it is missing, invalid or expired
func ClaimsGuard(codec ClaimsDecoder) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(ClaimsCookie)
		if err != nil || token == "" {
			unauthorized(c, "Session cookie is required")
			return
		}

		claims, err := codec.Decode(token)
		if err != nil {
			if errors.Is(err, domain.ErrClaimsExpired) {
				unauthorized(c, "Session has expired")
				return
			}
			unauthorized(c, "Invalid session")
			return
		}

		c.Set(ContextClaims, claims)
		c.Next()
	}
}

// RequireMatchingIdentity rejects requests whose username cookie does not
// name the same user as the claims cookie. It must run after both guards.
func RequireMatchingIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := Username(c)
		if !ok {
			unauthorized(c, "Username cookie is required")
			return
		}

		claims, ok := SessionClaims(c)
		if !ok {
			unauthorized(c, "Session cookie is required")
			return
		}

		if !strings.EqualFold(username, claims.Username) {
			unauthorized(c, "Session does not match user")
			return
		}

		c.Next()
	}
}

// Username returns the low-trust identity set by UsernameGuard
func Username(c *gin.Context) (string, bool) {
	username := c.GetString(ContextUsername)
	return username, username != ""
}

// SessionClaims returns the high-trust identity set by ClaimsGuard
func SessionClaims(c *gin.Context) (*domain.Claims, bool) {
	value, ok := c.Get(ContextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*domain.Claims)
	return claims, ok
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
		Error:   "Unauthorized",
		Message: message,
	})
}
