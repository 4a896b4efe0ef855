package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Session cookie names
const (
	UsernameCookie = "username"
	ClaimsCookie   = "jwt"
)

const (
	stateCookie     = "oauth_state"
	stateCookiePath = "/auth"
	stateMaxAge     = 10 * time.Minute
)

// CookiePolicy is the domain and transport policy shared by every cookie we set
type CookiePolicy struct {
	Domain string
	Secure bool
}

func (p CookiePolicy) set(c *gin.Context, name, value string, maxAge time.Duration, path string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, int(maxAge/time.Second), path, p.Domain, p.Secure, true)
}

// clear expires a cookie immediately (Max-Age=0)
func (p CookiePolicy) clear(c *gin.Context, name, path string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, "", -1, path, p.Domain, p.Secure, true)
}

// setSession issues both session cookies with the same lifetime
func (p CookiePolicy) setSession(c *gin.Context, username, token string, maxAge time.Duration) {
	p.set(c, UsernameCookie, username, maxAge, "/")
	p.set(c, ClaimsCookie, token, maxAge, "/")
}

func (p CookiePolicy) clearSession(c *gin.Context) {
	p.clear(c, UsernameCookie, "/")
	p.clear(c, ClaimsCookie, "/")
}
