package handler

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"
)

// setState stores the OAuth state value in a short-lived cookie scoped to
// the callback path
func (p CookiePolicy) setState(c *gin.Context, state string) {
	p.set(c, stateCookie, state, stateMaxAge, stateCookiePath)
}

// consumeState clears the state cookie and reports whether the callback's
// state parameter matches it
func (p CookiePolicy) consumeState(c *gin.Context) bool {
	expected, err := c.Cookie(stateCookie)
	p.clear(c, stateCookie, stateCookiePath)
	if err != nil || expected == "" {
		return false
	}

	got := c.Query("state")
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}
