package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// ClientIP returns the caller address forwarded by the edge proxy in header,
// or nil when the header is absent
func ClientIP(c *gin.Context, header string) *string {
	if header == "" {
		return nil
	}

	ip := strings.TrimSpace(c.GetHeader(header))
	if ip == "" {
		return nil
	}
	return &ip
}

// ClientIPKey builds a rate limit key function from the forwarded client
// address, falling back to the connection address
func ClientIPKey(prefix, header string) func(*gin.Context) string {
	return func(c *gin.Context) string {
		if ip := ClientIP(c, header); ip != nil {
			return prefix + ":" + *ip
		}
		return prefix + ":" + c.ClientIP()
	}
}
