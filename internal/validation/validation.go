// Package validation provides input validation middleware for the share service.
package validation

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

// MaxRequestSize is the maximum request body size. Mint requests carry a
// single report ID, so anything larger is abuse.
const MaxRequestSize = 4 << 10 // 4KB

// shareTokenRegex matches tokens minted by the share store
var shareTokenRegex = regexp.MustCompile(`^shr_[a-f0-9]{24}$`)

// RequestSizeMiddleware limits request body size
func RequestSizeMiddleware(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

// IsValidShareToken checks if a string has the shape of a minted share token
func IsValidShareToken(token string) bool {
	return shareTokenRegex.MatchString(token)
}

// SanitizeString trims whitespace, strips null bytes and limits length
func SanitizeString(s string, maxLen int) string {
	s = strings.TrimSpace(s)

	if len(s) > maxLen {
		s = s[:maxLen]
	}

	s = strings.ReplaceAll(s, "\x00", "")

	return s
}

// TokenParamMiddleware validates the :token URL parameter on routes that
// use it. Malformed tokens are rejected before they reach the store, which
// keeps lookup misses in the metrics limited to real expired or unknown links.
func TokenParamMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Param("token")
		if token != "" && !IsValidShareToken(token) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_token",
				"message": "share token is malformed",
			})
			return
		}
		c.Next()
	}
}
