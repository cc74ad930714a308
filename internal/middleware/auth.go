// Package middleware provides HTTP middleware for the ops API.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"madtown/video-aggregator/pkg/logger"
)

const (
	headerAPIKey = "X-API-Key"
	headerAuth   = "Authorization"
	bearerPrefix = "Bearer "
)

// APIKeyAuth validates requests against a configured token list. Tokens are
// accepted from the X-API-Key header or an Authorization bearer value. With
// no tokens configured, every request is rejected.
func APIKeyAuth(tokens []string) gin.HandlerFunc {
	valid := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t != "" {
			valid = append(valid, t)
		}
	}

	return func(c *gin.Context) {
		provided := extractToken(c)

		if !isValidToken(provided, valid) {
			logger.Log.Warn("unauthorized request",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
				zap.String("remote_addr", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Unauthorized",
			})
			return
		}

		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if key := c.GetHeader(headerAPIKey); key != "" {
		return key
	}

	auth := c.GetHeader(headerAuth)
	if strings.HasPrefix(auth, bearerPrefix) {
		return strings.TrimPrefix(auth, bearerPrefix)
	}

	return ""
}

// isValidToken uses constant-time comparison to prevent timing attacks.
func isValidToken(provided string, valid []string) bool {
	if provided == "" || len(valid) == 0 {
		return false
	}

	for _, token := range valid {
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) == 1 {
			return true
		}
	}

	return false
}
