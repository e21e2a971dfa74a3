// Package middleware provides HTTP middleware for the API.
//
// Go Pattern: Middleware in Go is a function that wraps an HTTP handler.
// In Gin, middleware is a gin.HandlerFunc that calls c.Next() to continue
// the chain, or c.Abort() to stop processing.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/Shimizu-Technology/pdf-corrector-api/internal/models"
)

const clientContextKey = "client_id"

// AuthConfig selects the accepted credentials. Either field may be empty;
// with both empty Auth lets every request through.
type AuthConfig struct {
	APIKeyHash string // bcrypt hash of the accepted X-API-Key value
	JWTSecret  string // HS256 secret for Authorization: Bearer tokens
}

// Enabled reports whether any credential is configured.
func (a AuthConfig) Enabled() bool {
	return a.APIKeyHash != "" || a.JWTSecret != ""
}

// Auth returns middleware that accepts EITHER the configured API key OR a
// valid JWT. On success the client identity is stored for rate limiting.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled() {
			c.Next()
			return
		}

		// Try API key first
		if rawKey := c.GetHeader("X-API-Key"); rawKey != "" && cfg.APIKeyHash != "" {
			if bcrypt.CompareHashAndPassword([]byte(cfg.APIKeyHash), []byte(rawKey)) == nil {
				c.Set(clientContextKey, "api-key")
				c.Next()
				return
			}
		}

		// Then a bearer token
		authHeader := c.GetHeader("Authorization")
		if cfg.JWTSecret != "" && strings.HasPrefix(authHeader, "Bearer ") {
			claims, err := ParseJWT(strings.TrimPrefix(authHeader, "Bearer "), cfg.JWTSecret)
			if err == nil {
				c.Set(clientContextKey, "jwt:"+claims.Subject)
				c.Next()
				return
			}
		}

		// Neither auth method worked
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "unauthorized",
			Message: "Provide a valid X-API-Key header or Authorization: Bearer <token>",
			Code:    http.StatusUnauthorized,
		})
		c.Abort() // Stop the middleware chain, don't call the handler
	}
}

// GetClientID returns the authenticated client identity, or "" when the
// request was not authenticated.
func GetClientID(c *gin.Context) string {
	return c.GetString(clientContextKey)
}

// HashAPIKey produces the bcrypt hash to put in API_KEY_HASH.
// We store hashes, not raw keys, the same way passwords are stored.
func HashAPIKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
