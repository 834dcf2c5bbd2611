// Package auth resolves the caller's identity for each request. Account
// management and credential verification live outside this service; all
// this package does is map a bearer token onto a known user and expose the
// result to handlers. Authorization (admin-only catalog mutation) is a
// precondition checked here, never re-derived by the core.
package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lectern-app/lectern/internal/config"
	"github.com/lectern-app/lectern/internal/database"
	"github.com/lectern-app/lectern/internal/entities"
)

// Context keys for user data
const (
	ContextKeyUserID   = "auth_user_id"
	ContextKeyUsername = "auth_username"
	ContextKeyRole     = "auth_role"
)

// DefaultUserID is used when authentication is disabled.
const DefaultUserID = uint(0)

// Middleware handles identity resolution for HTTP requests.
type Middleware struct {
	db   *database.Database
	mode config.AuthMode
}

// NewMiddleware creates the identity middleware.
func NewMiddleware(db *database.Database, mode config.AuthMode) *Middleware {
	return &Middleware{db: db, mode: mode}
}

// Handler returns a Gin middleware that resolves the caller.
func (m *Middleware) Handler() gin.HandlerFunc {
	if m.mode == config.AuthModeNone {
		return func(c *gin.Context) {
			c.Set(ContextKeyUserID, DefaultUserID)
			c.Next()
		}
	}

	return func(c *gin.Context) {
		if user := m.tryBearerAuth(c); user != nil {
			c.Set(ContextKeyUserID, user.ID)
			c.Set(ContextKeyUsername, user.Username)
			c.Set(ContextKeyRole, user.Role)
			c.Next()
			return
		}
		c.Next()
	}
}

// RequireUser aborts with 401 when no identity was resolved. Only
// meaningful in token mode; with auth disabled every request carries the
// default user.
func (m *Middleware) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.mode == config.AuthModeNone {
			c.Next()
			return
		}
		if _, exists := c.Get(ContextKeyRole); !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}
		c.Next()
	}
}

// RequireAdmin aborts with 403 unless the caller is an admin. With auth
// disabled everything is allowed, matching the single-operator deployment.
func (m *Middleware) RequireAdmin(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.mode == config.AuthModeNone {
			c.Next()
			return
		}
		if GetRole(c) != entities.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"detail": "Only admin users can " + action + ".",
			})
			return
		}
		c.Next()
	}
}

// tryBearerAuth attempts to authenticate using a Bearer token.
func (m *Middleware) tryBearerAuth(c *gin.Context) *entities.User {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil
	}

	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || token == "" {
		return nil
	}

	user, err := m.db.GetUserByToken(token)
	if err != nil {
		return nil
	}
	return user
}

// GetUserID extracts the authenticated user's ID from the Gin context.
// Returns DefaultUserID when nothing was resolved.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := id.(uint); ok {
			return userID
		}
	}
	return DefaultUserID
}

// GetRole extracts the authenticated user's role from the Gin context.
func GetRole(c *gin.Context) entities.UserRole {
	if role, exists := c.Get(ContextKeyRole); exists {
		if r, ok := role.(entities.UserRole); ok {
			return r
		}
	}
	return entities.RoleUser
}

// SecurityHeadersMiddleware adds security headers to all responses.
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Prevent clickjacking
		c.Header("X-Frame-Options", "DENY")

		// Prevent MIME type sniffing
		c.Header("X-Content-Type-Options", "nosniff")

		// Referrer policy - don't leak URLs to external sites
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// JSON API: nothing should ever render as a document
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		c.Next()
	}
}
