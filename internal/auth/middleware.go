package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CookieName is the session cookie set at login.
const CookieName = "session"

const identityKey = "identity"

// TokenFromRequest extracts the session token from the cookie, falling back
// to an Authorization bearer header for non-browser clients.
func TokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(CookieName); err == nil && cookie != "" {
		return cookie
	}
	authz := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return strings.TrimSpace(authz[len("bearer "):])
	}
	return ""
}

// RequireRole resolves the session and enforces the given role. Handlers
// behind it can rely on Identity returning a valid session.
func RequireRole(store Store, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		sess, err := store.Get(c.Request.Context(), token)
		if errors.Is(err, ErrNoSession) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		if err != nil {
			// A session-store outage must not masquerade as a logout.
			logrus.WithError(err).Error("session lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if sess.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": role + " access required"})
			return
		}
		c.Set(identityKey, sess)
		c.Next()
	}
}

// Identity returns the session stored by RequireRole.
func Identity(c *gin.Context) (Session, bool) {
	val, ok := c.Get(identityKey)
	if !ok {
		return Session{}, false
	}
	sess, ok := val.(Session)
	return sess, ok
}
