package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// SessionCookieName identifies the shopper's cart session.
	SessionCookieName = "cart_session"
	// SessionIDKey is the gin context key the session id is stored under.
	SessionIDKey = "session_id"

	sessionCookieMaxAge = 14 * 24 * 60 * 60
)

// SessionMiddleware guarantees every request carries a cart session id. A new
// visitor gets a fresh uuid cookie; returning visitors keep theirs, so the
// cart survives across requests without authentication.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(SessionCookieName)
		if err != nil || sessionID == "" {
			sessionID = uuid.NewString()
			c.SetCookie(SessionCookieName, sessionID, sessionCookieMaxAge, "/", "", false, true)
		}

		c.Set(SessionIDKey, sessionID)
		c.Next()
	}
}

// GetSessionID extracts the cart session id from context
func GetSessionID(c *gin.Context) (string, bool) {
	sessionID := c.GetString(SessionIDKey)
	if sessionID == "" {
		return "", false
	}
	return sessionID, true
}
