package middleware

import "github.com/gin-gonic/gin"

const (
	userIDKey    = "userId"
	sessionIDKey = "sessionId"
	userNameKey  = "userName"
)

// SetIdentity records the signed-in principal on the request context.
func SetIdentity(c *gin.Context, userID, sessionID, displayName string) {
	c.Set(userIDKey, userID)
	c.Set(sessionIDKey, sessionID)
	if displayName != "" {
		c.Set(userNameKey, displayName)
	}
}

// UserIDFromContext fetches the user ID recorded by SetIdentity.
func UserIDFromContext(c *gin.Context) string {
	return stringFromContext(c, userIDKey)
}

// SessionIDFromContext fetches the session ID recorded by SetIdentity.
func SessionIDFromContext(c *gin.Context) string {
	return stringFromContext(c, sessionIDKey)
}

// UserNameFromContext fetches the display name recorded by SetIdentity.
func UserNameFromContext(c *gin.Context) string {
	return stringFromContext(c, userNameKey)
}

func stringFromContext(c *gin.Context, key string) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(key)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
