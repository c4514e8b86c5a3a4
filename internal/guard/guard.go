// Package guard keeps protected pages behind a signed-in session.
package guard

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"fitcheck-web/internal/session"
	"fitcheck-web/internal/shared/server/middleware"
	"fitcheck-web/internal/shared/server/respond"
)

const sessionKey = "session"

// Reader is the read side of the session provider.
type Reader interface {
	Token(r *http.Request) string
	Current(ctx context.Context, token string) (session.Session, error)
	ClearCookie(w http.ResponseWriter)
}

// Decision is the outcome of a guard check.
type Decision int

const (
	Allow Decision = iota
	RedirectToLogin
)

// Decide allows the request only when a session was found.
func Decide(_ session.Session, ok bool) Decision {
	if ok {
		return Allow
	}
	return RedirectToLogin
}

// Require rejects requests without a live session before the wrapped handler runs.
// Browsers are redirected to loginPath, JSON callers get 401.
func Require(reader Reader, loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := lookup(c, reader)
		if Decide(sess, ok) == Allow {
			attach(c, sess)
			c.Next()
			return
		}
		if reader.Token(c.Request) != "" {
			reader.ClearCookie(c.Writer)
		}
		if respond.WantsJSON(c) {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "sign in required", nil)
			return
		}
		c.Redirect(http.StatusFound, loginPath)
		c.Abort()
	}
}

// Optional attaches the session when there is one and never blocks.
func Optional(reader Reader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sess, ok := lookup(c, reader); ok {
			attach(c, sess)
		}
		c.Next()
	}
}

// SessionFromContext returns the session attached by Require or Optional.
func SessionFromContext(c *gin.Context) (session.Session, bool) {
	val, ok := c.Get(sessionKey)
	if !ok {
		return session.Session{}, false
	}
	sess, ok := val.(session.Session)
	return sess, ok
}

func lookup(c *gin.Context, reader Reader) (session.Session, bool) {
	token := reader.Token(c.Request)
	if token == "" {
		return session.Session{}, false
	}
	sess, err := reader.Current(c.Request.Context(), token)
	if err != nil {
		return session.Session{}, false
	}
	return sess, true
}

func attach(c *gin.Context, sess session.Session) {
	c.Set(sessionKey, sess)
	middleware.SetIdentity(c, sess.UserID, sess.ID, sess.DisplayName)
}
