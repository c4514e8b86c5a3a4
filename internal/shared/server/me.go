package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fitcheck-web/internal/guard"
	"fitcheck-web/internal/shared/server/middleware"
	"fitcheck-web/internal/shared/server/respond"
)

// registerMeRoutes attaches the /me endpoint.
func registerMeRoutes(r gin.IRoutes) {
	r.GET("/me", meHandler)
}

func meHandler(c *gin.Context) {
	sess, ok := guard.SessionFromContext(c)
	if !ok {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "sign in required", nil)
		return
	}

	response := gin.H{
		"userId":    sess.UserID,
		"expiresAt": sess.ExpiresAt,
	}
	if name := middleware.UserNameFromContext(c); name != "" {
		response["name"] = name
	}
	if sess.Email != "" {
		response["email"] = sess.Email
	}
	if sess.Picture != "" {
		response["picture"] = sess.Picture
	}
	respond.OK(c, response)
}
