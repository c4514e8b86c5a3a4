package views

import (
	"github.com/gin-gonic/gin"

	"fitcheck-web/internal/guard"
)

// For builds the page frame for the current request.
func For(c *gin.Context, title, active string) Page {
	p := Page{Title: title, Active: active}
	if sess, ok := guard.SessionFromContext(c); ok {
		p.User = &sess
	}
	return p
}
