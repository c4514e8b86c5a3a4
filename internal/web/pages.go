// Package web serves the landing, login, dashboard and resume analysis pages.
package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fitcheck-web/internal/guard"
	"fitcheck-web/internal/web/views"
)

// PagesOptions configures the static pages.
type PagesOptions struct {
	DevSignIn bool
}

// Pages serves the pages that need no backend.
type Pages struct {
	opts PagesOptions
}

// NewPages constructs Pages.
func NewPages(opts PagesOptions) *Pages {
	return &Pages{opts: opts}
}

// RegisterPublicRoutes attaches pages that anonymous visitors may see.
func (p *Pages) RegisterPublicRoutes(r gin.IRoutes) {
	r.GET("/", p.landing)
	r.GET("/login", p.login)
}

// RegisterProtectedRoutes attaches pages that require a session.
func (p *Pages) RegisterProtectedRoutes(r gin.IRoutes) {
	r.GET("/dashboard", p.dashboard)
}

func (p *Pages) landing(c *gin.Context) {
	c.HTML(http.StatusOK, "landing", views.For(c, "", "home"))
}

func (p *Pages) login(c *gin.Context) {
	if _, ok := guard.SessionFromContext(c); ok {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}
	page := views.For(c, "Sign in", "login")
	page.Error = c.Query("error")
	page.Data = struct{ DevSignIn bool }{DevSignIn: p.opts.DevSignIn}
	c.HTML(http.StatusOK, "login", page)
}

func (p *Pages) dashboard(c *gin.Context) {
	page := views.For(c, "Dashboard", "dashboard")
	if c.Query("deleted") != "" {
		page.Notice = "Analysis deleted."
	}
	c.HTML(http.StatusOK, "dashboard", page)
}
