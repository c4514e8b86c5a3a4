package session

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"fitcheck-web/internal/shared/telemetry"
)

const (
	msgNotConfigured = "Google sign-in is not configured."
	msgCancelled     = "Sign-in was cancelled."
	msgExpiredState  = "Your sign-in attempt expired. Please try again."
	msgProviderError = "Sign-in with Google failed. Please try again."
	msgInternal      = "We could not sign you in. Please try again."
)

// DevIdentity is the local user signed in by the dev sign-in route.
var DevIdentity = Identity{
	Subject: "dev:local",
	Email:   "dev@localhost",
	Name:    "Local Developer",
}

// HandlerOptions configures the sign-in routes.
type HandlerOptions struct {
	LoginPath        string
	AfterSignInPath  string
	AfterSignOutPath string
	DevSignIn        bool
}

// Handler serves the sign-in, callback and sign-out routes.
type Handler struct {
	provider *Provider
	opts     HandlerOptions
}

// NewHandler builds a Handler.
func NewHandler(provider *Provider, opts HandlerOptions) *Handler {
	if opts.LoginPath == "" {
		opts.LoginPath = "/login"
	}
	if opts.AfterSignInPath == "" {
		opts.AfterSignInPath = "/dashboard"
	}
	if opts.AfterSignOutPath == "" {
		opts.AfterSignOutPath = "/"
	}
	return &Handler{provider: provider, opts: opts}
}

// RegisterRoutes attaches the auth routes.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/auth/google/start", h.start)
	r.GET("/auth/google/callback", h.callback)
	r.POST("/logout", h.logout)
	if h.opts.DevSignIn {
		r.GET("/auth/dev", h.devSignIn)
	}
}

func (h *Handler) start(c *gin.Context) {
	target, err := h.provider.SignIn(c.Request.Context())
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			h.toLogin(c, msgNotConfigured)
			return
		}
		h.toLogin(c, msgInternal)
		return
	}
	c.Redirect(http.StatusFound, target)
}

func (h *Handler) callback(c *gin.Context) {
	if providerErr := c.Query("error"); providerErr != "" {
		telemetry.Warn("session.provider_error", map[string]any{"error": providerErr})
		if providerErr == "access_denied" {
			h.toLogin(c, msgCancelled)
			return
		}
		h.toLogin(c, msgProviderError)
		return
	}

	sess, token, err := h.provider.Complete(c.Request.Context(), c.Query("state"), c.Query("code"))
	if err != nil {
		var provErr *ProviderError
		switch {
		case errors.Is(err, ErrNotConfigured):
			h.toLogin(c, msgNotConfigured)
		case errors.Is(err, ErrInvalidState):
			h.toLogin(c, msgExpiredState)
		case errors.As(err, &provErr):
			h.toLogin(c, msgProviderError)
		default:
			telemetry.Error("session.sign_in_error", map[string]any{"error": err})
			h.toLogin(c, msgInternal)
		}
		return
	}
	h.provider.WriteCookie(c.Writer, token, sess.ExpiresAt)
	c.Redirect(http.StatusFound, h.opts.AfterSignInPath)
}

func (h *Handler) devSignIn(c *gin.Context) {
	sess, token, err := h.provider.Establish(c.Request.Context(), DevIdentity)
	if err != nil {
		telemetry.Error("session.dev_sign_in_error", map[string]any{"error": err})
		h.toLogin(c, msgInternal)
		return
	}
	h.provider.WriteCookie(c.Writer, token, sess.ExpiresAt)
	c.Redirect(http.StatusFound, h.opts.AfterSignInPath)
}

func (h *Handler) logout(c *gin.Context) {
	ctx := c.Request.Context()
	if sess, err := h.provider.Current(ctx, h.provider.Token(c.Request)); err == nil {
		if err := h.provider.SignOut(ctx, sess.ID); err != nil {
			telemetry.Error("session.sign_out_error", map[string]any{"session_id": sess.ID, "error": err})
		}
	}
	h.provider.ClearCookie(c.Writer)
	c.Redirect(http.StatusSeeOther, h.opts.AfterSignOutPath)
}

func (h *Handler) toLogin(c *gin.Context, message string) {
	c.Redirect(http.StatusFound, h.opts.LoginPath+"?error="+url.QueryEscape(message))
}
