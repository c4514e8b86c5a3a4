package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fitcheck-web/internal/analyses"
	"fitcheck-web/internal/guard"
	"fitcheck-web/internal/jobposts"
	"fitcheck-web/internal/profiles"
	"fitcheck-web/internal/resumes"
	"fitcheck-web/internal/session"
	"fitcheck-web/internal/shared/config"
	"fitcheck-web/internal/shared/metrics"
	"fitcheck-web/internal/shared/server/middleware"
	"fitcheck-web/internal/shared/server/respond"
	"fitcheck-web/internal/web"
	"fitcheck-web/internal/web/views"
)

const (
	loginPath   = "/login"
	pingTimeout = 3 * time.Second
)

// Backend is everything the pages need from the analysis service.
type Backend interface {
	jobposts.Creator
	profiles.Backend
	resumes.Uploader
	analyses.Backend
	Ping(ctx context.Context) error
}

// RouterDeps carries the constructed dependencies the routes need.
type RouterDeps struct {
	Config    config.Config
	Sessions  *session.Provider
	DevSignIn bool
	Wizards   web.Wizards
	Backend   Backend
	Limiter   *middleware.RateLimiter
	// RateLimits overrides DefaultRateLimits when set.
	RateLimits map[string]middleware.RateLimitRule
}

// DefaultRateLimits are per-session token buckets. Backend-bound posts get the tighter ANALYZE rule.
var DefaultRateLimits = map[string]middleware.RateLimitRule{
	middleware.DefaultRateLimitGroup: {Rate: 5, Burst: 40},
	middleware.AnalyzeRateLimitGroup: {Rate: 0.2, Burst: 4},
}

// BackendRoutes are the POST routes that call the analysis service.
func BackendRoutes() []string {
	var out []string
	out = append(out, web.AnalyzeRoutes...)
	out = append(out, profiles.Routes...)
	out = append(out, resumes.Routes...)
	out = append(out, jobposts.Routes...)
	return out
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.SetHTMLTemplate(views.Must())

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.StaticFS("/static", views.Static())
	r.GET("/healthz", healthHandler(deps.Backend))
	r.GET("/metrics", metrics.Handler())

	rules := deps.RateLimits
	if rules == nil {
		rules = DefaultRateLimits
	}
	limit := middleware.RateLimit(middleware.RateLimitConfig{
		Rules:    rules,
		GroupFor: middleware.GroupByPaths(BackendRoutes()...),
		Limiter:  deps.Limiter,
	})

	public := r.Group("/", guard.Optional(deps.Sessions))
	web.NewPages(web.PagesOptions{DevSignIn: deps.DevSignIn}).RegisterPublicRoutes(public)
	session.NewHandler(deps.Sessions, session.HandlerOptions{
		LoginPath: loginPath,
		DevSignIn: deps.DevSignIn,
	}).RegisterRoutes(public)

	protected := r.Group("/", guard.Require(deps.Sessions, loginPath), limit)
	web.NewPages(web.PagesOptions{}).RegisterProtectedRoutes(protected)
	web.NewAnalyze(deps.Wizards, deps.Config.MaxUploadBytes).RegisterRoutes(protected)
	resumes.NewHandler(deps.Backend, deps.Config.MaxUploadBytes).RegisterRoutes(protected)
	jobposts.NewHandler(deps.Backend).RegisterRoutes(protected)
	profiles.NewHandler(deps.Backend).RegisterRoutes(protected)
	analyses.NewHandler(deps.Backend).RegisterRoutes(protected)
	registerMeRoutes(protected)

	r.NoRoute(func(c *gin.Context) {
		respond.Fail(c, http.StatusNotFound, "not_found", "Page not found")
	})
	return r
}

func healthHandler(backend Backend) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
		defer cancel()
		if err := backend.Ping(ctx); err != nil {
			respond.JSON(c, http.StatusServiceUnavailable, gin.H{"ok": false, "backend": "unreachable"})
			return
		}
		respond.JSON(c, http.StatusOK, gin.H{"ok": true, "backend": "ok"})
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":3000"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
