package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"fitcheck-web/internal/gateway"
	"fitcheck-web/internal/session"
	"fitcheck-web/internal/shared/config"
	"fitcheck-web/internal/shared/server"
	"fitcheck-web/internal/shared/server/middleware"
	"fitcheck-web/internal/shared/storage/db"
	"fitcheck-web/internal/shared/storage/object"
	localstore "fitcheck-web/internal/shared/storage/object/local"
	s3store "fitcheck-web/internal/shared/storage/object/s3"
	"fitcheck-web/internal/shared/telemetry"
	"fitcheck-web/internal/wizard"
)

const sweepInterval = 10 * time.Minute

// App holds shared dependencies and the configured router.
type App struct {
	Config    config.Config
	Router    *gin.Engine
	DB        *sql.DB
	Store     object.ObjectStore
	Sessions  *session.Provider
	Backend   *gateway.Client
	Wizards   *wizard.Registry
	DevSignIn bool

	stopSweep context.CancelFunc
	closeOnce sync.Once
}

// Build validates cfg, connects the stores and wires the routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	if strings.TrimSpace(cfg.SessionStore) == "" {
		cfg.SessionStore = "memory"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ctx := context.Background()

	app := &App{Config: cfg}

	sessionStore, sqlDB, err := buildSessionStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.DB = sqlDB

	store, err := buildStore(ctx, cfg)
	if err != nil {
		sessionStore.Close()
		return nil, err
	}
	app.Store = store

	backend, err := gateway.NewClient(gateway.Config{
		BaseURL: cfg.BackendBaseURL,
		Timeout: cfg.BackendTimeout,
	})
	if err != nil {
		sessionStore.Close()
		return nil, err
	}
	app.Backend = backend

	signer, err := session.NewTokenSigner(cfg.SessionSecret)
	if err != nil {
		sessionStore.Close()
		return nil, err
	}
	if cfg.SessionSecret == "" {
		log.Printf("bootstrap: SESSION_SECRET empty; using a random key, sessions end on restart")
	}

	var identity session.IdentityProvider
	if cfg.GoogleConfigured() {
		identity = session.NewGoogleProvider(session.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
		})
	}
	provider, err := session.NewProvider(session.Options{
		Store:        sessionStore,
		Signer:       signer,
		Identity:     identity,
		TTL:          cfg.SessionTTL,
		CookieSecure: !cfg.IsDevLike(),
	})
	if err != nil {
		sessionStore.Close()
		return nil, err
	}
	app.Sessions = provider
	app.DevSignIn = cfg.IsDevLike() && identity == nil

	app.Wizards = wizard.NewRegistry(wizard.Options{
		Store:               store,
		Analyzer:            backend,
		MaxUploadBytes:      cfg.MaxUploadBytes,
		MinDescriptionChars: cfg.MinDescriptionChars,
	})
	provider.OnSignOut(app.Wizards.Drop)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:    cfg,
		Sessions:  provider,
		DevSignIn: app.DevSignIn,
		Wizards:   app.Wizards,
		Backend:   backend,
		Limiter:   middleware.NewRateLimiter(nil),
	})

	sweepCtx, cancel := context.WithCancel(context.Background())
	app.stopSweep = cancel
	go sweep(sweepCtx, provider, app.Wizards, sweepInterval)

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":           cfg.Env,
		"session_store": cfg.SessionStore,
		"object_store":  cfg.ObjectStoreType,
		"google":        identity != nil,
		"dev_sign_in":   app.DevSignIn,
	})
	return app, nil
}

// Close stops background work and releases the session store.
func (a *App) Close() error {
	var err error
	a.closeOnce.Do(func() {
		if a.stopSweep != nil {
			a.stopSweep()
		}
		if a.Sessions != nil {
			err = a.Sessions.Close()
		}
	})
	return err
}

func buildSessionStore(ctx context.Context, cfg config.Config) (session.Store, *sql.DB, error) {
	switch cfg.SessionStore {
	case "postgres":
		sqlDB, err := buildDB(ctx, cfg)
		if err != nil {
			return fallback(cfg, "postgres", err)
		}
		return &session.PGStore{DB: sqlDB}, sqlDB, nil
	case "redis":
		store, err := session.NewRedisStore(ctx, session.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return fallback(cfg, "redis", err)
		}
		return store, nil, nil
	default:
		return session.NewMemoryStore(), nil, nil
	}
}

// fallback keeps dev environments running on the memory store.
func fallback(cfg config.Config, kind string, err error) (session.Store, *sql.DB, error) {
	if cfg.IsDevLike() {
		log.Printf("bootstrap: %s session store unavailable; using memory: %v", kind, err)
		return session.NewMemoryStore(), nil, nil
	}
	return nil, nil, fmt.Errorf("%s session store: %w", kind, err)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func sweep(ctx context.Context, provider *session.Provider, wizards *wizard.Registry, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepOnce(ctx, provider, wizards)
		}
	}
}

// sweepOnce expires stored sessions, then drops wizards whose session is gone
// without a notification, as happens when redis expires the key.
func sweepOnce(ctx context.Context, provider *session.Provider, wizards *wizard.Registry) {
	n, err := provider.Sweep(ctx)
	if err != nil {
		telemetry.Warn("session.sweep_failed", map[string]any{"error": err})
	} else if n > 0 {
		telemetry.Info("session.swept", map[string]any{"removed": n})
	}
	if dropped := wizards.Prune(ctx, provider.Active); dropped > 0 {
		telemetry.Info("wizard.pruned", map[string]any{"removed": dropped})
	}
}
