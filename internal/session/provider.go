package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fitcheck-web/internal/shared/metrics"
	"fitcheck-web/internal/shared/telemetry"
)

const (
	DefaultCookieName = "fitcheck_session"
	defaultTTL        = 24 * time.Hour
	stateTTL          = 5 * time.Minute
)

// ProviderError wraps a failure reported by the identity provider.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return "sign-in failed: " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Options configures a Provider.
type Options struct {
	Store        Store
	Signer       *TokenSigner
	Identity     IdentityProvider
	TTL          time.Duration
	CookieName   string
	CookieSecure bool
	Now          func() time.Time
}

// SignOutFunc is notified after a session ends, by sign-out or expiry.
type SignOutFunc func(ctx context.Context, sessionID string)

// Provider is the only writer of sessions.
type Provider struct {
	store    Store
	signer   *TokenSigner
	identity IdentityProvider
	ttl      time.Duration
	cookie   string
	secure   bool
	now      func() time.Time
	states   *stateStore

	mu        sync.RWMutex
	listeners []SignOutFunc
}

// NewProvider builds a Provider. Identity may be nil when no external sign-in is configured.
func NewProvider(opts Options) (*Provider, error) {
	if opts.Store == nil {
		return nil, errors.New("session store is required")
	}
	if opts.Signer == nil {
		return nil, errors.New("token signer is required")
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Provider{
		store:    opts.Store,
		signer:   opts.Signer,
		identity: opts.Identity,
		ttl:      opts.TTL,
		cookie:   opts.CookieName,
		secure:   opts.CookieSecure,
		now:      opts.Now,
		states:   newStateStore(),
	}, nil
}

// Configured reports whether external sign-in is available.
func (p *Provider) Configured() bool {
	return p.identity != nil
}

// SignIn starts the authorization-code flow and returns the provider URL.
func (p *Provider) SignIn(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.identity == nil {
		return "", ErrNotConfigured
	}
	state := uuid.NewString()
	p.states.put(state, p.now().Add(stateTTL))
	return p.identity.AuthCodeURL(state), nil
}

// Complete finishes the flow started by SignIn and opens a session.
func (p *Provider) Complete(ctx context.Context, state, code string) (Session, string, error) {
	if p.identity == nil {
		return Session{}, "", ErrNotConfigured
	}
	if state == "" || code == "" || !p.states.consume(state, p.now()) {
		return Session{}, "", ErrInvalidState
	}
	ident, err := p.identity.Identify(ctx, code)
	if err != nil {
		telemetry.Warn("session.sign_in_failed", map[string]any{"error": err})
		return Session{}, "", &ProviderError{Err: err}
	}
	return p.Establish(ctx, ident)
}

// Establish opens a session for an already verified identity.
func (p *Provider) Establish(ctx context.Context, ident Identity) (Session, string, error) {
	if strings.TrimSpace(ident.Subject) == "" {
		return Session{}, "", errors.New("identity subject is required")
	}
	now := p.now().UTC()
	sess := Session{
		ID:          uuid.NewString(),
		UserID:      ident.Subject,
		DisplayName: ident.Name,
		Email:       ident.Email,
		Picture:     ident.Picture,
		CreatedAt:   now,
		ExpiresAt:   now.Add(p.ttl),
	}
	if err := p.store.Create(ctx, sess); err != nil {
		return Session{}, "", fmt.Errorf("create session: %w", err)
	}
	token, err := p.signer.Sign(sess)
	if err != nil {
		_ = p.store.Delete(ctx, sess.ID)
		return Session{}, "", fmt.Errorf("sign session token: %w", err)
	}
	metrics.IncSignIn()
	telemetry.Info("session.signed_in", map[string]any{"session_id": sess.ID, "user_id": sess.UserID})
	return sess, token, nil
}

// Current returns the session named by token, or ErrNoSession.
func (p *Provider) Current(ctx context.Context, token string) (Session, error) {
	now := p.now()
	claims, err := p.signer.Verify(token, now)
	if err != nil {
		return Session{}, ErrNoSession
	}
	sess, err := p.store.Get(ctx, claims.ID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			telemetry.Warn("session.lookup_failed", map[string]any{"session_id": claims.ID, "error": err})
		}
		return Session{}, ErrNoSession
	}
	if sess.UserID != claims.Subject {
		return Session{}, ErrNoSession
	}
	if sess.Expired(now) {
		p.end(ctx, sess.ID, "expired")
		return Session{}, ErrNoSession
	}
	return sess, nil
}

// SignOut ends the session and notifies listeners.
func (p *Provider) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrNoSession
	}
	if err := p.end(ctx, sessionID, "signed_out"); err != nil {
		return err
	}
	metrics.IncSignOut()
	return nil
}

// OnSignOut registers fn to run whenever a session ends.
func (p *Provider) OnSignOut(fn SignOutFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Sweep removes expired sessions from stores that do not expire keys on their
// own and notifies listeners for each one.
func (p *Provider) Sweep(ctx context.Context) (int64, error) {
	exp, ok := p.store.(expirer)
	if !ok {
		return 0, nil
	}
	ids, err := exp.DeleteExpired(ctx, p.now())
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		p.notify(ctx, id, "expired")
	}
	return int64(len(ids)), nil
}

// Active reports whether sessionID still names a live session. Lookup
// failures other than a missing record count as live.
func (p *Provider) Active(ctx context.Context, sessionID string) bool {
	sess, err := p.store.Get(ctx, sessionID)
	if err != nil {
		return !errors.Is(err, ErrNotFound)
	}
	return !sess.Expired(p.now())
}

// Close releases the session store.
func (p *Provider) Close() error {
	return p.store.Close()
}

func (p *Provider) end(ctx context.Context, sessionID, reason string) error {
	if err := p.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	p.notify(ctx, sessionID, reason)
	return nil
}

func (p *Provider) notify(ctx context.Context, sessionID, reason string) {
	p.mu.RLock()
	listeners := append([]SignOutFunc(nil), p.listeners...)
	p.mu.RUnlock()
	for _, fn := range listeners {
		fn(ctx, sessionID)
	}
	telemetry.Info("session.ended", map[string]any{"session_id": sessionID, "reason": reason})
}

// Token reads the session cookie from the request.
func (p *Provider) Token(r *http.Request) string {
	cookie, err := r.Cookie(p.cookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// WriteCookie stores token in the browser until the session expires.
func (p *Provider) WriteCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     p.cookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(expires.Sub(p.now()).Seconds()),
		HttpOnly: true,
		Secure:   p.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie removes the session cookie.
func (p *Provider) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     p.cookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   p.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
