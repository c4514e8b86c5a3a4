package session

import (
	"context"
	"errors"
	"io"
	"net/url"
	"sync"
	"testing"
	"time"

	"fitcheck-web/internal/shared/telemetry"
)

type fakeIdentity struct {
	ident Identity
	err   error
	codes []string
}

func (f *fakeIdentity) AuthCodeURL(state string) string {
	return "https://accounts.example/auth?state=" + url.QueryEscape(state)
}

func (f *fakeIdentity) Identify(ctx context.Context, code string) (Identity, error) {
	f.codes = append(f.codes, code)
	return f.ident, f.err
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestProvider(t *testing.T, identity IdentityProvider) (*Provider, *MemoryStore, *clock) {
	t.Helper()
	restore := telemetry.SetOutput(io.Discard)
	t.Cleanup(restore)
	signer, err := NewTokenSigner("secret")
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	store := NewMemoryStore()
	clk := &clock{now: time.Now().UTC()}
	p, err := NewProvider(Options{Store: store, Signer: signer, Identity: identity, TTL: time.Hour, Now: clk.Now})
	if err != nil {
		t.Fatalf("provider: %v", err)
	}
	return p, store, clk
}

func stateFrom(t *testing.T, redirect string) string {
	t.Helper()
	u, err := url.Parse(redirect)
	if err != nil {
		t.Fatalf("parse redirect: %v", err)
	}
	return u.Query().Get("state")
}

func TestSignInAndCompleteCreatesSession(t *testing.T) {
	identity := &fakeIdentity{ident: Identity{Subject: "google:7", Name: "Grace Hopper", Email: "grace@example.com"}}
	p, _, _ := newTestProvider(t, identity)
	ctx := context.Background()

	redirect, err := p.SignIn(ctx)
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	state := stateFrom(t, redirect)
	if state == "" {
		t.Fatalf("expected state in %q", redirect)
	}

	sess, token, err := p.Complete(ctx, state, "auth-code")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if sess.UserID != "google:7" || sess.FirstName() != "Grace" {
		t.Fatalf("unexpected session %+v", sess)
	}
	current, err := p.Current(ctx, token)
	if err != nil || current.ID != sess.ID {
		t.Fatalf("current: %+v %v", current, err)
	}

	if _, _, err := p.Complete(ctx, state, "auth-code"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected state to be single use, got %v", err)
	}
}

func TestCompleteFailuresCreateNoSession(t *testing.T) {
	identity := &fakeIdentity{err: errors.New("exchange failed")}
	p, store, clk := newTestProvider(t, identity)
	ctx := context.Background()

	if _, _, err := p.Complete(ctx, "unknown", "code"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}

	redirect, _ := p.SignIn(ctx)
	_, _, err := p.Complete(ctx, stateFrom(t, redirect), "code")
	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}

	redirect, _ = p.SignIn(ctx)
	clk.Advance(stateTTL + time.Second)
	if _, _, err := p.Complete(ctx, stateFrom(t, redirect), "code"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected expired state rejected, got %v", err)
	}
	if len(identity.codes) != 1 {
		t.Fatalf("expected a single provider exchange, got %d", len(identity.codes))
	}
	if len(store.sessions) != 0 {
		t.Fatalf("expected no sessions, got %d", len(store.sessions))
	}
}

func TestSignInWithoutProviderIsNotConfigured(t *testing.T) {
	p, _, _ := newTestProvider(t, nil)
	if _, err := p.SignIn(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if p.Configured() {
		t.Fatal("expected provider to report unconfigured")
	}
}

func TestSignOutRevokesAndNotifies(t *testing.T) {
	p, _, _ := newTestProvider(t, nil)
	ctx := context.Background()
	var ended []string
	p.OnSignOut(func(ctx context.Context, sessionID string) { ended = append(ended, sessionID) })

	sess, token, err := p.Establish(ctx, DevIdentity)
	if err != nil {
		t.Fatalf("establish: %v", err)
	}
	if err := p.SignOut(ctx, sess.ID); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if _, err := p.Current(ctx, token); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected revoked session, got %v", err)
	}
	if len(ended) != 1 || ended[0] != sess.ID {
		t.Fatalf("expected listener notified once, got %v", ended)
	}
}

func TestCurrentRejectsGarbageAndExpiredSessions(t *testing.T) {
	p, store, clk := newTestProvider(t, nil)
	ctx := context.Background()
	var ended []string
	p.OnSignOut(func(ctx context.Context, sessionID string) { ended = append(ended, sessionID) })

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := p.Current(ctx, token); !errors.Is(err, ErrNoSession) {
			t.Fatalf("expected ErrNoSession for %q, got %v", token, err)
		}
	}

	sess, token, _ := p.Establish(ctx, DevIdentity)
	stored := store.sessions[sess.ID]
	stored.ExpiresAt = clk.Now().Add(time.Minute)
	store.sessions[sess.ID] = stored
	clk.Advance(2 * time.Minute)

	if _, err := p.Current(ctx, token); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected expired session rejected, got %v", err)
	}
	if _, err := store.Get(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired session deleted, got %v", err)
	}
	if len(ended) != 1 {
		t.Fatalf("expected expiry to notify listeners, got %v", ended)
	}
}

func TestSweepDeletesExpiredAndNotifies(t *testing.T) {
	p, store, clk := newTestProvider(t, nil)
	ctx := context.Background()
	var ended []string
	p.OnSignOut(func(ctx context.Context, sessionID string) { ended = append(ended, sessionID) })

	sess, token, err := p.Establish(ctx, DevIdentity)
	if err != nil {
		t.Fatalf("establish: %v", err)
	}
	clk.Advance(2 * time.Hour)
	n, err := p.Sweep(ctx)
	if err != nil || n != 1 || len(store.sessions) != 0 {
		t.Fatalf("sweep: n=%d err=%v left=%d", n, err, len(store.sessions))
	}
	if len(ended) != 1 || ended[0] != sess.ID {
		t.Fatalf("expected sweep to notify listeners, got %v", ended)
	}
	if _, err := p.Current(ctx, token); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected swept session gone, got %v", err)
	}
	if len(ended) != 1 {
		t.Fatalf("expected a single notification, got %v", ended)
	}
}

func TestActiveTracksStoreAndExpiry(t *testing.T) {
	p, store, clk := newTestProvider(t, nil)
	ctx := context.Background()
	sess, _, err := p.Establish(ctx, DevIdentity)
	if err != nil {
		t.Fatalf("establish: %v", err)
	}
	if !p.Active(ctx, sess.ID) {
		t.Fatal("expected fresh session active")
	}
	if p.Active(ctx, "missing") {
		t.Fatal("expected unknown session inactive")
	}
	clk.Advance(2 * time.Hour)
	if p.Active(ctx, sess.ID) {
		t.Fatal("expected expired session inactive")
	}
	delete(store.sessions, sess.ID)
	if p.Active(ctx, sess.ID) {
		t.Fatal("expected removed session inactive")
	}
}
