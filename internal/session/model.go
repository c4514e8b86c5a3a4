// Package session owns sign-in, sign-out and the lookup of the current session.
package session

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("session not found")
	ErrNoSession     = errors.New("no active session")
	ErrNotConfigured = errors.New("sign-in provider not configured")
	ErrInvalidState  = errors.New("invalid or expired sign-in state")
)

// Session is a signed-in browser session.
type Session struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
	Picture     string    `json:"picture"`
	CreatedAt   time.Time `json:"createdAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// FirstName is the greeting name shown in the header.
func (s Session) FirstName() string {
	for i, r := range s.DisplayName {
		if r == ' ' {
			return s.DisplayName[:i]
		}
	}
	if s.DisplayName == "" {
		return s.Email
	}
	return s.DisplayName
}

// Store persists sessions. Implementations are safe for concurrent use.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// expirer is implemented by stores that need explicit cleanup of expired rows.
// DeleteExpired returns the IDs it removed.
type expirer interface {
	DeleteExpired(ctx context.Context, now time.Time) ([]string, error)
}
