// Package session maps opaque tokens to authenticated usernames. A token
// is minted on login, resolved once per request by the HTTP layer and
// destroyed on logout. There is no other session state.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNoSession = errors.New("session: not found or expired")

// Store holds token→username mappings with a TTL.
type Store interface {
	Put(ctx context.Context, token, username string, ttl time.Duration) error
	Get(ctx context.Context, token string) (string, error)
	Delete(ctx context.Context, token string) error
}

// Manager mints and resolves session tokens on top of a Store.
type Manager struct {
	store Store
	ttl   time.Duration
}

func NewManager(store Store, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{store: store, ttl: ttl}
}

// Create mints a fresh opaque token for username.
func (m *Manager) Create(ctx context.Context, username string) (string, error) {
	token := uuid.NewString()
	if err := m.store.Put(ctx, token, username, m.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve returns the username a token maps to, or ErrNoSession.
func (m *Manager) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrNoSession
	}
	return m.store.Get(ctx, token)
}

// Destroy invalidates a token. Destroying an unknown token is not an error.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.store.Delete(ctx, token)
}

// TTL reports the session lifetime, used to scope the cookie max-age.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}
