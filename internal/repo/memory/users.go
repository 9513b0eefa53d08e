// Package memory holds in-process store implementations used by tests and
// local development without a database.
package memory

import (
	"context"
	"sync"

	"github.com/spendlog/spendlog/internal/accounts"
	"github.com/spendlog/spendlog/internal/models"
)

type UsersRepo struct {
	mu    sync.RWMutex
	users map[string]models.User // keyed by username
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{users: make(map[string]models.User)}
}

func (r *UsersRepo) Insert(ctx context.Context, user models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.Username]; exists {
		return accounts.ErrDuplicate
	}
	r.users[user.Username] = user
	return nil
}

func (r *UsersRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[username]
	if !ok {
		return nil, accounts.ErrNotFound
	}
	return &user, nil
}
