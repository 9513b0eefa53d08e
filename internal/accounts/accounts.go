package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spendlog/spendlog/internal/models"
	"github.com/spendlog/spendlog/internal/security"
)

var (
	ErrUsernameRequired  = errors.New("accounts: username is required")
	ErrPasswordRequired  = errors.New("accounts: password is required")
	ErrDuplicateUsername = errors.New("accounts: username already taken")
	ErrUserNotFound      = errors.New("accounts: user not found")
	ErrInvalidPassword   = errors.New("accounts: invalid password")

	// ErrStoreUnavailable wraps store failures that are not lookup misses.
	ErrStoreUnavailable = errors.New("accounts: store unavailable")
)

// UserStore is the persistence surface the service needs. FindByUsername
// must return ErrNotFound on a miss; Insert must fail when the username is
// already present.
type UserStore interface {
	Insert(ctx context.Context, user models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// ErrNotFound is the store-level miss signal, distinct from the
// service-level ErrUserNotFound so that repos stay free of auth semantics.
var ErrNotFound = errors.New("accounts: record not found")

// ErrDuplicate is returned by stores when an insert collides with an
// existing username (unique index violation).
var ErrDuplicate = errors.New("accounts: duplicate record")

type Service struct {
	store UserStore
}

func NewService(store UserStore) *Service {
	return &Service{store: store}
}

// CreateAccount registers a new user. Usernames are case sensitive and
// immutable; there is no rename, update or delete operation.
func (s *Service) CreateAccount(ctx context.Context, username, password string) (*models.User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, ErrUsernameRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	existing, err := s.store.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: lookup %q: %v", ErrStoreUnavailable, username, err)
	}
	if existing != nil {
		return nil, ErrDuplicateUsername
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("accounts: hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.store.Insert(ctx, user); err != nil {
		// The unique index closes the race between the lookup above and
		// this insert.
		if errors.Is(err, ErrDuplicate) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("%w: insert %q: %v", ErrStoreUnavailable, username, err)
	}

	sanitized := user.Sanitize()
	return &sanitized, nil
}

// VerifyCredentials checks a username/password pair against the stored
// hash. It distinguishes an unknown user from a wrong password; there is
// no lockout or attempt counting.
func (s *Service) VerifyCredentials(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: lookup %q: %v", ErrStoreUnavailable, username, err)
	}

	if err := security.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidPassword
	}

	sanitized := user.Sanitize()
	return &sanitized, nil
}
