package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spendlog/spendlog/internal/models"
)

var (
	ErrUnauthenticated = errors.New("ledger: owner identity required")
	ErrExpenseNotFound = errors.New("ledger: expense not found")

	// ErrStoreUnavailable wraps store failures that are not lookup misses.
	ErrStoreUnavailable = errors.New("ledger: store unavailable")
)

// ErrNotFound is the store-level miss signal.
var ErrNotFound = errors.New("ledger: record not found")

// ExpenseStore is the persistence surface the service needs. FindByID must
// return ErrNotFound on a miss. Delete must succeed when the id is absent.
// List returns records in store order, filtered to an exact category match
// when category is non-empty.
type ExpenseStore interface {
	Insert(ctx context.Context, expense models.Expense) error
	FindByID(ctx context.Context, id string) (*models.Expense, error)
	Update(ctx context.Context, id string, amount float64, category, description string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, category string) ([]models.Expense, error)
}

// Fields carries the caller-supplied mutable part of an expense.
type Fields struct {
	Amount      float64
	Category    string
	Description string
}

// ListResult is a page of expenses plus the distinct categories present in
// it. Categories are derived from the returned records, so with an active
// filter the set collapses to the filter value; callers building a filter
// UI should know this.
type ListResult struct {
	Expenses   []models.Expense
	Categories []string
}

type Service struct {
	store ExpenseStore

	// enforceOwner gates ownership checks on Get/Update/Delete. When off
	// (the default) any caller may touch any record by id.
	enforceOwner bool
}

type Option func(*Service)

// WithOwnerEnforcement makes Get, Update and Delete reject records that do
// not belong to the calling owner. Misses and foreign records are both
// reported as ErrExpenseNotFound so ids cannot be probed for existence.
func WithOwnerEnforcement() Option {
	return func(s *Service) { s.enforceOwner = true }
}

func NewService(store ExpenseStore, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add records a new expense for owner. The id and creation time are fixed
// here and never change afterwards.
func (s *Service) Add(ctx context.Context, owner string, fields Fields) (*models.Expense, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, ErrUnauthenticated
	}

	expense := models.Expense{
		ID:            uuid.NewString(),
		OwnerUsername: owner,
		Amount:        fields.Amount,
		Category:      fields.Category,
		Description:   fields.Description,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.store.Insert(ctx, expense); err != nil {
		return nil, fmt.Errorf("%w: insert: %v", ErrStoreUnavailable, err)
	}

	return &expense, nil
}

// Get fetches one expense by id.
func (s *Service) Get(ctx context.Context, owner, id string) (*models.Expense, error) {
	expense, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, fmt.Errorf("%w: find %q: %v", ErrStoreUnavailable, id, err)
	}

	if s.enforceOwner && expense.OwnerUsername != owner {
		return nil, ErrExpenseNotFound
	}

	return expense, nil
}

// Update replaces amount, category and description on an existing expense.
// Id, owner and creation time are untouched.
func (s *Service) Update(ctx context.Context, owner, id string, fields Fields) error {
	if s.enforceOwner {
		if _, err := s.Get(ctx, owner, id); err != nil {
			return err
		}
	}

	err := s.store.Update(ctx, id, fields.Amount, fields.Category, fields.Description)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrExpenseNotFound
		}
		return fmt.Errorf("%w: update %q: %v", ErrStoreUnavailable, id, err)
	}

	return nil
}

// Delete removes an expense by id. Deleting an absent id is not an error.
func (s *Service) Delete(ctx context.Context, owner, id string) error {
	if s.enforceOwner {
		_, err := s.Get(ctx, owner, id)
		if errors.Is(err, ErrExpenseNotFound) {
			// Absent or foreign either way; idempotent delete stays quiet.
			return nil
		}
		if err != nil {
			return err
		}
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: delete %q: %v", ErrStoreUnavailable, id, err)
	}

	return nil
}

// List returns expenses, all of them or those whose category exactly
// equals the filter (case sensitive). Store order, not guaranteed stable.
func (s *Service) List(ctx context.Context, category string) (*ListResult, error) {
	expenses, err := s.store.List(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %v", ErrStoreUnavailable, err)
	}

	seen := make(map[string]struct{}, len(expenses))
	categories := make([]string, 0, len(expenses))
	for _, e := range expenses {
		if _, ok := seen[e.Category]; ok {
			continue
		}
		seen[e.Category] = struct{}{}
		categories = append(categories, e.Category)
	}

	return &ListResult{Expenses: expenses, Categories: categories}, nil
}
