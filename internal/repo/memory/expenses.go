package memory

import (
	"context"
	"sync"

	"github.com/spendlog/spendlog/internal/ledger"
	"github.com/spendlog/spendlog/internal/models"
)

type ExpensesRepo struct {
	mu    sync.RWMutex
	items map[string]models.Expense
}

func NewExpensesRepo() *ExpensesRepo {
	return &ExpensesRepo{items: make(map[string]models.Expense)}
}

func (r *ExpensesRepo) Insert(ctx context.Context, expense models.Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[expense.ID] = expense
	return nil
}

func (r *ExpensesRepo) FindByID(ctx context.Context, id string) (*models.Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	expense, ok := r.items[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &expense, nil
}

func (r *ExpensesRepo) Update(ctx context.Context, id string, amount float64, category, description string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	expense, ok := r.items[id]
	if !ok {
		return ledger.ErrNotFound
	}
	expense.Amount = amount
	expense.Category = category
	expense.Description = description
	r.items[id] = expense
	return nil
}

func (r *ExpensesRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *ExpensesRepo) List(ctx context.Context, category string) ([]models.Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	expenses := make([]models.Expense, 0, len(r.items))
	for _, expense := range r.items {
		if category != "" && expense.Category != category {
			continue
		}
		expenses = append(expenses, expense)
	}
	return expenses, nil
}
