// Package memory holds process-local store implementations used by the
// default "memory" driver and by tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"terminal-bank/internal/core/domain"
	"terminal-bank/internal/core/ports"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountRepo implements ports.AccountRepository on maps guarded by a
// single RWMutex. Reads hand out copies so callers never alias stored state.
type AccountRepo struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*domain.Account
	byNumber map[string]uuid.UUID
	byName   map[string]uuid.UUID
}

func NewAccountRepo() *AccountRepo {
	return &AccountRepo{
		accounts: make(map[uuid.UUID]*domain.Account),
		byNumber: make(map[string]uuid.UUID),
		byName:   make(map[string]uuid.UUID),
	}
}

func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	return clone(a), nil
}

func (r *AccountRepo) GetByAccountNumber(ctx context.Context, number string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byNumber[number]
	if !ok {
		return nil, nil
	}
	return clone(r.accounts[id]), nil
}

func (r *AccountRepo) GetByName(ctx context.Context, name string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	if !ok {
		return nil, nil
	}
	return clone(r.accounts[id]), nil
}

func (r *AccountRepo) Insert(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[account.ID]; ok {
		return fmt.Errorf("id %s: %w", account.ID, ports.ErrDuplicateAccount)
	}
	if _, ok := r.byNumber[account.AccountNumber]; ok {
		return fmt.Errorf("account number %s: %w", account.AccountNumber, ports.ErrDuplicateAccount)
	}
	if _, ok := r.byName[account.Name]; ok {
		return fmt.Errorf("name %q: %w", account.Name, ports.ErrDuplicateAccount)
	}

	stored := clone(account)
	r.accounts[stored.ID] = stored
	r.byNumber[stored.AccountNumber] = stored.ID
	r.byName[stored.Name] = stored.ID
	return nil
}

func (r *AccountRepo) CompareAndSetBalance(ctx context.Context, id uuid.UUID, status domain.AccountStatus, expected, next decimal.Decimal) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok || a.Status != status || !a.Balance.Equal(expected) {
		return false, nil
	}
	a.Balance = next
	a.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *AccountRepo) ListAll(ctx context.Context) ([]domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		out = append(out, *clone(a))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *AccountRepo) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return fmt.Errorf("account %s not found", id)
	}
	at = at.UTC()
	a.LastLoginAt = &at
	return nil
}

func (r *AccountRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AccountStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return fmt.Errorf("account %s not found", id)
	}
	a.Status = status
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *AccountRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok || !a.Balance.IsZero() {
		return false, nil
	}
	delete(r.byNumber, a.AccountNumber)
	delete(r.byName, a.Name)
	delete(r.accounts, id)
	return true, nil
}

func clone(a *domain.Account) *domain.Account {
	c := *a
	if a.LastLoginAt != nil {
		t := *a.LastLoginAt
		c.LastLoginAt = &t
	}
	return &c
}
