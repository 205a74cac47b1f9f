package ports

import (
	"context"
	"errors"
	"time"

	"terminal-bank/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrDuplicateAccount is returned by AccountRepository.Insert when the id,
// account number or name is already taken.
var ErrDuplicateAccount = errors.New("account already exists")

// AccountRepository defines persistence operations for accounts.
// Lookups return nil, nil when nothing matches.
type AccountRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByAccountNumber(ctx context.Context, number string) (*domain.Account, error)
	GetByName(ctx context.Context, name string) (*domain.Account, error)
	Insert(ctx context.Context, account *domain.Account) error
	// CompareAndSetBalance writes next only while the account still has status
	// and a balance equal to expected. It returns false on mismatch or when the
	// account is gone.
	CompareAndSetBalance(ctx context.Context, id uuid.UUID, status domain.AccountStatus, expected, next decimal.Decimal) (bool, error)
	// ListAll returns every account, newest first.
	ListAll(ctx context.Context) ([]domain.Account, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AccountStatus) error
	// Delete removes the account only while its balance is zero. It returns
	// false when nothing was removed.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// AuditRepository persists audit entries.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}
