package ports

import (
	"context"

	"terminal-bank/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IdentifierGenerator produces candidate account numbers and credentials.
// It makes no uniqueness guarantee.
type IdentifierGenerator interface {
	GenerateAccountNumber() (string, error)
	GenerateCredential() (string, error)
}

// HashService handles credential hashing (Argon2id).
type HashService interface {
	Hash(secret string) (string, error)
	Verify(secret string, hash string) (bool, error)
}

// AuditService records audit entries without blocking the caller.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}

// LoginLimiter throttles repeated failed logins per account name.
type LoginLimiter interface {
	// Locked reports whether name has exhausted its failure budget.
	Locked(ctx context.Context, name string) (bool, error)
	RecordFailure(ctx context.Context, name string) error
	Reset(ctx context.Context, name string) error
}

// --- Service Ports (Business Logic) ---

// LedgerService owns every balance-mutating operation.
type LedgerService interface {
	Register(ctx context.Context, name string, initialBalance decimal.Decimal) (*RegisterResult, error)
	Withdraw(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
	Transfer(ctx context.Context, senderID uuid.UUID, targetAccountNumber string, amount decimal.Decimal) (decimal.Decimal, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	SetStatus(ctx context.Context, accountNumber string, status domain.AccountStatus) (*domain.Account, error)
	DeleteAccount(ctx context.Context, accountNumber string) error
}

// RegisterResult holds the registration result shown once.
type RegisterResult struct {
	Account    domain.Account
	Credential string // Plaintext PIN, shown only at registration
}

// SessionService authenticates callers and gates ledger operations.
type SessionService interface {
	NewSession() *domain.Session
	Login(ctx context.Context, s *domain.Session, name, credential string) (*domain.Account, error)
	Logout(ctx context.Context, s *domain.Session) error
	CurrentAccount(s *domain.Session) (uuid.UUID, bool)
	Withdraw(ctx context.Context, s *domain.Session, amount decimal.Decimal) (decimal.Decimal, error)
	Transfer(ctx context.Context, s *domain.Session, targetAccountNumber string, amount decimal.Decimal) (decimal.Decimal, error)
	Balance(ctx context.Context, s *domain.Session) (*domain.Account, error)
}
