package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"terminal-bank/internal/core/domain"
	"terminal-bank/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

const accountColumns = `id, account_number, name, credential_hash, balance, status, last_login_at, created_at, updated_at`

// AccountRepo implements ports.AccountRepository.
type AccountRepo struct {
	pool Pool
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(pool Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

// GetByID fetches an account by its UUID.
func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	a, err := scanAccount(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get account by id: %w", err)
	}
	return a, nil
}

// GetByAccountNumber fetches an account by its public 16-digit number.
func (r *AccountRepo) GetByAccountNumber(ctx context.Context, number string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`
	a, err := scanAccount(r.pool.QueryRow(ctx, query, number))
	if err != nil {
		return nil, fmt.Errorf("get account by number: %w", err)
	}
	return a, nil
}

// GetByName fetches an account by holder name.
func (r *AccountRepo) GetByName(ctx context.Context, name string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE name = $1`
	a, err := scanAccount(r.pool.QueryRow(ctx, query, name))
	if err != nil {
		return nil, fmt.Errorf("get account by name: %w", err)
	}
	return a, nil
}

// Insert stores a new account. Unique violations map to ports.ErrDuplicateAccount.
func (r *AccountRepo) Insert(ctx context.Context, a *domain.Account) error {
	query := `INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		a.ID, a.AccountNumber, a.Name, a.CredentialHash,
		a.Balance, a.Status, a.LastLoginAt, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("insert account (%s): %w", pgErr.ConstraintName, ports.ErrDuplicateAccount)
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// CompareAndSetBalance writes next only while the row still holds status and expected.
func (r *AccountRepo) CompareAndSetBalance(ctx context.Context, id uuid.UUID, status domain.AccountStatus, expected, next decimal.Decimal) (bool, error) {
	query := `UPDATE accounts SET balance = $1, updated_at = NOW()
		WHERE id = $2 AND balance = $3 AND status = $4`

	tag, err := r.pool.Exec(ctx, query, next, id, expected, string(status))
	if err != nil {
		return false, fmt.Errorf("compare and set balance: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListAll returns every account, newest first.
func (r *AccountRepo) ListAll(ctx context.Context) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(
			&a.ID, &a.AccountNumber, &a.Name, &a.CredentialHash,
			&a.Balance, &a.Status, &a.LastLoginAt, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return accounts, nil
}

func (r *AccountRepo) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE accounts SET last_login_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("touch last login: account %s not found", id)
	}
	return nil
}

func (r *AccountRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AccountStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE accounts SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update account status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update account status: account %s not found", id)
	}
	return nil
}

// Delete removes an account row whose balance is zero.
func (r *AccountRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1 AND balance = 0`, id)
	if err != nil {
		return false, fmt.Errorf("delete account: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	a := &domain.Account{}
	err := row.Scan(
		&a.ID, &a.AccountNumber, &a.Name, &a.CredentialHash,
		&a.Balance, &a.Status, &a.LastLoginAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}
