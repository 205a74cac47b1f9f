package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"terminal-bank/internal/core/domain"
	"terminal-bank/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.AccountRepository = (*AccountRepo)(nil)

func newTestAccount() *domain.Account {
	lastLogin := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Account{
		ID:             uuid.New(),
		AccountNumber:  "8123456789012345",
		Name:           "Alice",
		CredentialHash: "$argon2id$v=19$m=65536,t=1,p=4$salt$hash",
		Balance:        decimal.RequireFromString("100.00"),
		Status:         domain.AccountStatusActive,
		LastLoginAt:    &lastLogin,
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
		UpdatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}
}

func accountColumnNames() []string {
	return []string{"id", "account_number", "name", "credential_hash", "balance", "status", "last_login_at", "created_at", "updated_at"}
}

func accountRow(rows *pgxmock.Rows, a *domain.Account) *pgxmock.Rows {
	return rows.AddRow(
		a.ID, a.AccountNumber, a.Name, a.CredentialHash,
		a.Balance, a.Status, a.LastLoginAt, a.CreatedAt, a.UpdatedAt,
	)
}

func TestAccountRepo_Insert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	a := newTestAccount()

	mock.ExpectExec("INSERT INTO accounts").
		WithArgs(a.ID, a.AccountNumber, a.Name, a.CredentialHash,
			a.Balance, a.Status, a.LastLoginAt, a.CreatedAt, a.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Insert(context.Background(), a)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_Insert_UniqueViolation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)

	mock.ExpectExec("INSERT INTO accounts").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "accounts_name_key"})

	err = repo.Insert(context.Background(), newTestAccount())
	assert.ErrorIs(t, err, ports.ErrDuplicateAccount)
	assert.Contains(t, err.Error(), "accounts_name_key")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_Insert_OtherError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)

	mock.ExpectExec("INSERT INTO accounts").
		WillReturnError(&pgconn.PgError{Code: "23514", ConstraintName: "accounts_balance_check"})

	err = repo.Insert(context.Background(), newTestAccount())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ports.ErrDuplicateAccount))
}

func TestAccountRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	a := newTestAccount()

	mock.ExpectQuery("SELECT .+ FROM accounts WHERE id").
		WithArgs(a.ID).
		WillReturnRows(accountRow(pgxmock.NewRows(accountColumnNames()), a))

	result, err := repo.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, a.ID, result.ID)
	assert.Equal(t, a.AccountNumber, result.AccountNumber)
	assert.True(t, a.Balance.Equal(result.Balance))
	assert.Equal(t, domain.AccountStatusActive, result.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM accounts WHERE id").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(accountColumnNames()))

	result, err := repo.GetByID(context.Background(), uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_GetByAccountNumber(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	a := newTestAccount()

	mock.ExpectQuery("SELECT .+ FROM accounts WHERE account_number").
		WithArgs(a.AccountNumber).
		WillReturnRows(accountRow(pgxmock.NewRows(accountColumnNames()), a))

	result, err := repo.GetByAccountNumber(context.Background(), a.AccountNumber)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, a.ID, result.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_GetByName(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	a := newTestAccount()

	mock.ExpectQuery("SELECT .+ FROM accounts WHERE name").
		WithArgs("Alice").
		WillReturnRows(accountRow(pgxmock.NewRows(accountColumnNames()), a))

	result, err := repo.GetByName(context.Background(), "Alice")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Alice", result.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_GetByName_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM accounts WHERE name").
		WithArgs("Alice").
		WillReturnError(errors.New("connection refused"))

	result, err := repo.GetByName(context.Background(), "Alice")
	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestAccountRepo_CompareAndSetBalance(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	id := uuid.New()
	expected := decimal.RequireFromString("100.00")
	next := decimal.RequireFromString("60.00")

	mock.ExpectExec("UPDATE accounts SET balance .+ WHERE id = .+ AND balance = .+ AND status =").
		WithArgs(next, id, expected, "ACTIVE").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ok, err := repo.CompareAndSetBalance(context.Background(), id, domain.AccountStatusActive, expected, next)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_CompareAndSetBalance_Stale(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)

	mock.ExpectExec("UPDATE accounts SET balance").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err := repo.CompareAndSetBalance(context.Background(), uuid.New(), domain.AccountStatusActive, decimal.NewFromInt(1), decimal.Zero)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_CompareAndSetBalance_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)

	mock.ExpectExec("UPDATE accounts SET balance").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("deadlock detected"))

	ok, err := repo.CompareAndSetBalance(context.Background(), uuid.New(), domain.AccountStatusActive, decimal.NewFromInt(1), decimal.Zero)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestAccountRepo_ListAll(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	newer := newTestAccount()
	older := newTestAccount()
	older.Name = "Bob"
	older.AccountNumber = "8000000000000002"

	rows := pgxmock.NewRows(accountColumnNames())
	accountRow(rows, newer)
	accountRow(rows, older)

	mock.ExpectQuery("SELECT .+ FROM accounts ORDER BY created_at DESC").
		WillReturnRows(rows)

	accounts, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "Alice", accounts[0].Name)
	assert.Equal(t, "Bob", accounts[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_TouchLastLogin(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	id := uuid.New()
	at := time.Now().UTC()

	mock.ExpectExec("UPDATE accounts SET last_login_at").
		WithArgs(at, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE accounts SET last_login_at").
		WithArgs(at, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	assert.NoError(t, repo.TouchLastLogin(context.Background(), id, at))
	assert.Error(t, repo.TouchLastLogin(context.Background(), id, at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_UpdateStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	id := uuid.New()

	mock.ExpectExec("UPDATE accounts SET status").
		WithArgs(domain.AccountStatusSuspended, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(t, repo.UpdateStatus(context.Background(), id, domain.AccountStatusSuspended))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAccountRepo(mock)
	id := uuid.New()

	mock.ExpectExec("DELETE FROM accounts WHERE id = .+ AND balance = 0").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM accounts").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("DELETE FROM accounts").
		WithArgs(id).
		WillReturnError(errors.New("connection reset"))

	deleted, err := repo.Delete(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = repo.Delete(context.Background(), id)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
