package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountStatus represents the lifecycle state of a customer account.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "ACTIVE"
	AccountStatusSuspended AccountStatus = "SUSPENDED"
	AccountStatusClosed    AccountStatus = "CLOSED"
)

// Valid reports whether s is one of the known statuses.
func (s AccountStatus) Valid() bool {
	switch s {
	case AccountStatusActive, AccountStatusSuspended, AccountStatusClosed:
		return true
	}
	return false
}

const (
	// AccountNumberLength is the number of decimal digits in an account number.
	AccountNumberLength = 16
	// AccountNumberPrefix is the fixed leading digit of every account number.
	AccountNumberPrefix = '8'
	// CredentialLength is the number of decimal digits in a PIN.
	CredentialLength = 6
)

// Account is a customer account record.
type Account struct {
	ID             uuid.UUID       `json:"id"`
	AccountNumber  string          `json:"account_number"`
	Name           string          `json:"name"`
	CredentialHash string          `json:"-"` // argon2id hash, never expose
	Balance        decimal.Decimal `json:"balance"`
	Status         AccountStatus   `json:"status"`
	LastLoginAt    *time.Time      `json:"last_login_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// IsActive returns true if the account accepts mutations.
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// ValidAccountNumber reports whether s has the account number shape:
// exactly 16 decimal digits, the first one being 8.
func ValidAccountNumber(s string) bool {
	if len(s) != AccountNumberLength || s[0] != AccountNumberPrefix {
		return false
	}
	return allDigits(s)
}

// ValidCredential reports whether s looks like a PIN.
func ValidCredential(s string) bool {
	return len(s) == CredentialLength && allDigits(s)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
