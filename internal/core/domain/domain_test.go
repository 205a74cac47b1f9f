package domain

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccount_IsActive(t *testing.T) {
	tests := []struct {
		name   string
		status AccountStatus
		want   bool
	}{
		{"active", AccountStatusActive, true},
		{"suspended", AccountStatusSuspended, false},
		{"closed", AccountStatusClosed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Account{Status: tt.status}
			assert.Equal(t, tt.want, a.IsActive())
		})
	}
}

func TestAccountStatus_Valid(t *testing.T) {
	assert.True(t, AccountStatusActive.Valid())
	assert.True(t, AccountStatusSuspended.Valid())
	assert.True(t, AccountStatusClosed.Valid())
	assert.False(t, AccountStatus("FROZEN").Valid())
	assert.False(t, AccountStatus("").Valid())
}

func TestValidAccountNumber(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"8000000000000000", true},
		{"8123456789012345", true},
		{"7123456789012345", false},
		{"812345678901234", false},
		{"81234567890123456", false},
		{"81234567890123a5", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidAccountNumber(tt.in))
		})
	}
}

func TestValidCredential(t *testing.T) {
	assert.True(t, ValidCredential("012345"))
	assert.False(t, ValidCredential("12345"))
	assert.False(t, ValidCredential("12345a"))
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"40", "40", false},
		{"40.5", "40.5", false},
		{" 40.50 ", "40.5", false},
		{"$100.00", "100", false},
		{"-3", "-3", false},
		{"0.001", "", true},
		{"abc", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "60.00", FormatMoney(decimal.NewFromInt(60)))
	assert.Equal(t, "0.50", FormatMoney(decimal.RequireFromString("0.5")))
}

func TestSession_Lifecycle(t *testing.T) {
	s := NewSession()
	assert.NotEqual(t, uuid.Nil, s.ID)
	assert.Equal(t, SessionStateLoggedOut, s.State())

	_, ok := s.AccountID()
	assert.False(t, ok)
	assert.False(t, s.Clear(), "clearing a logged-out session is a no-op")

	id := uuid.New()
	require.True(t, s.Bind(id))
	assert.Equal(t, SessionStateLoggedIn, s.State())

	got, ok := s.AccountID()
	require.True(t, ok)
	assert.Equal(t, id, got)

	assert.False(t, s.Bind(uuid.New()), "second bind must fail")
	got, _ = s.AccountID()
	assert.Equal(t, id, got, "failed bind must not replace the account")

	assert.True(t, s.Clear())
	assert.Equal(t, SessionStateLoggedOut, s.State())
}

func TestSession_ConcurrentBind(t *testing.T) {
	s := NewSession()

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Bind(uuid.New()) {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestAccountStatus_Constants(t *testing.T) {
	assert.Equal(t, AccountStatus("ACTIVE"), AccountStatusActive)
	assert.Equal(t, AccountStatus("SUSPENDED"), AccountStatusSuspended)
	assert.Equal(t, AccountStatus("CLOSED"), AccountStatusClosed)
}
