package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New(KindInsufficientFunds, "LED_001", "Insufficient funds"),
			expected: "[LED_001] Insufficient funds",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap(KindPersistence, "SYS_001", "DB error", fmt.Errorf("connection refused")),
			expected: "[SYS_001] DB error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := ErrPersistence(inner)

	assert.True(t, errors.Is(appErr, inner))
}

func TestAppError_IsNilUnwrap(t *testing.T) {
	appErr := ErrInvalidAmount()
	assert.Nil(t, appErr.Unwrap())
}

func TestAppError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("withdraw: %w", ErrContention(fmt.Errorf("cas lost")))

	assert.True(t, errors.Is(err, ErrContention(nil)))
	assert.False(t, errors.Is(err, ErrInsufficientFunds()))
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"app error", ErrSameAccount(), KindSameAccount},
		{"wrapped app error", fmt.Errorf("ctx: %w", ErrNoActiveSession()), KindNoActiveSession},
		{"foreign error", errors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestIsKind_Nil(t *testing.T) {
	assert.False(t, IsKind(nil, KindInternal))
}

func TestLedgerErrors(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code string
		kind Kind
	}{
		{"InsufficientFunds", ErrInsufficientFunds(), "LED_001", KindInsufficientFunds},
		{"SameAccount", ErrSameAccount(), "LED_002", KindSameAccount},
		{"Contention", ErrContention(nil), "LED_003", KindContention},
		{"TransferFailed", ErrTransferFailed(nil), "LED_004", KindTransferFailed},
		{"GenerationExhausted", ErrGenerationExhausted(10), "LED_005", KindGenerationExhausted},
		{"ReversalIncomplete", ErrReversalIncomplete(nil), "LED_006", KindTransferFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.kind, tt.err.Kind)
		})
	}
}

func TestSessionErrors(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code string
		kind Kind
	}{
		{"InvalidCredential", ErrInvalidCredential(), "SES_001", KindInvalidCredential},
		{"AlreadyLoggedIn", ErrAlreadyLoggedIn(), "SES_002", KindAlreadyLoggedIn},
		{"NoActiveSession", ErrNoActiveSession(), "SES_003", KindNoActiveSession},
		{"TooManyAttempts", ErrTooManyAttempts(), "SES_004", KindTooManyAttempts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.kind, tt.err.Kind)
		})
	}
}

func TestErrNotFound_Message(t *testing.T) {
	err := ErrNotFound("Customer")
	assert.Equal(t, "Customer not found", err.Message)
	assert.Equal(t, KindNotFound, err.Kind)
}

func TestErrGenerationExhausted_Message(t *testing.T) {
	err := ErrGenerationExhausted(10)
	assert.Contains(t, err.Message, "10 attempts")
}
