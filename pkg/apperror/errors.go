package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an AppError so callers can react without parsing messages.
type Kind string

const (
	KindValidation          Kind = "VALIDATION"
	KindNotFound            Kind = "NOT_FOUND"
	KindTargetNotFound      Kind = "TARGET_NOT_FOUND"
	KindInvalidCredential   Kind = "INVALID_CREDENTIAL"
	KindAccountInactive     Kind = "ACCOUNT_INACTIVE"
	KindInsufficientFunds   Kind = "INSUFFICIENT_FUNDS"
	KindInvalidAmount       Kind = "INVALID_AMOUNT"
	KindSameAccount         Kind = "SAME_ACCOUNT"
	KindAlreadyLoggedIn     Kind = "ALREADY_LOGGED_IN"
	KindNoActiveSession     Kind = "NO_ACTIVE_SESSION"
	KindGenerationExhausted Kind = "GENERATION_EXHAUSTED"
	KindContention          Kind = "CONTENTION"
	KindPersistence         Kind = "PERSISTENCE"
	KindTransferFailed      Kind = "TRANSFER_FAILED"
	KindTooManyAttempts     Kind = "TOO_MANY_ATTEMPTS"
	KindInternal            Kind = "INTERNAL"
)

// AppError is a structured error returned by the ledger and session services.
type AppError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error // Wrapped internal error (never rendered to the user)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError of the same kind, so
// errors.Is(err, apperror.ErrContention()) works across wrapping.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// New creates a new AppError.
func New(kind Kind, code string, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(kind Kind, code string, message string, err error) *AppError {
	return &AppError{
		Kind:    kind,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ---- Input (VAL) ----

// Validation returns a VAL_001 error with a caller-facing message.
func Validation(message string) *AppError {
	return New(KindValidation, "VAL_001", message)
}

func ErrInvalidAmount() *AppError {
	return New(KindInvalidAmount, "VAL_002", "Invalid amount")
}

// ---- Lookup (ACC) ----

func ErrNotFound(entity string) *AppError {
	return New(KindNotFound, "ACC_001", fmt.Sprintf("%s not found", entity))
}

func ErrTargetNotFound() *AppError {
	return New(KindTargetNotFound, "ACC_002", "Target account not found")
}

func ErrAccountInactive() *AppError {
	return New(KindAccountInactive, "ACC_003", "Account is not active")
}

// ---- Ledger (LED) ----

func ErrInsufficientFunds() *AppError {
	return New(KindInsufficientFunds, "LED_001", "Insufficient funds")
}

func ErrSameAccount() *AppError {
	return New(KindSameAccount, "LED_002", "Cannot transfer to the same account")
}

func ErrContention(err error) *AppError {
	return Wrap(KindContention, "LED_003", "Account is busy, please retry", err)
}

func ErrTransferFailed(err error) *AppError {
	return Wrap(KindTransferFailed, "LED_004", "Transfer failed, funds were returned to the sender", err)
}

// ErrReversalIncomplete reports a transfer whose compensating credit could not
// be completed; the sender was debited and needs manual repair.
func ErrReversalIncomplete(err error) *AppError {
	return Wrap(KindTransferFailed, "LED_006", "Transfer failed and the refund is pending, contact support", err)
}

func ErrGenerationExhausted(attempts int) *AppError {
	return New(KindGenerationExhausted, "LED_005",
		fmt.Sprintf("Failed to generate unique account number after %d attempts", attempts))
}

// ---- Session (SES) ----

func ErrInvalidCredential() *AppError {
	return New(KindInvalidCredential, "SES_001", "Invalid PIN")
}

func ErrAlreadyLoggedIn() *AppError {
	return New(KindAlreadyLoggedIn, "SES_002", "Another user is already logged in")
}

func ErrNoActiveSession() *AppError {
	return New(KindNoActiveSession, "SES_003", "No active session")
}

func ErrTooManyAttempts() *AppError {
	return New(KindTooManyAttempts, "SES_004", "Too many failed login attempts, try again later")
}

// ---- System & Infrastructure (SYS) ----

func ErrPersistence(err error) *AppError {
	return Wrap(KindPersistence, "SYS_001", "Storage failure", err)
}

// InternalError wraps an unexpected internal error.
func InternalError(err error) *AppError {
	return Wrap(KindInternal, "SYS_002", "Internal error", err)
}
