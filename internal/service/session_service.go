package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"terminal-bank/internal/core/domain"
	"terminal-bank/internal/core/ports"
	"terminal-bank/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// SessionServiceImpl implements ports.SessionService.
// It keeps no per-caller state; every caller owns its *domain.Session.
type SessionServiceImpl struct {
	accountRepo ports.AccountRepository
	ledger      ports.LedgerService
	hashSvc     ports.HashService
	limiter     ports.LoginLimiter
	auditSvc    ports.AuditService
	log         zerolog.Logger
}

// NewSessionService creates a new SessionServiceImpl.
// limiter and auditSvc are optional and may be nil.
func NewSessionService(
	accountRepo ports.AccountRepository,
	ledger ports.LedgerService,
	hashSvc ports.HashService,
	limiter ports.LoginLimiter,
	auditSvc ports.AuditService,
	log zerolog.Logger,
) *SessionServiceImpl {
	return &SessionServiceImpl{
		accountRepo: accountRepo,
		ledger:      ledger,
		hashSvc:     hashSvc,
		limiter:     limiter,
		auditSvc:    auditSvc,
		log:         log,
	}
}

func (s *SessionServiceImpl) NewSession() *domain.Session {
	return domain.NewSession()
}

// Login authenticates name with its PIN and binds the account to the session.
func (s *SessionServiceImpl) Login(ctx context.Context, sess *domain.Session, name, credential string) (*domain.Account, error) {
	if _, ok := sess.AccountID(); ok {
		return nil, apperror.ErrAlreadyLoggedIn()
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.Validation("Name must not be empty")
	}

	if s.limiter != nil {
		locked, err := s.limiter.Locked(ctx, name)
		if err != nil {
			s.log.Warn().Err(err).Str("name", name).Msg("login limiter check failed, allowing attempt")
		}
		if locked {
			return nil, apperror.ErrTooManyAttempts()
		}
	}

	account, err := s.accountRepo.GetByName(ctx, name)
	if err != nil {
		return nil, apperror.ErrPersistence(fmt.Errorf("get by name: %w", err))
	}
	if account == nil {
		s.recordFailure(ctx, name)
		return nil, apperror.ErrNotFound("Customer")
	}

	match, err := s.hashSvc.Verify(credential, account.CredentialHash)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("verify credential: %w", err))
	}
	if !match {
		s.recordFailure(ctx, name)
		s.log.Info().Str("account_id", account.ID.String()).Msg("login rejected: invalid credential")
		return nil, apperror.ErrInvalidCredential()
	}

	if !account.IsActive() {
		return nil, apperror.ErrAccountInactive()
	}

	if !sess.Bind(account.ID) {
		return nil, apperror.ErrAlreadyLoggedIn()
	}

	now := time.Now().UTC()
	if err := s.accountRepo.TouchLastLogin(ctx, account.ID, now); err != nil {
		sess.Clear()
		return nil, apperror.ErrPersistence(fmt.Errorf("touch last login: %w", err))
	}
	account.LastLoginAt = &now

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, name); err != nil {
			s.log.Warn().Err(err).Str("name", name).Msg("failed to reset login limiter")
		}
	}

	s.log.Info().
		Str("session_id", sess.ID.String()).
		Str("account_id", account.ID.String()).
		Msg("login successful")
	s.audit(ctx, account.ID, domain.AuditActionLogin, sess.ID.String())

	return account, nil
}

func (s *SessionServiceImpl) Logout(ctx context.Context, sess *domain.Session) error {
	accountID, ok := sess.AccountID()
	if !ok || !sess.Clear() {
		return apperror.ErrNoActiveSession()
	}

	s.log.Info().
		Str("session_id", sess.ID.String()).
		Str("account_id", accountID.String()).
		Msg("logout successful")
	s.audit(ctx, accountID, domain.AuditActionLogout, sess.ID.String())

	return nil
}

func (s *SessionServiceImpl) CurrentAccount(sess *domain.Session) (uuid.UUID, bool) {
	return sess.AccountID()
}

// Withdraw debits the session's account. Logged-out sessions are rejected
// before the ledger is consulted.
func (s *SessionServiceImpl) Withdraw(ctx context.Context, sess *domain.Session, amount decimal.Decimal) (decimal.Decimal, error) {
	accountID, ok := sess.AccountID()
	if !ok {
		return decimal.Zero, apperror.ErrNoActiveSession()
	}
	return s.ledger.Withdraw(ctx, accountID, amount)
}

// Transfer sends amount from the session's account to targetAccountNumber.
func (s *SessionServiceImpl) Transfer(ctx context.Context, sess *domain.Session, targetAccountNumber string, amount decimal.Decimal) (decimal.Decimal, error) {
	accountID, ok := sess.AccountID()
	if !ok {
		return decimal.Zero, apperror.ErrNoActiveSession()
	}
	return s.ledger.Transfer(ctx, accountID, targetAccountNumber, amount)
}

func (s *SessionServiceImpl) Balance(ctx context.Context, sess *domain.Session) (*domain.Account, error) {
	accountID, ok := sess.AccountID()
	if !ok {
		return nil, apperror.ErrNoActiveSession()
	}
	return s.ledger.GetAccount(ctx, accountID)
}

func (s *SessionServiceImpl) recordFailure(ctx context.Context, name string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.RecordFailure(ctx, name); err != nil {
		s.log.Warn().Err(err).Str("name", name).Msg("failed to record login failure")
	}
}

func (s *SessionServiceImpl) audit(ctx context.Context, accountID uuid.UUID, action domain.AuditAction, resourceID string) {
	if s.auditSvc == nil {
		return
	}
	s.auditSvc.Log(ctx, &domain.AuditLog{
		ID:         uuid.New(),
		AccountID:  &accountID,
		Action:     action,
		ResourceID: resourceID,
		CreatedAt:  time.Now().UTC(),
	})
}
