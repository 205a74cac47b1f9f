package service

import (
	"context"
	"encoding/json"
	"errors"
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

const (
	defaultMaxCASRetries         = 5
	defaultMaxGenerationAttempts = 10

	defaultReversalTimeout       = 30 * time.Second

	reversalBackoffMin = 5 * time.Millisecond
	reversalBackoffMax = time.Second
)

// LedgerOptions bounds the retry loops of the ledger.
type LedgerOptions struct {
	MaxCASRetries         int
	MaxGenerationAttempts int
	// ReversalTimeout caps how long a failed transfer keeps trying to refund
	// the sender. The caller's cancellation does not shorten it.
	ReversalTimeout time.Duration
}

// LedgerServiceImpl implements ports.LedgerService with optimistic
// compare-and-set on account balances.
type LedgerServiceImpl struct {
	accountRepo ports.AccountRepository
	idGen       ports.IdentifierGenerator
	hashSvc     ports.HashService
	auditSvc    ports.AuditService
	opts        LedgerOptions
	log         zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl. auditSvc may be nil.
func NewLedgerService(
	accountRepo ports.AccountRepository,
	idGen ports.IdentifierGenerator,
	hashSvc ports.HashService,
	auditSvc ports.AuditService,
	opts LedgerOptions,
	log zerolog.Logger,
) *LedgerServiceImpl {
	if opts.MaxCASRetries < 1 {
		opts.MaxCASRetries = defaultMaxCASRetries
	}
	if opts.MaxGenerationAttempts < 1 {
		opts.MaxGenerationAttempts = defaultMaxGenerationAttempts
	}
	if opts.ReversalTimeout <= 0 {
		opts.ReversalTimeout = defaultReversalTimeout
	}
	return &LedgerServiceImpl{
		accountRepo: accountRepo,
		idGen:       idGen,
		hashSvc:     hashSvc,
		auditSvc:    auditSvc,
		opts:        opts,
		log:         log,
	}
}

// Register opens a new ACTIVE account and returns it together with its
// plaintext PIN. The PIN is never retrievable afterwards.
func (s *LedgerServiceImpl) Register(ctx context.Context, name string, initialBalance decimal.Decimal) (*ports.RegisterResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.Validation("Name must not be empty")
	}
	if initialBalance.IsNegative() {
		return nil, apperror.Validation("Initial balance must not be negative")
	}
	if !domain.HasMoneyScale(initialBalance) {
		return nil, apperror.Validation("Initial balance must have at most two decimal places")
	}

	existing, err := s.accountRepo.GetByName(ctx, name)
	if err != nil {
		return nil, apperror.ErrPersistence(fmt.Errorf("get by name: %w", err))
	}
	if existing != nil {
		return nil, apperror.Validation("Name is already taken")
	}

	credential, err := s.idGen.GenerateCredential()
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate credential: %w", err))
	}
	credentialHash, err := s.hashSvc.Hash(credential)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash credential: %w", err))
	}

	for attempt := 1; attempt <= s.opts.MaxGenerationAttempts; attempt++ {
		number, err := s.idGen.GenerateAccountNumber()
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("generate account number: %w", err))
		}

		taken, err := s.accountRepo.GetByAccountNumber(ctx, number)
		if err != nil {
			return nil, apperror.ErrPersistence(fmt.Errorf("get by account number: %w", err))
		}
		if taken != nil {
			s.log.Debug().Int("attempt", attempt).Msg("account number collision, regenerating")
			continue
		}

		now := time.Now().UTC()
		account := domain.Account{
			ID:             uuid.New(),
			AccountNumber:  number,
			Name:           name,
			CredentialHash: credentialHash,
			Balance:        initialBalance,
			Status:         domain.AccountStatusActive,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		err = s.accountRepo.Insert(ctx, &account)
		if errors.Is(err, ports.ErrDuplicateAccount) {
			// Either the name or the number was claimed since the checks above.
			byName, lookupErr := s.accountRepo.GetByName(ctx, name)
			if lookupErr != nil {
				return nil, apperror.ErrPersistence(fmt.Errorf("get by name: %w", lookupErr))
			}
			if byName != nil {
				return nil, apperror.Validation("Name is already taken")
			}
			continue
		}
		if err != nil {
			return nil, apperror.ErrPersistence(fmt.Errorf("insert account: %w", err))
		}

		s.log.Info().
			Str("account_id", account.ID.String()).
			Str("account_number", account.AccountNumber).
			Str("initial_balance", account.Balance.String()).
			Msg("account registered")
		s.audit(ctx, account.ID, domain.AuditActionRegister, account.AccountNumber, nil)

		return &ports.RegisterResult{Account: account, Credential: credential}, nil
	}

	s.log.Error().Int("attempts", s.opts.MaxGenerationAttempts).Msg("account number generation exhausted")
	return nil, apperror.ErrGenerationExhausted(s.opts.MaxGenerationAttempts)
}

// Withdraw debits amount from the account and returns the new balance.
func (s *LedgerServiceImpl) Withdraw(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	if !validAmount(amount) {
		return decimal.Zero, apperror.ErrInvalidAmount()
	}

	balance, err := s.debit(ctx, accountID, amount)
	if err != nil {
		return decimal.Zero, err
	}

	s.log.Info().
		Str("account_id", accountID.String()).
		Str("amount", amount.String()).
		Str("balance", balance.String()).
		Msg("withdrawal completed")
	s.audit(ctx, accountID, domain.AuditActionWithdraw, accountID.String(), map[string]string{
		"amount": domain.FormatMoney(amount),
	})

	return balance, nil
}

// Transfer moves amount from the sender to the account identified by
// targetAccountNumber and returns the sender's new balance.
//
// The sender is debited first. If crediting the recipient fails afterwards,
// the debit is reversed before TransferFailed is returned.
func (s *LedgerServiceImpl) Transfer(ctx context.Context, senderID uuid.UUID, targetAccountNumber string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !validAmount(amount) {
		return decimal.Zero, apperror.ErrInvalidAmount()
	}

	targetAccountNumber = strings.TrimSpace(targetAccountNumber)
	var target *domain.Account
	if domain.ValidAccountNumber(targetAccountNumber) {
		var err error
		target, err = s.accountRepo.GetByAccountNumber(ctx, targetAccountNumber)
		if err != nil {
			return decimal.Zero, apperror.ErrPersistence(fmt.Errorf("get target: %w", err))
		}
	}
	if target == nil {
		return decimal.Zero, apperror.ErrTargetNotFound()
	}
	if target.ID == senderID {
		return decimal.Zero, apperror.ErrSameAccount()
	}

	sender, err := s.accountRepo.GetByID(ctx, senderID)
	if err != nil {
		return decimal.Zero, apperror.ErrPersistence(fmt.Errorf("get sender: %w", err))
	}
	if sender == nil {
		return decimal.Zero, apperror.ErrNotFound("Account")
	}
	if !sender.IsActive() || !target.IsActive() {
		return decimal.Zero, apperror.ErrAccountInactive()
	}
	if sender.Balance.LessThan(amount) {
		return decimal.Zero, apperror.ErrInsufficientFunds()
	}

	senderBalance, err := s.debit(ctx, senderID, amount)
	if err != nil {
		return decimal.Zero, err
	}

	if _, creditErr := s.credit(ctx, target.ID, amount); creditErr != nil {
		s.log.Warn().Err(creditErr).
			Str("sender_id", senderID.String()).
			Str("target_id", target.ID.String()).
			Str("amount", amount.String()).
			Msg("credit failed, reversing debit")

		if err := s.reverse(ctx, senderID, amount); err != nil {
			s.log.Error().Err(err).
				Str("sender_id", senderID.String()).
				Str("target_account", targetAccountNumber).
				Str("amount", amount.String()).
				Str("debited_balance", senderBalance.String()).
				Msg("transfer reversal incomplete, sender needs manual credit")
			return decimal.Zero, apperror.ErrReversalIncomplete(errors.Join(creditErr, err))
		}

		s.audit(ctx, senderID, domain.AuditActionTransferReversed, targetAccountNumber, map[string]string{
			"amount": domain.FormatMoney(amount),
			"reason": creditErr.Error(),
		})
		return decimal.Zero, apperror.ErrTransferFailed(creditErr)
	}

	s.log.Info().
		Str("sender_id", senderID.String()).
		Str("target_id", target.ID.String()).
		Str("amount", amount.String()).
		Str("sender_balance", senderBalance.String()).
		Msg("transfer completed")
	s.audit(ctx, senderID, domain.AuditActionTransfer, targetAccountNumber, map[string]string{
		"amount": domain.FormatMoney(amount),
	})

	return senderBalance, nil
}

func (s *LedgerServiceImpl) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.ErrPersistence(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrNotFound("Account")
	}
	return account, nil
}

func (s *LedgerServiceImpl) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListAll(ctx)
	if err != nil {
		return nil, apperror.ErrPersistence(fmt.Errorf("list accounts: %w", err))
	}
	return accounts, nil
}

// SetStatus suspends, closes or reactivates an account.
func (s *LedgerServiceImpl) SetStatus(ctx context.Context, accountNumber string, status domain.AccountStatus) (*domain.Account, error) {
	if !status.Valid() {
		return nil, apperror.Validation(fmt.Sprintf("Unknown status %q", status))
	}

	account, err := s.accountRepo.GetByAccountNumber(ctx, strings.TrimSpace(accountNumber))
	if err != nil {
		return nil, apperror.ErrPersistence(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrNotFound("Account")
	}
	if account.Status == status {
		return account, nil
	}

	if err := s.accountRepo.UpdateStatus(ctx, account.ID, status); err != nil {
		return nil, apperror.ErrPersistence(fmt.Errorf("update status: %w", err))
	}

	previous := account.Status
	account.Status = status
	account.UpdatedAt = time.Now().UTC()

	s.log.Info().
		Str("account_id", account.ID.String()).
		Str("from", string(previous)).
		Str("to", string(status)).
		Msg("account status changed")
	s.audit(ctx, account.ID, domain.AuditActionStatusChange, account.AccountNumber, map[string]string{
		"from": string(previous),
		"to":   string(status),
	})

	return account, nil
}

// DeleteAccount removes an emptied account. Accounts still holding money
// are refused so that deletion never destroys funds.
func (s *LedgerServiceImpl) DeleteAccount(ctx context.Context, accountNumber string) error {
	account, err := s.accountRepo.GetByAccountNumber(ctx, strings.TrimSpace(accountNumber))
	if err != nil {
		return apperror.ErrPersistence(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return apperror.ErrNotFound("Account")
	}
	if !account.Balance.IsZero() {
		return apperror.Validation("Account balance must be zero before deletion")
	}

	deleted, err := s.accountRepo.Delete(ctx, account.ID)
	if err != nil {
		return apperror.ErrPersistence(fmt.Errorf("delete account: %w", err))
	}
	if !deleted {
		return apperror.Validation("Account balance must be zero before deletion")
	}

	s.log.Info().
		Str("account_id", account.ID.String()).
		Str("account_number", account.AccountNumber).
		Msg("account deleted")
	s.audit(ctx, account.ID, domain.AuditActionDelete, account.AccountNumber, nil)

	return nil
}

// balanceStep computes the next balance from a fresh read, or rejects it.
type balanceStep func(account *domain.Account) (decimal.Decimal, error)

// casLoop runs read, step, compare-and-set until the write lands or
// MaxCASRetries reads have lost the race.
func (s *LedgerServiceImpl) casLoop(ctx context.Context, id uuid.UUID, step balanceStep) (decimal.Decimal, error) {
	for attempt := 1; attempt <= s.opts.MaxCASRetries; attempt++ {
		next, ok, err := s.casOnce(ctx, id, step)
		if err != nil {
			return decimal.Zero, err
		}
		if ok {
			return next, nil
		}
		s.log.Debug().
			Str("account_id", id.String()).
			Int("attempt", attempt).
			Msg("balance changed concurrently, retrying")
	}
	return decimal.Zero, apperror.ErrContention(
		fmt.Errorf("account %s: %d compare-and-set attempts lost", id, s.opts.MaxCASRetries))
}

func (s *LedgerServiceImpl) casOnce(ctx context.Context, id uuid.UUID, step balanceStep) (decimal.Decimal, bool, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		return decimal.Zero, false, apperror.ErrPersistence(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return decimal.Zero, false, apperror.ErrNotFound("Account")
	}

	next, err := step(account)
	if err != nil {
		return decimal.Zero, false, err
	}

	ok, err := s.accountRepo.CompareAndSetBalance(ctx, id, account.Status, account.Balance, next)
	if err != nil {
		return decimal.Zero, false, apperror.ErrPersistence(fmt.Errorf("compare and set balance: %w", err))
	}
	return next, ok, nil
}

func (s *LedgerServiceImpl) debit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	return s.casLoop(ctx, id, func(account *domain.Account) (decimal.Decimal, error) {
		if !account.IsActive() {
			return decimal.Zero, apperror.ErrAccountInactive()
		}
		if account.Balance.LessThan(amount) {
			return decimal.Zero, apperror.ErrInsufficientFunds()
		}
		return account.Balance.Sub(amount), nil
	})
}

func (s *LedgerServiceImpl) credit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	return s.casLoop(ctx, id, func(account *domain.Account) (decimal.Decimal, error) {
		if !account.IsActive() {
			return decimal.Zero, apperror.ErrAccountInactive()
		}
		return account.Balance.Add(amount), nil
	})
}

// reverse credits amount back to the sender regardless of its status.
// It runs detached from the caller's cancellation and is not bounded by
// MaxCASRetries: store errors are retried with backoff until ReversalTimeout
// expires or the account is gone.
func (s *LedgerServiceImpl) reverse(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ReversalTimeout)
	defer cancel()

	refund := func(account *domain.Account) (decimal.Decimal, error) {
		return account.Balance.Add(amount), nil
	}

	backoff := reversalBackoffMin
	for attempt := 1; ; attempt++ {
		_, ok, err := s.casOnce(ctx, id, refund)
		if ok {
			return nil
		}
		if err == nil {
			if ctx.Err() != nil {
				return fmt.Errorf("reversal gave up after %d attempts: %w", attempt, ctx.Err())
			}
			continue
		}
		if apperror.IsKind(err, apperror.KindNotFound) {
			return err
		}
		s.log.Warn().Err(err).Str("account_id", id.String()).Int("attempt", attempt).Msg("reversal attempt failed")

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("reversal gave up after %d attempts: %w", attempt, errors.Join(err, ctx.Err()))
		case <-timer.C:
		}
		if backoff < reversalBackoffMax {
			backoff *= 2
		}
	}
}

func (s *LedgerServiceImpl) audit(ctx context.Context, accountID uuid.UUID, action domain.AuditAction, resourceID string, details map[string]string) {
	if s.auditSvc == nil {
		return
	}

	entry := &domain.AuditLog{
		ID:         uuid.New(),
		AccountID:  &accountID,
		Action:     action,
		ResourceID: resourceID,
		CreatedAt:  time.Now().UTC(),
	}
	if len(details) > 0 {
		if b, err := json.Marshal(details); err == nil {
			entry.Details = string(b)
		}
	}
	s.auditSvc.Log(ctx, entry)
}

func validAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() && domain.HasMoneyScale(amount)
}
