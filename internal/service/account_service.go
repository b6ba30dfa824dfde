package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"
	"unicode/utf8"

	"banking-ledger/internal/core/domain"
	"banking-ledger/internal/core/ports"
	"banking-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// AccountNumberGenerator produces candidate six-digit account numbers.
type AccountNumberGenerator func() string

// RandomAccountNumber draws uniformly from [AccountNumberMin, AccountNumberMax].
func RandomAccountNumber() string {
	n := domain.AccountNumberMin + rand.IntN(domain.AccountNumberMax-domain.AccountNumberMin+1)
	return strconv.Itoa(n)
}

// AccountServiceImpl implements ports.AccountService.
type AccountServiceImpl struct {
	accountRepo    ports.AccountRepository
	openingBalance decimal.Decimal
	attempts       int
	metrics        ports.LedgerMetrics
	log            zerolog.Logger

	newNumber AccountNumberGenerator
	now       func() time.Time
}

// NewAccountService creates a new AccountServiceImpl. attempts bounds how
// many account numbers are tried before giving up on a collision streak.
func NewAccountService(
	accountRepo ports.AccountRepository,
	openingBalance decimal.Decimal,
	attempts int,
	metrics ports.LedgerMetrics,
	log zerolog.Logger,
) *AccountServiceImpl {
	if attempts < 1 {
		attempts = 1
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &AccountServiceImpl{
		accountRepo:    accountRepo,
		openingBalance: openingBalance,
		attempts:       attempts,
		metrics:        metrics,
		log:            log,
		newNumber:      RandomAccountNumber,
		now:            time.Now,
	}
}

// OpenAccount provisions an account with a fresh number and the configured
// opening balance.
func (s *AccountServiceImpl) OpenAccount(ctx context.Context, req ports.OpenAccountRequest) (*domain.Account, error) {
	name := domain.NormalizeName(req.Name)
	if name == "" {
		return nil, apperror.ErrInvalidName()
	}
	if utf8.RuneCountInString(name) > domain.NameMaxLength {
		return nil, apperror.ErrNameTooLong()
	}
	if !domain.IsValidTaxID(req.TaxID) {
		return nil, apperror.ErrInvalidTaxID()
	}

	now := s.now().UTC()
	for attempt := 1; attempt <= s.attempts; attempt++ {
		number := s.newNumber()

		exists, err := s.accountRepo.ExistsByAccountNumber(ctx, number)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("check account number: %w", err))
		}
		if exists {
			s.log.Debug().Str("account_number", number).Int("attempt", attempt).Msg("account number taken, retrying")
			continue
		}

		account := &domain.Account{
			ID:            uuid.New(),
			AccountNumber: number,
			Name:          name,
			TaxID:         req.TaxID,
			Balance:       s.openingBalance,
			OpeningDate:   domain.OpeningDateOf(now),
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		err = s.accountRepo.Create(ctx, account)
		if errors.Is(err, ports.ErrAccountNumberTaken) {
			// Lost a race with a concurrent opening.
			s.log.Debug().Str("account_number", number).Int("attempt", attempt).Msg("account number taken on insert, retrying")
			continue
		}
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("create account: %w", err))
		}

		s.metrics.AccountOpened()
		s.log.Info().
			Str("account_id", account.ID.String()).
			Str("account_number", account.AccountNumber).
			Msg("account opened")

		return account, nil
	}

	s.log.Error().Int("attempts", s.attempts).Msg("no free account number found")
	return nil, apperror.ErrAccountNumberUnavailable()
}

// GetAccount returns the account with the given internal ID.
func (s *AccountServiceImpl) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrAccountIDNotFound()
	}
	return account, nil
}

// GetBalance returns only the balance of the account with the given ID.
func (s *AccountServiceImpl) GetBalance(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

type nopMetrics struct{}

func (nopMetrics) AccountOpened() {}

func (nopMetrics) TransferCompleted(string, decimal.Decimal, time.Duration) {}

func (nopMetrics) ReversalCompleted(string, time.Duration) {}
