package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"banking-ledger/internal/core/domain"
	"banking-ledger/internal/core/ports"
	"banking-ledger/pkg/apperror"
	"banking-ledger/pkg/i18n"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// LedgerOptions tunes paging and idempotency for LedgerServiceImpl.
type LedgerOptions struct {
	DefaultPageSize int
	MaxPageSize     int
	IdempotencyTTL  time.Duration
}

// LedgerServiceImpl implements ports.LedgerService. Every mutation runs in a
// single commit unit with the touched rows locked.
type LedgerServiceImpl struct {
	accountRepo ports.AccountRepository
	txRepo      ports.TransactionRepository
	transactor  ports.DBTransactor
	idempCache  ports.IdempotencyCache
	opts        LedgerOptions
	metrics     ports.LedgerMetrics
	log         zerolog.Logger

	now func() time.Time
}

// NewLedgerService creates a new LedgerServiceImpl. idempCache may be nil,
// in which case Idempotency-Key is ignored.
func NewLedgerService(
	accountRepo ports.AccountRepository,
	txRepo ports.TransactionRepository,
	transactor ports.DBTransactor,
	idempCache ports.IdempotencyCache,
	opts LedgerOptions,
	metrics ports.LedgerMetrics,
	log zerolog.Logger,
) *LedgerServiceImpl {
	if opts.DefaultPageSize < 1 {
		opts.DefaultPageSize = 20
	}
	if opts.MaxPageSize < opts.DefaultPageSize {
		opts.MaxPageSize = opts.DefaultPageSize
	}
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = 24 * time.Hour
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &LedgerServiceImpl{
		accountRepo: accountRepo,
		txRepo:      txRepo,
		transactor:  transactor,
		idempCache:  idempCache,
		opts:        opts,
		metrics:     metrics,
		log:         log,
		now:         time.Now,
	}
}

// Transfer moves req.Value from the source to the destination account.
func (s *LedgerServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) (*ports.Confirmation, error) {
	start := time.Now()
	conf, replayed, err := s.transfer(ctx, req)
	if replayed {
		return conf, nil
	}

	value := decimal.Zero
	if err == nil {
		value = conf.Transaction.Value
	}
	s.metrics.TransferCompleted(outcomeOf(err), value, time.Since(start))
	return conf, err
}

// transfer reports replayed=true when the confirmation came from the
// idempotency cache and no money moved.
func (s *LedgerServiceImpl) transfer(ctx context.Context, req ports.TransferRequest) (conf *ports.Confirmation, replayed bool, err error) {
	if req.Value == nil || !req.Value.IsPositive() {
		return nil, false, apperror.ErrInvalidAmount()
	}
	value := *req.Value

	src := strings.TrimSpace(req.SourceAccount)
	dst := strings.TrimSpace(req.DestinationAccount)
	if !domain.IsValidAccountNumber(src) || !domain.IsValidAccountNumber(dst) {
		return nil, false, apperror.ErrInvalidAccountReference()
	}
	if src == dst {
		return nil, false, apperror.ErrSameAccountTransfer()
	}

	idempKey := domain.BuildTransferIdempotencyKey(req.Subject, req.IdempotencyKey)
	fingerprint := domain.TransferFingerprint(src, dst, value)
	cached, err := s.cachedConfirmation(ctx, idempKey, fingerprint)
	if err != nil {
		return nil, false, err
	}
	if cached != nil {
		return cached, true, nil
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, false, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	source, dest, err := s.lockAccounts(ctx, dbTx, src, dst)
	if err != nil {
		return nil, false, err
	}
	if source == nil || dest == nil {
		return nil, false, apperror.ErrAccountNotFound()
	}

	if !source.CanDebit(value) {
		return nil, false, apperror.ErrInsufficientFunds()
	}

	txn := &domain.Transaction{
		ID:                 uuid.New(),
		SourceAccount:      source.AccountNumber,
		DestinationAccount: dest.AccountNumber,
		Value:              value,
		TransactionDate:    s.now().UTC(),
		Status:             domain.TransactionStatusApproved,
	}

	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, false, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}

	source.Debit(value)
	if err := s.accountRepo.UpdateBalance(ctx, dbTx, source.ID, source.Balance); err != nil {
		return nil, false, apperror.InternalError(fmt.Errorf("debit source: %w", err))
	}

	dest.Credit(value)
	if err := s.accountRepo.UpdateBalance(ctx, dbTx, dest.ID, dest.Balance); err != nil {
		return nil, false, apperror.InternalError(fmt.Errorf("credit destination: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, false, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	conf = &ports.Confirmation{
		Key:         i18n.KeyTransferApproved,
		Message:     i18n.English(i18n.KeyTransferApproved),
		Transaction: txn,
	}
	s.cacheConfirmation(ctx, idempKey, fingerprint, conf)

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("source", txn.SourceAccount).
		Str("destination", txn.DestinationAccount).
		Str("value", txn.Value.String()).
		Msg("transfer approved")

	return conf, false, nil
}

// Reverse undoes an approved transfer.
func (s *LedgerServiceImpl) Reverse(ctx context.Context, transactionID uuid.UUID) (*ports.Confirmation, error) {
	start := time.Now()
	conf, err := s.reverse(ctx, transactionID)
	s.metrics.ReversalCompleted(outcomeOf(err), time.Since(start))
	return conf, err
}

func (s *LedgerServiceImpl) reverse(ctx context.Context, transactionID uuid.UUID) (*ports.Confirmation, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	txn, err := s.txRepo.GetByIDForUpdate(ctx, dbTx, transactionID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock transaction: %w", err))
	}
	if txn == nil {
		return nil, apperror.ErrTransactionNotFound()
	}
	if !txn.IsReversible() {
		return nil, apperror.ErrTransactionNotReversible()
	}

	source, dest, err := s.lockAccounts(ctx, dbTx, txn.SourceAccount, txn.DestinationAccount)
	if err != nil {
		return nil, err
	}
	if source == nil || dest == nil {
		return nil, apperror.ErrAccountNotFound()
	}

	// The destination must keep a positive balance after giving the value back.
	if !dest.Balance.GreaterThan(txn.Value) {
		return nil, apperror.ErrInsufficientFundsOnReversal()
	}

	source.Credit(txn.Value)
	if err := s.accountRepo.UpdateBalance(ctx, dbTx, source.ID, source.Balance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("credit source: %w", err))
	}

	dest.Debit(txn.Value)
	if err := s.accountRepo.UpdateBalance(ctx, dbTx, dest.ID, dest.Balance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("debit destination: %w", err))
	}

	if err := s.txRepo.UpdateStatus(ctx, dbTx, txn.ID, domain.TransactionStatusReversed); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update status: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	txn.Status = domain.TransactionStatusReversed

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("value", txn.Value.String()).
		Msg("transfer reversed")

	return &ports.Confirmation{
		Key:         i18n.KeyReversalSuccess,
		Message:     i18n.English(i18n.KeyReversalSuccess),
		Transaction: txn,
	}, nil
}

// GetTransaction looks up a single transfer by its ID.
func (s *LedgerServiceImpl) GetTransaction(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error) {
	txn, err := s.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get transaction: %w", err))
	}
	if txn == nil {
		return nil, apperror.ErrTransactionNotFound()
	}
	return txn, nil
}

// ListTransactions returns one page of the account's history, oldest first.
func (s *LedgerServiceImpl) ListTransactions(ctx context.Context, accountNumber string, page, size int) (*domain.TransactionPage, error) {
	page, size = s.normalizePage(page, size)

	account, err := s.accountRepo.GetByAccountNumber(ctx, accountNumber)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrHistoryAccountNotFound()
	}

	items, total, err := s.txRepo.ListByAccountNumber(ctx, accountNumber, page, size)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}

	return &domain.TransactionPage{
		Items:         items,
		Page:          page,
		Size:          size,
		TotalElements: total,
	}, nil
}

// normalizePage clamps page so that page*size and page+1 cannot overflow.
func (s *LedgerServiceImpl) normalizePage(page, size int) (int, int) {
	switch {
	case size < 1:
		size = s.opts.DefaultPageSize
	case size > s.opts.MaxPageSize:
		size = s.opts.MaxPageSize
	}
	if page < 0 {
		page = 0
	}
	if last := math.MaxInt/size - 1; page > last {
		page = last
	}
	return page, size
}

// lockAccounts locks both accounts in ascending account-number order and
// returns them as (source, destination). Either may be nil if unknown.
func (s *LedgerServiceImpl) lockAccounts(ctx context.Context, dbTx pgx.Tx, src, dst string) (*domain.Account, *domain.Account, error) {
	order := []string{src, dst}
	if dst < src {
		order[0], order[1] = dst, src
	}

	locked := make(map[string]*domain.Account, 2)
	for _, number := range order {
		account, err := s.accountRepo.GetByAccountNumberForUpdate(ctx, dbTx, number)
		if err != nil {
			return nil, nil, apperror.InternalError(fmt.Errorf("lock account %s: %w", number, err))
		}
		locked[number] = account
	}
	return locked[src], locked[dst], nil
}

// idempotencyRecord is the cached outcome of a keyed transfer. Fingerprint
// identifies the request the key was first used with.
type idempotencyRecord struct {
	Fingerprint  string              `json:"fingerprint"`
	Confirmation *ports.Confirmation `json:"confirmation"`
}

// cachedConfirmation returns the stored confirmation for key, or
// ErrIdempotencyKeyReused when the key belongs to a different request.
// Cache failures fall through to processing.
func (s *LedgerServiceImpl) cachedConfirmation(ctx context.Context, key, fingerprint string) (*ports.Confirmation, error) {
	if key == "" || s.idempCache == nil {
		return nil, nil
	}

	cached, err := s.idempCache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("redis idempotency check failed, processing transfer")
		return nil, nil
	}
	if cached == nil {
		return nil, nil
	}

	var rec idempotencyRecord
	if err := json.Unmarshal(cached, &rec); err != nil || rec.Confirmation == nil {
		s.log.Warn().Err(err).Str("key", key).Msg("discarding unreadable idempotency entry")
		return nil, nil
	}
	if rec.Fingerprint != fingerprint {
		s.log.Warn().Str("key", key).Msg("idempotency key reused with a different transfer")
		return nil, apperror.ErrIdempotencyKeyReused()
	}
	s.log.Info().Str("key", key).Msg("transfer replayed from idempotency cache")
	return rec.Confirmation, nil
}

// cacheConfirmation is best-effort: the transfer is already committed.
func (s *LedgerServiceImpl) cacheConfirmation(ctx context.Context, key, fingerprint string, conf *ports.Confirmation) {
	if key == "" || s.idempCache == nil {
		return
	}

	respJSON, err := json.Marshal(idempotencyRecord{Fingerprint: fingerprint, Confirmation: conf})
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to marshal confirmation")
		return
	}
	if err := s.idempCache.Set(ctx, key, respJSON, s.opts.IdempotencyTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to cache idempotency in redis")
	}
}

func outcomeOf(err error) string {
	var appErr *apperror.AppError
	switch {
	case err == nil:
		return ports.OutcomeSuccess
	case errors.As(err, &appErr) && appErr.Kind != apperror.KindInternal:
		return ports.OutcomeRejected
	default:
		return ports.OutcomeError
	}
}
