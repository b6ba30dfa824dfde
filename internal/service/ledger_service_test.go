package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"banking-ledger/internal/core/domain"
	"banking-ledger/internal/core/ports"
	"banking-ledger/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type ledgerTestDeps struct {
	svc         *LedgerServiceImpl
	accountRepo *mocks.MockAccountRepository
	txRepo      *mocks.MockTransactionRepository
	transactor  *mocks.MockDBTransactor
	idempCache  *mocks.MockIdempotencyCache
	metrics     *mocks.MockLedgerMetrics
	ctrl        *gomock.Controller
}

func setupLedgerService(t *testing.T) *ledgerTestDeps {
	ctrl := gomock.NewController(t)
	d := &ledgerTestDeps{
		accountRepo: mocks.NewMockAccountRepository(ctrl),
		txRepo:      mocks.NewMockTransactionRepository(ctrl),
		transactor:  mocks.NewMockDBTransactor(ctrl),
		idempCache:  mocks.NewMockIdempotencyCache(ctrl),
		metrics:     mocks.NewMockLedgerMetrics(ctrl),
		ctrl:        ctrl,
	}
	d.svc = NewLedgerService(
		d.accountRepo, d.txRepo, d.transactor, d.idempCache,
		LedgerOptions{DefaultPageSize: 20, MaxPageSize: 100, IdempotencyTTL: time.Hour},
		d.metrics, newTestLogger(),
	)
	d.svc.now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }
	return d
}

// decEq matches a decimal.Decimal by numeric value.
type decEq string

func (m decEq) Matches(x any) bool {
	d, ok := x.(decimal.Decimal)
	return ok && d.Equal(decimal.RequireFromString(string(m)))
}

func (m decEq) String() string { return fmt.Sprintf("is decimal %s", string(m)) }

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func newAccount(number, balance string) *domain.Account {
	return &domain.Account{
		ID:            uuid.New(),
		AccountNumber: number,
		Name:          "Holder " + number,
		TaxID:         "12345678901",
		Balance:       decimal.RequireFromString(balance),
	}
}

// ==================== Transfer ====================

func TestLedgerService_Transfer_Success(t *testing.T) {
	d := setupLedgerService(t)
	ctx := context.Background()
	tx := &mockTx{}
	a := newAccount("111111", "1000")
	b := newAccount("222222", "1000")

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	gomock.InOrder(
		d.accountRepo.EXPECT().GetByAccountNumberForUpdate(ctx, tx, "111111").Return(a, nil),
		d.accountRepo.EXPECT().GetByAccountNumberForUpdate(ctx, tx, "222222").Return(b, nil),
		d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
			func(_ context.Context, _ pgx.Tx, txn *domain.Transaction) error {
				assert.Equal(t, domain.TransactionStatusApproved, txn.Status)
				assert.Equal(t, "111111", txn.SourceAccount)
				assert.Equal(t, "222222", txn.DestinationAccount)
				return nil
			}),
		d.accountRepo.EXPECT().UpdateBalance(ctx, tx, a.ID, decEq("700")).Return(nil),
		d.accountRepo.EXPECT().UpdateBalance(ctx, tx, b.ID, decEq("1300")).Return(nil),
	)
	d.metrics.EXPECT().TransferCompleted(ports.OutcomeSuccess, decEq("300"), gomock.Any())

	conf, err := d.svc.Transfer(ctx, ports.TransferRequest{
		SourceAccount: "111111", DestinationAccount: "222222", Value: dec("300"),
	})
	require.NoError(t, err)
	assert.Equal(t, "ledger.transfer.approved", conf.Key)
	assert.Equal(t, "Transaction approved successfully!", conf.Message)
	assert.Equal(t, time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC), conf.Transaction.TransactionDate)
	assert.True(t, tx.committed)
}

func TestLedgerService_Transfer_LocksInAccountNumberOrder(t *testing.T) {
	d := setupLedgerService(t)
	ctx := context.Background()
	tx := &mockTx{}
	src := newAccount("900000", "50")
	dst := newAccount("100000", "0")

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	gomock.InOrder(
		d.accountRepo.EXPECT().GetByAccountNumberForUpdate(ctx, tx, "100000").Return(dst, nil),
		d.accountRepo.EXPECT().GetByAccountNumberForUpdate(ctx, tx, "900000").Return(src, nil),
	)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.accountRepo.EXPECT().UpdateBalance(ctx, tx, src.ID, decEq("0")).Return(nil)
	d.accountRepo.EXPECT().UpdateBalance(ctx, tx, dst.ID, decEq("50")).Return(nil)
	d.metrics.EXPECT().TransferCompleted(ports.OutcomeSuccess, gomock.Any(), gomock.Any())

	// Moving the entire balance is allowed.
	conf, err := d.svc.Transfer(ctx, ports.TransferRequest{
		SourceAccount: "900000", DestinationAccount: "100000", Value: dec("50"),
	})
	require.NoError(t, err)
	assert.Equal(t, "900000", conf.Transaction.SourceAccount)
}

func TestLedgerService_Transfer_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  ports.TransferRequest
		code string
	}{
		{"missing value", ports.TransferRequest{SourceAccount: "111111", DestinationAccount: "222222"}, "VAL_001"},
		{"zero value", ports.TransferRequest{SourceAccount: "111111", DestinationAccount: "222222", Value: dec("0")}, "VAL_001"},
		{"negative value", ports.TransferRequest{SourceAccount: "111111", DestinationAccount: "222222", Value: dec("-5")}, "VAL_001"},
		{"value checked before accounts", ports.TransferRequest{SourceAccount: "111111", DestinationAccount: "111111", Value: dec("0")}, "VAL_001"},
		{"blank source", ports.TransferRequest{SourceAccount: "  ", DestinationAccount: "222222", Value: dec("10")}, "VAL_002"},
		{"blank destination", ports.TransferRequest{SourceAccount: "111111", Value: dec("10")}, "VAL_002"},
		{"same account", ports.TransferRequest{SourceAccount: "111111", DestinationAccount: "111111", Value: dec("10")}, "VAL_003"},
		{"short account number", ports.TransferRequest{SourceAccount: "12345", DestinationAccount: "222222", Value: dec("10")}, "VAL_002"},
		{"non-digit account number", ports.TransferRequest{SourceAccount: "111111", DestinationAccount: "22222x", Value: dec("10")}, "VAL_002"},
		{"oversized account number", ports.TransferRequest{SourceAccount: strings.Repeat("1", 33), DestinationAccount: "222222", Value: dec("10")}, "VAL_002"},
		{"value checked before account format", ports.TransferRequest{SourceAccount: strings.Repeat("1", 33), DestinationAccount: "222222", Value: dec("0")}, "VAL_001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := setupLedgerService(t)
			d.metrics.EXPECT().TransferCompleted(ports.OutcomeRejected, decEq("0"), gomock.Any())

			conf, err := d.svc.Transfer(context.Background(), tt.req)
			assert.Nil(t, conf)
			assertAppError(t, err, tt.code)
		})
	}
}

func TestLedgerService_Transfer_UnknownAccounts(t *testing.T) {
	tests := []struct {
		name     string
		src, dst *domain.Account
	}{
		{"unknown source", nil, newAccount("222222", "10")},
		{"unknown destination", newAccount("111111", "10"), nil},
		{"both unknown", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := setupLedgerService(t)
			ctx := context.Background()
			tx := &mockTx{}

			d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
			d.accountRepo.EXPECT().GetByAccountNumberForUpdate(ctx, tx, "111111").Return(tt.src, nil)
			d.accountRepo.EXPECT().GetByAccountNumberForUpdate(ctx, tx, "222222").Return(tt.dst, nil)
			d.metrics.EXPECT().TransferCompleted(ports.OutcomeRejected, gomock.Any(), gomock.Any())

			_, err := d.svc.Transfer(ctx, ports.TransferRequest{
				SourceAccount: "111111", DestinationAccount: "222222", Value: dec("1"),
			})
			assertAppError(t, err, "NF_001")
			assert.False(t, tx.committed)
		})
	}
}

func TestLedgerService_Transfer_InsufficientFunds(t *testing.T) {
	d := setupLedgerService(t)
	ctx := context.Background()
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetByAccountNumberForUpdate(ctx, tx, "111111").Return(newAccount("111111", "700"), nil)
	d.accountRepo.EXPECT().GetByAccountNumberForUpdate(ctx, tx, "222222").Return(newAccount("222222", "1300"), nil)
	d.metrics.EXPECT().TransferCompleted(ports.OutcomeRejected, gomock.Any(), gomock.Any())

	_, err := d.svc.Transfer(ctx, ports.TransferRequest{
		SourceAccount: "111111", DestinationAccount: "222222", Value: dec("700.01"),
	})
	assertAppError(t, err, "CON_001")
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestLedgerService_Transfer_WriteFailureNeverCommits(t *testing.T) {
	d := setupLedgerService(t)
	ctx := context.Background()
	tx := &mockTx{}
	a := newAccount("111111", "1000")
	b := newAccount("222222", "1000")

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetByAccountNumberForUpdate(ctx, tx, "111111").Return(a, nil)
	d.accountRepo.EXPECT().GetByAccountNumberForUpdate(ctx, tx, "222222").Return(b, nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.accountRepo.EXPECT().UpdateBalance(ctx, tx, a.ID, gomock.Any()).Return(nil)
	d.accountRepo.EXPECT().UpdateBalance(ctx, tx, b.ID, gomock.Any()).Return(errors.New("connection lost"))
	d.metrics.EXPECT().TransferCompleted(ports.OutcomeError, decEq("0"), gomock.Any())

	_, err := d.svc.Transfer(ctx, ports.TransferRequest{
		SourceAccount: "111111", DestinationAccount: "222222", Value: dec("300"),
	})
	assertAppError(t, err, "SYS_001")
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestLedgerService_Transfer_BeginError(t *testing.T) {
	d := setupLedgerService(t)
	ctx := context.Background()

	d.transactor.EXPECT().Begin(ctx).Return(nil, errors.New("pool exhausted"))
	d.metrics.EXPECT().TransferCompleted(ports.OutcomeError, gomock.Any(), gomock.Any())

	_, err := d.svc.Transfer(ctx, ports.TransferRequest{
		SourceAccount: "111111", DestinationAccount: "222222", Value: dec("1"),
	})
	assertAppError(t, err, "SYS_001")
}

func cachedRecord(t *testing.T, fingerprint string, conf ports.Confirmation) []byte {
	t.Helper()
	raw, err := json.Marshal(idempotencyRecord{Fingerprint: fingerprint, Confirmation: &conf})
	require.NoError(t, err)
	return raw
}

func TestLedgerService_Transfer_IdempotentReplay(t *testing.T) {
	d := setupLedgerService(t)
	ctx := context.Background()

	cached := ports.Confirmation{
		Key:     "ledger.transfer.approved",
		Message: "Transaction approved successfully!",
		Transaction: &domain.Transaction{
			ID: uuid.New(), SourceAccount: "111111", DestinationAccount: "222222",
			Value: decimal.NewFromInt(300), Status: domain.TransactionStatusApproved,
		},
	}
	fingerprint := domain.TransferFingerprint("111111", "222222", decimal.NewFromInt(300))

	d.idempCache.EXPECT().Get(ctx, "transfer:back-office:client-1").Return(cachedRecord(t, fingerprint, cached), nil)

	conf, err := d.svc.Transfer(ctx, ports.TransferRequest{
		SourceAccount: "111111", DestinationAccount: "222222", Value: dec("300"),
		IdempotencyKey: "client-1", Subject: "back-office",
	})
	require.NoError(t, err)
	assert.Equal(t, cached.Transaction.ID, conf.Transaction.ID)
}

func TestLedgerService_Transfer_IdempotencyKeyReusedForOtherTransfer(t *testing.T) {
	tests := []struct {
		name string
		req  ports.TransferRequest
	}{
		{"different value", ports.TransferRequest{SourceAccount: "111111", DestinationAccount: "222222", Value: dec("301")}},
		{"different destination", ports.TransferRequest{SourceAccount: "111111", DestinationAccount: "333333", Value: dec("300")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := setupLedgerService(t)
			ctx := context.Background()

			fingerprint := domain.TransferFingerprint("111111", "222222", decimal.NewFromInt(300))
			raw := cachedRecord(t, fingerprint, ports.Confirmation{
				Key:         "ledger.transfer.approved",
				Transaction: &domain.Transaction{ID: uuid.New()},
			})
			d.idempCache.EXPECT().Get(ctx, "transfer:anonymous:client-1").Return(raw, nil)
			d.metrics.EXPECT().TransferCompleted(ports.OutcomeRejected, decEq("0"), gomock.Any())

			req := tt.req
			req.IdempotencyKey = "client-1"
			conf, err := d.svc.Transfer(ctx, req)
			assert.Nil(t, conf)
			assertAppError(t, err, "CON_005")
		})
	}
}

func TestLedgerService_Transfer_UnreadableCacheEntryIsIgnored(t *testing.T) {
	d := setupLedgerService(t)
	ctx := context.Background()
	tx := &mockTx{}

	d.idempCache.EXPECT().Get(ctx, "transfer:anonymous:client-3").Return([]byte(`{"fingerprint":"x"}`), nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetByAccountNumberForUpdate(ctx, tx, "111111").Return(newAccount("111111", "10"), nil)
	d.accountRepo.EXPECT().GetByAccountNumberForUpdate(ctx, tx, "222222").Return(newAccount("222222", "0"), nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.accountRepo.EXPECT().UpdateBalance(ctx, tx, gomock.Any(), gomock.Any()).Return(nil).Times(2)
	d.idempCache.EXPECT().Set(ctx, "transfer:anonymous:client-3", gomock.Any(), time.Hour).Return(nil)
	d.metrics.EXPECT().TransferCompleted(ports.OutcomeSuccess, gomock.Any(), gomock.Any())

	_, err := d.svc.Transfer(ctx, ports.TransferRequest{
		SourceAccount: "111111", DestinationAccount: "222222", Value: dec("10"),
		IdempotencyKey: "client-3",
	})
	require.NoError(t, err)
	assert.True(t, tx.committed)
}

func TestLedgerService_Transfer_CachesConfirmation(t *testing.T) {
	d := setupLedgerService(t)
	ctx := context.Background()
	tx := &mockTx{}
	a := newAccount("111111", "10")
	b := newAccount("222222", "0")

	d.idempCache.EXPECT().Get(ctx, "transfer:teller-7:client-2").Return(nil, errors.New("redis down"))
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetByAccountNumberForUpdate(ctx, tx, "111111").Return(a, nil)
	d.accountRepo.EXPECT().GetByAccountNumberForUpdate(ctx, tx, "222222").Return(b, nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.accountRepo.EXPECT().UpdateBalance(ctx, tx, gomock.Any(), gomock.Any()).Return(nil).Times(2)
	d.idempCache.EXPECT().Set(ctx, "transfer:teller-7:client-2", gomock.Any(), time.Hour).DoAndReturn(
		func(_ context.Context, _ string, value []byte, _ time.Duration) error {
			var rec idempotencyRecord
			require.NoError(t, json.Unmarshal(value, &rec))
			assert.Equal(t, domain.TransferFingerprint("111111", "222222", decimal.NewFromInt(10)), rec.Fingerprint)
			require.NotNil(t, rec.Confirmation)
			assert.Equal(t, "ledger.transfer.approved", rec.Confirmation.Key)
			return nil
		})
	d.metrics.EXPECT().TransferCompleted(ports.OutcomeSuccess, gomock.Any(), gomock.Any())

	_, err := d.svc.Transfer(ctx, ports.TransferRequest{
		SourceAccount: "111111", DestinationAccount: "222222", Value: dec("10"),
		IdempotencyKey: " client-2 ", Subject: "teller-7",
	})
	require.NoError(t, err)
	assert.True(t, tx.committed)
}

// ==================== Reverse ====================

func approvedTransfer(value string) *domain.Transaction {
	return &domain.Transaction{
		ID:                 uuid.New(),
		SourceAccount:      "111111",
		DestinationAccount: "222222",
		Value:              decimal.RequireFromString(value),
		Status:             domain.TransactionStatusApproved,
	}
}

func TestLedgerService_Reverse_Success(t *testing.T) {
	d := setupLedgerService(t)
	ctx := context.Background()
	tx := &mockTx{}
	txn := approvedTransfer("300")
	a := newAccount("111111", "700")
	b := newAccount("222222", "1300")

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	gomock.InOrder(
		d.txRepo.EXPECT().GetByIDForUpdate(ctx, tx, txn.ID).Return(txn, nil),
		d.accountRepo.EXPECT().GetByAccountNumberForUpdate(ctx, tx, "111111").Return(a, nil),
		d.accountRepo.EXPECT().GetByAccountNumberForUpdate(ctx, tx, "222222").Return(b, nil),
		d.accountRepo.EXPECT().UpdateBalance(ctx, tx, a.ID, decEq("1000")).Return(nil),
		d.accountRepo.EXPECT().UpdateBalance(ctx, tx, b.ID, decEq("1000")).Return(nil),
		d.txRepo.EXPECT().UpdateStatus(ctx, tx, txn.ID, domain.TransactionStatusReversed).Return(nil),
	)
	d.metrics.EXPECT().ReversalCompleted(ports.OutcomeSuccess, gomock.Any())

	conf, err := d.svc.Reverse(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, "ledger.reversal.success", conf.Key)
	assert.Equal(t, "Transfer successfully reversed!", conf.Message)
	assert.Equal(t, domain.TransactionStatusReversed, conf.Transaction.Status)
	assert.True(t, tx.committed)
}

func TestLedgerService_Reverse_NotFound(t *testing.T) {
	d := setupLedgerService(t)
	ctx := context.Background()
	tx := &mockTx{}
	id := uuid.New()

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.txRepo.EXPECT().GetByIDForUpdate(ctx, tx, id).Return(nil, nil)
	d.metrics.EXPECT().ReversalCompleted(ports.OutcomeRejected, gomock.Any())

	_, err := d.svc.Reverse(ctx, id)
	assertAppError(t, err, "NF_003")
}

func TestLedgerService_Reverse_AlreadyReversed(t *testing.T) {
	d := setupLedgerService(t)
	ctx := context.Background()
	tx := &mockTx{}
	txn := approvedTransfer("300")
	txn.Status = domain.TransactionStatusReversed

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.txRepo.EXPECT().GetByIDForUpdate(ctx, tx, txn.ID).Return(txn, nil)
	d.metrics.EXPECT().ReversalCompleted(ports.OutcomeRejected, gomock.Any())

	_, err := d.svc.Reverse(ctx, txn.ID)
	assertAppError(t, err, "CON_002")
	assert.False(t, tx.committed)
}

func TestLedgerService_Reverse_UnknownAccount(t *testing.T) {
	d := setupLedgerService(t)
	ctx := context.Background()
	tx := &mockTx{}
	txn := approvedTransfer("300")

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.txRepo.EXPECT().GetByIDForUpdate(ctx, tx, txn.ID).Return(txn, nil)
	d.accountRepo.EXPECT().GetByAccountNumberForUpdate(ctx, tx, "111111").Return(newAccount("111111", "700"), nil)
	d.accountRepo.EXPECT().GetByAccountNumberForUpdate(ctx, tx, "222222").Return(nil, nil)
	d.metrics.EXPECT().ReversalCompleted(ports.OutcomeRejected, gomock.Any())

	_, err := d.svc.Reverse(ctx, txn.ID)
	assertAppError(t, err, "NF_001")
}

func TestLedgerService_Reverse_DestinationBalanceBoundary(t *testing.T) {
	tests := []struct {
		name        string
		destBalance string
		wantErr     bool
	}{
		{"balance equal to value", "300", true},
		{"balance below value", "299.99", true},
		{"balance just above value", "300.01", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := setupLedgerService(t)
			ctx := context.Background()
			tx := &mockTx{}
			txn := approvedTransfer("300")

			d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
			d.txRepo.EXPECT().GetByIDForUpdate(ctx, tx, txn.ID).Return(txn, nil)
			d.accountRepo.EXPECT().GetByAccountNumberForUpdate(ctx, tx, "111111").Return(newAccount("111111", "0"), nil)
			d.accountRepo.EXPECT().GetByAccountNumberForUpdate(ctx, tx, "222222").Return(newAccount("222222", tt.destBalance), nil)

			if tt.wantErr {
				d.metrics.EXPECT().ReversalCompleted(ports.OutcomeRejected, gomock.Any())
				_, err := d.svc.Reverse(ctx, txn.ID)
				assertAppError(t, err, "CON_003")
				assert.False(t, tx.committed)
				return
			}

			d.accountRepo.EXPECT().UpdateBalance(ctx, tx, gomock.Any(), gomock.Any()).Return(nil).Times(2)
			d.txRepo.EXPECT().UpdateStatus(ctx, tx, txn.ID, domain.TransactionStatusReversed).Return(nil)
			d.metrics.EXPECT().ReversalCompleted(ports.OutcomeSuccess, gomock.Any())
			_, err := d.svc.Reverse(ctx, txn.ID)
			require.NoError(t, err)
			assert.True(t, tx.committed)
		})
	}
}

func TestLedgerService_Reverse_StatusUpdateFailure(t *testing.T) {
	d := setupLedgerService(t)
	ctx := context.Background()
	tx := &mockTx{}
	txn := approvedTransfer("300")

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.txRepo.EXPECT().GetByIDForUpdate(ctx, tx, txn.ID).Return(txn, nil)
	d.accountRepo.EXPECT().GetByAccountNumberForUpdate(ctx, tx, "111111").Return(newAccount("111111", "700"), nil)
	d.accountRepo.EXPECT().GetByAccountNumberForUpdate(ctx, tx, "222222").Return(newAccount("222222", "1300"), nil)
	d.accountRepo.EXPECT().UpdateBalance(ctx, tx, gomock.Any(), gomock.Any()).Return(nil).Times(2)
	d.txRepo.EXPECT().UpdateStatus(ctx, tx, txn.ID, domain.TransactionStatusReversed).Return(errors.New("deadlock"))
	d.metrics.EXPECT().ReversalCompleted(ports.OutcomeError, gomock.Any())

	_, err := d.svc.Reverse(ctx, txn.ID)
	assertAppError(t, err, "SYS_001")
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

// ==================== GetTransaction ====================

func TestLedgerService_GetTransaction(t *testing.T) {
	d := setupLedgerService(t)
	ctx := context.Background()
	txn := approvedTransfer("42")

	d.txRepo.EXPECT().GetByID(ctx, txn.ID).Return(txn, nil)

	got, err := d.svc.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, txn.ID, got.ID)
	assert.True(t, got.Value.Equal(decimal.NewFromInt(42)))
}

func TestLedgerService_GetTransaction_NotFound(t *testing.T) {
	d := setupLedgerService(t)
	ctx := context.Background()
	id := uuid.New()

	d.txRepo.EXPECT().GetByID(ctx, id).Return(nil, nil)

	_, err := d.svc.GetTransaction(ctx, id)
	assertAppError(t, err, "NF_003")
}

func TestLedgerService_GetTransaction_RepoError(t *testing.T) {
	d := setupLedgerService(t)
	ctx := context.Background()
	id := uuid.New()

	d.txRepo.EXPECT().GetByID(ctx, id).Return(nil, errors.New("boom"))

	_, err := d.svc.GetTransaction(ctx, id)
	assertAppError(t, err, "SYS_001")
}

// ==================== ListTransactions ====================

func TestLedgerService_ListTransactions_NormalizesPaging(t *testing.T) {
	tests := []struct {
		name               string
		page, size         int
		wantPage, wantSize int
	}{
		{"as given", 2, 5, 2, 5},
		{"negative page", -1, 5, 0, 5},
		{"zero size uses default", 0, 0, 0, 20},
		{"negative size uses default", 0, -3, 0, 20},
		{"size capped", 1, 1000, 1, 100},
		{"huge page clamped", math.MaxInt, 10, math.MaxInt/10 - 1, 10},
		{"huge page with capped size", math.MaxInt, 1000, math.MaxInt/100 - 1, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := setupLedgerService(t)
			ctx := context.Background()

			d.accountRepo.EXPECT().GetByAccountNumber(ctx, "111111").Return(newAccount("111111", "0"), nil)
			d.txRepo.EXPECT().ListByAccountNumber(ctx, "111111", tt.wantPage, tt.wantSize).
				Return([]domain.Transaction{*approvedTransfer("1")}, int64(41), nil)

			page, err := d.svc.ListTransactions(ctx, "111111", tt.page, tt.size)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, page.Page)
			assert.Equal(t, tt.wantSize, page.Size)
			assert.Equal(t, int64(41), page.TotalElements)
			assert.Len(t, page.Items, 1)
		})
	}
}

func TestLedgerService_ListTransactions_UnknownAccount(t *testing.T) {
	d := setupLedgerService(t)
	ctx := context.Background()

	d.accountRepo.EXPECT().GetByAccountNumber(ctx, "999999").Return(nil, nil)

	_, err := d.svc.ListTransactions(ctx, "999999", 0, 10)
	assertAppError(t, err, "NF_002")
}

func TestLedgerService_ListTransactions_RepoError(t *testing.T) {
	d := setupLedgerService(t)
	ctx := context.Background()

	d.accountRepo.EXPECT().GetByAccountNumber(ctx, "111111").Return(newAccount("111111", "0"), nil)
	d.txRepo.EXPECT().ListByAccountNumber(ctx, "111111", 0, 10).Return(nil, int64(0), errors.New("boom"))

	_, err := d.svc.ListTransactions(ctx, "111111", 0, 10)
	assertAppError(t, err, "SYS_001")
}

func TestNewLedgerService_Defaults(t *testing.T) {
	svc := NewLedgerService(nil, nil, nil, nil, LedgerOptions{MaxPageSize: 5}, nil, newTestLogger())
	assert.Equal(t, 20, svc.opts.DefaultPageSize)
	assert.Equal(t, 20, svc.opts.MaxPageSize)
	assert.Equal(t, 24*time.Hour, svc.opts.IdempotencyTTL)
}
