package ports

//go:generate mockgen -source=services.go -destination=mocks/services.go -package=mocks

import (
	"context"
	"time"

	"banking-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(subject string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	Subject   string
	ExpiresAt time.Time
}

// IdempotencyCache stores responses of already-processed submissions.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// LedgerMetrics receives ledger outcomes for instrumentation.
type LedgerMetrics interface {
	AccountOpened()
	TransferCompleted(outcome string, value decimal.Decimal, elapsed time.Duration)
	ReversalCompleted(outcome string, elapsed time.Duration)
}

// --- Service Ports (Business Logic) ---

// AccountService provisions accounts and answers balance inquiries.
type AccountService interface {
	OpenAccount(ctx context.Context, req OpenAccountRequest) (*domain.Account, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetBalance(ctx context.Context, id uuid.UUID) (decimal.Decimal, error)
}

// OpenAccountRequest holds input for account opening.
type OpenAccountRequest struct {
	Name  string
	TaxID string
}

// LedgerService moves money between accounts.
type LedgerService interface {
	Transfer(ctx context.Context, req TransferRequest) (*Confirmation, error)
	Reverse(ctx context.Context, transactionID uuid.UUID) (*Confirmation, error)
	GetTransaction(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, accountNumber string, page, size int) (*domain.TransactionPage, error)
}

// TransferRequest holds input for a transfer. A nil Value means absent.
// A non-blank IdempotencyKey makes resubmissions by the same Subject return
// the first confirmation instead of moving money again.
type TransferRequest struct {
	SourceAccount      string
	DestinationAccount string
	Value              *decimal.Decimal
	IdempotencyKey     string
	Subject            string
}

// Confirmation is returned by successful ledger mutations. Key selects the
// localized text; Message is the default English rendering.
type Confirmation struct {
	Key         string              `json:"key"`
	Message     string              `json:"message"`
	Transaction *domain.Transaction `json:"transaction,omitempty"`
}

// ReportingService aggregates bank-wide figures.
type ReportingService interface {
	BankReport(ctx context.Context) (*domain.Report, error)
}

// AuditService records audit entries for successful writes.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}

// Ledger outcomes reported to LedgerMetrics.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)
