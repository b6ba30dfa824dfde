package ports

//go:generate mockgen -source=repositories.go -destination=mocks/repositories.go -package=mocks

import (
	"context"
	"errors"

	"banking-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ErrAccountNumberTaken is returned by AccountRepository.Create when the
// account number already exists.
var ErrAccountNumberTaken = errors.New("account number already taken")

// AccountRepository defines persistence operations for accounts.
// Methods accepting pgx.Tx run inside a commit unit and lock the row.
// Lookups return (nil, nil) when nothing matches.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.Account, error)
	GetByAccountNumberForUpdate(ctx context.Context, tx pgx.Tx, accountNumber string) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, balance decimal.Decimal) error
	ExistsByAccountNumber(ctx context.Context, accountNumber string) (bool, error)
	Count(ctx context.Context) (int64, error)
}

// TransactionRepository defines persistence operations for transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Transaction, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.TransactionStatus) error
	// ListByAccountNumber returns one zero-based page of transactions where
	// accountNumber is source or destination, plus the total match count.
	ListByAccountNumber(ctx context.Context, accountNumber string, page, size int) ([]domain.Transaction, int64, error)
	GetStats(ctx context.Context) (*domain.TransactionStats, error)
}

// AuditRepository persists audit entries.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// DBTransactor opens commit units.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
