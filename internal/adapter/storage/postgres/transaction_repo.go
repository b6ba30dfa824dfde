package postgres

import (
	"context"
	"errors"
	"fmt"

	"banking-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const transactionColumns = `id, source_account, destination_account, value::text, transaction_date, status`

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create inserts a new transaction within a database transaction.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, source_account, destination_account, value, transaction_date, status)
		VALUES ($1, $2, $3, $4::numeric, $5, $6)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.SourceAccount, t.DestinationAccount,
		t.Value.String(), t.TransactionDate, string(t.Status),
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID fetches a transaction by UUID.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	t, err := scanTransaction(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get transaction by id: %w", err)
	}
	return t, nil
}

// GetByIDForUpdate fetches a transaction by UUID and locks the row.
// This MUST be called within a transaction.
func (r *TransactionRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 FOR UPDATE`

	t, err := scanTransaction(tx.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get transaction for update: %w", err)
	}
	return t, nil
}

// UpdateStatus updates a transaction's status within a database transaction.
func (r *TransactionRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.TransactionStatus) error {
	tag, err := tx.Exec(ctx, `UPDATE transactions SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction not found: %s", id)
	}
	return nil
}

// ListByAccountNumber pages through the transactions an account took part
// in, in insertion order.
func (r *TransactionRepo) ListByAccountNumber(ctx context.Context, accountNumber string, page, size int) ([]domain.Transaction, int64, error) {
	const where = `WHERE source_account = $1 OR destination_account = $1`

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions `+where, accountNumber).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count account transactions: %w", err)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions ` + where + ` ORDER BY seq LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, accountNumber, size, page*size)
	if err != nil {
		return nil, 0, fmt.Errorf("list account transactions: %w", err)
	}
	defer rows.Close()

	txns := make([]domain.Transaction, 0, size)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, total, nil
}

// GetStats aggregates counts and the moved amount in one statement, so the
// figures are consistent with each other.
func (r *TransactionRepo) GetStats(ctx context.Context) (*domain.TransactionStats, error) {
	query := `SELECT
		COUNT(*) AS total,
		COUNT(*) FILTER (WHERE status = 'APPROVED') AS approved,
		COUNT(*) FILTER (WHERE status = 'REVERSED') AS reversed,
		COALESCE(SUM(value) FILTER (WHERE status IN ('APPROVED', 'REVERSED')), 0)::text AS amount_moved
		FROM transactions`

	stats := &domain.TransactionStats{}
	var amount string
	err := r.pool.QueryRow(ctx, query).Scan(&stats.Total, &stats.Approved, &stats.Reversed, &amount)
	if err != nil {
		return nil, fmt.Errorf("get transaction stats: %w", err)
	}
	if stats.AmountMoved, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse amount moved %q: %w", amount, err)
	}
	return stats, nil
}

// scanTransaction returns (nil, nil) when the row does not exist.
func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	var value, status string
	err := row.Scan(&t.ID, &t.SourceAccount, &t.DestinationAccount, &value, &t.TransactionDate, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if t.Value, err = decimal.NewFromString(value); err != nil {
		return nil, fmt.Errorf("parse value %q: %w", value, err)
	}
	t.Status = domain.TransactionStatus(status)
	return t, nil
}
