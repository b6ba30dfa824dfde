// Package memory is a process-local storage backend for local runs and
// tests. Commit units are serialised store-wide and roll back through an
// undo journal, so ledger operations stay all-or-nothing.
package memory

import (
	"context"
	"errors"
	"sync"

	"banking-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var errUnsupported = errors.New("memory: operation not supported")

// Store holds all in-memory state shared by the repositories it hands out.
type Store struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*domain.Account
	byNumber map[string]uuid.UUID
	txns     map[uuid.UUID]*domain.Transaction
	order    []uuid.UUID // transaction insertion order
	audit    []domain.AuditLog

	// sem admits one commit unit at a time.
	sem chan struct{}
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[uuid.UUID]*domain.Account),
		byNumber: make(map[string]uuid.UUID),
		txns:     make(map[uuid.UUID]*domain.Transaction),
		sem:      make(chan struct{}, 1),
	}
}

// Accounts returns the account repository view of the store.
func (s *Store) Accounts() *AccountRepo { return &AccountRepo{s: s} }

// Transactions returns the transaction repository view of the store.
func (s *Store) Transactions() *TransactionRepo { return &TransactionRepo{s: s} }

// Audit returns the audit repository view of the store.
func (s *Store) Audit() *AuditRepo { return &AuditRepo{s: s} }

// Transactor returns a ports.DBTransactor over the store.
func (s *Store) Transactor() *Transactor { return &Transactor{s: s} }

// Transactor implements ports.DBTransactor.
type Transactor struct {
	s *Store
}

// Begin waits for exclusive access to the store, or for ctx to end.
func (t *Transactor) Begin(ctx context.Context) (pgx.Tx, error) {
	select {
	case t.s.sem <- struct{}{}:
		return &Tx{s: t.s}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Tx is a commit unit over the store. Only Commit and Rollback are
// meaningful; the SQL methods of pgx.Tx report errUnsupported.
type Tx struct {
	s      *Store
	undo   []func()
	closed bool
}

// record registers the inverse of a write that was just applied.
func (t *Tx) record(fn func()) {
	t.undo = append(t.undo, fn)
}

func (t *Tx) Commit(ctx context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true
	t.undo = nil
	<-t.s.sem
	return nil
}

// Rollback reverts every recorded write, newest first.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true

	t.s.mu.Lock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.s.mu.Unlock()

	t.undo = nil
	<-t.s.sem
	return nil
}

func (t *Tx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, errUnsupported }

func (t *Tx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, errUnsupported
}

func (t *Tx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }

func (t *Tx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }

func (t *Tx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, errUnsupported
}

func (t *Tx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errUnsupported
}

func (t *Tx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errUnsupported
}

func (t *Tx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return errRow{}
}

func (t *Tx) Conn() *pgx.Conn { return nil }

type errRow struct{}

func (errRow) Scan(dest ...any) error { return errUnsupported }

// txFrom narrows a pgx.Tx handed to a repository back to a store Tx.
func (s *Store) txFrom(tx pgx.Tx) (*Tx, error) {
	mt, ok := tx.(*Tx)
	if !ok || mt == nil || mt.s != s {
		return nil, errors.New("memory: transaction does not belong to this store")
	}
	if mt.closed {
		return nil, pgx.ErrTxClosed
	}
	return mt, nil
}
