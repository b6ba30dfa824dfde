package memory

import (
	"context"
	"fmt"
	"time"

	"banking-ledger/internal/core/domain"
	"banking-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// --- Accounts ---

// AccountRepo implements ports.AccountRepository. Reads return copies.
type AccountRepo struct {
	s *Store
}

func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, taken := r.s.byNumber[a.AccountNumber]; taken {
		return ports.ErrAccountNumberTaken
	}
	if _, dup := r.s.accounts[a.ID]; dup {
		return fmt.Errorf("account %s already exists", a.ID)
	}
	cp := *a
	r.s.accounts[a.ID] = &cp
	r.s.byNumber[a.AccountNumber] = a.ID
	return nil
}

func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *AccountRepo) GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.lookupNumber(accountNumber), nil
}

// GetByAccountNumberForUpdate needs no row lock: the commit unit already
// holds the store exclusively.
func (r *AccountRepo) GetByAccountNumberForUpdate(ctx context.Context, tx pgx.Tx, accountNumber string) (*domain.Account, error) {
	if _, err := r.s.txFrom(tx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.lookupNumber(accountNumber), nil
}

func (r *AccountRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, balance decimal.Decimal) error {
	mt, err := r.s.txFrom(tx)
	if err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return fmt.Errorf("account not found: %s", id)
	}
	prevBalance, prevUpdated := a.Balance, a.UpdatedAt
	a.Balance = balance
	a.UpdatedAt = time.Now().UTC()
	mt.record(func() {
		a.Balance = prevBalance
		a.UpdatedAt = prevUpdated
	})
	return nil
}

func (r *AccountRepo) ExistsByAccountNumber(ctx context.Context, accountNumber string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.byNumber[accountNumber]
	return ok, nil
}

func (r *AccountRepo) Count(ctx context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.accounts)), nil
}

// lookupNumber must be called with r.s.mu held.
func (r *AccountRepo) lookupNumber(accountNumber string) *domain.Account {
	id, ok := r.s.byNumber[accountNumber]
	if !ok {
		return nil
	}
	cp := *r.s.accounts[id]
	return &cp
}

// --- Transactions ---

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	s *Store
}

func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	mt, err := r.s.txFrom(tx)
	if err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, dup := r.s.txns[t.ID]; dup {
		return fmt.Errorf("transaction %s already exists", t.ID)
	}
	cp := *t
	r.s.txns[t.ID] = &cp
	r.s.order = append(r.s.order, t.ID)
	mt.record(func() {
		delete(r.s.txns, t.ID)
		r.s.order = r.s.order[:len(r.s.order)-1]
	})
	return nil
}

func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.lookup(id), nil
}

func (r *TransactionRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Transaction, error) {
	if _, err := r.s.txFrom(tx); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.lookup(id), nil
}

func (r *TransactionRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.TransactionStatus) error {
	mt, err := r.s.txFrom(tx)
	if err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.txns[id]
	if !ok {
		return fmt.Errorf("transaction not found: %s", id)
	}
	prev := t.Status
	t.Status = status
	mt.record(func() { t.Status = prev })
	return nil
}

func (r *TransactionRepo) ListByAccountNumber(ctx context.Context, accountNumber string, page, size int) ([]domain.Transaction, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []domain.Transaction
	for _, id := range r.s.order {
		if t := r.s.txns[id]; t.Involves(accountNumber) {
			matched = append(matched, *t)
		}
	}

	total := int64(len(matched))
	start := page * size
	if start >= len(matched) {
		return []domain.Transaction{}, total, nil
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *TransactionRepo) GetStats(ctx context.Context) (*domain.TransactionStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stats := &domain.TransactionStats{AmountMoved: decimal.Zero}
	for _, t := range r.s.txns {
		stats.Total++
		switch t.Status {
		case domain.TransactionStatusApproved:
			stats.Approved++
			stats.AmountMoved = stats.AmountMoved.Add(t.Value)
		case domain.TransactionStatusReversed:
			stats.Reversed++
			stats.AmountMoved = stats.AmountMoved.Add(t.Value)
		}
	}
	return stats, nil
}

// lookup must be called with r.s.mu held.
func (r *TransactionRepo) lookup(id uuid.UUID) *domain.Transaction {
	t, ok := r.s.txns[id]
	if !ok {
		return nil
	}
	cp := *t
	return &cp
}

// --- Audit ---

// AuditRepo implements ports.AuditRepository.
type AuditRepo struct {
	s *Store
}

func (r *AuditRepo) Create(ctx context.Context, log *domain.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.audit = append(r.s.audit, *log)
	return nil
}

// Entries returns a snapshot of the recorded audit entries.
func (r *AuditRepo) Entries() []domain.AuditLog {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.AuditLog, len(r.s.audit))
	copy(out, r.s.audit)
	return out
}
