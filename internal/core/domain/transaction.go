package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus represents the lifecycle state of a transfer.
type TransactionStatus string

const (
	TransactionStatusApproved TransactionStatus = "APPROVED"
	TransactionStatusReversed TransactionStatus = "REVERSED"
)

// IsValid reports whether s is a status the ledger writes. Anything else
// read back from storage is a data-integrity anomaly.
func (s TransactionStatus) IsValid() bool {
	return s == TransactionStatusApproved || s == TransactionStatusReversed
}

// Transaction records a transfer between two accounts. It is created
// APPROVED and may move to REVERSED exactly once.
type Transaction struct {
	ID                 uuid.UUID         `json:"id"`
	SourceAccount      string            `json:"source_account"`
	DestinationAccount string            `json:"destination_account"`
	Value              decimal.Decimal   `json:"value"`
	TransactionDate    time.Time         `json:"transaction_date"`
	Status             TransactionStatus `json:"status"`
}

// IsReversible returns true only for APPROVED transactions.
func (t *Transaction) IsReversible() bool {
	return t.Status == TransactionStatusApproved
}

// Involves reports whether accountNumber is either side of the transfer.
func (t *Transaction) Involves(accountNumber string) bool {
	return t.SourceAccount == accountNumber || t.DestinationAccount == accountNumber
}

// TransactionPage is one zero-based page of an account's history.
type TransactionPage struct {
	Items         []Transaction
	Page          int
	Size          int
	TotalElements int64
}

// TotalPages returns the number of pages of Size needed for TotalElements.
func (p *TransactionPage) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}
	return int((p.TotalElements + int64(p.Size) - 1) / int64(p.Size))
}

// HasNext reports whether a page follows this one.
func (p *TransactionPage) HasNext() bool {
	return p.Page < p.TotalPages()-1
}

// HasPrevious reports whether a page precedes this one.
func (p *TransactionPage) HasPrevious() bool {
	return p.Page > 0
}
