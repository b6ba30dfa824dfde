package dto

import (
	"time"

	"banking-ledger/internal/core/domain"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// OpenAccountRequest is the request body for account opening.
type OpenAccountRequest struct {
	Name  string `json:"name" binding:"required"`
	TaxID string `json:"tax_id" binding:"required,tax_id"`
}

// TransferRequest is the request body for a transfer. Every field is
// checked by the ledger so that its error precedence holds.
type TransferRequest struct {
	SourceAccount      string           `json:"source_account"`
	DestinationAccount string           `json:"destination_account"`
	Value              *decimal.Decimal `json:"value"`
}

// AccountResponse is the full account view.
type AccountResponse struct {
	ID            string          `json:"id"`
	AccountNumber string          `json:"account_number"`
	Name          string          `json:"name"`
	TaxID         string          `json:"tax_id"`
	Balance       decimal.Decimal `json:"balance"`
	OpeningDate   string          `json:"opening_date"`
}

// BalanceResponse is the response for a balance inquiry.
type BalanceResponse struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

// TransactionResponse is the public view of a transaction.
type TransactionResponse struct {
	ID                 string          `json:"id"`
	SourceAccount      string          `json:"source_account"`
	DestinationAccount string          `json:"destination_account"`
	Value              decimal.Decimal `json:"value"`
	TransactionDate    string          `json:"transaction_date"`
	Status             string          `json:"status"`
}

// ConfirmationResponse is returned by transfer and reversal.
type ConfirmationResponse struct {
	Message     string               `json:"message"`
	Transaction *TransactionResponse `json:"transaction,omitempty"`
}

// PageLinks are navigation links for a history page.
type PageLinks struct {
	Self     string  `json:"self"`
	Next     *string `json:"next,omitempty"`
	Previous *string `json:"previous,omitempty"`
}

// TransactionPageResponse wraps one page of account history.
type TransactionPageResponse struct {
	Items         []TransactionResponse `json:"items"`
	Page          int                   `json:"page"`
	Size          int                   `json:"size"`
	TotalElements int64                 `json:"total_elements"`
	TotalPages    int                   `json:"total_pages"`
	Links         PageLinks             `json:"links"`
}

// ReportResponse is the bank-wide summary.
type ReportResponse struct {
	TotalAccounts             int64           `json:"total_accounts"`
	TotalTransactions         int64           `json:"total_transactions"`
	TotalTransactionsApproved int64           `json:"total_transactions_approved"`
	TotalTransactionsReversed int64           `json:"total_transactions_reversed"`
	TotalAmountMoved          decimal.Decimal `json:"total_amount_moved"`
}

// ToAccountResponse converts domain.Account to its DTO.
func ToAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		ID:            a.ID.String(),
		AccountNumber: a.AccountNumber,
		Name:          a.Name,
		TaxID:         a.TaxID,
		Balance:       a.Balance,
		OpeningDate:   a.OpeningDate.Format(dateLayout),
	}
}

// ToTransactionResponse converts domain.Transaction to its DTO.
func ToTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                 t.ID.String(),
		SourceAccount:      t.SourceAccount,
		DestinationAccount: t.DestinationAccount,
		Value:              t.Value,
		TransactionDate:    t.TransactionDate.UTC().Format(time.RFC3339),
		Status:             string(t.Status),
	}
}

// ToReportResponse converts domain.Report to its DTO.
func ToReportResponse(r *domain.Report) ReportResponse {
	return ReportResponse{
		TotalAccounts:             r.TotalAccounts,
		TotalTransactions:         r.TotalTransactions,
		TotalTransactionsApproved: r.TotalTransactionsApproved,
		TotalTransactionsReversed: r.TotalTransactionsReversed,
		TotalAmountMoved:          r.TotalAmountMoved,
	}
}
