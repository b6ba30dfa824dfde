package domain

import "github.com/shopspring/decimal"

// TransactionStats aggregates the transaction table in one snapshot.
type TransactionStats struct {
	Total       int64
	Approved    int64
	Reversed    int64
	AmountMoved decimal.Decimal // sum of value over APPROVED and REVERSED
}

// Report is the bank-wide summary.
type Report struct {
	TotalAccounts             int64           `json:"total_accounts"`
	TotalTransactions         int64           `json:"total_transactions"`
	TotalTransactionsApproved int64           `json:"total_transactions_approved"`
	TotalTransactionsReversed int64           `json:"total_transactions_reversed"`
	TotalAmountMoved          decimal.Decimal `json:"total_amount_moved"`
}
