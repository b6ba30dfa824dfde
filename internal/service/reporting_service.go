package service

import (
	"context"
	"fmt"

	"banking-ledger/internal/core/domain"
	"banking-ledger/internal/core/ports"
	"banking-ledger/pkg/apperror"
)

// reportingService implements ports.ReportingService.
type reportingService struct {
	accountRepo ports.AccountRepository
	txRepo      ports.TransactionRepository
}

// NewReportingService creates a new reporting service.
func NewReportingService(
	accountRepo ports.AccountRepository,
	txRepo ports.TransactionRepository,
) ports.ReportingService {
	return &reportingService{
		accountRepo: accountRepo,
		txRepo:      txRepo,
	}
}

// BankReport returns bank-wide account and transaction totals.
func (s *reportingService) BankReport(ctx context.Context) (*domain.Report, error) {
	accounts, err := s.accountRepo.Count(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("count accounts: %w", err))
	}

	stats, err := s.txRepo.GetStats(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("transaction stats: %w", err))
	}

	return &domain.Report{
		TotalAccounts:             accounts,
		TotalTransactions:         stats.Total,
		TotalTransactionsApproved: stats.Approved,
		TotalTransactionsReversed: stats.Reversed,
		TotalAmountMoved:          stats.AmountMoved,
	}, nil
}
