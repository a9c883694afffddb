package services

import (
	"context"
	"fmt"

	"github.com/aggrandize/bankrecon/internal/core/domain"
	portsrepo "github.com/aggrandize/bankrecon/internal/core/ports/repositories"
	portssvc "github.com/aggrandize/bankrecon/internal/core/ports/services"
	"github.com/aggrandize/bankrecon/internal/dto"
)

const (
	defaultTransactionPageSize = 50
	maxTransactionPageSize     = 200
)

// TransactionService serves the transaction review reads.
type TransactionService struct {
	txnRepo       portsrepo.TransactionRepositoryFacade
	statementRepo portsrepo.StatementReader
	auditRepo     portsrepo.MatchAuditReader
}

// Ensure TransactionService implements portssvc.TransactionSvcFacade
var _ portssvc.TransactionSvcFacade = (*TransactionService)(nil)

func NewTransactionService(
	txnRepo portsrepo.TransactionRepositoryFacade,
	statementRepo portsrepo.StatementReader,
	auditRepo portsrepo.MatchAuditReader,
) *TransactionService {
	return &TransactionService{txnRepo: txnRepo, statementRepo: statementRepo, auditRepo: auditRepo}
}

func (s *TransactionService) GetTransactionByID(ctx context.Context, transactionID string) (*domain.BankTransaction, error) {
	return s.txnRepo.FindTransactionByID(ctx, transactionID)
}

func (s *TransactionService) ListTransactionsByStatement(ctx context.Context, statementID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	if _, err := s.statementRepo.FindStatementByID(ctx, statementID); err != nil {
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultTransactionPageSize
	}
	if limit > maxTransactionPageSize {
		limit = maxTransactionPageSize
	}

	transactions, nextToken, err := s.txnRepo.ListTransactionsByStatement(ctx, statementID, params.Status, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for statement %s: %w", statementID, err)
	}

	return &dto.ListTransactionsResponse{
		Transactions: dto.ToTransactionResponses(transactions),
		NextToken:    nextToken,
	}, nil
}

func (s *TransactionService) GetAuditTrail(ctx context.Context, transactionID string) ([]domain.MatchAuditLog, error) {
	if _, err := s.txnRepo.FindTransactionByID(ctx, transactionID); err != nil {
		return nil, err
	}
	return s.auditRepo.ListAuditByTransaction(ctx, transactionID)
}
