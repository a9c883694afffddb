package services

import (
	"context"

	"github.com/aggrandize/bankrecon/internal/core/domain"
	"github.com/aggrandize/bankrecon/internal/dto"
)

// TransactionSvcFacade is the transaction review surface.
type TransactionSvcFacade interface {
	// GetTransactionByID retrieves a specific transaction, including any
	// retained suggestion for the review UI.
	GetTransactionByID(ctx context.Context, transactionID string) (*domain.BankTransaction, error)

	// ListTransactionsByStatement retrieves a statement's transactions with
	// token-based pagination, optionally filtered by match status.
	ListTransactionsByStatement(ctx context.Context, statementID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)

	// GetAuditTrail returns a transaction's match decision history, oldest first.
	GetAuditTrail(ctx context.Context, transactionID string) ([]domain.MatchAuditLog, error)
}
