package repositories

import (
	"context"
	"time"

	"github.com/aggrandize/bankrecon/internal/core/domain"
)

// TransactionReader defines read operations for bank transaction data
type TransactionReader interface {
	// FindTransactionByID retrieves a specific transaction by its unique identifier.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.BankTransaction, error)

	// ListTransactionsByStatement retrieves a paginated list of a statement's
	// transactions using token-based pagination, optionally filtered by match
	// status. Ordered by transaction date descending, then creation time.
	ListTransactionsByStatement(ctx context.Context, statementID string, status *domain.MatchStatus, limit int, nextToken *string) ([]domain.BankTransaction, *string, error)

	// ListUnmatchedByStatement retrieves every unmatched transaction of a
	// statement in deterministic order (transaction date, then creation time,
	// ascending). This is the orchestrator's working set.
	ListUnmatchedByStatement(ctx context.Context, statementID string) ([]domain.BankTransaction, error)

	// CountReconciled counts a statement's rows with match status matched or manual.
	CountReconciled(ctx context.Context, statementID string) (int, error)

	// SummarizeByStatement aggregates row counts and amount totals per match status.
	SummarizeByStatement(ctx context.Context, statementID string) ([]domain.MatchStatusSummary, error)
}

// TransactionWriter defines write operations for bank transaction data
type TransactionWriter interface {
	// SaveTransactions bulk-inserts normalized transactions. Rows whose dedup
	// key already exists for the statement are skipped; the returned count is
	// the number actually inserted.
	SaveTransactions(ctx context.Context, transactions []domain.BankTransaction) (int, error)

	// ClaimMatch atomically claims a candidate entity for a transaction:
	// match status flips to matched with the score fields set. Returns
	// apperrors.ErrClaimConflict if another matched transaction already
	// references the same entity, and apperrors.ErrNotFound if the
	// transaction is missing or no longer unmatched.
	ClaimMatch(ctx context.Context, transactionID string, entityType domain.EntityType, entityID string, confidence int, reason string, matchedBy string, now time.Time) error

	// SaveSuggestion stores the best below-threshold candidate on a still
	// unmatched transaction for the review UI. Never constitutes a claim.
	SaveSuggestion(ctx context.Context, transactionID string, entityType domain.EntityType, entityID string, confidence int, reason string, updatedBy string, now time.Time) error

	// ApplyManualMatch points a transaction at an entity with match status
	// manual. Manual matches bypass the uniqueness constraint on matched rows.
	// confidence may be nil when a human assigned without a score.
	ApplyManualMatch(ctx context.Context, transactionID string, entityType domain.EntityType, entityID string, confidence *int, reason string, userID string, now time.Time) error

	// MarkIgnored permanently excludes a transaction from automatic matching.
	MarkIgnored(ctx context.Context, transactionID string, reason string, userID string, now time.Time) error
}

// TransactionRepositoryFacade combines all transaction repository interfaces.
type TransactionRepositoryFacade interface {
	TransactionReader
	TransactionWriter
}
