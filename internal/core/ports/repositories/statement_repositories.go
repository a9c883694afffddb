package repositories

import (
	"context"
	"time"

	"github.com/aggrandize/bankrecon/internal/core/domain"
)

// StatementReader defines read operations for bank statement data
type StatementReader interface {
	// FindStatementByID retrieves a specific statement by its unique identifier.
	FindStatementByID(ctx context.Context, statementID string) (*domain.BankStatement, error)

	// ListStatements retrieves a paginated list of statements, optionally
	// filtered by owning account and/or processing status, newest first.
	ListStatements(ctx context.Context, accountID *string, status *domain.StatementStatus, limit int, offset int) ([]domain.BankStatement, error)
}

// StatementWriter defines write operations for bank statement data
type StatementWriter interface {
	// SaveStatement persists a newly uploaded statement.
	SaveStatement(ctx context.Context, statement domain.BankStatement) error

	// UpdateStatementStatus moves a statement through its processing states.
	// errorMessage is only persisted alongside the failed status.
	UpdateStatementStatus(ctx context.Context, statementID string, status domain.StatementStatus, errorMessage *string, userID string, now time.Time) error

	// UpdateStatementExtraction stores the metadata produced by extraction and
	// normalization: resolved account, period, balances, totals and row counts.
	UpdateStatementExtraction(ctx context.Context, statement domain.BankStatement) error

	// UpdateStatementMatchCounts recomputes the reconciled-row count after a
	// run and flips the statement status.
	UpdateStatementMatchCounts(ctx context.Context, statementID string, matchedTransactions int, status domain.StatementStatus, userID string, now time.Time) error

	// DeleteStatement removes a statement; its transactions go with it
	// (cascade at the datastore level).
	DeleteStatement(ctx context.Context, statementID string) error
}

// StatementRepositoryFacade combines all statement repository interfaces.
type StatementRepositoryFacade interface {
	StatementReader
	StatementWriter
}
