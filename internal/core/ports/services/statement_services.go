package services

import (
	"context"

	"github.com/aggrandize/bankrecon/internal/core/domain"
	"github.com/aggrandize/bankrecon/internal/dto"
)

// StatementSvcFacade is the statement intake and review surface.
type StatementSvcFacade interface {
	// SubmitStatement records an uploaded statement and runs the full intake
	// pipeline: extraction, normalization and an initial reconciliation run.
	// Extraction failures do not error out; they come back as a statement in
	// the failed state carrying the error message.
	SubmitStatement(ctx context.Context, input dto.SubmitStatementInput, uploaderID string) (*domain.BankStatement, error)

	// GetStatementByID retrieves a specific statement.
	GetStatementByID(ctx context.Context, statementID string) (*domain.BankStatement, error)

	// ListStatements retrieves statements newest first, optionally filtered
	// by owning account and/or processing status.
	ListStatements(ctx context.Context, params dto.ListStatementsParams) ([]domain.BankStatement, error)

	// DeleteStatement removes a statement and, by cascade, its transactions.
	DeleteStatement(ctx context.Context, statementID string, userID string) error

	// GetStatementSummary aggregates the statement's rows per match status.
	GetStatementSummary(ctx context.Context, statementID string) (*dto.StatementSummaryResponse, error)
}
