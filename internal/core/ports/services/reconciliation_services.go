package services

import (
	"context"

	"github.com/aggrandize/bankrecon/internal/dto"
)

// ReconciliationSvcFacade runs automatic matching over a statement.
type ReconciliationSvcFacade interface {
	// Run reconciles every unmatched transaction of the statement: candidate
	// generation and scoring per transaction, then a single-pass claim walk.
	// Transactions already matched, manual or ignored are never touched, so
	// re-running on a settled statement changes nothing. actorID is recorded
	// on the statement's audit fields.
	Run(ctx context.Context, statementID string, actorID string) (*dto.ReconciliationSummary, error)
}
