package repositories

import (
	"context"

	"github.com/aggrandize/bankrecon/internal/core/domain"
)

// MatchAuditWriter records match decisions.
type MatchAuditWriter interface {
	// SaveAuditLog appends one audit entry. Audit failures must not undo the
	// decision they describe; callers log and continue.
	SaveAuditLog(ctx context.Context, log domain.MatchAuditLog) error
}

// MatchAuditReader reads match decision history.
type MatchAuditReader interface {
	// ListAuditByTransaction returns a transaction's audit entries oldest first.
	ListAuditByTransaction(ctx context.Context, transactionID string) ([]domain.MatchAuditLog, error)
}

// MatchAuditRepositoryFacade combines the audit log interfaces.
type MatchAuditRepositoryFacade interface {
	MatchAuditWriter
	MatchAuditReader
}
