package repositories

import (
	"context"
	"time"

	"github.com/aggrandize/bankrecon/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CandidateQuery is the window a candidate source filters on: amount within
// [MinAmount, MaxAmount], expected date within [DateFrom, DateTo]. Direction
// lets dual-direction sources (settlements) pick their side.
type CandidateQuery struct {
	MinAmount decimal.Decimal
	MaxAmount decimal.Decimal
	DateFrom  time.Time
	DateTo    time.Time
	Direction domain.TransactionDirection
}

// CandidateSource lists candidates of a single entity variant inside a window.
// Each of the six target variants implements exactly this one capability.
type CandidateSource interface {
	// EntityType names the variant this source serves.
	EntityType() domain.EntityType

	// ListCandidates returns the variant's canonical projections inside the
	// query window, oldest entity first. Entities already referenced by a
	// matched transaction come back with AlreadyClaimed set.
	ListCandidates(ctx context.Context, q CandidateQuery) ([]domain.EntityCandidate, error)
}

// CandidateSourceProvider routes candidate lookups to the variant sources.
type CandidateSourceProvider interface {
	// SourcesFor returns the sources applicable to a transaction direction:
	// outgoing obligations for debits, incoming flows for credits.
	SourcesFor(direction domain.TransactionDirection) []CandidateSource

	// FindCandidate fetches one entity's projection regardless of any window,
	// for validating manual overrides. Returns apperrors.ErrNotFound when the
	// entity does not exist.
	FindCandidate(ctx context.Context, entityType domain.EntityType, entityID string) (*domain.EntityCandidate, error)
}
