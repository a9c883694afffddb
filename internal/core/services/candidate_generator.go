package services

import (
	"context"

	"github.com/aggrandize/bankrecon/internal/core/domain"
	portsrepo "github.com/aggrandize/bankrecon/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

// candidateGenerator assembles the plausible counterpart entities for one
// transaction: the direction picks the variants, the amount and date windows
// bound each variant's lookup, and entities already claimed by a matched
// transaction are dropped up front.
type candidateGenerator struct {
	provider portsrepo.CandidateSourceProvider
	scorer   *matchScorer
}

func newCandidateGenerator(provider portsrepo.CandidateSourceProvider, scorer *matchScorer) *candidateGenerator {
	return &candidateGenerator{provider: provider, scorer: scorer}
}

// Generate returns the unclaimed candidates for the transaction across every
// variant its direction allows.
func (g *candidateGenerator) Generate(ctx context.Context, txn domain.BankTransaction) ([]domain.EntityCandidate, error) {
	tolerance := g.scorer.amountTolerance(txn.Amount)
	minAmount := txn.Amount.Sub(tolerance)
	if minAmount.IsNegative() {
		minAmount = decimal.Zero
	}
	maxAmount := txn.Amount.Add(tolerance)

	candidates := []domain.EntityCandidate{}
	for _, source := range g.provider.SourcesFor(txn.Direction) {
		past, future := g.scorer.dateWindowDays(source.EntityType())
		q := portsrepo.CandidateQuery{
			MinAmount: minAmount,
			MaxAmount: maxAmount,
			// Inverse of the scoring window: an entity expecting money up to
			// `future` days before the transaction, or up to `past` days
			// after it, can still explain the movement.
			DateFrom:  txn.TransactionDate.AddDate(0, 0, -future),
			DateTo:    txn.TransactionDate.AddDate(0, 0, past),
			Direction: txn.Direction,
		}

		found, err := source.ListCandidates(ctx, q)
		if err != nil {
			return nil, err
		}
		for _, c := range found {
			if c.AlreadyClaimed {
				continue
			}
			candidates = append(candidates, c)
		}
	}
	return candidates, nil
}
