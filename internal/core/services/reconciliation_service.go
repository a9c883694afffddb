package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aggrandize/bankrecon/internal/apperrors"
	"github.com/aggrandize/bankrecon/internal/core/domain"
	portsrepo "github.com/aggrandize/bankrecon/internal/core/ports/repositories"
	portssvc "github.com/aggrandize/bankrecon/internal/core/ports/services"
	"github.com/aggrandize/bankrecon/internal/dto"
	"github.com/aggrandize/bankrecon/internal/middleware"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ReconciliationService walks a statement's unmatched transactions against
// the candidate entities and claims, suggests or skips each one.
type ReconciliationService struct {
	statementRepo portsrepo.StatementRepositoryFacade
	txnRepo       portsrepo.TransactionRepositoryFacade
	auditRepo     portsrepo.MatchAuditWriter
	generator     *candidateGenerator
	scorer        *matchScorer
	cfg           MatchingConfig
}

// Ensure ReconciliationService implements portssvc.ReconciliationSvcFacade
var _ portssvc.ReconciliationSvcFacade = (*ReconciliationService)(nil)

func NewReconciliationService(
	statementRepo portsrepo.StatementRepositoryFacade,
	txnRepo portsrepo.TransactionRepositoryFacade,
	auditRepo portsrepo.MatchAuditWriter,
	candidates portsrepo.CandidateSourceProvider,
	cfg MatchingConfig,
) *ReconciliationService {
	scorer := newMatchScorer(cfg)
	return &ReconciliationService{
		statementRepo: statementRepo,
		txnRepo:       txnRepo,
		auditRepo:     auditRepo,
		generator:     newCandidateGenerator(candidates, scorer),
		scorer:        scorer,
		cfg:           cfg,
	}
}

// scoredCandidate pairs one candidate with its score for a given transaction.
type scoredCandidate struct {
	candidate domain.EntityCandidate
	score     domain.MatchScore
}

// scoredTransaction is one transaction with its candidates ranked best first.
type scoredTransaction struct {
	txn    domain.BankTransaction
	ranked []scoredCandidate
}

func (s scoredTransaction) bestTotal() int {
	if len(s.ranked) == 0 {
		return 0
	}
	return s.ranked[0].score.Total
}

// claimKey identifies a candidate entity inside the run-scoped claimed set.
type claimKey struct {
	entityType domain.EntityType
	entityID   string
}

// systemActor marks rows written by automatic reconciliation rather than a
// human reviewer.
const systemActor = "system"

// Run reconciles every unmatched transaction of a statement. Matched, manual
// and ignored rows are never touched, so re-running a settled statement
// changes nothing. Candidate generation and scoring fan out across workers;
// the claim walk itself is single-threaded so that each entity is claimed at
// most once per run.
func (s *ReconciliationService) Run(ctx context.Context, statementID string, actorID string) (*dto.ReconciliationSummary, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	statement, err := s.statementRepo.FindStatementByID(ctx, statementID)
	if err != nil {
		return nil, err
	}
	if statement.Status == domain.StatementPending || statement.Status == domain.StatementFailed {
		return nil, fmt.Errorf("%w: statement %s is not ready for reconciliation (status %s)", apperrors.ErrValidation, statementID, statement.Status)
	}

	transactions, err := s.txnRepo.ListUnmatchedByStatement(ctx, statementID)
	if err != nil {
		return nil, fmt.Errorf("failed to load unmatched transactions for statement %s: %w", statementID, err)
	}

	summary := &dto.ReconciliationSummary{StatementID: statementID, Total: len(transactions)}
	logger.Info("starting reconciliation run", "statement_id", statementID, "unmatched", len(transactions))

	scored, err := s.scoreAll(ctx, transactions)
	if err != nil {
		return nil, err
	}

	// Deterministic walk order: strongest matches claim first, earlier
	// transactions win among equals. The sort is stable over the repository's
	// (date, created_at) ordering.
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].bestTotal() != scored[j].bestTotal() {
			return scored[i].bestTotal() > scored[j].bestTotal()
		}
		return scored[i].txn.TransactionDate.Before(scored[j].txn.TransactionDate)
	})

	now := time.Now()
	claimed := map[claimKey]bool{}
	for _, st := range scored {
		if len(st.ranked) == 0 {
			continue
		}
		best := st.ranked[0]

		if best.score.Total < s.cfg.AutoAcceptThreshold {
			s.saveSuggestion(ctx, summary, st.txn, best, now)
			continue
		}

		key := claimKey{best.candidate.EntityType, best.candidate.EntityID}
		if claimed[key] {
			// An earlier, stronger transaction took this entity during the
			// walk; keep the pairing visible to reviewers instead.
			s.saveSuggestion(ctx, summary, st.txn, best, now)
			continue
		}

		err := s.claim(ctx, st.txn, best, now)
		if err == nil {
			claimed[key] = true
			summary.Matched++
			continue
		}
		if errors.Is(err, apperrors.ErrClaimConflict) {
			// A concurrent run beat us to the entity. Retry once against the
			// next-best unclaimed candidate that still clears the threshold.
			claimed[key] = true
			if retried := s.retryNextBest(ctx, st, claimed, now); retried {
				summary.Matched++
			} else {
				summary.Failed++
			}
			continue
		}
		if errors.Is(err, apperrors.ErrNotFound) {
			// Changed from unmatched under us (e.g. a manual override landed
			// mid-run); nothing to do.
			logger.Warn("transaction no longer unmatched, skipping", "transaction_id", st.txn.TransactionID)
			continue
		}
		return nil, err
	}
	summary.Unmatched = summary.Total - summary.Matched

	matchedCount, err := s.txnRepo.CountReconciled(ctx, statementID)
	if err != nil {
		return nil, fmt.Errorf("failed to count reconciled transactions for statement %s: %w", statementID, err)
	}
	if err := s.statementRepo.UpdateStatementMatchCounts(ctx, statementID, matchedCount, domain.StatementCompleted, actorID, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to finalize statement %s after reconciliation: %w", statementID, err)
	}

	logger.Info("reconciliation run finished",
		"statement_id", statementID,
		"total", summary.Total,
		"matched", summary.Matched,
		"suggested", summary.Suggested,
		"failed", summary.Failed,
	)
	return summary, nil
}

// scoreAll generates and scores candidates for every transaction in
// parallel. Workers write into their own slot, so no locking is needed.
func (s *ReconciliationService) scoreAll(ctx context.Context, transactions []domain.BankTransaction) ([]scoredTransaction, error) {
	results := make([]scoredTransaction, len(transactions))

	g, groupCtx := errgroup.WithContext(ctx)
	workers := s.cfg.WorkerCount
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for i := range transactions {
		g.Go(func() error {
			txn := transactions[i]
			candidates, err := s.generator.Generate(groupCtx, txn)
			if err != nil {
				return fmt.Errorf("failed to generate candidates for transaction %s: %w", txn.TransactionID, err)
			}

			ranked := make([]scoredCandidate, 0, len(candidates))
			for _, cand := range candidates {
				score := s.scorer.Score(txn, cand)
				if score.Total == 0 {
					continue
				}
				ranked = append(ranked, scoredCandidate{candidate: cand, score: score})
			}
			sortRanked(txn, ranked)

			results[i] = scoredTransaction{txn: txn, ranked: ranked}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// sortRanked orders one transaction's candidates: score first, then closer
// date proximity, then earliest entity creation, then id for determinism.
func sortRanked(txn domain.BankTransaction, ranked []scoredCandidate) {
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.score.Total != b.score.Total {
			return a.score.Total > b.score.Total
		}
		ao := absDayOffset(a.candidate.ExpectedDate, txn.TransactionDate)
		bo := absDayOffset(b.candidate.ExpectedDate, txn.TransactionDate)
		if ao != bo {
			return ao < bo
		}
		if !a.candidate.CreatedAt.Equal(b.candidate.CreatedAt) {
			return a.candidate.CreatedAt.Before(b.candidate.CreatedAt)
		}
		return a.candidate.EntityID < b.candidate.EntityID
	})
}

func absDayOffset(expected, actual time.Time) int {
	d := daysBetween(expected, actual)
	if d < 0 {
		return -d
	}
	return d
}

func (s *ReconciliationService) claim(ctx context.Context, txn domain.BankTransaction, sc scoredCandidate, now time.Time) error {
	reason := matchReason("auto-matched", sc)
	err := s.txnRepo.ClaimMatch(ctx, txn.TransactionID, sc.candidate.EntityType, sc.candidate.EntityID, sc.score.Total, reason, systemActor, now)
	if err != nil {
		return err
	}
	appendAudit(ctx, s.auditRepo, domain.MatchAuditLog{
		AuditID:        uuid.NewString(),
		TransactionID:  txn.TransactionID,
		Action:         domain.ActionAutoMatched,
		PreviousStatus: domain.MatchUnmatched,
		NewStatus:      domain.MatchMatched,
		NewEntityType:  &sc.candidate.EntityType,
		NewEntityID:    &sc.candidate.EntityID,
		Confidence:     &sc.score.Total,
		Reason:         reason,
		PerformedBy:    systemActor,
		CreatedAt:      now,
	})
	return nil
}

// retryNextBest attempts one follow-up claim after a datastore conflict.
// Returns true if the retry claimed successfully.
func (s *ReconciliationService) retryNextBest(ctx context.Context, st scoredTransaction, claimed map[claimKey]bool, now time.Time) bool {
	logger := middleware.GetLoggerFromCtx(ctx)
	for _, next := range st.ranked[1:] {
		if next.score.Total < s.cfg.AutoAcceptThreshold {
			break
		}
		key := claimKey{next.candidate.EntityType, next.candidate.EntityID}
		if claimed[key] {
			continue
		}
		err := s.claim(ctx, st.txn, next, now)
		if err == nil {
			claimed[key] = true
			return true
		}
		if errors.Is(err, apperrors.ErrClaimConflict) {
			claimed[key] = true
		} else {
			logger.Warn("retry claim failed", "transaction_id", st.txn.TransactionID, "error", err)
		}
		return false
	}
	return false
}

// saveSuggestion persists the best pairing without claiming it. Suggestion
// failures are logged, not fatal: the row simply stays bare unmatched.
func (s *ReconciliationService) saveSuggestion(ctx context.Context, summary *dto.ReconciliationSummary, txn domain.BankTransaction, sc scoredCandidate, now time.Time) {
	logger := middleware.GetLoggerFromCtx(ctx)
	reason := matchReason("suggested", sc)
	err := s.txnRepo.SaveSuggestion(ctx, txn.TransactionID, sc.candidate.EntityType, sc.candidate.EntityID, sc.score.Total, reason, systemActor, now)
	if err != nil {
		logger.Warn("failed to save suggestion", "transaction_id", txn.TransactionID, "error", err)
		return
	}
	summary.Suggested++
}

// appendAudit records a match decision. The decision stands even if the
// audit write fails.
func appendAudit(ctx context.Context, auditRepo portsrepo.MatchAuditWriter, entry domain.MatchAuditLog) {
	if err := auditRepo.SaveAuditLog(ctx, entry); err != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("failed to append match audit log", "transaction_id", entry.TransactionID, "error", err)
	}
}

func matchReason(prefix string, sc scoredCandidate) string {
	return fmt.Sprintf("%s %s %s (%s)", prefix, sc.candidate.EntityType, sc.candidate.DisplayName, strings.Join(sc.score.Reasons, ", "))
}
