package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aggrandize/bankrecon/internal/apperrors"
	"github.com/aggrandize/bankrecon/internal/core/domain"
	portsrepo "github.com/aggrandize/bankrecon/internal/core/ports/repositories"
	portssvc "github.com/aggrandize/bankrecon/internal/core/ports/services"
	"github.com/aggrandize/bankrecon/internal/dto"
	"github.com/aggrandize/bankrecon/internal/middleware"
	"github.com/google/uuid"
)

// OverrideService applies human match decisions on top of the automatic runs.
type OverrideService struct {
	txnRepo    portsrepo.TransactionRepositoryFacade
	candidates portsrepo.CandidateSourceProvider
	auditRepo  portsrepo.MatchAuditWriter
}

// Ensure OverrideService implements portssvc.OverrideSvcFacade
var _ portssvc.OverrideSvcFacade = (*OverrideService)(nil)

func NewOverrideService(
	txnRepo portsrepo.TransactionRepositoryFacade,
	candidates portsrepo.CandidateSourceProvider,
	auditRepo portsrepo.MatchAuditWriter,
) *OverrideService {
	return &OverrideService{txnRepo: txnRepo, candidates: candidates, auditRepo: auditRepo}
}

// ApplyOverride executes one reviewer decision on a transaction and returns
// the transaction's resulting state. Replaying a decision reproduces the same
// end state instead of erroring.
func (s *OverrideService) ApplyOverride(ctx context.Context, transactionID string, req dto.OverrideRequest, reviewerID string) (*domain.BankTransaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	txn, err := s.txnRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	var result *domain.BankTransaction
	switch req.Decision {
	case dto.DecisionConfirmSuggestion:
		result, err = s.confirmSuggestion(ctx, txn, reviewerID)
	case dto.DecisionAssign:
		result, err = s.assign(ctx, txn, req, reviewerID)
	case dto.DecisionIgnore:
		result, err = s.ignore(ctx, txn, req, reviewerID)
	default:
		return nil, fmt.Errorf("%w: unknown override decision %q", apperrors.ErrValidation, req.Decision)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("override applied",
		"transaction_id", transactionID,
		"decision", req.Decision,
		"match_status", result.MatchStatus,
	)
	return result, nil
}

// confirmSuggestion promotes the stored suggestion to a manual match without
// re-scoring. The suggestion's confidence travels along.
func (s *OverrideService) confirmSuggestion(ctx context.Context, txn *domain.BankTransaction, reviewerID string) (*domain.BankTransaction, error) {
	// The promotion clears the suggestion fields, so a replay sees a manual
	// row; return it unchanged.
	if txn.MatchStatus == domain.MatchManual {
		return txn, nil
	}
	if txn.SuggestedEntityType == nil || txn.SuggestedEntityID == nil {
		return nil, fmt.Errorf("%w: transaction %s has no suggestion to confirm", apperrors.ErrValidation, txn.TransactionID)
	}

	entityType := *txn.SuggestedEntityType
	entityID := *txn.SuggestedEntityID
	reason := fmt.Sprintf("suggestion confirmed: %s %s", entityType, entityID)
	if txn.SuggestedReason != nil {
		reason = "suggestion confirmed: " + strings.TrimPrefix(*txn.SuggestedReason, "suggested ")
	}

	now := time.Now()
	if err := s.txnRepo.ApplyManualMatch(ctx, txn.TransactionID, entityType, entityID, txn.SuggestedConfidence, reason, reviewerID, now); err != nil {
		return nil, err
	}
	appendAudit(ctx, s.auditRepo, overrideAudit(txn, domain.ActionSuggestionConfirmed, domain.MatchManual, &entityType, &entityID, txn.SuggestedConfidence, reason, reviewerID, now))

	return s.txnRepo.FindTransactionByID(ctx, txn.TransactionID)
}

// assign points the transaction at any existing entity, claimed or not.
// Manual matches sit outside the uniqueness constraint on automatic ones.
func (s *OverrideService) assign(ctx context.Context, txn *domain.BankTransaction, req dto.OverrideRequest, reviewerID string) (*domain.BankTransaction, error) {
	if req.EntityType == nil || req.EntityID == nil {
		return nil, fmt.Errorf("%w: assign requires entityType and entityID", apperrors.ErrValidation)
	}
	if !domain.ValidEntityType(*req.EntityType) {
		return nil, fmt.Errorf("%w: unknown entity type %q", apperrors.ErrValidation, *req.EntityType)
	}
	entityType := domain.EntityType(*req.EntityType)

	cand, err := s.candidates.FindCandidate(ctx, entityType, *req.EntityID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s %s does not exist", apperrors.ErrValidation, entityType, *req.EntityID)
		}
		return nil, err
	}

	if txn.MatchStatus == domain.MatchManual &&
		txn.MatchedEntityType != nil && *txn.MatchedEntityType == entityType &&
		txn.MatchedEntityID != nil && *txn.MatchedEntityID == cand.EntityID {
		return txn, nil
	}

	reason := fmt.Sprintf("manually assigned %s %s", entityType, cand.DisplayName)
	if req.Note != nil && *req.Note != "" {
		reason += ": " + *req.Note
	}

	now := time.Now()
	if err := s.txnRepo.ApplyManualMatch(ctx, txn.TransactionID, entityType, cand.EntityID, nil, reason, reviewerID, now); err != nil {
		return nil, err
	}
	appendAudit(ctx, s.auditRepo, overrideAudit(txn, domain.ActionManualAssigned, domain.MatchManual, &entityType, &cand.EntityID, nil, reason, reviewerID, now))

	return s.txnRepo.FindTransactionByID(ctx, txn.TransactionID)
}

// ignore permanently excludes the transaction from automatic matching.
// A previously claimed entity becomes available again.
func (s *OverrideService) ignore(ctx context.Context, txn *domain.BankTransaction, req dto.OverrideRequest, reviewerID string) (*domain.BankTransaction, error) {
	if txn.MatchStatus == domain.MatchIgnored {
		return txn, nil
	}

	reason := "ignored by reviewer"
	if req.Note != nil && *req.Note != "" {
		reason += ": " + *req.Note
	}

	now := time.Now()
	if err := s.txnRepo.MarkIgnored(ctx, txn.TransactionID, reason, reviewerID, now); err != nil {
		return nil, err
	}
	appendAudit(ctx, s.auditRepo, overrideAudit(txn, domain.ActionIgnored, domain.MatchIgnored, nil, nil, nil, reason, reviewerID, now))

	return s.txnRepo.FindTransactionByID(ctx, txn.TransactionID)
}

// overrideAudit captures the transaction's state before the decision and the
// state the decision produces.
func overrideAudit(txn *domain.BankTransaction, action domain.MatchAction, newStatus domain.MatchStatus, newType *domain.EntityType, newID *string, confidence *int, reason string, reviewerID string, now time.Time) domain.MatchAuditLog {
	return domain.MatchAuditLog{
		AuditID:            uuid.NewString(),
		TransactionID:      txn.TransactionID,
		Action:             action,
		PreviousStatus:     txn.MatchStatus,
		NewStatus:          newStatus,
		PreviousEntityType: txn.MatchedEntityType,
		PreviousEntityID:   txn.MatchedEntityID,
		NewEntityType:      newType,
		NewEntityID:        newID,
		Confidence:         confidence,
		Reason:             reason,
		PerformedBy:        reviewerID,
		CreatedAt:          now,
	}
}
