package services

import (
	"context"

	"github.com/aggrandize/bankrecon/internal/core/domain"
	"github.com/aggrandize/bankrecon/internal/dto"
)

// OverrideSvcFacade applies human match decisions to transactions.
type OverrideSvcFacade interface {
	// ApplyOverride executes one review decision: confirm_suggestion, assign
	// or ignore. All decisions are idempotent; replaying one reproduces the
	// same end state. Manual assignments may reference entities that are
	// already claimed, since human decisions bypass the automatic uniqueness rule.
	ApplyOverride(ctx context.Context, transactionID string, req dto.OverrideRequest, reviewerID string) (*domain.BankTransaction, error)
}
