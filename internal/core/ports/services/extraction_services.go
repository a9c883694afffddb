package services

import (
	"context"

	"github.com/aggrandize/bankrecon/internal/core/domain"
)

// ExtractionAdapter wraps the external statement extraction service. One call
// per statement, synchronous. The core never inspects file bytes itself; it
// only consumes the structured result.
//
// Failures wrap apperrors.ErrExtraction (service unavailable, malformed
// response, unsupported file). The caller marks the statement failed and does
// not retry.
type ExtractionAdapter interface {
	Extract(ctx context.Context, fileBytes []byte, mimeType string) (*domain.ExtractionResult, error)
}
