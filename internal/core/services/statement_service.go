package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aggrandize/bankrecon/internal/apperrors"
	"github.com/aggrandize/bankrecon/internal/core/domain"
	portsrepo "github.com/aggrandize/bankrecon/internal/core/ports/repositories"
	portssvc "github.com/aggrandize/bankrecon/internal/core/ports/services"
	"github.com/aggrandize/bankrecon/internal/dto"
	"github.com/aggrandize/bankrecon/internal/middleware"
	"github.com/google/uuid"
)

const (
	defaultStatementPageSize = 20
	maxStatementPageSize     = 100
)

// StatementService owns the statement lifecycle: intake, extraction,
// normalization, the initial reconciliation run, and the review reads.
type StatementService struct {
	statementRepo portsrepo.StatementRepositoryFacade
	accountRepo   portsrepo.BankAccountReader
	txnRepo       portsrepo.TransactionRepositoryFacade
	extractor     portssvc.ExtractionAdapter
	reconciler    portssvc.ReconciliationSvcFacade
	normalizer    *transactionNormalizer
}

// Ensure StatementService implements portssvc.StatementSvcFacade
var _ portssvc.StatementSvcFacade = (*StatementService)(nil)

func NewStatementService(
	statementRepo portsrepo.StatementRepositoryFacade,
	accountRepo portsrepo.BankAccountReader,
	txnRepo portsrepo.TransactionRepositoryFacade,
	extractor portssvc.ExtractionAdapter,
	reconciler portssvc.ReconciliationSvcFacade,
	minRowConfidence float64,
) *StatementService {
	return &StatementService{
		statementRepo: statementRepo,
		accountRepo:   accountRepo,
		txnRepo:       txnRepo,
		extractor:     extractor,
		reconciler:    reconciler,
		normalizer:    newTransactionNormalizer(minRowConfidence),
	}
}

// SubmitStatement runs the intake pipeline synchronously: persist the upload,
// extract, normalize, bulk-insert with dedup, then reconcile. An extraction
// failure is a statement outcome, not an error: the statement comes back
// failed with the message set and zero transactions.
func (s *StatementService) SubmitStatement(ctx context.Context, input dto.SubmitStatementInput, uploaderID string) (*domain.BankStatement, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if len(input.FileBytes) == 0 {
		return nil, fmt.Errorf("%w: uploaded file is empty", apperrors.ErrValidation)
	}
	if input.AccountID != nil {
		if _, err := s.accountRepo.FindAccountByID(ctx, *input.AccountID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: account %s does not exist", apperrors.ErrValidation, *input.AccountID)
			}
			return nil, err
		}
	}

	now := time.Now()
	statement := domain.BankStatement{
		StatementID: uuid.NewString(),
		AccountID:   input.AccountID,
		FileName:    input.FileName,
		FileType:    input.MimeType,
		Status:      domain.StatementPending,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     uploaderID,
			LastUpdatedAt: now,
			LastUpdatedBy: uploaderID,
		},
	}
	if err := s.statementRepo.SaveStatement(ctx, statement); err != nil {
		return nil, fmt.Errorf("failed to save statement: %w", err)
	}
	logger.Info("statement received", "statement_id", statement.StatementID, "file_name", input.FileName, "mime_type", input.MimeType)

	if err := s.statementRepo.UpdateStatementStatus(ctx, statement.StatementID, domain.StatementProcessing, nil, uploaderID, time.Now()); err != nil {
		return nil, err
	}

	result, err := s.extractor.Extract(ctx, input.FileBytes, input.MimeType)
	if err != nil {
		if errors.Is(err, apperrors.ErrExtraction) {
			return s.failStatement(ctx, statement.StatementID, err, uploaderID)
		}
		return nil, err
	}

	batch := s.normalizer.NormalizeRows(ctx, statement.StatementID, result.Rows, uploaderID, time.Now())

	statement.AccountID = s.resolveAccount(ctx, input.AccountID, result.AccountNumberLast4)
	statement.PeriodStart = result.PeriodStart
	statement.PeriodEnd = result.PeriodEnd
	statement.OpeningBalance = result.OpeningBalance
	statement.ClosingBalance = result.ClosingBalance
	statement.TotalCredits = batch.TotalCredits
	statement.TotalDebits = batch.TotalDebits
	statement.TotalTransactions = len(batch.Transactions)
	statement.MalformedRows = batch.MalformedRows
	processedAt := time.Now()
	statement.ProcessedAt = &processedAt
	statement.LastUpdatedAt = processedAt
	statement.LastUpdatedBy = uploaderID
	if err := s.statementRepo.UpdateStatementExtraction(ctx, statement); err != nil {
		return nil, fmt.Errorf("failed to record extraction results for statement %s: %w", statement.StatementID, err)
	}

	if len(batch.Transactions) > 0 {
		inserted, err := s.txnRepo.SaveTransactions(ctx, batch.Transactions)
		if err != nil {
			return nil, fmt.Errorf("failed to save transactions for statement %s: %w", statement.StatementID, err)
		}
		if inserted < len(batch.Transactions) {
			logger.Info("skipped duplicate transactions", "statement_id", statement.StatementID, "skipped", len(batch.Transactions)-inserted)
		}
	}

	if _, err := s.reconciler.Run(ctx, statement.StatementID, uploaderID); err != nil {
		return nil, fmt.Errorf("initial reconciliation of statement %s failed: %w", statement.StatementID, err)
	}

	return s.statementRepo.FindStatementByID(ctx, statement.StatementID)
}

// failStatement records an extraction failure as the statement's terminal
// state and returns the statement without an error.
func (s *StatementService) failStatement(ctx context.Context, statementID string, cause error, uploaderID string) (*domain.BankStatement, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	logger.Warn("statement extraction failed", "statement_id", statementID, "error", cause)

	message := cause.Error()
	if err := s.statementRepo.UpdateStatementStatus(ctx, statementID, domain.StatementFailed, &message, uploaderID, time.Now()); err != nil {
		return nil, err
	}
	return s.statementRepo.FindStatementByID(ctx, statementID)
}

// resolveAccount keeps the caller-supplied account if any, otherwise looks
// one up by the extracted account number tail. No match leaves the statement
// unlinked; that is not an error.
func (s *StatementService) resolveAccount(ctx context.Context, provided *string, numberLast4 string) *string {
	if provided != nil {
		return provided
	}
	if numberLast4 == "" {
		return nil
	}

	account, err := s.accountRepo.FindAccountByNumberLast4(ctx, numberLast4)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			middleware.GetLoggerFromCtx(ctx).Warn("account lookup by number failed", "error", err)
		}
		return nil
	}
	return &account.AccountID
}

func (s *StatementService) GetStatementByID(ctx context.Context, statementID string) (*domain.BankStatement, error) {
	return s.statementRepo.FindStatementByID(ctx, statementID)
}

func (s *StatementService) ListStatements(ctx context.Context, params dto.ListStatementsParams) ([]domain.BankStatement, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultStatementPageSize
	}
	if limit > maxStatementPageSize {
		limit = maxStatementPageSize
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}
	return s.statementRepo.ListStatements(ctx, params.AccountID, params.Status, limit, offset)
}

// DeleteStatement removes the statement and its transactions. Matched
// entities referenced by those transactions become claimable again.
func (s *StatementService) DeleteStatement(ctx context.Context, statementID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.statementRepo.FindStatementByID(ctx, statementID); err != nil {
		return err
	}
	if err := s.statementRepo.DeleteStatement(ctx, statementID); err != nil {
		return err
	}
	logger.Info("statement deleted", "statement_id", statementID, "deleted_by", userID)
	return nil
}

func (s *StatementService) GetStatementSummary(ctx context.Context, statementID string) (*dto.StatementSummaryResponse, error) {
	statement, err := s.statementRepo.FindStatementByID(ctx, statementID)
	if err != nil {
		return nil, err
	}
	statuses, err := s.txnRepo.SummarizeByStatement(ctx, statementID)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize statement %s: %w", statementID, err)
	}
	return &dto.StatementSummaryResponse{
		StatementID:  statementID,
		Statuses:     statuses,
		TotalCredits: statement.TotalCredits,
		TotalDebits:  statement.TotalDebits,
	}, nil
}
