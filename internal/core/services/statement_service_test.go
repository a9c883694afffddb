package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/aggrandize/bankrecon/internal/apperrors"
	"github.com/aggrandize/bankrecon/internal/core/domain"
	portssvc "github.com/aggrandize/bankrecon/internal/core/ports/services"
	"github.com/aggrandize/bankrecon/internal/core/services"
	"github.com/aggrandize/bankrecon/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock Extraction Adapter ---

type MockExtractionAdapter struct {
	mock.Mock
}

var _ portssvc.ExtractionAdapter = (*MockExtractionAdapter)(nil)

func (m *MockExtractionAdapter) Extract(ctx context.Context, fileBytes []byte, mimeType string) (*domain.ExtractionResult, error) {
	args := m.Called(ctx, fileBytes, mimeType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExtractionResult), args.Error(1)
}

// --- Mock Reconciliation Service ---

type MockReconciliationService struct {
	mock.Mock
}

var _ portssvc.ReconciliationSvcFacade = (*MockReconciliationService)(nil)

func (m *MockReconciliationService) Run(ctx context.Context, statementID string, actorID string) (*dto.ReconciliationSummary, error) {
	args := m.Called(ctx, statementID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ReconciliationSummary), args.Error(1)
}

// --- Test Suite ---

type StatementServiceTestSuite struct {
	suite.Suite
	mockStatementRepo *MockStatementRepository
	mockAccountRepo   *MockBankAccountRepository
	mockTxnRepo       *MockTransactionRepository
	mockExtractor     *MockExtractionAdapter
	mockReconciler    *MockReconciliationService
	service           portssvc.StatementSvcFacade
}

func (suite *StatementServiceTestSuite) SetupTest() {
	suite.mockStatementRepo = new(MockStatementRepository)
	suite.mockAccountRepo = new(MockBankAccountRepository)
	suite.mockTxnRepo = new(MockTransactionRepository)
	suite.mockExtractor = new(MockExtractionAdapter)
	suite.mockReconciler = new(MockReconciliationService)
	suite.service = services.NewStatementService(
		suite.mockStatementRepo,
		suite.mockAccountRepo,
		suite.mockTxnRepo,
		suite.mockExtractor,
		suite.mockReconciler,
		0.5,
	)
}

func (suite *StatementServiceTestSuite) pdfInput() dto.SubmitStatementInput {
	return dto.SubmitStatementInput{
		FileName:  "march-2025.pdf",
		MimeType:  "application/pdf",
		FileBytes: []byte("%PDF-1.7 statement bytes"),
	}
}

// --- Test Cases ---

func (suite *StatementServiceTestSuite) TestSubmitStatement_FullPipeline() {
	ctx := context.Background()
	periodStart := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	rowDate := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	creditDate := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)

	extraction := &domain.ExtractionResult{
		BankName:           "HDFC Bank",
		AccountNumberLast4: "4242",
		PeriodStart:        &periodStart,
		PeriodEnd:          &periodEnd,
		Rows: []domain.ExtractedRow{
			{Date: &rowDate, Description: "NEFT ACME CORP SALARY", Amount: decimal.NewFromInt(85000), Direction: domain.Debit, Confidence: 0.95},
			{Date: &creditDate, Description: "IMPS ORDER PMT JOHN DOE", Amount: decimal.NewFromInt(1200), Direction: domain.Credit, Confidence: 0.9},
			{Date: nil, Description: "ILLEGIBLE ROW", Amount: decimal.NewFromInt(10), Direction: domain.Debit, Confidence: 0.9},
		},
	}

	suite.mockStatementRepo.On("SaveStatement", ctx, mock.MatchedBy(func(s domain.BankStatement) bool {
		return s.FileName == "march-2025.pdf" &&
			s.FileType == "application/pdf" &&
			s.Status == domain.StatementPending &&
			s.CreatedBy == "user-1" &&
			s.StatementID != ""
	})).Return(nil).Once()
	suite.mockStatementRepo.On("UpdateStatementStatus", ctx, mock.AnythingOfType("string"), domain.StatementProcessing, (*string)(nil), "user-1", mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockExtractor.On("Extract", ctx, []byte("%PDF-1.7 statement bytes"), "application/pdf").Return(extraction, nil).Once()
	suite.mockAccountRepo.On("FindAccountByNumberLast4", ctx, "4242").Return(&domain.BankAccount{AccountID: "acc-1", AccountNumberLast4: "4242"}, nil).Once()
	suite.mockStatementRepo.On("UpdateStatementExtraction", ctx, mock.MatchedBy(func(s domain.BankStatement) bool {
		return s.TotalTransactions == 2 &&
			s.MalformedRows == 1 &&
			s.AccountID != nil && *s.AccountID == "acc-1" &&
			s.TotalDebits.Equal(decimal.NewFromInt(85000)) &&
			s.TotalCredits.Equal(decimal.NewFromInt(1200)) &&
			s.PeriodStart != nil && s.PeriodStart.Equal(periodStart) &&
			s.ProcessedAt != nil
	})).Return(nil).Once()
	suite.mockTxnRepo.On("SaveTransactions", ctx, mock.MatchedBy(func(txns []domain.BankTransaction) bool {
		return len(txns) == 2 &&
			txns[0].MatchStatus == domain.MatchUnmatched &&
			txns[0].ImportHash != "" &&
			txns[1].Direction == domain.Credit
	})).Return(2, nil).Once()
	suite.mockReconciler.On("Run", ctx, mock.AnythingOfType("string"), "user-1").Return(&dto.ReconciliationSummary{Total: 2, Matched: 1, Unmatched: 1}, nil).Once()

	completed := &domain.BankStatement{StatementID: "stmt-1", Status: domain.StatementCompleted, TotalTransactions: 2, MatchedTransactions: 1}
	suite.mockStatementRepo.On("FindStatementByID", ctx, mock.AnythingOfType("string")).Return(completed, nil).Once()

	result, err := suite.service.SubmitStatement(ctx, suite.pdfInput(), "user-1")

	suite.Require().NoError(err)
	suite.Equal(domain.StatementCompleted, result.Status)
	suite.Equal(2, result.TotalTransactions)
	suite.mockStatementRepo.AssertExpectations(suite.T())
	suite.mockTxnRepo.AssertExpectations(suite.T())
	suite.mockExtractor.AssertExpectations(suite.T())
	suite.mockReconciler.AssertExpectations(suite.T())
}

func (suite *StatementServiceTestSuite) TestSubmitStatement_ExtractionFailureIsTerminalNotError() {
	ctx := context.Background()

	suite.mockStatementRepo.On("SaveStatement", ctx, mock.AnythingOfType("domain.BankStatement")).Return(nil).Once()
	suite.mockStatementRepo.On("UpdateStatementStatus", ctx, mock.AnythingOfType("string"), domain.StatementProcessing, (*string)(nil), "user-1", mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockExtractor.On("Extract", ctx, mock.Anything, "application/pdf").Return(nil, apperrors.ErrExtraction).Once()
	suite.mockStatementRepo.On("UpdateStatementStatus", ctx, mock.AnythingOfType("string"), domain.StatementFailed, mock.MatchedBy(func(msg *string) bool {
		return msg != nil && *msg != ""
	}), "user-1", mock.AnythingOfType("time.Time")).Return(nil).Once()

	failed := &domain.BankStatement{StatementID: "stmt-1", Status: domain.StatementFailed, ErrorMessage: strPtr("extraction failed")}
	suite.mockStatementRepo.On("FindStatementByID", ctx, mock.AnythingOfType("string")).Return(failed, nil).Once()

	result, err := suite.service.SubmitStatement(ctx, suite.pdfInput(), "user-1")

	suite.Require().NoError(err)
	suite.Equal(domain.StatementFailed, result.Status)
	suite.Equal(0, result.TotalTransactions)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "SaveTransactions", mock.Anything, mock.Anything)
	suite.mockReconciler.AssertNotCalled(suite.T(), "Run", mock.Anything, mock.Anything, mock.Anything)
	suite.mockStatementRepo.AssertExpectations(suite.T())
}

func (suite *StatementServiceTestSuite) TestSubmitStatement_EmptyFileRejected() {
	ctx := context.Background()

	input := suite.pdfInput()
	input.FileBytes = nil
	result, err := suite.service.SubmitStatement(ctx, input, "user-1")

	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockStatementRepo.AssertNotCalled(suite.T(), "SaveStatement", mock.Anything, mock.Anything)
}

func (suite *StatementServiceTestSuite) TestSubmitStatement_UnknownAccountRejected() {
	ctx := context.Background()
	suite.mockAccountRepo.On("FindAccountByID", ctx, "acc-404").Return(nil, apperrors.ErrNotFound).Once()

	input := suite.pdfInput()
	input.AccountID = strPtr("acc-404")
	result, err := suite.service.SubmitStatement(ctx, input, "user-1")

	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockStatementRepo.AssertNotCalled(suite.T(), "SaveStatement", mock.Anything, mock.Anything)
}

func (suite *StatementServiceTestSuite) TestSubmitStatement_UnresolvedAccountLeavesStatementUnlinked() {
	ctx := context.Background()
	rowDate := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	extraction := &domain.ExtractionResult{
		AccountNumberLast4: "9999",
		Rows: []domain.ExtractedRow{
			{Date: &rowDate, Description: "POS GROCERY MART", Amount: decimal.NewFromInt(1500), Direction: domain.Debit, Confidence: 0.9},
		},
	}

	suite.mockStatementRepo.On("SaveStatement", ctx, mock.AnythingOfType("domain.BankStatement")).Return(nil).Once()
	suite.mockStatementRepo.On("UpdateStatementStatus", ctx, mock.AnythingOfType("string"), domain.StatementProcessing, (*string)(nil), "user-1", mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockExtractor.On("Extract", ctx, mock.Anything, "application/pdf").Return(extraction, nil).Once()
	suite.mockAccountRepo.On("FindAccountByNumberLast4", ctx, "9999").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockStatementRepo.On("UpdateStatementExtraction", ctx, mock.MatchedBy(func(s domain.BankStatement) bool {
		return s.AccountID == nil && s.TotalTransactions == 1
	})).Return(nil).Once()
	suite.mockTxnRepo.On("SaveTransactions", ctx, mock.Anything).Return(1, nil).Once()
	suite.mockReconciler.On("Run", ctx, mock.AnythingOfType("string"), "user-1").Return(&dto.ReconciliationSummary{Total: 1, Unmatched: 1}, nil).Once()
	suite.mockStatementRepo.On("FindStatementByID", ctx, mock.AnythingOfType("string")).Return(&domain.BankStatement{StatementID: "stmt-1", Status: domain.StatementCompleted}, nil).Once()

	result, err := suite.service.SubmitStatement(ctx, suite.pdfInput(), "user-1")

	suite.Require().NoError(err)
	suite.Equal(domain.StatementCompleted, result.Status)
	suite.mockStatementRepo.AssertExpectations(suite.T())
}

func (suite *StatementServiceTestSuite) TestSubmitStatement_DuplicateRowsSkippedOnReimport() {
	ctx := context.Background()
	rowDate := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	extraction := &domain.ExtractionResult{
		Rows: []domain.ExtractedRow{
			{Date: &rowDate, Description: "POS GROCERY MART", Amount: decimal.NewFromInt(1500), Direction: domain.Debit, Confidence: 0.9},
			{Date: &rowDate, Description: "UPI CAFE BREW", Amount: decimal.NewFromInt(240), Direction: domain.Debit, Confidence: 0.9},
		},
	}

	suite.mockStatementRepo.On("SaveStatement", ctx, mock.AnythingOfType("domain.BankStatement")).Return(nil).Once()
	suite.mockStatementRepo.On("UpdateStatementStatus", ctx, mock.AnythingOfType("string"), domain.StatementProcessing, (*string)(nil), "user-1", mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockExtractor.On("Extract", ctx, mock.Anything, "application/pdf").Return(extraction, nil).Once()
	suite.mockStatementRepo.On("UpdateStatementExtraction", ctx, mock.AnythingOfType("domain.BankStatement")).Return(nil).Once()
	// The insert reports one row already present; the pipeline carries on.
	suite.mockTxnRepo.On("SaveTransactions", ctx, mock.Anything).Return(1, nil).Once()
	suite.mockReconciler.On("Run", ctx, mock.AnythingOfType("string"), "user-1").Return(&dto.ReconciliationSummary{Total: 1}, nil).Once()
	suite.mockStatementRepo.On("FindStatementByID", ctx, mock.AnythingOfType("string")).Return(&domain.BankStatement{StatementID: "stmt-1", Status: domain.StatementCompleted}, nil).Once()

	result, err := suite.service.SubmitStatement(ctx, suite.pdfInput(), "user-1")

	suite.Require().NoError(err)
	suite.NotNil(result)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *StatementServiceTestSuite) TestListStatements_ClampsPaging() {
	ctx := context.Background()
	status := domain.StatementCompleted

	suite.mockStatementRepo.On("ListStatements", ctx, (*string)(nil), &status, 20, 0).Return([]domain.BankStatement{}, nil).Once()
	_, err := suite.service.ListStatements(ctx, dto.ListStatementsParams{Status: &status, Limit: 0, Offset: -5})
	suite.Require().NoError(err)

	suite.mockStatementRepo.On("ListStatements", ctx, (*string)(nil), (*domain.StatementStatus)(nil), 100, 10).Return([]domain.BankStatement{}, nil).Once()
	_, err = suite.service.ListStatements(ctx, dto.ListStatementsParams{Limit: 500, Offset: 10})
	suite.Require().NoError(err)

	suite.mockStatementRepo.AssertExpectations(suite.T())
}

func (suite *StatementServiceTestSuite) TestDeleteStatement_MissingStatement() {
	ctx := context.Background()
	suite.mockStatementRepo.On("FindStatementByID", ctx, "stmt-404").Return(nil, apperrors.ErrNotFound).Once()

	err := suite.service.DeleteStatement(ctx, "stmt-404", "user-1")

	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockStatementRepo.AssertNotCalled(suite.T(), "DeleteStatement", mock.Anything, mock.Anything)
}

func (suite *StatementServiceTestSuite) TestDeleteStatement_RemovesStatement() {
	ctx := context.Background()
	suite.mockStatementRepo.On("FindStatementByID", ctx, "stmt-1").Return(&domain.BankStatement{StatementID: "stmt-1"}, nil).Once()
	suite.mockStatementRepo.On("DeleteStatement", ctx, "stmt-1").Return(nil).Once()

	err := suite.service.DeleteStatement(ctx, "stmt-1", "user-1")

	suite.Require().NoError(err)
	suite.mockStatementRepo.AssertExpectations(suite.T())
}

func (suite *StatementServiceTestSuite) TestGetStatementSummary_AggregatesStatuses() {
	ctx := context.Background()
	statement := &domain.BankStatement{
		StatementID:  "stmt-1",
		Status:       domain.StatementCompleted,
		TotalCredits: decimal.NewFromInt(1200),
		TotalDebits:  decimal.NewFromInt(86500),
	}
	statuses := []domain.MatchStatusSummary{
		{Status: domain.MatchMatched, Count: 2, DebitTotal: decimal.NewFromInt(85000)},
		{Status: domain.MatchUnmatched, Count: 1, CreditTotal: decimal.NewFromInt(1200)},
	}

	suite.mockStatementRepo.On("FindStatementByID", ctx, "stmt-1").Return(statement, nil).Once()
	suite.mockTxnRepo.On("SummarizeByStatement", ctx, "stmt-1").Return(statuses, nil).Once()

	summary, err := suite.service.GetStatementSummary(ctx, "stmt-1")

	suite.Require().NoError(err)
	suite.Equal("stmt-1", summary.StatementID)
	suite.Len(summary.Statuses, 2)
	suite.True(summary.TotalDebits.Equal(decimal.NewFromInt(86500)))
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *StatementServiceTestSuite) TestGetStatementSummary_StatementMissing() {
	ctx := context.Background()
	suite.mockStatementRepo.On("FindStatementByID", ctx, "stmt-404").Return(nil, apperrors.ErrNotFound).Once()

	summary, err := suite.service.GetStatementSummary(ctx, "stmt-404")

	suite.Nil(summary)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "SummarizeByStatement", mock.Anything, mock.Anything)
}

// --- Run Suite ---

func TestStatementService(t *testing.T) {
	suite.Run(t, new(StatementServiceTestSuite))
}
