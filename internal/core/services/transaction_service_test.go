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

// --- Test Suite ---

type TransactionServiceTestSuite struct {
	suite.Suite
	mockTxnRepo       *MockTransactionRepository
	mockStatementRepo *MockStatementRepository
	mockAuditRepo     *MockMatchAuditRepository
	service           portssvc.TransactionSvcFacade
}

func (suite *TransactionServiceTestSuite) SetupTest() {
	suite.mockTxnRepo = new(MockTransactionRepository)
	suite.mockStatementRepo = new(MockStatementRepository)
	suite.mockAuditRepo = new(MockMatchAuditRepository)
	suite.service = services.NewTransactionService(suite.mockTxnRepo, suite.mockStatementRepo, suite.mockAuditRepo)
}

// --- Test Cases ---

func (suite *TransactionServiceTestSuite) TestListTransactionsByStatement_ReturnsPage() {
	ctx := context.Background()
	matched := domain.MatchMatched
	transactions := []domain.BankTransaction{
		{TransactionID: "txn-1", StatementID: "stmt-1", Amount: decimal.NewFromInt(85000), MatchStatus: domain.MatchMatched},
		{TransactionID: "txn-2", StatementID: "stmt-1", Amount: decimal.NewFromInt(1200), MatchStatus: domain.MatchMatched},
	}

	suite.mockStatementRepo.On("FindStatementByID", ctx, "stmt-1").Return(&domain.BankStatement{StatementID: "stmt-1"}, nil).Once()
	suite.mockTxnRepo.On("ListTransactionsByStatement", ctx, "stmt-1", &matched, 50, (*string)(nil)).Return(transactions, strPtr("next-page"), nil).Once()

	page, err := suite.service.ListTransactionsByStatement(ctx, "stmt-1", dto.ListTransactionsParams{Status: &matched})

	suite.Require().NoError(err)
	suite.Len(page.Transactions, 2)
	suite.Equal("txn-1", page.Transactions[0].TransactionID)
	suite.Require().NotNil(page.NextToken)
	suite.Equal("next-page", *page.NextToken)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestListTransactionsByStatement_ClampsLimit() {
	ctx := context.Background()
	suite.mockStatementRepo.On("FindStatementByID", ctx, "stmt-1").Return(&domain.BankStatement{StatementID: "stmt-1"}, nil).Once()
	suite.mockTxnRepo.On("ListTransactionsByStatement", ctx, "stmt-1", (*domain.MatchStatus)(nil), 200, (*string)(nil)).Return([]domain.BankTransaction{}, nil, nil).Once()

	_, err := suite.service.ListTransactionsByStatement(ctx, "stmt-1", dto.ListTransactionsParams{Limit: 1000})

	suite.Require().NoError(err)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestListTransactionsByStatement_StatementMissing() {
	ctx := context.Background()
	suite.mockStatementRepo.On("FindStatementByID", ctx, "stmt-404").Return(nil, apperrors.ErrNotFound).Once()

	page, err := suite.service.ListTransactionsByStatement(ctx, "stmt-404", dto.ListTransactionsParams{})

	suite.Nil(page)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "ListTransactionsByStatement", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TransactionServiceTestSuite) TestGetTransactionByID_Delegates() {
	ctx := context.Background()
	txn := &domain.BankTransaction{TransactionID: "txn-1", MatchStatus: domain.MatchUnmatched}
	suite.mockTxnRepo.On("FindTransactionByID", ctx, "txn-1").Return(txn, nil).Once()

	result, err := suite.service.GetTransactionByID(ctx, "txn-1")

	suite.Require().NoError(err)
	suite.Equal("txn-1", result.TransactionID)
}

func (suite *TransactionServiceTestSuite) TestGetAuditTrail_ReturnsHistory() {
	ctx := context.Background()
	logs := []domain.MatchAuditLog{
		{AuditID: "aud-1", TransactionID: "txn-1", Action: domain.ActionAutoMatched, CreatedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		{AuditID: "aud-2", TransactionID: "txn-1", Action: domain.ActionIgnored, CreatedAt: time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)},
	}

	suite.mockTxnRepo.On("FindTransactionByID", ctx, "txn-1").Return(&domain.BankTransaction{TransactionID: "txn-1"}, nil).Once()
	suite.mockAuditRepo.On("ListAuditByTransaction", ctx, "txn-1").Return(logs, nil).Once()

	trail, err := suite.service.GetAuditTrail(ctx, "txn-1")

	suite.Require().NoError(err)
	suite.Len(trail, 2)
	suite.Equal(domain.ActionAutoMatched, trail[0].Action)
	suite.mockAuditRepo.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestGetAuditTrail_TransactionMissing() {
	ctx := context.Background()
	suite.mockTxnRepo.On("FindTransactionByID", ctx, "txn-404").Return(nil, apperrors.ErrNotFound).Once()

	trail, err := suite.service.GetAuditTrail(ctx, "txn-404")

	suite.Nil(trail)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockAuditRepo.AssertNotCalled(suite.T(), "ListAuditByTransaction", mock.Anything, mock.Anything)
}

// --- Run Suite ---

func TestTransactionService(t *testing.T) {
	suite.Run(t, new(TransactionServiceTestSuite))
}
