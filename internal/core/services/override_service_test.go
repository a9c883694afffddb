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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

func intPtr(i int) *int { return &i }

func entityTypePtr(t domain.EntityType) *domain.EntityType { return &t }

// --- Test Suite ---

type OverrideServiceTestSuite struct {
	suite.Suite
	mockTxnRepo    *MockTransactionRepository
	mockCandidates *MockCandidateProvider
	mockAuditRepo  *MockMatchAuditRepository
	service        portssvc.OverrideSvcFacade
}

func (suite *OverrideServiceTestSuite) SetupTest() {
	suite.mockTxnRepo = new(MockTransactionRepository)
	suite.mockCandidates = new(MockCandidateProvider)
	suite.mockAuditRepo = new(MockMatchAuditRepository)
	suite.service = services.NewOverrideService(suite.mockTxnRepo, suite.mockCandidates, suite.mockAuditRepo)
}

func (suite *OverrideServiceTestSuite) unmatchedTransaction() *domain.BankTransaction {
	return &domain.BankTransaction{
		TransactionID:         "txn-1",
		StatementID:           "stmt-1",
		TransactionDate:       time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC),
		NormalizedDescription: "UPI NETFLIX RENEWAL",
		Amount:                decimal.NewFromInt(649),
		Direction:             domain.Debit,
		MatchStatus:           domain.MatchUnmatched,
	}
}

func (suite *OverrideServiceTestSuite) suggestedTransaction() *domain.BankTransaction {
	txn := suite.unmatchedTransaction()
	txn.SuggestedEntityType = entityTypePtr(domain.EntitySubscription)
	txn.SuggestedEntityID = strPtr("sub-7")
	txn.SuggestedConfidence = intPtr(72)
	txn.SuggestedReason = strPtr("suggested subscription Netflix (name 32/40, amount 30/30, pattern 10/10)")
	return txn
}

// --- Test Cases ---

func (suite *OverrideServiceTestSuite) TestApplyOverride_ConfirmSuggestion() {
	ctx := context.Background()
	before := suite.suggestedTransaction()
	after := *before
	after.MatchStatus = domain.MatchManual
	after.MatchedEntityType = entityTypePtr(domain.EntitySubscription)
	after.MatchedEntityID = strPtr("sub-7")
	after.SuggestedEntityType = nil
	after.SuggestedEntityID = nil

	suite.mockTxnRepo.On("FindTransactionByID", ctx, "txn-1").Return(before, nil).Once()
	reason := "suggestion confirmed: subscription Netflix (name 32/40, amount 30/30, pattern 10/10)"
	suite.mockTxnRepo.On("ApplyManualMatch", ctx, "txn-1", domain.EntitySubscription, "sub-7", intPtr(72), reason, "rev-1", mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockAuditRepo.On("SaveAuditLog", ctx, mock.MatchedBy(func(log domain.MatchAuditLog) bool {
		return log.TransactionID == "txn-1" &&
			log.Action == domain.ActionSuggestionConfirmed &&
			log.PreviousStatus == domain.MatchUnmatched &&
			log.NewStatus == domain.MatchManual &&
			log.NewEntityID != nil && *log.NewEntityID == "sub-7" &&
			log.Confidence != nil && *log.Confidence == 72 &&
			log.PerformedBy == "rev-1"
	})).Return(nil).Once()
	suite.mockTxnRepo.On("FindTransactionByID", ctx, "txn-1").Return(&after, nil).Once()

	result, err := suite.service.ApplyOverride(ctx, "txn-1", dto.OverrideRequest{Decision: dto.DecisionConfirmSuggestion}, "rev-1")

	suite.Require().NoError(err)
	suite.Equal(domain.MatchManual, result.MatchStatus)
	suite.Require().NotNil(result.MatchedEntityID)
	suite.Equal("sub-7", *result.MatchedEntityID)
	suite.mockTxnRepo.AssertExpectations(suite.T())
	suite.mockAuditRepo.AssertExpectations(suite.T())
}

func (suite *OverrideServiceTestSuite) TestApplyOverride_ConfirmSuggestionReplayIsIdempotent() {
	ctx := context.Background()
	manual := suite.unmatchedTransaction()
	manual.MatchStatus = domain.MatchManual
	manual.MatchedEntityType = entityTypePtr(domain.EntitySubscription)
	manual.MatchedEntityID = strPtr("sub-7")

	suite.mockTxnRepo.On("FindTransactionByID", ctx, "txn-1").Return(manual, nil).Once()

	result, err := suite.service.ApplyOverride(ctx, "txn-1", dto.OverrideRequest{Decision: dto.DecisionConfirmSuggestion}, "rev-1")

	suite.Require().NoError(err)
	suite.Equal(domain.MatchManual, result.MatchStatus)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "ApplyManualMatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockAuditRepo.AssertNotCalled(suite.T(), "SaveAuditLog", mock.Anything, mock.Anything)
}

func (suite *OverrideServiceTestSuite) TestApplyOverride_ConfirmWithoutSuggestionFails() {
	ctx := context.Background()
	suite.mockTxnRepo.On("FindTransactionByID", ctx, "txn-1").Return(suite.unmatchedTransaction(), nil).Once()

	result, err := suite.service.ApplyOverride(ctx, "txn-1", dto.OverrideRequest{Decision: dto.DecisionConfirmSuggestion}, "rev-1")

	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *OverrideServiceTestSuite) TestApplyOverride_AssignEntity() {
	ctx := context.Background()
	before := suite.unmatchedTransaction()
	after := *before
	after.MatchStatus = domain.MatchManual
	after.MatchedEntityType = entityTypePtr(domain.EntityExpense)
	after.MatchedEntityID = strPtr("exp-9")

	suite.mockTxnRepo.On("FindTransactionByID", ctx, "txn-1").Return(before, nil).Once()
	suite.mockCandidates.On("FindCandidate", ctx, domain.EntityExpense, "exp-9").Return(&domain.EntityCandidate{
		EntityID:    "exp-9",
		EntityType:  domain.EntityExpense,
		DisplayName: "Vendor Co",
	}, nil).Once()
	reason := "manually assigned expense Vendor Co: quarterly vendor payout"
	suite.mockTxnRepo.On("ApplyManualMatch", ctx, "txn-1", domain.EntityExpense, "exp-9", (*int)(nil), reason, "rev-1", mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockAuditRepo.On("SaveAuditLog", ctx, mock.MatchedBy(func(log domain.MatchAuditLog) bool {
		return log.Action == domain.ActionManualAssigned &&
			log.NewStatus == domain.MatchManual &&
			log.NewEntityID != nil && *log.NewEntityID == "exp-9" &&
			log.Confidence == nil
	})).Return(nil).Once()
	suite.mockTxnRepo.On("FindTransactionByID", ctx, "txn-1").Return(&after, nil).Once()

	req := dto.OverrideRequest{
		Decision:   dto.DecisionAssign,
		EntityType: strPtr("expense"),
		EntityID:   strPtr("exp-9"),
		Note:       strPtr("quarterly vendor payout"),
	}
	result, err := suite.service.ApplyOverride(ctx, "txn-1", req, "rev-1")

	suite.Require().NoError(err)
	suite.Equal(domain.MatchManual, result.MatchStatus)
	suite.mockTxnRepo.AssertExpectations(suite.T())
	suite.mockCandidates.AssertExpectations(suite.T())
}

func (suite *OverrideServiceTestSuite) TestApplyOverride_AssignSameEntityIsIdempotent() {
	ctx := context.Background()
	manual := suite.unmatchedTransaction()
	manual.MatchStatus = domain.MatchManual
	manual.MatchedEntityType = entityTypePtr(domain.EntityExpense)
	manual.MatchedEntityID = strPtr("exp-9")

	suite.mockTxnRepo.On("FindTransactionByID", ctx, "txn-1").Return(manual, nil).Once()
	suite.mockCandidates.On("FindCandidate", ctx, domain.EntityExpense, "exp-9").Return(&domain.EntityCandidate{
		EntityID:    "exp-9",
		EntityType:  domain.EntityExpense,
		DisplayName: "Vendor Co",
	}, nil).Once()

	req := dto.OverrideRequest{
		Decision:   dto.DecisionAssign,
		EntityType: strPtr("expense"),
		EntityID:   strPtr("exp-9"),
	}
	result, err := suite.service.ApplyOverride(ctx, "txn-1", req, "rev-1")

	suite.Require().NoError(err)
	suite.Equal(domain.MatchManual, result.MatchStatus)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "ApplyManualMatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *OverrideServiceTestSuite) TestApplyOverride_AssignRequiresEntityReference() {
	ctx := context.Background()
	suite.mockTxnRepo.On("FindTransactionByID", ctx, "txn-1").Return(suite.unmatchedTransaction(), nil).Once()

	result, err := suite.service.ApplyOverride(ctx, "txn-1", dto.OverrideRequest{Decision: dto.DecisionAssign}, "rev-1")

	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockCandidates.AssertNotCalled(suite.T(), "FindCandidate", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *OverrideServiceTestSuite) TestApplyOverride_AssignUnknownEntityType() {
	ctx := context.Background()
	suite.mockTxnRepo.On("FindTransactionByID", ctx, "txn-1").Return(suite.unmatchedTransaction(), nil).Once()

	req := dto.OverrideRequest{
		Decision:   dto.DecisionAssign,
		EntityType: strPtr("loan"),
		EntityID:   strPtr("loan-1"),
	}
	result, err := suite.service.ApplyOverride(ctx, "txn-1", req, "rev-1")

	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockCandidates.AssertNotCalled(suite.T(), "FindCandidate", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *OverrideServiceTestSuite) TestApplyOverride_AssignMissingEntity() {
	ctx := context.Background()
	suite.mockTxnRepo.On("FindTransactionByID", ctx, "txn-1").Return(suite.unmatchedTransaction(), nil).Once()
	suite.mockCandidates.On("FindCandidate", ctx, domain.EntitySettlement, "stl-404").Return(nil, apperrors.ErrNotFound).Once()

	req := dto.OverrideRequest{
		Decision:   dto.DecisionAssign,
		EntityType: strPtr("settlement"),
		EntityID:   strPtr("stl-404"),
	}
	result, err := suite.service.ApplyOverride(ctx, "txn-1", req, "rev-1")

	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "ApplyManualMatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *OverrideServiceTestSuite) TestApplyOverride_Ignore() {
	ctx := context.Background()
	before := suite.unmatchedTransaction()
	after := *before
	after.MatchStatus = domain.MatchIgnored

	suite.mockTxnRepo.On("FindTransactionByID", ctx, "txn-1").Return(before, nil).Once()
	suite.mockTxnRepo.On("MarkIgnored", ctx, "txn-1", "ignored by reviewer: duplicate row", "rev-1", mock.AnythingOfType("time.Time")).Return(nil).Once()
	// The decision stands even when the audit write fails.
	suite.mockAuditRepo.On("SaveAuditLog", ctx, mock.MatchedBy(func(log domain.MatchAuditLog) bool {
		return log.Action == domain.ActionIgnored &&
			log.NewStatus == domain.MatchIgnored &&
			log.NewEntityType == nil
	})).Return(assert.AnError).Once()
	suite.mockTxnRepo.On("FindTransactionByID", ctx, "txn-1").Return(&after, nil).Once()

	req := dto.OverrideRequest{Decision: dto.DecisionIgnore, Note: strPtr("duplicate row")}
	result, err := suite.service.ApplyOverride(ctx, "txn-1", req, "rev-1")

	suite.Require().NoError(err)
	suite.Equal(domain.MatchIgnored, result.MatchStatus)
	suite.mockTxnRepo.AssertExpectations(suite.T())
	suite.mockAuditRepo.AssertExpectations(suite.T())
}

func (suite *OverrideServiceTestSuite) TestApplyOverride_IgnoreReplayIsIdempotent() {
	ctx := context.Background()
	ignored := suite.unmatchedTransaction()
	ignored.MatchStatus = domain.MatchIgnored

	suite.mockTxnRepo.On("FindTransactionByID", ctx, "txn-1").Return(ignored, nil).Once()

	result, err := suite.service.ApplyOverride(ctx, "txn-1", dto.OverrideRequest{Decision: dto.DecisionIgnore}, "rev-1")

	suite.Require().NoError(err)
	suite.Equal(domain.MatchIgnored, result.MatchStatus)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "MarkIgnored", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *OverrideServiceTestSuite) TestApplyOverride_UnknownDecision() {
	ctx := context.Background()
	suite.mockTxnRepo.On("FindTransactionByID", ctx, "txn-1").Return(suite.unmatchedTransaction(), nil).Once()

	result, err := suite.service.ApplyOverride(ctx, "txn-1", dto.OverrideRequest{Decision: "promote"}, "rev-1")

	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *OverrideServiceTestSuite) TestApplyOverride_TransactionNotFound() {
	ctx := context.Background()
	suite.mockTxnRepo.On("FindTransactionByID", ctx, "txn-404").Return(nil, apperrors.ErrNotFound).Once()

	result, err := suite.service.ApplyOverride(ctx, "txn-404", dto.OverrideRequest{Decision: dto.DecisionIgnore}, "rev-1")

	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

// --- Run Suite ---

func TestOverrideService(t *testing.T) {
	suite.Run(t, new(OverrideServiceTestSuite))
}
