package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aggrandize/bankrecon/internal/apperrors"
	"github.com/aggrandize/bankrecon/internal/core/domain"
	portssvc "github.com/aggrandize/bankrecon/internal/core/ports/services"
	"github.com/aggrandize/bankrecon/internal/dto"
	"github.com/aggrandize/bankrecon/internal/handlers"
	"github.com/aggrandize/bankrecon/internal/middleware" // Needed for JWT secret
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock TransactionService ---
type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) GetTransactionByID(ctx context.Context, transactionID string) (*domain.BankTransaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankTransaction), args.Error(1)
}
func (m *MockTransactionService) ListTransactionsByStatement(ctx context.Context, statementID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	args := m.Called(ctx, statementID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListTransactionsResponse), args.Error(1)
}
func (m *MockTransactionService) GetAuditTrail(ctx context.Context, transactionID string) ([]domain.MatchAuditLog, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MatchAuditLog), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.TransactionSvcFacade = (*MockTransactionService)(nil)

// --- Mock OverrideService ---
type MockOverrideService struct {
	mock.Mock
}

func (m *MockOverrideService) ApplyOverride(ctx context.Context, transactionID string, req dto.OverrideRequest, reviewerID string) (*domain.BankTransaction, error) {
	args := m.Called(ctx, transactionID, req, reviewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankTransaction), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.OverrideSvcFacade = (*MockOverrideService)(nil)

// --- Test Suite ---
type TransactionHandlerTestSuite struct {
	suite.Suite
	router                 *gin.Engine
	mockTransactionService *MockTransactionService
	mockOverrideService    *MockOverrideService
	jwtSecret              string // Store JWT secret for token generation
}

func strPtr(s string) *string {
	return &s
}

func intPtr(i int) *int {
	return &i
}

func entityTypePtr(t domain.EntityType) *domain.EntityType {
	return &t
}

// generateTestToken creates a dummy JWT for testing.
func (suite *TransactionHandlerTestSuite) generateTestToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    "bankrecon-test",
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedString, err := token.SignedString([]byte(suite.jwtSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signedString
}

func (suite *TransactionHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"

	// Use the actual AuthMiddleware so reviewer identity flows from the token
	suite.router.Use(middleware.AuthMiddleware(suite.jwtSecret))

	suite.mockTransactionService = new(MockTransactionService)
	suite.mockOverrideService = new(MockOverrideService)

	v1 := suite.router.Group("/api/v1")
	handlers.RegisterTransactionRoutes(v1, suite.mockTransactionService, suite.mockOverrideService)
}

// --- Test Cases ---

func (suite *TransactionHandlerTestSuite) TestListStatementTransactions_Success() {
	statementID := uuid.NewString()
	reviewerID := uuid.NewString()

	expectedTransactions := []dto.TransactionResponse{
		{
			TransactionID:   uuid.NewString(),
			StatementID:     statementID,
			TransactionDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			Description:     "NEFT ACME TECHNOLOGIES SALARY MAR2025",
			Amount:          decimal.NewFromInt(85000),
			Direction:       domain.Credit,
			MatchStatus:     domain.MatchMatched,
			CreatedAt:       time.Now().UTC(),
		},
		{
			TransactionID:   uuid.NewString(),
			StatementID:     statementID,
			TransactionDate: time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC),
			Description:     "UPI NETFLIX RENEWAL",
			Amount:          decimal.NewFromFloat(649),
			Direction:       domain.Debit,
			MatchStatus:     domain.MatchMatched,
			CreatedAt:       time.Now().UTC(),
		},
	}
	expectedResponse := &dto.ListTransactionsResponse{
		Transactions: expectedTransactions,
		NextToken:    strPtr("cursor-2"),
	}

	suite.mockTransactionService.On("ListTransactionsByStatement",
		mock.AnythingOfType("*context.valueCtx"), // Context carries values from middleware
		statementID,
		mock.MatchedBy(func(p dto.ListTransactionsParams) bool {
			return p.Status != nil && *p.Status == domain.MatchMatched &&
				p.Limit == 25 &&
				p.NextToken != nil && *p.NextToken == "cursor-1"
		}),
	).Return(expectedResponse, nil).Once()

	url := fmt.Sprintf("/api/v1/statements/%s/transactions?status=matched&limit=25&nextToken=cursor-1", statementID)
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(reviewerID))
	req.Header.Set("Accept", "application/json")

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code, "Expected status OK")

	var responseBody dto.ListTransactionsResponse
	err := json.Unmarshal(w.Body.Bytes(), &responseBody)
	suite.NoError(err, "Failed to unmarshal response body")
	suite.Len(responseBody.Transactions, len(expectedTransactions))
	if len(responseBody.Transactions) == len(expectedTransactions) {
		suite.Equal(expectedTransactions[0].TransactionID, responseBody.Transactions[0].TransactionID)
		suite.Equal(expectedTransactions[1].TransactionID, responseBody.Transactions[1].TransactionID)
	}
	suite.Require().NotNil(responseBody.NextToken)
	suite.Equal("cursor-2", *responseBody.NextToken)

	suite.mockTransactionService.AssertExpectations(suite.T())
	suite.mockOverrideService.AssertNotCalled(suite.T(), "ApplyOverride", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TransactionHandlerTestSuite) TestListStatementTransactions_InvalidStatusFilter() {
	statementID := uuid.NewString()

	url := fmt.Sprintf("/api/v1/statements/%s/transactions?status=settled", statementID)
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(uuid.NewString()))

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockTransactionService.AssertNotCalled(suite.T(), "ListTransactionsByStatement", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TransactionHandlerTestSuite) TestListStatementTransactions_MissingAuthToken() {
	url := fmt.Sprintf("/api/v1/statements/%s/transactions", uuid.NewString())
	req, _ := http.NewRequest(http.MethodGet, url, nil)

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockTransactionService.AssertNotCalled(suite.T(), "ListTransactionsByStatement", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TransactionHandlerTestSuite) TestOverrideTransaction_ConfirmSuggestion() {
	transactionID := uuid.NewString()
	reviewerID := uuid.NewString()

	confirmed := &domain.BankTransaction{
		TransactionID:     transactionID,
		MatchStatus:       domain.MatchManual,
		MatchedEntityType: entityTypePtr(domain.EntitySubscription),
		MatchedEntityID:   strPtr("sub-7"),
		MatchConfidence:   intPtr(72),
		MatchedBy:         &reviewerID,
	}

	suite.mockOverrideService.On("ApplyOverride",
		mock.AnythingOfType("*context.valueCtx"),
		transactionID,
		mock.MatchedBy(func(r dto.OverrideRequest) bool {
			return r.Decision == "confirm_suggestion" && r.EntityType == nil && r.EntityID == nil
		}),
		reviewerID, // Expect the reviewer ID from the token
	).Return(confirmed, nil).Once()

	body := []byte(`{"decision": "confirm_suggestion"}`)
	url := fmt.Sprintf("/api/v1/transactions/%s/override", transactionID)
	req, _ := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(reviewerID))

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)

	var responseBody dto.TransactionResponse
	err := json.Unmarshal(w.Body.Bytes(), &responseBody)
	suite.NoError(err, "Failed to unmarshal response body")
	suite.Equal(domain.MatchManual, responseBody.MatchStatus)
	suite.Require().NotNil(responseBody.MatchedEntityID)
	suite.Equal("sub-7", *responseBody.MatchedEntityID)

	suite.mockOverrideService.AssertExpectations(suite.T())
}

func (suite *TransactionHandlerTestSuite) TestOverrideTransaction_UnknownDecisionFailsBinding() {
	url := fmt.Sprintf("/api/v1/transactions/%s/override", uuid.NewString())
	req, _ := http.NewRequest(http.MethodPost, url, bytes.NewReader([]byte(`{"decision": "promote"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(uuid.NewString()))

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockOverrideService.AssertNotCalled(suite.T(), "ApplyOverride", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TransactionHandlerTestSuite) TestOverrideTransaction_ServiceValidationError() {
	transactionID := uuid.NewString()
	reviewerID := uuid.NewString()

	suite.mockOverrideService.On("ApplyOverride",
		mock.AnythingOfType("*context.valueCtx"),
		transactionID,
		mock.AnythingOfType("dto.OverrideRequest"),
		reviewerID,
	).Return(nil, fmt.Errorf("%w: transaction has no retained suggestion to confirm", apperrors.ErrValidation)).Once()

	url := fmt.Sprintf("/api/v1/transactions/%s/override", transactionID)
	req, _ := http.NewRequest(http.MethodPost, url, bytes.NewReader([]byte(`{"decision": "confirm_suggestion"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(reviewerID))

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusBadRequest, w.Code)

	var responseBody map[string]string
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &responseBody))
	suite.Contains(responseBody["error"], "no retained suggestion")
}

func (suite *TransactionHandlerTestSuite) TestOverrideTransaction_TransactionNotFound() {
	transactionID := uuid.NewString()
	reviewerID := uuid.NewString()

	suite.mockOverrideService.On("ApplyOverride",
		mock.AnythingOfType("*context.valueCtx"),
		transactionID,
		mock.AnythingOfType("dto.OverrideRequest"),
		reviewerID,
	).Return(nil, apperrors.ErrNotFound).Once()

	url := fmt.Sprintf("/api/v1/transactions/%s/override", transactionID)
	req, _ := http.NewRequest(http.MethodPost, url, bytes.NewReader([]byte(`{"decision": "ignore"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(reviewerID))

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *TransactionHandlerTestSuite) TestGetTransaction_NotFound() {
	transactionID := uuid.NewString()

	suite.mockTransactionService.On("GetTransactionByID",
		mock.AnythingOfType("*context.valueCtx"),
		transactionID,
	).Return(nil, apperrors.ErrNotFound).Once()

	url := fmt.Sprintf("/api/v1/transactions/%s", transactionID)
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(uuid.NewString()))

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *TransactionHandlerTestSuite) TestGetAuditTrail_Success() {
	transactionID := uuid.NewString()

	logs := []domain.MatchAuditLog{
		{
			AuditID:        uuid.NewString(),
			TransactionID:  transactionID,
			Action:         domain.ActionAutoMatched,
			PreviousStatus: domain.MatchUnmatched,
			NewStatus:      domain.MatchMatched,
			Confidence:     intPtr(94),
			PerformedBy:    "system",
			CreatedAt:      time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		},
		{
			AuditID:        uuid.NewString(),
			TransactionID:  transactionID,
			Action:         domain.ActionManualAssigned,
			PreviousStatus: domain.MatchMatched,
			NewStatus:      domain.MatchManual,
			PerformedBy:    uuid.NewString(),
			CreatedAt:      time.Date(2025, 3, 11, 15, 30, 0, 0, time.UTC),
		},
	}

	suite.mockTransactionService.On("GetAuditTrail",
		mock.AnythingOfType("*context.valueCtx"),
		transactionID,
	).Return(logs, nil).Once()

	url := fmt.Sprintf("/api/v1/transactions/%s/audit", transactionID)
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(uuid.NewString()))

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)

	var responseBody dto.AuditTrailResponse
	err := json.Unmarshal(w.Body.Bytes(), &responseBody)
	suite.NoError(err, "Failed to unmarshal response body")
	suite.Require().Len(responseBody.AuditLogs, 2)
	suite.Equal(domain.ActionAutoMatched, responseBody.AuditLogs[0].Action)
	suite.Equal(domain.ActionManualAssigned, responseBody.AuditLogs[1].Action)
}

// --- Run Test Suite ---
func TestTransactionHandler(t *testing.T) {
	suite.Run(t, new(TransactionHandlerTestSuite))
}
