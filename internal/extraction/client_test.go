package extraction_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aggrandize/bankrecon/internal/apperrors"
	"github.com/aggrandize/bankrecon/internal/core/domain"
	"github.com/aggrandize/bankrecon/internal/extraction"
	"github.com/aggrandize/bankrecon/internal/platform/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// --- Test Suite ---

type HTTPAdapterTestSuite struct {
	suite.Suite
}

func (suite *HTTPAdapterTestSuite) newAdapter(handler http.HandlerFunc) *extraction.HTTPAdapter {
	server := httptest.NewServer(handler)
	suite.T().Cleanup(server.Close)
	return extraction.NewHTTPAdapter(&config.Config{
		ExtractorBaseURL: server.URL,
		ExtractorAPIKey:  "test-key",
		ExtractorTimeout: 2 * time.Second,
	})
}

// --- Test Cases ---

func (suite *HTTPAdapterTestSuite) TestExtract_Success() {
	ctx := context.Background()
	fileBytes := []byte("%PDF-1.7 statement bytes")

	adapter := suite.newAdapter(func(w http.ResponseWriter, r *http.Request) {
		suite.Equal(http.MethodPost, r.Method)
		suite.Equal("/v1/extract", r.URL.Path)
		suite.Equal("Bearer test-key", r.Header.Get("Authorization"))
		suite.Equal("application/json", r.Header.Get("Content-Type"))

		var gotReq struct {
			FileB64  string `json:"file_b64"`
			MimeType string `json:"mime_type"`
		}
		suite.Require().NoError(json.NewDecoder(r.Body).Decode(&gotReq))
		suite.Equal("application/pdf", gotReq.MimeType)
		decoded, err := base64.StdEncoding.DecodeString(gotReq.FileB64)
		suite.Require().NoError(err)
		suite.Equal(fileBytes, decoded)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"bank_name": "HDFC Bank",
			"account_number_last4": "4242",
			"period_start": "2025-03-01",
			"period_end": "2025-03-31",
			"opening_balance": "12500.50",
			"closing_balance": 96051.50,
			"rows": [
				{
					"date": "2025-03-01",
					"description": "NEFT ACME TECHNOLOGIES SALARY MAR2025",
					"amount": "85000",
					"direction": "credit",
					"balance": "97500.50",
					"reference": "UTR2398",
					"confidence": 0.98
				},
				{
					"date": null,
					"description": "UPI NETFLIX RENEWAL",
					"amount": 649.00,
					"direction": "debit",
					"confidence": 0.61
				},
				{
					"date": "03/15/2025",
					"description": "POS AMAZON RETAIL",
					"amount": 1250,
					"direction": "debit",
					"confidence": 0.87
				}
			]
		}`)
	})

	result, err := adapter.Extract(ctx, fileBytes, "application/pdf")

	suite.Require().NoError(err)
	suite.Equal("HDFC Bank", result.BankName)
	suite.Equal("4242", result.AccountNumberLast4)
	suite.Require().NotNil(result.PeriodStart)
	suite.True(result.PeriodStart.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))
	suite.Require().NotNil(result.OpeningBalance)
	suite.True(result.OpeningBalance.Equal(decimal.RequireFromString("12500.50")))
	suite.Require().NotNil(result.ClosingBalance)
	suite.True(result.ClosingBalance.Equal(decimal.RequireFromString("96051.50")))

	suite.Require().Len(result.Rows, 3)
	first := result.Rows[0]
	suite.Require().NotNil(first.Date)
	suite.True(first.Date.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))
	suite.True(first.Amount.Equal(decimal.NewFromInt(85000)))
	suite.Equal(domain.Credit, first.Direction)
	suite.Equal("UTR2398", first.Reference)
	suite.InDelta(0.98, first.Confidence, 0.0001)

	second := result.Rows[1]
	suite.Nil(second.Date)
	suite.Nil(second.Balance)
	suite.Empty(second.Reference)
	suite.Equal(domain.Debit, second.Direction)

	// A date the service emits in the wrong layout is kept as a nil date so
	// the normalizer can tally the row instead of the whole statement failing.
	suite.Nil(result.Rows[2].Date)
}

func (suite *HTTPAdapterTestSuite) TestExtract_UnsupportedMimeTypeRejectedLocally() {
	ctx := context.Background()
	adapter := suite.newAdapter(func(w http.ResponseWriter, r *http.Request) {
		suite.Fail("extraction service should not be called for unsupported file types")
	})

	result, err := adapter.Extract(ctx, []byte("PK\x03\x04"), "application/zip")

	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrExtraction)
	suite.ErrorContains(err, "unsupported file type")
}

func (suite *HTTPAdapterTestSuite) TestExtract_Non200StatusFails() {
	ctx := context.Background()
	adapter := suite.newAdapter(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream OCR crashed", http.StatusBadGateway)
	})

	result, err := adapter.Extract(ctx, []byte("csv,bytes"), "text/csv")

	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrExtraction)
	suite.ErrorContains(err, "status 502")
}

func (suite *HTTPAdapterTestSuite) TestExtract_MissingRequiredFieldsFails() {
	ctx := context.Background()
	adapter := suite.newAdapter(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"bank_name": "HDFC Bank"}`)
	})

	result, err := adapter.Extract(ctx, []byte("%PDF-1.7"), "application/pdf")

	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrExtraction)
	suite.ErrorContains(err, "malformed response")
}

func (suite *HTTPAdapterTestSuite) TestExtract_RowConfidenceOutOfRangeFails() {
	ctx := context.Background()
	adapter := suite.newAdapter(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"bank_name": "HDFC Bank",
			"account_number_last4": "4242",
			"rows": [
				{"description": "POS AMAZON RETAIL", "amount": 10, "direction": "debit", "confidence": 1.4}
			]
		}`)
	})

	result, err := adapter.Extract(ctx, []byte("%PDF-1.7"), "application/pdf")

	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrExtraction)
	suite.ErrorContains(err, "malformed response")
}

func (suite *HTTPAdapterTestSuite) TestExtract_ServiceUnreachable() {
	ctx := context.Background()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	adapter := extraction.NewHTTPAdapter(&config.Config{
		ExtractorBaseURL: baseURL,
		ExtractorAPIKey:  "test-key",
		ExtractorTimeout: 2 * time.Second,
	})

	result, err := adapter.Extract(ctx, []byte("%PDF-1.7"), "application/pdf")

	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrExtraction)
	suite.ErrorContains(err, "service unavailable")
}

// --- Run Suite ---

func TestHTTPAdapter(t *testing.T) {
	suite.Run(t, new(HTTPAdapterTestSuite))
}
