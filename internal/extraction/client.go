package extraction

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aggrandize/bankrecon/internal/apperrors"
	"github.com/aggrandize/bankrecon/internal/core/domain"
	portssvc "github.com/aggrandize/bankrecon/internal/core/ports/services"
	"github.com/aggrandize/bankrecon/internal/middleware"
	"github.com/aggrandize/bankrecon/internal/platform/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	extractPath      = "/v1/extract"
	wireDateFormat   = "2006-01-02"
	maxResponseBytes = 32 << 20
)

var supportedMimeTypes = map[string]bool{
	"application/pdf": true,
	"text/csv":        true,
	"image/png":       true,
	"image/jpeg":      true,
}

// HTTPAdapter calls the external statement extraction service. One call per
// statement, synchronous, no retries: a failure is the statement's terminal
// outcome.
type HTTPAdapter struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// Ensure HTTPAdapter implements portssvc.ExtractionAdapter
var _ portssvc.ExtractionAdapter = (*HTTPAdapter)(nil)

func NewHTTPAdapter(cfg *config.Config) *HTTPAdapter {
	timeout := cfg.ExtractorTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPAdapter{
		baseURL: strings.TrimRight(cfg.ExtractorBaseURL, "/"),
		apiKey:  cfg.ExtractorAPIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type extractRequest struct {
	FileB64  string `json:"file_b64"`
	MimeType string `json:"mime_type"`
}

type extractResponse struct {
	BankName           string           `json:"bank_name"`
	AccountNumberLast4 string           `json:"account_number_last4"`
	PeriodStart        *string          `json:"period_start"`
	PeriodEnd          *string          `json:"period_end"`
	OpeningBalance     *decimal.Decimal `json:"opening_balance"`
	ClosingBalance     *decimal.Decimal `json:"closing_balance"`
	Rows               []extractRow     `json:"rows"`
}

type extractRow struct {
	Date        *string          `json:"date"`
	Description string           `json:"description"`
	Amount      decimal.Decimal  `json:"amount"`
	Direction   string           `json:"direction"`
	Balance     *decimal.Decimal `json:"balance"`
	Reference   string           `json:"reference"`
	Confidence  float64          `json:"confidence"`
}

// Extract sends the statement bytes off for extraction and returns the
// structured result. Every failure wraps apperrors.ErrExtraction so the
// caller can mark the statement failed.
func (a *HTTPAdapter) Extract(ctx context.Context, fileBytes []byte, mimeType string) (*domain.ExtractionResult, error) {
	if !supportedMimeTypes[mimeType] {
		return nil, fmt.Errorf("%w: unsupported file type %q", apperrors.ErrExtraction, mimeType)
	}

	logger := middleware.GetLoggerFromCtx(ctx)
	reqID := uuid.NewString()
	start := time.Now()

	payload, err := json.Marshal(extractRequest{
		FileB64:  base64.StdEncoding.EncodeToString(fileBytes),
		MimeType: mimeType,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode request: %v", apperrors.ErrExtraction, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+extractPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build request: %v", apperrors.ErrExtraction, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	logger.Info("extraction.http.request",
		"req_id", reqID,
		"mime_type", mimeType,
		"content_length", len(payload),
	)

	resp, err := a.client.Do(req)
	if err != nil {
		logger.Error("extraction.http.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, fmt.Errorf("%w: service unavailable: %v", apperrors.ErrExtraction, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: service unavailable: %v", apperrors.ErrExtraction, err)
	}

	logger.Info("extraction.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(body),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: service returned status %d", apperrors.ErrExtraction, resp.StatusCode)
	}

	if err := validateResponse(body); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", apperrors.ErrExtraction, err)
	}
	var decoded extractResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", apperrors.ErrExtraction, err)
	}

	return toDomainResult(decoded), nil
}

func toDomainResult(r extractResponse) *domain.ExtractionResult {
	result := &domain.ExtractionResult{
		BankName:           r.BankName,
		AccountNumberLast4: r.AccountNumberLast4,
		PeriodStart:        parseWireDate(r.PeriodStart),
		PeriodEnd:          parseWireDate(r.PeriodEnd),
		OpeningBalance:     r.OpeningBalance,
		ClosingBalance:     r.ClosingBalance,
		Rows:               make([]domain.ExtractedRow, 0, len(r.Rows)),
	}
	for _, row := range r.Rows {
		result.Rows = append(result.Rows, domain.ExtractedRow{
			// An unparseable date stays nil and the row is tallied as
			// malformed downstream.
			Date:        parseWireDate(row.Date),
			Description: row.Description,
			Amount:      row.Amount,
			Direction:   domain.TransactionDirection(row.Direction),
			Balance:     row.Balance,
			Reference:   row.Reference,
			Confidence:  row.Confidence,
		})
	}
	return result
}

func parseWireDate(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(wireDateFormat, *s)
	if err != nil {
		return nil
	}
	return &t
}
