package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExtractionResult is the structured output of the external extraction
// service for one statement. The core never inspects statement bytes itself;
// this shape is the entire collaborator contract.
type ExtractionResult struct {
	BankName           string
	AccountNumberLast4 string
	PeriodStart        *time.Time
	PeriodEnd          *time.Time
	OpeningBalance     *decimal.Decimal
	ClosingBalance     *decimal.Decimal
	Rows               []ExtractedRow
}

// ExtractedRow is one raw statement line as reported by the extraction
// service, before normalization. Date may be nil for malformed rows.
type ExtractedRow struct {
	Date        *time.Time
	Description string
	Amount      decimal.Decimal
	Direction   TransactionDirection
	Balance     *decimal.Decimal
	Reference   string
	Confidence  float64 // per-row extraction confidence, 0..1
}
