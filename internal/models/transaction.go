package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionDirection indicates money flowing out of (debit) or into (credit) the account.
type TransactionDirection string

const (
	Debit  TransactionDirection = "debit"
	Credit TransactionDirection = "credit"
)

// MatchStatus tracks a transaction through the reconciliation lifecycle.
type MatchStatus string

const (
	MatchUnmatched MatchStatus = "unmatched"
	MatchMatched   MatchStatus = "matched"
	MatchManual    MatchStatus = "manual"
	MatchIgnored   MatchStatus = "ignored"
)

// BankTransaction represents a single normalized statement row.
// Amount is always positive; Direction carries the sign.
type BankTransaction struct {
	TransactionID         string               `db:"transaction_id"`
	StatementID           string               `db:"statement_id"`
	TransactionDate       time.Time            `db:"transaction_date"`
	ValueDate             *time.Time           `db:"value_date"`
	PostedDate            *time.Time           `db:"posted_date"`
	Description           string               `db:"description"`
	NormalizedDescription string               `db:"normalized_description"`
	Amount                decimal.Decimal      `db:"amount"`
	Direction             TransactionDirection `db:"direction"`
	RunningBalance        *decimal.Decimal     `db:"running_balance"`
	PaymentMethod         *string              `db:"payment_method"`
	CounterpartyName      *string              `db:"counterparty_name"`
	CounterpartyBankCode  *string              `db:"counterparty_bank_code"`
	PurposeLabel          *string              `db:"purpose_label"`
	ReferenceNumber       *string              `db:"reference_number"`
	ImportHash            string               `db:"import_hash"` // Dedup key within a statement
	MatchStatus           MatchStatus          `db:"match_status"`
	MatchedEntityType     *string              `db:"matched_entity_type"`
	MatchedEntityID       *string              `db:"matched_entity_id"`
	MatchConfidence       *int                 `db:"match_confidence"`
	MatchReason           *string              `db:"match_reason"`
	SuggestedEntityType   *string              `db:"suggested_entity_type"`
	SuggestedEntityID     *string              `db:"suggested_entity_id"`
	SuggestedConfidence   *int                 `db:"suggested_confidence"`
	SuggestedReason       *string              `db:"suggested_reason"`
	MatchedAt             *time.Time           `db:"matched_at"`
	MatchedBy             *string              `db:"matched_by"`
	AuditFields
}
