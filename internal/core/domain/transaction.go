package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionDirection indicates whether a statement line debits or credits the account.
type TransactionDirection string

const (
	Debit  TransactionDirection = "debit"
	Credit TransactionDirection = "credit"
)

// MatchStatus is the reconciliation state of one transaction.
type MatchStatus string

const (
	MatchUnmatched MatchStatus = "unmatched"
	MatchMatched   MatchStatus = "matched" // claimed automatically by a reconciliation run
	MatchManual    MatchStatus = "manual"  // assigned or confirmed by a human override
	MatchIgnored   MatchStatus = "ignored" // permanently excluded from automatic matching
)

// Reconciled reports whether the transaction has been settled against a target entity.
func (s MatchStatus) Reconciled() bool {
	return s == MatchMatched || s == MatchManual
}

// BankTransaction is one line item belonging to exactly one statement.
// Amount is always positive; Direction carries the sign.
//
// Invariant: MatchedEntityType/MatchedEntityID are non-nil iff
// MatchStatus is matched or manual. The suggestion fields hold the best
// below-threshold candidate retained for the review UI and never
// constitute a claim.
type BankTransaction struct {
	TransactionID         string               `json:"transactionID"`
	StatementID           string               `json:"statementID"`
	TransactionDate       time.Time            `json:"transactionDate"`
	ValueDate             *time.Time           `json:"valueDate"`
	PostedDate            *time.Time           `json:"postedDate"`
	Description           string               `json:"description"` // raw, as extracted
	NormalizedDescription string               `json:"normalizedDescription"`
	Amount                decimal.Decimal      `json:"amount"`
	Direction             TransactionDirection `json:"direction"`
	RunningBalance        *decimal.Decimal     `json:"runningBalance"`
	PaymentMethod         *string              `json:"paymentMethod"` // inferred: NEFT, UPI, ...
	CounterpartyName      *string              `json:"counterpartyName"`
	CounterpartyBankCode  *string              `json:"counterpartyBankCode"`
	PurposeLabel          *string              `json:"purposeLabel"` // inferred: SALARY, SUBSCRIPTION, ...
	ReferenceNumber       *string              `json:"referenceNumber"`
	ImportHash            string               `json:"-"` // dedup key, unique per statement, not user-visible
	MatchStatus           MatchStatus          `json:"matchStatus"`
	MatchedEntityType     *EntityType          `json:"matchedEntityType"`
	MatchedEntityID       *string              `json:"matchedEntityID"`
	MatchConfidence       *int                 `json:"matchConfidence"` // 0-100
	MatchReason           *string              `json:"matchReason"`
	SuggestedEntityType   *EntityType          `json:"suggestedEntityType"`
	SuggestedEntityID     *string              `json:"suggestedEntityID"`
	SuggestedConfidence   *int                 `json:"suggestedConfidence"`
	SuggestedReason       *string              `json:"suggestedReason"`
	MatchedAt             *time.Time           `json:"matchedAt"`
	MatchedBy             *string              `json:"matchedBy"` // user ID for overrides, "system" for automatic claims
	AuditFields
}
