package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatementStatus is the processing state of an uploaded statement.
// Transitions: pending -> processing -> completed | failed.
// failed is terminal and only ever caused by an extraction failure.
type StatementStatus string

const (
	StatementPending    StatementStatus = "pending"
	StatementProcessing StatementStatus = "processing"
	StatementCompleted  StatementStatus = "completed"
	StatementFailed     StatementStatus = "failed"
)

// BankStatement represents one uploaded bank document covering a date range.
// Created on upload; mutated only by extraction processing and reconciliation
// runs. Deleting a statement cascades to its transactions.
type BankStatement struct {
	StatementID         string           `json:"statementID"`
	AccountID           *string          `json:"accountID"` // optional at upload, resolved during extraction
	FileName            string           `json:"fileName"`
	FileType            string           `json:"fileType"` // declared MIME type
	Status              StatementStatus  `json:"status"`
	PeriodStart         *time.Time       `json:"periodStart"`
	PeriodEnd           *time.Time       `json:"periodEnd"`
	OpeningBalance      *decimal.Decimal `json:"openingBalance"`
	ClosingBalance      *decimal.Decimal `json:"closingBalance"`
	TotalCredits        decimal.Decimal  `json:"totalCredits"`
	TotalDebits         decimal.Decimal  `json:"totalDebits"`
	TotalTransactions   int              `json:"totalTransactions"`
	MatchedTransactions int              `json:"matchedTransactions"` // rows with match_status matched or manual
	MalformedRows       int              `json:"malformedRows"`
	ErrorMessage        *string          `json:"errorMessage"`
	ProcessedAt         *time.Time       `json:"processedAt"`
	AuditFields
}

// MatchStatusSummary aggregates one statement's rows for a single match
// status: how many there are and how much money flows each way.
type MatchStatusSummary struct {
	Status      MatchStatus     `json:"status"`
	Count       int             `json:"count"`
	CreditTotal decimal.Decimal `json:"creditTotal"`
	DebitTotal  decimal.Decimal `json:"debitTotal"`
}
