package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatementStatus tracks a statement through its processing lifecycle.
type StatementStatus string

const (
	StatementPending    StatementStatus = "pending"
	StatementProcessing StatementStatus = "processing"
	StatementCompleted  StatementStatus = "completed"
	StatementFailed     StatementStatus = "failed"
)

// BankStatement represents an uploaded bank statement row.
// Extraction-derived columns stay nil until the extractor has run.
type BankStatement struct {
	StatementID         string           `db:"statement_id"`
	AccountID           *string          `db:"account_id"` // Nullable: linked once extraction identifies the account
	FileName            string           `db:"file_name"`
	FileType            string           `db:"file_type"`
	Status              StatementStatus  `db:"status"`
	PeriodStart         *time.Time       `db:"period_start"`
	PeriodEnd           *time.Time       `db:"period_end"`
	OpeningBalance      *decimal.Decimal `db:"opening_balance"`
	ClosingBalance      *decimal.Decimal `db:"closing_balance"`
	TotalCredits        decimal.Decimal  `db:"total_credits"`
	TotalDebits         decimal.Decimal  `db:"total_debits"`
	TotalTransactions   int              `db:"total_transactions"`
	MatchedTransactions int              `db:"matched_transactions"`
	MalformedRows       int              `db:"malformed_rows"`
	ErrorMessage        *string          `db:"error_message"`
	ProcessedAt         *time.Time       `db:"processed_at"`
	AuditFields
}
