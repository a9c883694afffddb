package dto

import (
	"time"

	"github.com/aggrandize/bankrecon/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SubmitStatementInput carries one uploaded statement file into the intake
// pipeline. Populated by the handler from the multipart form, not bound from
// a JSON body.
type SubmitStatementInput struct {
	AccountID *string
	FileName  string
	MimeType  string
	FileBytes []byte
}

// ListStatementsParams are the filters for listing statements.
type ListStatementsParams struct {
	AccountID *string
	Status    *domain.StatementStatus
	Limit     int
	Offset    int
}

// StatementResponse defines the data returned for a statement.
// Mirrors domain.BankStatement.
type StatementResponse struct {
	StatementID         string                 `json:"statementID"`
	AccountID           *string                `json:"accountID"`
	FileName            string                 `json:"fileName"`
	FileType            string                 `json:"fileType"`
	Status              domain.StatementStatus `json:"status"`
	PeriodStart         *time.Time             `json:"periodStart"`
	PeriodEnd           *time.Time             `json:"periodEnd"`
	OpeningBalance      *decimal.Decimal       `json:"openingBalance"`
	ClosingBalance      *decimal.Decimal       `json:"closingBalance"`
	TotalCredits        decimal.Decimal        `json:"totalCredits"`
	TotalDebits         decimal.Decimal        `json:"totalDebits"`
	TotalTransactions   int                    `json:"totalTransactions"`
	MatchedTransactions int                    `json:"matchedTransactions"`
	MalformedRows       int                    `json:"malformedRows"`
	ErrorMessage        *string                `json:"errorMessage"`
	ProcessedAt         *time.Time             `json:"processedAt"`
	CreatedAt           time.Time              `json:"createdAt"`
	CreatedBy           string                 `json:"createdBy"`
}

// ListStatementsResponse wraps a page of statements.
type ListStatementsResponse struct {
	Statements []StatementResponse `json:"statements"`
}

// StatementSummaryResponse aggregates a statement's transactions by match status.
type StatementSummaryResponse struct {
	StatementID  string                      `json:"statementID"`
	Statuses     []domain.MatchStatusSummary `json:"statuses"`
	TotalCredits decimal.Decimal             `json:"totalCredits"`
	TotalDebits  decimal.Decimal             `json:"totalDebits"`
}

// ToStatementResponse converts a domain.BankStatement to StatementResponse DTO
func ToStatementResponse(s *domain.BankStatement) StatementResponse {
	return StatementResponse{
		StatementID:         s.StatementID,
		AccountID:           s.AccountID,
		FileName:            s.FileName,
		FileType:            s.FileType,
		Status:              s.Status,
		PeriodStart:         s.PeriodStart,
		PeriodEnd:           s.PeriodEnd,
		OpeningBalance:      s.OpeningBalance,
		ClosingBalance:      s.ClosingBalance,
		TotalCredits:        s.TotalCredits,
		TotalDebits:         s.TotalDebits,
		TotalTransactions:   s.TotalTransactions,
		MatchedTransactions: s.MatchedTransactions,
		MalformedRows:       s.MalformedRows,
		ErrorMessage:        s.ErrorMessage,
		ProcessedAt:         s.ProcessedAt,
		CreatedAt:           s.CreatedAt,
		CreatedBy:           s.CreatedBy,
	}
}

// ToStatementResponses converts a slice of domain statements to DTOs.
func ToStatementResponses(statements []domain.BankStatement) []StatementResponse {
	responses := make([]StatementResponse, len(statements))
	for i := range statements {
		responses[i] = ToStatementResponse(&statements[i])
	}
	return responses
}
