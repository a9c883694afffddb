package dto

import (
	"time"

	"github.com/aggrandize/bankrecon/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ListTransactionsParams are the filters for listing a statement's transactions.
type ListTransactionsParams struct {
	Status    *domain.MatchStatus
	Limit     int
	NextToken *string
}

// TransactionResponse defines the data returned for a bank transaction,
// including the retained suggestion for the review UI.
type TransactionResponse struct {
	TransactionID         string                      `json:"transactionID"`
	StatementID           string                      `json:"statementID"`
	TransactionDate       time.Time                   `json:"transactionDate"`
	ValueDate             *time.Time                  `json:"valueDate"`
	PostedDate            *time.Time                  `json:"postedDate"`
	Description           string                      `json:"description"`
	NormalizedDescription string                      `json:"normalizedDescription"`
	Amount                decimal.Decimal             `json:"amount"`
	Direction             domain.TransactionDirection `json:"direction"`
	RunningBalance        *decimal.Decimal            `json:"runningBalance"`
	PaymentMethod         *string                     `json:"paymentMethod"`
	CounterpartyName      *string                     `json:"counterpartyName"`
	CounterpartyBankCode  *string                     `json:"counterpartyBankCode"`
	PurposeLabel          *string                     `json:"purposeLabel"`
	ReferenceNumber       *string                     `json:"referenceNumber"`
	MatchStatus           domain.MatchStatus          `json:"matchStatus"`
	MatchedEntityType     *domain.EntityType          `json:"matchedEntityType"`
	MatchedEntityID       *string                     `json:"matchedEntityID"`
	MatchConfidence       *int                        `json:"matchConfidence"`
	MatchReason           *string                     `json:"matchReason"`
	SuggestedEntityType   *domain.EntityType          `json:"suggestedEntityType"`
	SuggestedEntityID     *string                     `json:"suggestedEntityID"`
	SuggestedConfidence   *int                        `json:"suggestedConfidence"`
	SuggestedReason       *string                     `json:"suggestedReason"`
	MatchedAt             *time.Time                  `json:"matchedAt"`
	MatchedBy             *string                     `json:"matchedBy"`
	CreatedAt             time.Time                   `json:"createdAt"`
}

// ListTransactionsResponse wraps a page of transactions with the pagination token.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}

// AuditLogResponse defines one match decision history entry.
type AuditLogResponse struct {
	AuditID            string             `json:"auditID"`
	TransactionID      string             `json:"transactionID"`
	Action             domain.MatchAction `json:"action"`
	PreviousStatus     domain.MatchStatus `json:"previousStatus"`
	NewStatus          domain.MatchStatus `json:"newStatus"`
	PreviousEntityType *domain.EntityType `json:"previousEntityType"`
	PreviousEntityID   *string            `json:"previousEntityID"`
	NewEntityType      *domain.EntityType `json:"newEntityType"`
	NewEntityID        *string            `json:"newEntityID"`
	Confidence         *int               `json:"confidence"`
	Reason             string             `json:"reason"`
	PerformedBy        string             `json:"performedBy"`
	CreatedAt          time.Time          `json:"createdAt"`
}

// AuditTrailResponse wraps a transaction's match decision history.
type AuditTrailResponse struct {
	AuditLogs []AuditLogResponse `json:"auditLogs"`
}

// ToTransactionResponse converts a domain.BankTransaction to TransactionResponse DTO
func ToTransactionResponse(t *domain.BankTransaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:         t.TransactionID,
		StatementID:           t.StatementID,
		TransactionDate:       t.TransactionDate,
		ValueDate:             t.ValueDate,
		PostedDate:            t.PostedDate,
		Description:           t.Description,
		NormalizedDescription: t.NormalizedDescription,
		Amount:                t.Amount,
		Direction:             t.Direction,
		RunningBalance:        t.RunningBalance,
		PaymentMethod:         t.PaymentMethod,
		CounterpartyName:      t.CounterpartyName,
		CounterpartyBankCode:  t.CounterpartyBankCode,
		PurposeLabel:          t.PurposeLabel,
		ReferenceNumber:       t.ReferenceNumber,
		MatchStatus:           t.MatchStatus,
		MatchedEntityType:     t.MatchedEntityType,
		MatchedEntityID:       t.MatchedEntityID,
		MatchConfidence:       t.MatchConfidence,
		MatchReason:           t.MatchReason,
		SuggestedEntityType:   t.SuggestedEntityType,
		SuggestedEntityID:     t.SuggestedEntityID,
		SuggestedConfidence:   t.SuggestedConfidence,
		SuggestedReason:       t.SuggestedReason,
		MatchedAt:             t.MatchedAt,
		MatchedBy:             t.MatchedBy,
		CreatedAt:             t.CreatedAt,
	}
}

// ToTransactionResponses converts a slice of domain transactions to DTOs.
func ToTransactionResponses(txns []domain.BankTransaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(txns))
	for i := range txns {
		responses[i] = ToTransactionResponse(&txns[i])
	}
	return responses
}

// ToAuditLogResponse converts a domain.MatchAuditLog to AuditLogResponse DTO
func ToAuditLogResponse(l *domain.MatchAuditLog) AuditLogResponse {
	return AuditLogResponse{
		AuditID:            l.AuditID,
		TransactionID:      l.TransactionID,
		Action:             l.Action,
		PreviousStatus:     l.PreviousStatus,
		NewStatus:          l.NewStatus,
		PreviousEntityType: l.PreviousEntityType,
		PreviousEntityID:   l.PreviousEntityID,
		NewEntityType:      l.NewEntityType,
		NewEntityID:        l.NewEntityID,
		Confidence:         l.Confidence,
		Reason:             l.Reason,
		PerformedBy:        l.PerformedBy,
		CreatedAt:          l.CreatedAt,
	}
}

// ToAuditLogResponses converts a slice of audit entries to DTOs.
func ToAuditLogResponses(logs []domain.MatchAuditLog) []AuditLogResponse {
	responses := make([]AuditLogResponse, len(logs))
	for i := range logs {
		responses[i] = ToAuditLogResponse(&logs[i])
	}
	return responses
}
