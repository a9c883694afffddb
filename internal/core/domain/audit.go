package domain

import "time"

// MatchAction names what changed a transaction's match state.
type MatchAction string

const (
	ActionAutoMatched         MatchAction = "auto_matched"
	ActionManualAssigned      MatchAction = "manual_assigned"
	ActionSuggestionConfirmed MatchAction = "suggestion_confirmed"
	ActionIgnored             MatchAction = "ignored"
)

// MatchAuditLog records one match decision against a transaction, automatic
// or manual, with enough before/after state to reconstruct the history.
type MatchAuditLog struct {
	AuditID            string      `json:"auditID"`
	TransactionID      string      `json:"transactionID"`
	Action             MatchAction `json:"action"`
	PreviousStatus     MatchStatus `json:"previousStatus"`
	NewStatus          MatchStatus `json:"newStatus"`
	PreviousEntityType *EntityType `json:"previousEntityType"`
	PreviousEntityID   *string     `json:"previousEntityID"`
	NewEntityType      *EntityType `json:"newEntityType"`
	NewEntityID        *string     `json:"newEntityID"`
	Confidence         *int        `json:"confidence"`
	Reason             string      `json:"reason"`
	PerformedBy        string      `json:"performedBy"`
	CreatedAt          time.Time   `json:"createdAt"`
}
