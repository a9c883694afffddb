package models

import "time"

// MatchAction identifies what kind of reconciliation decision produced an audit entry.
type MatchAction string

const (
	ActionAutoMatched         MatchAction = "auto_matched"
	ActionManualAssigned      MatchAction = "manual_assigned"
	ActionSuggestionConfirmed MatchAction = "suggestion_confirmed"
	ActionIgnored             MatchAction = "ignored"
)

// MatchAuditLog records a single match decision against a transaction.
type MatchAuditLog struct {
	AuditID            string      `db:"audit_id"`
	TransactionID      string      `db:"transaction_id"`
	Action             MatchAction `db:"action"`
	PreviousStatus     MatchStatus `db:"previous_status"`
	NewStatus          MatchStatus `db:"new_status"`
	PreviousEntityType *string     `db:"previous_entity_type"`
	PreviousEntityID   *string     `db:"previous_entity_id"`
	NewEntityType      *string     `db:"new_entity_type"`
	NewEntityID        *string     `db:"new_entity_id"`
	Confidence         *int        `db:"confidence"`
	Reason             string      `db:"reason"`
	PerformedBy        string      `db:"performed_by"`
	CreatedAt          time.Time   `db:"created_at"`
}
