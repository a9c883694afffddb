package dto

// OverrideDecision values accepted by the override endpoint.
const (
	DecisionConfirmSuggestion = "confirm_suggestion"
	DecisionAssign            = "assign"
	DecisionIgnore            = "ignore"
)

// OverrideRequest is one human match decision for a transaction.
// EntityType and EntityID are required for assign and ignored otherwise.
type OverrideRequest struct {
	Decision   string  `json:"decision" binding:"required,oneof=confirm_suggestion assign ignore"`
	EntityType *string `json:"entityType" binding:"omitempty,oneof=salary subscription expense order_payment settlement internal_transfer"`
	EntityID   *string `json:"entityID"`
	Note       *string `json:"note"`
}

// ReconciliationSummary reports the outcome of one reconciliation run.
// Failed counts transactions whose claims were lost to a concurrent process
// and could not be retried successfully.
type ReconciliationSummary struct {
	StatementID string `json:"statementID"`
	Total       int    `json:"total"`
	Matched     int    `json:"matched"`
	Unmatched   int    `json:"unmatched"`
	Suggested   int    `json:"suggested"`
	Failed      int    `json:"failed"`
}
