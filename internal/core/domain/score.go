package domain

// ConfidenceTier is the coarse bucket derived from a numeric match score.
type ConfidenceTier string

const (
	ConfidenceHigh   ConfidenceTier = "high"
	ConfidenceMedium ConfidenceTier = "medium"
	ConfidenceLow    ConfidenceTier = "low"
)

// MatchScore is the ephemeral result of scoring one (transaction, candidate)
// pair. It is never persisted as-is; the orchestrator keeps only the best
// score per transaction and writes its total and reason to the transaction.
type MatchScore struct {
	PlatformNameScore  int            `json:"platformNameScore"`  // 0-40
	AmountScore        int            `json:"amountScore"`        // 0-30
	DateProximityScore int            `json:"dateProximityScore"` // 0-20
	PatternScore       int            `json:"patternScore"`       // 0-10
	Total              int            `json:"total"`              // 0-100
	Confidence         ConfidenceTier `json:"confidence"`
	Reasons            []string       `json:"reasons"` // sub-scores that contributed meaningfully
}
