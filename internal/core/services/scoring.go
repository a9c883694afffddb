package services

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/aggrandize/bankrecon/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// Component score ceilings. The four components sum to at most 100.
const (
	maxNameScore    = 40
	maxAmountScore  = 30
	maxDateScore    = 20
	maxPatternScore = 10
)

// PatternRule names the purpose labels and payment rails typical for one
// candidate variant. A purpose hit earns the full pattern score, a rail hit
// half of it.
type PatternRule struct {
	Purposes []string
	Methods  []string
}

// MatchingConfig carries every tunable of candidate generation and scoring.
type MatchingConfig struct {
	AmountTolerancePct      float64         // fraction of the transaction amount, e.g. 0.02
	AmountToleranceMin      decimal.Decimal // absolute floor for the amount window
	DateWindowPastDays      int             // transaction may land this many days before the expected date
	DateWindowFutureDays    int             // ... or this many days after it
	MonthlyWindowPastDays   int             // widened window for monthly-cycle entity types
	MonthlyWindowFutureDays int
	MinNameSimilarity       float64 // 0..1; token similarity below this zeroes the name score
	AutoAcceptThreshold     int     // total at or above this claims automatically
	HighConfidenceFloor     int
	MediumConfidenceFloor   int
	WorkerCount             int // parallel generate+score workers per run
	PatternRules            map[domain.EntityType]PatternRule
}

// DefaultMatchingConfig returns the recommended tuning.
func DefaultMatchingConfig() MatchingConfig {
	return MatchingConfig{
		AmountTolerancePct:      0.02,
		AmountToleranceMin:      decimal.NewFromInt(1),
		DateWindowPastDays:      3,
		DateWindowFutureDays:    10,
		MonthlyWindowPastDays:   5,
		MonthlyWindowFutureDays: 15,
		MinNameSimilarity:       0.4,
		AutoAcceptThreshold:     80,
		HighConfidenceFloor:     80,
		MediumConfidenceFloor:   50,
		WorkerCount:             4,
		PatternRules: map[domain.EntityType]PatternRule{
			domain.EntitySalary:           {Purposes: []string{"SALARY"}, Methods: []string{"NEFT", "RTGS", "IMPS"}},
			domain.EntitySubscription:     {Purposes: []string{"SUBSCRIPTION"}, Methods: []string{"ECS", "NACH", "UPI"}},
			domain.EntityExpense:          {Methods: []string{"POS", "UPI", "CHEQUE"}},
			domain.EntityOrderPayment:     {Methods: []string{"UPI", "IMPS", "NEFT"}},
			domain.EntitySettlement:       {Purposes: []string{"SETTLEMENT"}, Methods: []string{"NEFT", "RTGS"}},
			domain.EntityInternalTransfer: {Purposes: []string{"TRANSFER"}, Methods: []string{"IMPS", "NEFT", "RTGS"}},
		},
	}
}

// matchScorer scores (transaction, candidate) pairs. Stateless; safe for
// concurrent use by the reconciliation workers.
type matchScorer struct {
	cfg MatchingConfig
}

func newMatchScorer(cfg MatchingConfig) *matchScorer {
	return &matchScorer{cfg: cfg}
}

// Score computes the four component scores for one pair and derives the
// total, the confidence tier and the human-readable reasons.
func (s *matchScorer) Score(txn domain.BankTransaction, cand domain.EntityCandidate) domain.MatchScore {
	score := domain.MatchScore{
		PlatformNameScore:  s.nameScore(txn, cand),
		AmountScore:        s.amountScore(txn, cand),
		DateProximityScore: s.dateScore(txn, cand),
		PatternScore:       s.patternScore(txn, cand),
	}
	score.Total = score.PlatformNameScore + score.AmountScore + score.DateProximityScore + score.PatternScore
	if score.Total > 100 {
		score.Total = 100
	}
	score.Confidence = s.tierFor(score.Total)
	score.Reasons = scoreReasons(score)
	return score
}

// nameScore compares the candidate's display name against the normalized
// description. Exact containment earns the ceiling; otherwise each name
// token's best levenshtein similarity against the description tokens is
// averaged and scaled, floored to zero under MinNameSimilarity.
func (s *matchScorer) nameScore(txn domain.BankTransaction, cand domain.EntityCandidate) int {
	candName := NormalizeDescription(cand.DisplayName)
	if candName == "" {
		return 0
	}
	desc := txn.NormalizedDescription
	if desc == "" {
		return 0
	}
	if strings.Contains(desc, candName) {
		return maxNameScore
	}

	candTokens := strings.Fields(candName)
	descTokens := strings.Fields(desc)
	total := 0.0
	for _, ct := range candTokens {
		best := 0.0
		for _, dt := range descTokens {
			sim := tokenSimilarity(ct, dt)
			if sim > best {
				best = sim
			}
		}
		total += best
	}
	mean := total / float64(len(candTokens))
	if mean < s.cfg.MinNameSimilarity {
		return 0
	}
	return int(math.Round(mean * maxNameScore))
}

func tokenSimilarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	dist := levenshtein.DistanceForStrings(ra, rb, levenshtein.DefaultOptions)
	maxLen := max(len(ra), len(rb))
	if maxLen == 0 {
		return 0
	}
	return 1 - float64(dist)/float64(maxLen)
}

// amountTolerance is the half-width of the amount window: the larger of the
// percentage tolerance and the absolute floor.
func (s *matchScorer) amountTolerance(amount decimal.Decimal) decimal.Decimal {
	pct := amount.Mul(decimal.NewFromFloat(s.cfg.AmountTolerancePct))
	if pct.LessThan(s.cfg.AmountToleranceMin) {
		return s.cfg.AmountToleranceMin
	}
	return pct
}

// amountScore decays linearly from the ceiling at an exact amount to zero at
// the edge of the tolerance window.
func (s *matchScorer) amountScore(txn domain.BankTransaction, cand domain.EntityCandidate) int {
	tolerance := s.amountTolerance(txn.Amount)
	diff := txn.Amount.Sub(cand.ExpectedAmount).Abs()
	if diff.GreaterThan(tolerance) {
		return 0
	}
	ratio := diff.InexactFloat64() / tolerance.InexactFloat64()
	return int(math.Round((1 - ratio) * maxAmountScore))
}

// dateWindowDays returns the (past, future) day reach of the date window for
// an entity type. Monthly-cycle types get the widened window.
func (s *matchScorer) dateWindowDays(entityType domain.EntityType) (int, int) {
	if entityType.MonthlyCycle() {
		return s.cfg.MonthlyWindowPastDays, s.cfg.MonthlyWindowFutureDays
	}
	return s.cfg.DateWindowPastDays, s.cfg.DateWindowFutureDays
}

// dateScore decays linearly from the ceiling at the expected date to zero at
// the window edge. The window is asymmetric: payments usually land late, so
// the future reach exceeds the past one.
func (s *matchScorer) dateScore(txn domain.BankTransaction, cand domain.EntityCandidate) int {
	past, future := s.dateWindowDays(cand.EntityType)

	offset := daysBetween(cand.ExpectedDate, txn.TransactionDate)
	reach := future
	if offset < 0 {
		reach = past
		offset = -offset
	}
	if offset > reach {
		return 0
	}
	if reach == 0 {
		return maxDateScore
	}
	return int(math.Round((1 - float64(offset)/float64(reach)) * maxDateScore))
}

// patternScore rewards transactions whose inferred purpose or payment rail
// is typical for the candidate's variant.
func (s *matchScorer) patternScore(txn domain.BankTransaction, cand domain.EntityCandidate) int {
	rule, ok := s.cfg.PatternRules[cand.EntityType]
	if !ok {
		return 0
	}
	if txn.PurposeLabel != nil && slices.Contains(rule.Purposes, *txn.PurposeLabel) {
		return maxPatternScore
	}
	if txn.PaymentMethod != nil && slices.Contains(rule.Methods, *txn.PaymentMethod) {
		return maxPatternScore / 2
	}
	return 0
}

func (s *matchScorer) tierFor(total int) domain.ConfidenceTier {
	switch {
	case total >= s.cfg.HighConfidenceFloor:
		return domain.ConfidenceHigh
	case total >= s.cfg.MediumConfidenceFloor:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

// scoreReasons lists the components that contributed to the total.
func scoreReasons(score domain.MatchScore) []string {
	reasons := []string{}
	if score.PlatformNameScore > 0 {
		reasons = append(reasons, fmt.Sprintf("name %d/%d", score.PlatformNameScore, maxNameScore))
	}
	if score.AmountScore > 0 {
		reasons = append(reasons, fmt.Sprintf("amount %d/%d", score.AmountScore, maxAmountScore))
	}
	if score.DateProximityScore > 0 {
		reasons = append(reasons, fmt.Sprintf("date %d/%d", score.DateProximityScore, maxDateScore))
	}
	if score.PatternScore > 0 {
		reasons = append(reasons, fmt.Sprintf("pattern %d/%d", score.PatternScore, maxPatternScore))
	}
	return reasons
}

// daysBetween counts whole calendar days from one date to another, ignoring
// the time of day.
func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}
