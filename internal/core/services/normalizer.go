package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/aggrandize/bankrecon/internal/core/domain"
	"github.com/aggrandize/bankrecon/internal/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// keywordRule maps description tokens to a label. Rules are evaluated in
// slice order; the first rule with a hit wins.
type keywordRule struct {
	label    string
	keywords []string
}

// paymentMethodRules are ordered by priority: an EMI paid over NEFT is
// reported as NEFT because the rail outranks the product.
var paymentMethodRules = []keywordRule{
	{label: "NEFT", keywords: []string{"NEFT"}},
	{label: "RTGS", keywords: []string{"RTGS"}},
	{label: "IMPS", keywords: []string{"IMPS"}},
	{label: "UPI", keywords: []string{"UPI", "VPA"}},
	{label: "POS", keywords: []string{"POS"}},
	{label: "EMI", keywords: []string{"EMI"}},
	{label: "ECS", keywords: []string{"ECS"}},
	{label: "NACH", keywords: []string{"NACH"}},
	{label: "ATM", keywords: []string{"ATM"}},
	{label: "CHEQUE", keywords: []string{"CHEQUE", "CHQ"}},
}

// purposeRules label what a transaction is for, as opposed to how it moved.
var purposeRules = []keywordRule{
	{label: "SALARY", keywords: []string{"SALARY"}},
	{label: "SUBSCRIPTION", keywords: []string{"SUBSCRIPTION", "RENEWAL"}},
	{label: "TRANSFER", keywords: []string{"TRANSFER", "TRF"}},
	{label: "SETTLEMENT", keywords: []string{"SETTLEMENT", "SETL"}},
	{label: "REFUND", keywords: []string{"REFUND", "REVERSAL"}},
	{label: "INTEREST", keywords: []string{"INTEREST", "INT"}},
	{label: "CHARGES", keywords: []string{"CHARGES", "CHARGE", "FEE"}},
}

// boilerplateTokens never identify a counterparty. The set covers payment
// rails, reference-number prefixes and bank-narration filler.
var boilerplateTokens = map[string]bool{
	"NEFT": true, "RTGS": true, "IMPS": true, "UPI": true, "VPA": true,
	"POS": true, "EMI": true, "ECS": true, "NACH": true, "ATM": true,
	"CHEQUE": true, "CHQ": true,
	"REF": true, "REFNO": true, "TXN": true, "TXNID": true, "UTR": true,
	"RRN": true, "INFO": true, "PAYMENT": true, "PMT": true, "PYMT": true,
	"TRANSFER": true, "TRF": true, "CREDIT": true, "DEBIT": true,
	"AC": true, "ACC": true, "ACCT": true, "BANK": true, "BRANCH": true,
	"INB": true, "MB": true, "IB": true,
	"FROM": true, "TO": true, "BY": true, "VIA": true, "FOR": true,
	"LTD": true, "PVT": true, "LIMITED": true, "PRIVATE": true,
	"SALARY": true, "SUBSCRIPTION": true, "RENEWAL": true,
	"SETTLEMENT": true, "SETL": true, "REFUND": true, "REVERSAL": true,
	"INTEREST": true, "CHARGES": true, "CHARGE": true, "FEE": true,
}

var (
	separatorPattern = regexp.MustCompile(`[-_/\\:.,;#@()|]+`)
	maskingPattern   = regexp.MustCompile(`^[0-9]*[X*]{2,}[0-9]*$`)
	alphaPattern     = regexp.MustCompile(`^[A-Z]+$`)
	digitsPattern    = regexp.MustCompile(`^[0-9]+$`)
	ifscPattern      = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
)

// transactionNormalizer turns raw extracted rows into persistable
// transactions: cleaned description, inferred payment method and purpose,
// counterparty extraction and the per-statement dedup hash.
type transactionNormalizer struct {
	minRowConfidence float64
}

func newTransactionNormalizer(minRowConfidence float64) *transactionNormalizer {
	return &transactionNormalizer{minRowConfidence: minRowConfidence}
}

// normalizedBatch is the outcome of normalizing one statement's rows.
type normalizedBatch struct {
	Transactions  []domain.BankTransaction
	MalformedRows int
	TotalCredits  decimal.Decimal
	TotalDebits   decimal.Decimal
}

// NormalizeRows converts extracted rows into bank transactions. Rows without
// a usable date, a positive amount or a known direction are dropped and
// tallied as malformed; they never abort the batch. Rows below the extractor
// row-confidence floor are treated the same way.
func (n *transactionNormalizer) NormalizeRows(ctx context.Context, statementID string, rows []domain.ExtractedRow, uploaderID string, now time.Time) normalizedBatch {
	logger := middleware.GetLoggerFromCtx(ctx)

	batch := normalizedBatch{
		Transactions: make([]domain.BankTransaction, 0, len(rows)),
		TotalCredits: decimal.Zero,
		TotalDebits:  decimal.Zero,
	}

	for i, row := range rows {
		if row.Date == nil || !row.Amount.IsPositive() || (row.Direction != domain.Debit && row.Direction != domain.Credit) {
			logger.Warn("Dropping malformed statement row",
				slog.String("statement_id", statementID),
				slog.Int("row_index", i))
			batch.MalformedRows++
			continue
		}
		if row.Confidence < n.minRowConfidence {
			logger.Warn("Dropping low-confidence statement row",
				slog.String("statement_id", statementID),
				slog.Int("row_index", i),
				slog.Float64("confidence", row.Confidence))
			batch.MalformedRows++
			continue
		}

		normalized := NormalizeDescription(row.Description)

		var reference *string
		if row.Reference != "" {
			ref := row.Reference
			reference = &ref
		}

		txn := domain.BankTransaction{
			TransactionID:         uuid.NewString(),
			StatementID:           statementID,
			TransactionDate:       *row.Date,
			Description:           row.Description,
			NormalizedDescription: normalized,
			Amount:                row.Amount,
			Direction:             row.Direction,
			RunningBalance:        row.Balance,
			PaymentMethod:         inferPaymentMethod(normalized),
			CounterpartyName:      extractCounterparty(normalized),
			CounterpartyBankCode:  extractBankCode(row.Description),
			PurposeLabel:          inferPurposeLabel(normalized),
			ReferenceNumber:       reference,
			ImportHash:            ImportHash(statementID, *row.Date, row.Amount, row.Description),
			MatchStatus:           domain.MatchUnmatched,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     uploaderID,
				LastUpdatedAt: now,
				LastUpdatedBy: uploaderID,
			},
		}

		if row.Direction == domain.Credit {
			batch.TotalCredits = batch.TotalCredits.Add(row.Amount)
		} else {
			batch.TotalDebits = batch.TotalDebits.Add(row.Amount)
		}
		batch.Transactions = append(batch.Transactions, txn)
	}

	return batch
}

// NormalizeDescription uppercases the raw narration, collapses separator
// characters into single spaces, and strips account-masking tokens
// (X/*-runs) and long reference-number digit strings.
func NormalizeDescription(raw string) string {
	upper := strings.ToUpper(raw)
	upper = separatorPattern.ReplaceAllString(upper, " ")

	fields := strings.Fields(upper)
	kept := make([]string, 0, len(fields))
	for _, tok := range fields {
		if maskingPattern.MatchString(tok) {
			continue
		}
		// Digit strings past 6 characters are reference numbers, not content.
		if digitsPattern.MatchString(tok) && len(tok) > 6 {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

// inferPaymentMethod returns the highest-priority payment rail named in the
// normalized description, or nil when none matches.
func inferPaymentMethod(normalized string) *string {
	return matchKeywordRules(normalized, paymentMethodRules)
}

// inferPurposeLabel returns the highest-priority purpose keyword named in
// the normalized description, or nil when none matches.
func inferPurposeLabel(normalized string) *string {
	return matchKeywordRules(normalized, purposeRules)
}

func matchKeywordRules(normalized string, rules []keywordRule) *string {
	tokens := tokenSet(normalized)
	for _, rule := range rules {
		for _, kw := range rule.keywords {
			if tokens[kw] {
				label := rule.label
				return &label
			}
		}
	}
	return nil
}

func tokenSet(normalized string) map[string]bool {
	set := map[string]bool{}
	for _, tok := range strings.Fields(normalized) {
		set[tok] = true
	}
	return set
}

// extractCounterparty returns the longest run of consecutive alphabetic,
// non-boilerplate tokens in the normalized description. Ties go to the
// earliest run. Returns nil when no such token exists.
func extractCounterparty(normalized string) *string {
	tokens := strings.Fields(normalized)

	var best []string
	var current []string
	flush := func() {
		if len(current) > len(best) {
			best = current
		}
		current = nil
	}

	for _, tok := range tokens {
		if alphaPattern.MatchString(tok) && !boilerplateTokens[tok] {
			current = append(current, tok)
			continue
		}
		flush()
	}
	flush()

	if len(best) == 0 {
		return nil
	}
	name := strings.Join(best, " ")
	return &name
}

// extractBankCode returns the first IFSC-shaped token in the raw
// description, or nil when none is present.
func extractBankCode(raw string) *string {
	upper := strings.ToUpper(raw)
	upper = separatorPattern.ReplaceAllString(upper, " ")
	for _, tok := range strings.Fields(upper) {
		if ifscPattern.MatchString(tok) {
			code := tok
			return &code
		}
	}
	return nil
}

// ImportHash derives the per-statement dedup key for a raw row: SHA-256 over
// statement id, transaction date, raw amount and a hash of the raw
// description. Re-extracting the same file reproduces the same keys, so
// duplicates are skipped on insert instead of double-imported.
func ImportHash(statementID string, date time.Time, amount decimal.Decimal, rawDescription string) string {
	descHash := sha256.Sum256([]byte(rawDescription))
	key := fmt.Sprintf("%s|%s|%s|%s", statementID, date.Format("2006-01-02"), amount.String(), hex.EncodeToString(descHash[:]))
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
