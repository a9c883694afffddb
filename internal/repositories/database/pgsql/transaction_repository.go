package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aggrandize/bankrecon/internal/apperrors"
	"github.com/aggrandize/bankrecon/internal/core/domain"
	portsrepo "github.com/aggrandize/bankrecon/internal/core/ports/repositories"
	"github.com/aggrandize/bankrecon/internal/models"
	"github.com/aggrandize/bankrecon/internal/utils/mapping"
	"github.com/aggrandize/bankrecon/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxTransactionRepository struct {
	BaseRepository
}

// newPgxTransactionRepository creates a new repository for bank transaction data.
func newPgxTransactionRepository(pool *pgxpool.Pool) portsrepo.TransactionRepositoryFacade {
	return &PgxTransactionRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxTransactionRepository implements portsrepo.TransactionRepositoryFacade
var _ portsrepo.TransactionRepositoryFacade = (*PgxTransactionRepository)(nil)

const transactionColumns = `transaction_id, statement_id, transaction_date, value_date, posted_date, description, normalized_description, amount, direction, running_balance, payment_method, counterparty_name, counterparty_bank_code, purpose_label, reference_number, import_hash, match_status, matched_entity_type, matched_entity_id, match_confidence, match_reason, suggested_entity_type, suggested_entity_id, suggested_confidence, suggested_reason, matched_at, matched_by, created_at, created_by, last_updated_at, last_updated_by`

func scanTransactionRow(row pgx.Row) (models.BankTransaction, error) {
	var m models.BankTransaction
	err := row.Scan(
		&m.TransactionID,
		&m.StatementID,
		&m.TransactionDate,
		&m.ValueDate,
		&m.PostedDate,
		&m.Description,
		&m.NormalizedDescription,
		&m.Amount,
		&m.Direction,
		&m.RunningBalance,
		&m.PaymentMethod,
		&m.CounterpartyName,
		&m.CounterpartyBankCode,
		&m.PurposeLabel,
		&m.ReferenceNumber,
		&m.ImportHash,
		&m.MatchStatus,
		&m.MatchedEntityType,
		&m.MatchedEntityID,
		&m.MatchConfidence,
		&m.MatchReason,
		&m.SuggestedEntityType,
		&m.SuggestedEntityID,
		&m.SuggestedConfidence,
		&m.SuggestedReason,
		&m.MatchedAt,
		&m.MatchedBy,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// SaveTransactions bulk-inserts normalized transactions inside one DB
// transaction. Rows whose dedup key already exists for the statement are
// skipped via ON CONFLICT; the returned count is the number actually inserted.
func (r *PgxTransactionRepository) SaveTransactions(ctx context.Context, transactions []domain.BankTransaction) (int, error) {
	if len(transactions) == 0 {
		return 0, nil
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer r.Rollback(ctx, tx) // Ignored once committed

	query := `
		INSERT INTO bank_transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31)
		ON CONFLICT (statement_id, import_hash) DO NOTHING;
	`

	batch := &pgx.Batch{}
	for _, txn := range transactions {
		m := mapping.ToModelBankTransaction(txn)
		batch.Queue(query,
			m.TransactionID,
			m.StatementID,
			m.TransactionDate,
			m.ValueDate,
			m.PostedDate,
			m.Description,
			m.NormalizedDescription,
			m.Amount,
			m.Direction,
			m.RunningBalance,
			m.PaymentMethod,
			m.CounterpartyName,
			m.CounterpartyBankCode,
			m.PurposeLabel,
			m.ReferenceNumber,
			m.ImportHash,
			m.MatchStatus,
			m.MatchedEntityType,
			m.MatchedEntityID,
			m.MatchConfidence,
			m.MatchReason,
			m.SuggestedEntityType,
			m.SuggestedEntityID,
			m.SuggestedConfidence,
			m.SuggestedReason,
			m.MatchedAt,
			m.MatchedBy,
			m.CreatedAt,
			m.CreatedBy,
			m.LastUpdatedAt,
			m.LastUpdatedBy,
		)
	}

	br := tx.SendBatch(ctx, batch)
	inserted := 0
	var batchErr error
	for i := 0; i < batch.Len(); i++ {
		ct, err := br.Exec()
		if err != nil {
			if batchErr == nil {
				batchErr = fmt.Errorf("failed to insert transaction %s: %w", transactions[i].TransactionID, err)
			}
			continue
		}
		inserted += int(ct.RowsAffected()) // 0 when the dedup key already existed
	}
	if err := br.Close(); err != nil && batchErr == nil {
		batchErr = fmt.Errorf("failed to close transaction insert batch: %w", err)
	}
	if batchErr != nil {
		return 0, batchErr
	}

	if err := r.Commit(ctx, tx); err != nil {
		return 0, err
	}
	return inserted, nil
}

// FindTransactionByID retrieves a transaction by its ID.
func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.BankTransaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM bank_transactions
		WHERE transaction_id = $1;
	`
	m, err := scanTransactionRow(r.Pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transaction by ID %s: %w", transactionID, err)
	}

	domainTxn := mapping.ToDomainBankTransaction(m)
	return &domainTxn, nil
}

// ListTransactionsByStatement retrieves a paginated list of a statement's
// transactions using token-based pagination, optionally filtered by match
// status. Ordered by transaction date descending, created_at as tie-breaker.
func (r *PgxTransactionRepository) ListTransactionsByStatement(ctx context.Context, statementID string, status *domain.MatchStatus, limit int, nextToken *string) ([]domain.BankTransaction, *string, error) {
	if limit <= 0 {
		limit = 50
	}
	// Fetch one extra item to determine if there's a next page.
	fetchLimit := limit + 1

	baseQuery := `
		SELECT ` + transactionColumns + `
		FROM bank_transactions
		WHERE statement_id = $1
	`
	args := []interface{}{statementID}

	if status != nil {
		args = append(args, string(*status))
		baseQuery += ` AND match_status = $` + strconv.Itoa(len(args))
	}

	if nextToken != nil && *nextToken != "" {
		lastTxnDate, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		// Tuple comparison keeps the cursor stable under the DESC ordering.
		baseQuery += ` AND (transaction_date, created_at) < ($` + strconv.Itoa(len(args)+1) + `, $` + strconv.Itoa(len(args)+2) + `)`
		args = append(args, lastTxnDate, lastCreatedAt)
	}

	args = append(args, fetchLimit)
	query := baseQuery + ` ORDER BY transaction_date DESC, created_at DESC LIMIT $` + strconv.Itoa(len(args)) + `;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query transactions for statement %s: %w", statementID, err)
	}
	defer rows.Close()

	transactions := make([]models.BankTransaction, 0, fetchLimit)
	for rows.Next() {
		m, err := scanTransactionRow(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan transaction row for statement %s: %w", statementID, err)
		}
		transactions = append(transactions, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating transaction rows for statement %s: %w", statementID, err)
	}

	var nextTokenVal *string
	results := transactions
	if len(transactions) > limit {
		last := transactions[limit-1] // last item included in this page
		token := pagination.EncodeToken(last.TransactionDate, last.CreatedAt)
		nextTokenVal = &token
		results = transactions[:limit]
	}

	return mapping.ToDomainBankTransactionSlice(results), nextTokenVal, nil
}

// ListUnmatchedByStatement retrieves every unmatched transaction of a
// statement in deterministic order. This is the reconciliation working set.
func (r *PgxTransactionRepository) ListUnmatchedByStatement(ctx context.Context, statementID string) ([]domain.BankTransaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM bank_transactions
		WHERE statement_id = $1 AND match_status = 'unmatched'
		ORDER BY transaction_date, created_at;
	`
	rows, err := r.Pool.Query(ctx, query, statementID)
	if err != nil {
		return nil, fmt.Errorf("failed to query unmatched transactions for statement %s: %w", statementID, err)
	}
	defer rows.Close()

	transactions := []models.BankTransaction{}
	for rows.Next() {
		m, err := scanTransactionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan unmatched transaction row for statement %s: %w", statementID, err)
		}
		transactions = append(transactions, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating unmatched transaction rows for statement %s: %w", statementID, err)
	}

	return mapping.ToDomainBankTransactionSlice(transactions), nil
}

// CountReconciled counts a statement's rows with match status matched or manual.
func (r *PgxTransactionRepository) CountReconciled(ctx context.Context, statementID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM bank_transactions
		WHERE statement_id = $1 AND match_status IN ('matched', 'manual');
	`
	var count int
	if err := r.Pool.QueryRow(ctx, query, statementID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count reconciled transactions for statement %s: %w", statementID, err)
	}
	return count, nil
}

// SummarizeByStatement aggregates row counts and amount totals per match status.
func (r *PgxTransactionRepository) SummarizeByStatement(ctx context.Context, statementID string) ([]domain.MatchStatusSummary, error) {
	query := `
		SELECT match_status,
		       COUNT(*),
		       COALESCE(SUM(amount) FILTER (WHERE direction = 'credit'), 0),
		       COALESCE(SUM(amount) FILTER (WHERE direction = 'debit'), 0)
		FROM bank_transactions
		WHERE statement_id = $1
		GROUP BY match_status
		ORDER BY match_status;
	`
	rows, err := r.Pool.Query(ctx, query, statementID)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize transactions for statement %s: %w", statementID, err)
	}
	defer rows.Close()

	summaries := []domain.MatchStatusSummary{}
	for rows.Next() {
		var s domain.MatchStatusSummary
		if err := rows.Scan(&s.Status, &s.Count, &s.CreditTotal, &s.DebitTotal); err != nil {
			return nil, fmt.Errorf("failed to scan summary row for statement %s: %w", statementID, err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating summary rows for statement %s: %w", statementID, err)
	}

	return summaries, nil
}

// ClaimMatch atomically claims a candidate entity for a still-unmatched
// transaction. The partial unique index on matched entities turns a
// concurrent double-claim into a unique violation, surfaced as
// apperrors.ErrClaimConflict.
func (r *PgxTransactionRepository) ClaimMatch(ctx context.Context, transactionID string, entityType domain.EntityType, entityID string, confidence int, reason string, matchedBy string, now time.Time) error {
	query := `
		UPDATE bank_transactions
		SET match_status = 'matched',
		    matched_entity_type = $2, matched_entity_id = $3,
		    match_confidence = $4, match_reason = $5,
		    matched_at = $6, matched_by = $7,
		    suggested_entity_type = NULL, suggested_entity_id = NULL,
		    suggested_confidence = NULL, suggested_reason = NULL,
		    last_updated_at = $6, last_updated_by = $7
		WHERE transaction_id = $1 AND match_status = 'unmatched';
	`
	cmdTag, err := r.Pool.Exec(ctx, query, transactionID, string(entityType), entityID, confidence, reason, now, matchedBy)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique violation on the matched-entity index
			return fmt.Errorf("%w: entity %s/%s is already claimed by another transaction", apperrors.ErrClaimConflict, entityType, entityID)
		}
		return fmt.Errorf("failed to claim match for transaction %s: %w", transactionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: transaction %s not found or no longer unmatched", apperrors.ErrNotFound, transactionID)
	}
	return nil
}

// SaveSuggestion stores the best below-threshold candidate on a still
// unmatched transaction. Never constitutes a claim.
func (r *PgxTransactionRepository) SaveSuggestion(ctx context.Context, transactionID string, entityType domain.EntityType, entityID string, confidence int, reason string, updatedBy string, now time.Time) error {
	query := `
		UPDATE bank_transactions
		SET suggested_entity_type = $2, suggested_entity_id = $3,
		    suggested_confidence = $4, suggested_reason = $5,
		    last_updated_at = $6, last_updated_by = $7
		WHERE transaction_id = $1 AND match_status = 'unmatched';
	`
	cmdTag, err := r.Pool.Exec(ctx, query, transactionID, string(entityType), entityID, confidence, reason, now, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to save suggestion for transaction %s: %w", transactionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: transaction %s not found or no longer unmatched", apperrors.ErrNotFound, transactionID)
	}
	return nil
}

// ApplyManualMatch points a transaction at an entity with match status manual.
// Manual matches bypass the uniqueness index, which only covers 'matched' rows.
func (r *PgxTransactionRepository) ApplyManualMatch(ctx context.Context, transactionID string, entityType domain.EntityType, entityID string, confidence *int, reason string, userID string, now time.Time) error {
	query := `
		UPDATE bank_transactions
		SET match_status = 'manual',
		    matched_entity_type = $2, matched_entity_id = $3,
		    match_confidence = $4, match_reason = $5,
		    matched_at = $6, matched_by = $7,
		    suggested_entity_type = NULL, suggested_entity_id = NULL,
		    suggested_confidence = NULL, suggested_reason = NULL,
		    last_updated_at = $6, last_updated_by = $7
		WHERE transaction_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, transactionID, string(entityType), entityID, confidence, reason, now, userID)
	if err != nil {
		return fmt.Errorf("failed to apply manual match for transaction %s: %w", transactionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// MarkIgnored permanently excludes a transaction from automatic matching.
func (r *PgxTransactionRepository) MarkIgnored(ctx context.Context, transactionID string, reason string, userID string, now time.Time) error {
	query := `
		UPDATE bank_transactions
		SET match_status = 'ignored',
		    matched_entity_type = NULL, matched_entity_id = NULL,
		    match_confidence = NULL, match_reason = $2,
		    matched_at = $3, matched_by = $4,
		    suggested_entity_type = NULL, suggested_entity_id = NULL,
		    suggested_confidence = NULL, suggested_reason = NULL,
		    last_updated_at = $3, last_updated_by = $4
		WHERE transaction_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, transactionID, reason, now, userID)
	if err != nil {
		return fmt.Errorf("failed to mark transaction %s ignored: %w", transactionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
