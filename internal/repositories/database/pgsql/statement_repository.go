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
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxStatementRepository struct {
	pool *pgxpool.Pool
}

// newPgxStatementRepository creates a new repository for bank statement data.
func newPgxStatementRepository(pool *pgxpool.Pool) portsrepo.StatementRepositoryFacade {
	return &PgxStatementRepository{pool: pool}
}

// Ensure PgxStatementRepository implements portsrepo.StatementRepositoryFacade
var _ portsrepo.StatementRepositoryFacade = (*PgxStatementRepository)(nil)

const statementColumns = `statement_id, account_id, file_name, file_type, status, period_start, period_end, opening_balance, closing_balance, total_credits, total_debits, total_transactions, matched_transactions, malformed_rows, error_message, processed_at, created_at, created_by, last_updated_at, last_updated_by`

func scanStatementRow(row pgx.Row) (models.BankStatement, error) {
	var m models.BankStatement
	err := row.Scan(
		&m.StatementID,
		&m.AccountID,
		&m.FileName,
		&m.FileType,
		&m.Status,
		&m.PeriodStart,
		&m.PeriodEnd,
		&m.OpeningBalance,
		&m.ClosingBalance,
		&m.TotalCredits,
		&m.TotalDebits,
		&m.TotalTransactions,
		&m.MatchedTransactions,
		&m.MalformedRows,
		&m.ErrorMessage,
		&m.ProcessedAt,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// SaveStatement persists a newly uploaded statement.
func (r *PgxStatementRepository) SaveStatement(ctx context.Context, statement domain.BankStatement) error {
	m := mapping.ToModelBankStatement(statement)

	query := `
		INSERT INTO bank_statements (` + statementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20);
	`
	_, err := r.pool.Exec(ctx, query,
		m.StatementID,
		m.AccountID,
		m.FileName,
		m.FileType,
		m.Status,
		m.PeriodStart,
		m.PeriodEnd,
		m.OpeningBalance,
		m.ClosingBalance,
		m.TotalCredits,
		m.TotalDebits,
		m.TotalTransactions,
		m.MatchedTransactions,
		m.MalformedRows,
		m.ErrorMessage,
		m.ProcessedAt,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save statement %s: %w", m.StatementID, err)
	}
	return nil
}

// FindStatementByID retrieves a statement by its ID.
func (r *PgxStatementRepository) FindStatementByID(ctx context.Context, statementID string) (*domain.BankStatement, error) {
	query := `
		SELECT ` + statementColumns + `
		FROM bank_statements
		WHERE statement_id = $1;
	`
	m, err := scanStatementRow(r.pool.QueryRow(ctx, query, statementID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find statement by ID %s: %w", statementID, err)
	}

	domainStmt := mapping.ToDomainBankStatement(m)
	return &domainStmt, nil
}

// ListStatements retrieves a paginated list of statements, newest first,
// optionally filtered by account and/or processing status.
func (r *PgxStatementRepository) ListStatements(ctx context.Context, accountID *string, status *domain.StatementStatus, limit int, offset int) ([]domain.BankStatement, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT ` + statementColumns + `
		FROM bank_statements
		WHERE 1=1
	`
	args := []interface{}{}
	if accountID != nil {
		args = append(args, *accountID)
		query += ` AND account_id = $` + strconv.Itoa(len(args))
	}
	if status != nil {
		args = append(args, string(*status))
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	args = append(args, limit)
	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args))
	args = append(args, offset)
	query += ` OFFSET $` + strconv.Itoa(len(args)) + `;`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query statements: %w", err)
	}
	defer rows.Close()

	statements := []models.BankStatement{}
	for rows.Next() {
		m, err := scanStatementRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan statement row: %w", err)
		}
		statements = append(statements, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating statement rows: %w", err)
	}

	return mapping.ToDomainBankStatementSlice(statements), nil
}

// UpdateStatementStatus moves a statement through its processing states.
// errorMessage is only ever non-nil for the failed status.
func (r *PgxStatementRepository) UpdateStatementStatus(ctx context.Context, statementID string, status domain.StatementStatus, errorMessage *string, userID string, now time.Time) error {
	query := `
		UPDATE bank_statements
		SET status = $2, error_message = $3, last_updated_at = $4, last_updated_by = $5
		WHERE statement_id = $1;
	`
	cmdTag, err := r.pool.Exec(ctx, query, statementID, string(status), errorMessage, now, userID)
	if err != nil {
		return fmt.Errorf("failed to update status for statement %s: %w", statementID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpdateStatementExtraction stores the metadata produced by extraction and
// normalization: resolved account, period, balances, totals and row counts.
func (r *PgxStatementRepository) UpdateStatementExtraction(ctx context.Context, statement domain.BankStatement) error {
	m := mapping.ToModelBankStatement(statement)

	query := `
		UPDATE bank_statements
		SET account_id = $2, period_start = $3, period_end = $4,
		    opening_balance = $5, closing_balance = $6,
		    total_credits = $7, total_debits = $8,
		    total_transactions = $9, malformed_rows = $10,
		    processed_at = $11, last_updated_at = $12, last_updated_by = $13
		WHERE statement_id = $1;
	`
	cmdTag, err := r.pool.Exec(ctx, query,
		m.StatementID,
		m.AccountID,
		m.PeriodStart,
		m.PeriodEnd,
		m.OpeningBalance,
		m.ClosingBalance,
		m.TotalCredits,
		m.TotalDebits,
		m.TotalTransactions,
		m.MalformedRows,
		m.ProcessedAt,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update extraction results for statement %s: %w", m.StatementID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpdateStatementMatchCounts recomputes the reconciled-row count after a run
// and flips the statement status.
func (r *PgxStatementRepository) UpdateStatementMatchCounts(ctx context.Context, statementID string, matchedTransactions int, status domain.StatementStatus, userID string, now time.Time) error {
	query := `
		UPDATE bank_statements
		SET matched_transactions = $2, status = $3, last_updated_at = $4, last_updated_by = $5
		WHERE statement_id = $1;
	`
	cmdTag, err := r.pool.Exec(ctx, query, statementID, matchedTransactions, string(status), now, userID)
	if err != nil {
		return fmt.Errorf("failed to update match counts for statement %s: %w", statementID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteStatement removes a statement; the FK cascade removes its transactions.
func (r *PgxStatementRepository) DeleteStatement(ctx context.Context, statementID string) error {
	query := `DELETE FROM bank_statements WHERE statement_id = $1;`

	cmdTag, err := r.pool.Exec(ctx, query, statementID)
	if err != nil {
		return fmt.Errorf("failed to delete statement %s: %w", statementID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
