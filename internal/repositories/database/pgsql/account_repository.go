package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aggrandize/bankrecon/internal/apperrors"
	"github.com/aggrandize/bankrecon/internal/core/domain"
	portsrepo "github.com/aggrandize/bankrecon/internal/core/ports/repositories"
	"github.com/aggrandize/bankrecon/internal/models"
	"github.com/aggrandize/bankrecon/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxBankAccountRepository struct {
	pool *pgxpool.Pool
}

// newPgxBankAccountRepository creates a new repository for bank account data.
func newPgxBankAccountRepository(pool *pgxpool.Pool) portsrepo.BankAccountRepositoryFacade {
	return &PgxBankAccountRepository{pool: pool}
}

// Ensure PgxBankAccountRepository implements portsrepo.BankAccountRepositoryFacade
var _ portsrepo.BankAccountRepositoryFacade = (*PgxBankAccountRepository)(nil)

const accountColumns = `account_id, bank_name, account_number, account_number_last4, account_type, is_primary, is_active, created_at, created_by, last_updated_at, last_updated_by`

func scanBankAccountRow(row pgx.Row) (models.BankAccount, error) {
	var m models.BankAccount
	err := row.Scan(
		&m.AccountID,
		&m.BankName,
		&m.AccountNumber,
		&m.AccountNumberLast4,
		&m.AccountType,
		&m.IsPrimary,
		&m.IsActive,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// SaveAccount inserts a new bank account.
func (r *PgxBankAccountRepository) SaveAccount(ctx context.Context, account domain.BankAccount) error {
	modelAcc := mapping.ToModelBankAccount(account)

	query := `
		INSERT INTO bank_accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.pool.Exec(ctx, query,
		modelAcc.AccountID,
		modelAcc.BankName,
		modelAcc.AccountNumber,
		modelAcc.AccountNumberLast4,
		modelAcc.AccountType,
		modelAcc.IsPrimary,
		modelAcc.IsActive,
		modelAcc.CreatedAt,
		modelAcc.CreatedBy,
		modelAcc.LastUpdatedAt,
		modelAcc.LastUpdatedBy,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // Unique violation
				return fmt.Errorf("%w: account with number %s already exists", apperrors.ErrDuplicate, modelAcc.AccountNumber)
			}
		}
		return fmt.Errorf("failed to save account %s: %w", modelAcc.AccountID, err)
	}
	return nil
}

// FindAccountByID retrieves a bank account by its ID.
func (r *PgxBankAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.BankAccount, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM bank_accounts
		WHERE account_id = $1;
	`
	m, err := scanBankAccountRow(r.pool.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account by ID %s: %w", accountID, err)
	}

	domainAcc := mapping.ToDomainBankAccount(m)
	return &domainAcc, nil
}

// FindAccountByNumberLast4 retrieves an active account whose number ends with
// the given four digits. Primary accounts win when several share the suffix.
func (r *PgxBankAccountRepository) FindAccountByNumberLast4(ctx context.Context, last4 string) (*domain.BankAccount, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM bank_accounts
		WHERE account_number_last4 = $1 AND is_active = TRUE
		ORDER BY is_primary DESC, created_at
		LIMIT 1;
	`
	m, err := scanBankAccountRow(r.pool.QueryRow(ctx, query, last4))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account by last4 %s: %w", last4, err)
	}

	domainAcc := mapping.ToDomainBankAccount(m)
	return &domainAcc, nil
}

// ListAccounts retrieves all bank accounts, optionally including inactive ones.
func (r *PgxBankAccountRepository) ListAccounts(ctx context.Context, includeInactive bool) ([]domain.BankAccount, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM bank_accounts
	`
	if !includeInactive {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY bank_name, account_number_last4;`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	accounts := []models.BankAccount{}
	for rows.Next() {
		m, err := scanBankAccountRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		accounts = append(accounts, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}

	return mapping.ToDomainBankAccountSlice(accounts), nil
}

// DeactivateAccount marks an account as inactive.
func (r *PgxBankAccountRepository) DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error {
	query := `
		UPDATE bank_accounts
		SET is_active = FALSE, last_updated_at = $2, last_updated_by = $3
		WHERE account_id = $1 AND is_active = TRUE;
	` // Only update if it was active

	cmdTag, err := r.pool.Exec(ctx, query, accountID, now, userID)
	if err != nil {
		return fmt.Errorf("failed to execute deactivate account %s: %w", accountID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		// Either the account doesn't exist or it was already inactive.
		_, findErr := r.FindAccountByID(ctx, accountID)
		if errors.Is(findErr, apperrors.ErrNotFound) {
			return apperrors.ErrNotFound
		} else if findErr != nil {
			return fmt.Errorf("failed to check account status after deactivation attempt for %s: %w", accountID, findErr)
		}
		// Account exists but was already inactive.
		return apperrors.ErrValidation
	}

	return nil
}
