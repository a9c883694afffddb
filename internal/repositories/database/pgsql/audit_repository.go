package pgsql

import (
	"context"
	"fmt"

	"github.com/aggrandize/bankrecon/internal/core/domain"
	portsrepo "github.com/aggrandize/bankrecon/internal/core/ports/repositories"
	"github.com/aggrandize/bankrecon/internal/models"
	"github.com/aggrandize/bankrecon/internal/utils/mapping"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxMatchAuditRepository struct {
	pool *pgxpool.Pool
}

// newPgxMatchAuditRepository creates a new repository for match audit logs.
func newPgxMatchAuditRepository(pool *pgxpool.Pool) portsrepo.MatchAuditRepositoryFacade {
	return &PgxMatchAuditRepository{pool: pool}
}

// Ensure PgxMatchAuditRepository implements portsrepo.MatchAuditRepositoryFacade
var _ portsrepo.MatchAuditRepositoryFacade = (*PgxMatchAuditRepository)(nil)

const auditColumns = `audit_id, transaction_id, action, previous_status, new_status, previous_entity_type, previous_entity_id, new_entity_type, new_entity_id, confidence, reason, performed_by, created_at`

// SaveAuditLog appends one audit entry.
func (r *PgxMatchAuditRepository) SaveAuditLog(ctx context.Context, log domain.MatchAuditLog) error {
	m := mapping.ToModelMatchAuditLog(log)

	query := `
		INSERT INTO match_audit_logs (` + auditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err := r.pool.Exec(ctx, query,
		m.AuditID,
		m.TransactionID,
		m.Action,
		m.PreviousStatus,
		m.NewStatus,
		m.PreviousEntityType,
		m.PreviousEntityID,
		m.NewEntityType,
		m.NewEntityID,
		m.Confidence,
		m.Reason,
		m.PerformedBy,
		m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save audit log for transaction %s: %w", m.TransactionID, err)
	}
	return nil
}

// ListAuditByTransaction returns a transaction's audit entries oldest first.
func (r *PgxMatchAuditRepository) ListAuditByTransaction(ctx context.Context, transactionID string) ([]domain.MatchAuditLog, error) {
	query := `
		SELECT ` + auditColumns + `
		FROM match_audit_logs
		WHERE transaction_id = $1
		ORDER BY created_at;
	`
	rows, err := r.pool.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs for transaction %s: %w", transactionID, err)
	}
	defer rows.Close()

	logs := []models.MatchAuditLog{}
	for rows.Next() {
		var m models.MatchAuditLog
		err := rows.Scan(
			&m.AuditID,
			&m.TransactionID,
			&m.Action,
			&m.PreviousStatus,
			&m.NewStatus,
			&m.PreviousEntityType,
			&m.PreviousEntityID,
			&m.NewEntityType,
			&m.NewEntityID,
			&m.Confidence,
			&m.Reason,
			&m.PerformedBy,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log row for transaction %s: %w", transactionID, err)
		}
		logs = append(logs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit log rows for transaction %s: %w", transactionID, err)
	}

	return mapping.ToDomainMatchAuditLogSlice(logs), nil
}
