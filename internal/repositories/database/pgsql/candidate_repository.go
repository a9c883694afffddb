package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/aggrandize/bankrecon/internal/apperrors"
	"github.com/aggrandize/bankrecon/internal/core/domain"
	portsrepo "github.com/aggrandize/bankrecon/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Settlement rows carry a side: money we owe a partner versus money owed to us.
const (
	settlementOwed     = "owed"
	settlementReceived = "received"
)

// pgxCandidateSource serves one candidate variant from its backing table.
// The tables differ only in naming, so the SQL is assembled from per-variant
// column metadata; all identifiers are compile-time constants.
type pgxCandidateSource struct {
	pool         *pgxpool.Pool
	entityType   domain.EntityType
	table        string
	idCol        string
	nameCol      string
	amountCol    string
	dateCol      string
	directionCol string // set only for settlements
}

// Ensure pgxCandidateSource implements portsrepo.CandidateSource
var _ portsrepo.CandidateSource = (*pgxCandidateSource)(nil)

func (s *pgxCandidateSource) EntityType() domain.EntityType {
	return s.entityType
}

// selectClause projects the variant's columns into the candidate shape, with
// already_claimed derived from the matched transactions referencing the row.
func (s *pgxCandidateSource) selectClause() string {
	return fmt.Sprintf(`
		SELECT t.%s, t.%s, t.%s, t.%s, t.created_at,
		       EXISTS (
		           SELECT 1 FROM bank_transactions bt
		           WHERE bt.match_status = 'matched'
		             AND bt.matched_entity_type = $1
		             AND bt.matched_entity_id = t.%s
		       ) AS already_claimed
		FROM %s t
	`, s.idCol, s.nameCol, s.amountCol, s.dateCol, s.idCol, s.table)
}

func (s *pgxCandidateSource) scanCandidate(row pgx.Row) (domain.EntityCandidate, error) {
	c := domain.EntityCandidate{EntityType: s.entityType}
	err := row.Scan(
		&c.EntityID,
		&c.DisplayName,
		&c.ExpectedAmount,
		&c.ExpectedDate,
		&c.CreatedAt,
		&c.AlreadyClaimed,
	)
	return c, err
}

// ListCandidates returns the variant's rows inside the amount and date window,
// oldest entity first. Cancelled entities never participate in matching.
func (s *pgxCandidateSource) ListCandidates(ctx context.Context, q portsrepo.CandidateQuery) ([]domain.EntityCandidate, error) {
	query := s.selectClause() + `
		WHERE t.status <> 'cancelled'
		  AND t.` + s.amountCol + ` BETWEEN $2 AND $3
		  AND t.` + s.dateCol + ` BETWEEN $4 AND $5
	`
	args := []interface{}{string(s.entityType), q.MinAmount, q.MaxAmount, q.DateFrom, q.DateTo}

	if s.directionCol != "" {
		side := settlementOwed // debits pay out what we owe
		if q.Direction == domain.Credit {
			side = settlementReceived
		}
		args = append(args, side)
		query += ` AND t.` + s.directionCol + ` = $6`
	}
	query += ` ORDER BY t.created_at;`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s candidates: %w", s.entityType, err)
	}
	defer rows.Close()

	candidates := []domain.EntityCandidate{}
	for rows.Next() {
		c, err := s.scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s candidate row: %w", s.entityType, err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s candidate rows: %w", s.entityType, err)
	}

	return candidates, nil
}

// findByID fetches one entity's projection without any window filtering.
func (s *pgxCandidateSource) findByID(ctx context.Context, entityID string) (*domain.EntityCandidate, error) {
	query := s.selectClause() + ` WHERE t.` + s.idCol + ` = $2;`

	c, err := s.scanCandidate(s.pool.QueryRow(ctx, query, string(s.entityType), entityID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find %s candidate %s: %w", s.entityType, entityID, err)
	}
	return &c, nil
}

// PgxCandidateProvider routes candidate lookups to the six variant sources.
type PgxCandidateProvider struct {
	debitSources  []portsrepo.CandidateSource
	creditSources []portsrepo.CandidateSource
	byType        map[domain.EntityType]*pgxCandidateSource
}

// Ensure PgxCandidateProvider implements portsrepo.CandidateSourceProvider
var _ portsrepo.CandidateSourceProvider = (*PgxCandidateProvider)(nil)

// newPgxCandidateProvider wires one source per candidate variant.
func newPgxCandidateProvider(pool *pgxpool.Pool) portsrepo.CandidateSourceProvider {
	salary := &pgxCandidateSource{pool: pool, entityType: domain.EntitySalary, table: "salary_payments", idCol: "payment_id", nameCol: "employee_name", amountCol: "net_amount", dateCol: "pay_date"}
	subscription := &pgxCandidateSource{pool: pool, entityType: domain.EntitySubscription, table: "subscription_cycles", idCol: "cycle_id", nameCol: "service_name", amountCol: "amount", dateCol: "renewal_date"}
	expense := &pgxCandidateSource{pool: pool, entityType: domain.EntityExpense, table: "expenses", idCol: "expense_id", nameCol: "vendor_name", amountCol: "amount", dateCol: "expense_date"}
	orderPayment := &pgxCandidateSource{pool: pool, entityType: domain.EntityOrderPayment, table: "order_payments", idCol: "payment_id", nameCol: "payer_name", amountCol: "amount", dateCol: "expected_date"}
	settlement := &pgxCandidateSource{pool: pool, entityType: domain.EntitySettlement, table: "settlements", idCol: "settlement_id", nameCol: "counterparty_name", amountCol: "amount", dateCol: "settlement_date", directionCol: "direction"}
	transfer := &pgxCandidateSource{pool: pool, entityType: domain.EntityInternalTransfer, table: "internal_transfers", idCol: "transfer_id", nameCol: "from_account_name", amountCol: "amount", dateCol: "transfer_date"}

	return &PgxCandidateProvider{
		// Debits settle outgoing obligations, credits absorb incoming flows.
		// Settlements sit on both sides; the direction filter picks the side.
		debitSources:  []portsrepo.CandidateSource{salary, subscription, expense, settlement},
		creditSources: []portsrepo.CandidateSource{orderPayment, settlement, transfer},
		byType: map[domain.EntityType]*pgxCandidateSource{
			domain.EntitySalary:           salary,
			domain.EntitySubscription:     subscription,
			domain.EntityExpense:          expense,
			domain.EntityOrderPayment:     orderPayment,
			domain.EntitySettlement:       settlement,
			domain.EntityInternalTransfer: transfer,
		},
	}
}

// SourcesFor returns the sources applicable to a transaction direction.
func (p *PgxCandidateProvider) SourcesFor(direction domain.TransactionDirection) []portsrepo.CandidateSource {
	if direction == domain.Debit {
		return p.debitSources
	}
	return p.creditSources
}

// FindCandidate fetches one entity's projection for override validation.
func (p *PgxCandidateProvider) FindCandidate(ctx context.Context, entityType domain.EntityType, entityID string) (*domain.EntityCandidate, error) {
	source, ok := p.byType[entityType]
	if !ok {
		return nil, fmt.Errorf("%w: unknown entity type %q", apperrors.ErrValidation, entityType)
	}
	return source.findByID(ctx, entityID)
}
