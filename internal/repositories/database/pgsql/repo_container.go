package pgsql

import (
	portsrepo "github.com/aggrandize/bankrecon/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	accountRepo := newPgxBankAccountRepository(dbPool)
	statementRepo := newPgxStatementRepository(dbPool)
	transactionRepo := newPgxTransactionRepository(dbPool)
	candidateRepo := newPgxCandidateProvider(dbPool)
	auditRepo := newPgxMatchAuditRepository(dbPool)

	return portsrepo.RepositoryProvider{
		AccountRepo:     accountRepo,
		StatementRepo:   statementRepo,
		TransactionRepo: transactionRepo,
		CandidateRepo:   candidateRepo,
		AuditRepo:       auditRepo,
	}
}
