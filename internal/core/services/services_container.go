package services

import (
	portsrepo "github.com/aggrandize/bankrecon/internal/core/ports/repositories"
	portssvc "github.com/aggrandize/bankrecon/internal/core/ports/services"
	"github.com/aggrandize/bankrecon/internal/platform/config"
	"github.com/shopspring/decimal"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, extractor portssvc.ExtractionAdapter) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	matchCfg := matchingConfigFrom(cfg)

	container.Account = NewAccountService(repos.AccountRepo)

	reconciliation := NewReconciliationService(
		repos.StatementRepo,
		repos.TransactionRepo,
		repos.AuditRepo,
		repos.CandidateRepo,
		matchCfg,
	)
	container.Reconciliation = reconciliation

	container.Statement = NewStatementService(
		repos.StatementRepo,
		repos.AccountRepo,
		repos.TransactionRepo,
		extractor,
		reconciliation,
		cfg.ExtractorMinRowConfidence,
	)

	container.Transaction = NewTransactionService(repos.TransactionRepo, repos.StatementRepo, repos.AuditRepo)
	container.Override = NewOverrideService(repos.TransactionRepo, repos.CandidateRepo, repos.AuditRepo)

	return container
}

// matchingConfigFrom starts from the engine defaults and lays the configured
// thresholds over them. Zero-valued tunables keep their default.
func matchingConfigFrom(cfg *config.Config) MatchingConfig {
	m := DefaultMatchingConfig()
	t := cfg.Matching

	if t.AutoAcceptThreshold > 0 {
		m.AutoAcceptThreshold = t.AutoAcceptThreshold
	}
	if t.HighConfidenceMin > 0 {
		m.HighConfidenceFloor = t.HighConfidenceMin
	}
	if t.MediumConfidenceMin > 0 {
		m.MediumConfidenceFloor = t.MediumConfidenceMin
	}
	if t.AmountTolerancePct > 0 {
		m.AmountTolerancePct = t.AmountTolerancePct
	}
	if t.AmountToleranceAbs > 0 {
		m.AmountToleranceMin = decimal.NewFromFloat(t.AmountToleranceAbs)
	}
	if t.DateWindowBeforeDays > 0 {
		m.DateWindowPastDays = t.DateWindowBeforeDays
	}
	if t.DateWindowAfterDays > 0 {
		m.DateWindowFutureDays = t.DateWindowAfterDays
	}
	if t.MonthlyWindowBeforeDays > 0 {
		m.MonthlyWindowPastDays = t.MonthlyWindowBeforeDays
	}
	if t.MonthlyWindowAfterDays > 0 {
		m.MonthlyWindowFutureDays = t.MonthlyWindowAfterDays
	}
	if t.MinNameSimilarity > 0 {
		m.MinNameSimilarity = t.MinNameSimilarity
	}
	if cfg.ReconWorkerCount > 0 {
		m.WorkerCount = cfg.ReconWorkerCount
	}
	return m
}
