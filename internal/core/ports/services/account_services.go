package services

import (
	"context"

	"github.com/aggrandize/bankrecon/internal/core/domain"
	"github.com/aggrandize/bankrecon/internal/dto"
)

// AccountReaderSvc defines read operations for bank account data
type AccountReaderSvc interface {
	// GetAccountByID retrieves a specific bank account by its unique identifier.
	GetAccountByID(ctx context.Context, accountID string) (*domain.BankAccount, error)

	// ListAccounts retrieves all bank accounts, optionally including inactive ones.
	ListAccounts(ctx context.Context, includeInactive bool) ([]domain.BankAccount, error)
}

// AccountWriterSvc defines write operations for bank account data
type AccountWriterSvc interface {
	// CreateAccount persists a new bank account.
	CreateAccount(ctx context.Context, req dto.CreateBankAccountRequest, userID string) (*domain.BankAccount, error)

	// DeactivateAccount marks an account as inactive. Accounts are otherwise
	// immutable once created.
	DeactivateAccount(ctx context.Context, accountID string, userID string) error
}

// AccountSvcFacade combines all bank-account service interfaces.
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
}
