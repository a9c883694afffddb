package repositories

import (
	"context"
	"time"

	"github.com/aggrandize/bankrecon/internal/core/domain"
)

// BankAccountReader defines read operations for bank account data
type BankAccountReader interface {
	// FindAccountByID retrieves a specific bank account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.BankAccount, error)

	// FindAccountByNumberLast4 retrieves an active account whose number ends
	// with the given four digits. Used to resolve the owning account from
	// extraction output when the uploader did not name one.
	FindAccountByNumberLast4(ctx context.Context, last4 string) (*domain.BankAccount, error)

	// ListAccounts retrieves all bank accounts, optionally including inactive ones.
	ListAccounts(ctx context.Context, includeInactive bool) ([]domain.BankAccount, error)
}

// BankAccountWriter defines write operations for bank account data
type BankAccountWriter interface {
	// SaveAccount persists a new bank account.
	SaveAccount(ctx context.Context, account domain.BankAccount) error

	// DeactivateAccount marks an account as inactive.
	DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error
}

// BankAccountRepositoryFacade combines all bank-account repository interfaces.
type BankAccountRepositoryFacade interface {
	BankAccountReader
	BankAccountWriter
}
