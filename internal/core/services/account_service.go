package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aggrandize/bankrecon/internal/apperrors"
	"github.com/aggrandize/bankrecon/internal/core/domain"
	portsrepo "github.com/aggrandize/bankrecon/internal/core/ports/repositories"
	portssvc "github.com/aggrandize/bankrecon/internal/core/ports/services"
	"github.com/aggrandize/bankrecon/internal/dto"
	"github.com/aggrandize/bankrecon/internal/middleware"
	"github.com/google/uuid"
)

// AccountService manages the bank accounts statements get linked to.
// Accounts are immutable once registered except for deactivation.
type AccountService struct {
	accountRepo portsrepo.BankAccountRepositoryFacade
}

// Ensure AccountService implements portssvc.AccountSvcFacade
var _ portssvc.AccountSvcFacade = (*AccountService)(nil)

func NewAccountService(accountRepo portsrepo.BankAccountRepositoryFacade) *AccountService {
	return &AccountService{accountRepo: accountRepo}
}

func (s *AccountService) GetAccountByID(ctx context.Context, accountID string) (*domain.BankAccount, error) {
	return s.accountRepo.FindAccountByID(ctx, accountID)
}

func (s *AccountService) ListAccounts(ctx context.Context, includeInactive bool) ([]domain.BankAccount, error) {
	return s.accountRepo.ListAccounts(ctx, includeInactive)
}

func (s *AccountService) CreateAccount(ctx context.Context, req dto.CreateBankAccountRequest, userID string) (*domain.BankAccount, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if len(req.AccountNumber) < 6 {
		return nil, fmt.Errorf("%w: account number must have at least 6 digits", apperrors.ErrValidation)
	}
	switch req.AccountType {
	case domain.AccountSavings, domain.AccountCurrent, domain.AccountCashCred, domain.AccountOverdraft:
	default:
		return nil, fmt.Errorf("%w: unknown account type %q", apperrors.ErrValidation, req.AccountType)
	}

	now := time.Now()
	account := domain.BankAccount{
		AccountID:          uuid.NewString(),
		BankName:           req.BankName,
		AccountNumber:      req.AccountNumber,
		AccountNumberLast4: req.AccountNumber[len(req.AccountNumber)-4:],
		AccountType:        req.AccountType,
		IsPrimary:          req.IsPrimary,
		IsActive:           true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		return nil, err
	}

	logger.Info("bank account registered", "account_id", account.AccountID, "bank_name", account.BankName)
	return &account, nil
}

func (s *AccountService) DeactivateAccount(ctx context.Context, accountID string, userID string) error {
	return s.accountRepo.DeactivateAccount(ctx, accountID, userID, time.Now())
}
