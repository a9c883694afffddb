package dto

import (
	"time"

	"github.com/aggrandize/bankrecon/internal/core/domain"
)

// CreateBankAccountRequest defines the data needed to register a bank account.
type CreateBankAccountRequest struct {
	BankName      string                 `json:"bankName" binding:"required"`
	AccountNumber string                 `json:"accountNumber" binding:"required,min=6"`
	AccountType   domain.BankAccountType `json:"accountType" binding:"required,oneof=savings current cash_credit overdraft"`
	IsPrimary     bool                   `json:"isPrimary"`
}

// BankAccountResponse defines the data returned for a bank account.
// Mirrors domain.BankAccount.
type BankAccountResponse struct {
	AccountID          string                 `json:"accountID"`
	BankName           string                 `json:"bankName"`
	AccountNumber      string                 `json:"accountNumber"`
	AccountNumberLast4 string                 `json:"accountNumberLast4"`
	AccountType        domain.BankAccountType `json:"accountType"`
	IsPrimary          bool                   `json:"isPrimary"`
	IsActive           bool                   `json:"isActive"`
	CreatedAt          time.Time              `json:"createdAt"`
	CreatedBy          string                 `json:"createdBy"`
	LastUpdatedAt      time.Time              `json:"lastUpdatedAt"`
	LastUpdatedBy      string                 `json:"lastUpdatedBy"`
}

// ListBankAccountsResponse wraps the registered accounts.
type ListBankAccountsResponse struct {
	Accounts []BankAccountResponse `json:"accounts"`
}

// ToBankAccountResponse converts a domain.BankAccount to BankAccountResponse DTO
func ToBankAccountResponse(acc *domain.BankAccount) BankAccountResponse {
	return BankAccountResponse{
		AccountID:          acc.AccountID,
		BankName:           acc.BankName,
		AccountNumber:      acc.AccountNumber,
		AccountNumberLast4: acc.AccountNumberLast4,
		AccountType:        acc.AccountType,
		IsPrimary:          acc.IsPrimary,
		IsActive:           acc.IsActive,
		CreatedAt:          acc.CreatedAt,
		CreatedBy:          acc.CreatedBy,
		LastUpdatedAt:      acc.LastUpdatedAt,
		LastUpdatedBy:      acc.LastUpdatedBy,
	}
}

// ToBankAccountResponses converts a slice of domain accounts to DTOs.
func ToBankAccountResponses(accounts []domain.BankAccount) []BankAccountResponse {
	responses := make([]BankAccountResponse, len(accounts))
	for i := range accounts {
		responses[i] = ToBankAccountResponse(&accounts[i])
	}
	return responses
}
