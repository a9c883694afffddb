package mapping

import (
	"github.com/aggrandize/bankrecon/internal/core/domain"
	"github.com/aggrandize/bankrecon/internal/models"
)

// ToModelBankAccount converts a domain BankAccount to a model BankAccount
func ToModelBankAccount(d domain.BankAccount) models.BankAccount {
	return models.BankAccount{
		AccountID:          d.AccountID,
		BankName:           d.BankName,
		AccountNumber:      d.AccountNumber,
		AccountNumberLast4: d.AccountNumberLast4,
		AccountType:        models.BankAccountType(d.AccountType),
		IsPrimary:          d.IsPrimary,
		IsActive:           d.IsActive,
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			CreatedBy:     d.CreatedBy,
			LastUpdatedAt: d.LastUpdatedAt,
			LastUpdatedBy: d.LastUpdatedBy,
		},
	}
}

// ToDomainBankAccount converts a model BankAccount to a domain BankAccount
func ToDomainBankAccount(m models.BankAccount) domain.BankAccount {
	return domain.BankAccount{
		AccountID:          m.AccountID,
		BankName:           m.BankName,
		AccountNumber:      m.AccountNumber,
		AccountNumberLast4: m.AccountNumberLast4,
		AccountType:        domain.BankAccountType(m.AccountType),
		IsPrimary:          m.IsPrimary,
		IsActive:           m.IsActive,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

// ToDomainBankAccountSlice converts a slice of model BankAccounts to a slice of domain BankAccounts
func ToDomainBankAccountSlice(ms []models.BankAccount) []domain.BankAccount {
	ds := make([]domain.BankAccount, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainBankAccount(m)
	}
	return ds
}
