package mapping

import (
	"github.com/aggrandize/bankrecon/internal/core/domain"
	"github.com/aggrandize/bankrecon/internal/models"
)

// ToModelBankStatement converts a domain BankStatement to a model BankStatement
func ToModelBankStatement(d domain.BankStatement) models.BankStatement {
	return models.BankStatement{
		StatementID:         d.StatementID,
		AccountID:           d.AccountID,
		FileName:            d.FileName,
		FileType:            d.FileType,
		Status:              models.StatementStatus(d.Status),
		PeriodStart:         d.PeriodStart,
		PeriodEnd:           d.PeriodEnd,
		OpeningBalance:      d.OpeningBalance,
		ClosingBalance:      d.ClosingBalance,
		TotalCredits:        d.TotalCredits,
		TotalDebits:         d.TotalDebits,
		TotalTransactions:   d.TotalTransactions,
		MatchedTransactions: d.MatchedTransactions,
		MalformedRows:       d.MalformedRows,
		ErrorMessage:        d.ErrorMessage,
		ProcessedAt:         d.ProcessedAt,
		AuditFields:         ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainBankStatement converts a model BankStatement to a domain BankStatement
func ToDomainBankStatement(m models.BankStatement) domain.BankStatement {
	return domain.BankStatement{
		StatementID:         m.StatementID,
		AccountID:           m.AccountID,
		FileName:            m.FileName,
		FileType:            m.FileType,
		Status:              domain.StatementStatus(m.Status),
		PeriodStart:         m.PeriodStart,
		PeriodEnd:           m.PeriodEnd,
		OpeningBalance:      m.OpeningBalance,
		ClosingBalance:      m.ClosingBalance,
		TotalCredits:        m.TotalCredits,
		TotalDebits:         m.TotalDebits,
		TotalTransactions:   m.TotalTransactions,
		MatchedTransactions: m.MatchedTransactions,
		MalformedRows:       m.MalformedRows,
		ErrorMessage:        m.ErrorMessage,
		ProcessedAt:         m.ProcessedAt,
		AuditFields:         ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainBankStatementSlice converts a slice of model BankStatements to a slice of domain BankStatements
func ToDomainBankStatementSlice(ms []models.BankStatement) []domain.BankStatement {
	ds := make([]domain.BankStatement, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainBankStatement(m)
	}
	return ds
}
