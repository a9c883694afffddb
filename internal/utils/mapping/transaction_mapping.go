package mapping

import (
	"github.com/aggrandize/bankrecon/internal/core/domain"
	"github.com/aggrandize/bankrecon/internal/models"
)

func entityTypeToStringPtr(t *domain.EntityType) *string {
	if t == nil {
		return nil
	}
	s := string(*t)
	return &s
}

func stringToEntityTypePtr(s *string) *domain.EntityType {
	if s == nil {
		return nil
	}
	t := domain.EntityType(*s)
	return &t
}

// ToModelBankTransaction converts a domain BankTransaction to a model BankTransaction
func ToModelBankTransaction(d domain.BankTransaction) models.BankTransaction {
	return models.BankTransaction{
		TransactionID:         d.TransactionID,
		StatementID:           d.StatementID,
		TransactionDate:       d.TransactionDate,
		ValueDate:             d.ValueDate,
		PostedDate:            d.PostedDate,
		Description:           d.Description,
		NormalizedDescription: d.NormalizedDescription,
		Amount:                d.Amount,
		Direction:             models.TransactionDirection(d.Direction),
		RunningBalance:        d.RunningBalance,
		PaymentMethod:         d.PaymentMethod,
		CounterpartyName:      d.CounterpartyName,
		CounterpartyBankCode:  d.CounterpartyBankCode,
		PurposeLabel:          d.PurposeLabel,
		ReferenceNumber:       d.ReferenceNumber,
		ImportHash:            d.ImportHash,
		MatchStatus:           models.MatchStatus(d.MatchStatus),
		MatchedEntityType:     entityTypeToStringPtr(d.MatchedEntityType),
		MatchedEntityID:       d.MatchedEntityID,
		MatchConfidence:       d.MatchConfidence,
		MatchReason:           d.MatchReason,
		SuggestedEntityType:   entityTypeToStringPtr(d.SuggestedEntityType),
		SuggestedEntityID:     d.SuggestedEntityID,
		SuggestedConfidence:   d.SuggestedConfidence,
		SuggestedReason:       d.SuggestedReason,
		MatchedAt:             d.MatchedAt,
		MatchedBy:             d.MatchedBy,
		AuditFields:           ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainBankTransaction converts a model BankTransaction to a domain BankTransaction
func ToDomainBankTransaction(m models.BankTransaction) domain.BankTransaction {
	return domain.BankTransaction{
		TransactionID:         m.TransactionID,
		StatementID:           m.StatementID,
		TransactionDate:       m.TransactionDate,
		ValueDate:             m.ValueDate,
		PostedDate:            m.PostedDate,
		Description:           m.Description,
		NormalizedDescription: m.NormalizedDescription,
		Amount:                m.Amount,
		Direction:             domain.TransactionDirection(m.Direction),
		RunningBalance:        m.RunningBalance,
		PaymentMethod:         m.PaymentMethod,
		CounterpartyName:      m.CounterpartyName,
		CounterpartyBankCode:  m.CounterpartyBankCode,
		PurposeLabel:          m.PurposeLabel,
		ReferenceNumber:       m.ReferenceNumber,
		ImportHash:            m.ImportHash,
		MatchStatus:           domain.MatchStatus(m.MatchStatus),
		MatchedEntityType:     stringToEntityTypePtr(m.MatchedEntityType),
		MatchedEntityID:       m.MatchedEntityID,
		MatchConfidence:       m.MatchConfidence,
		MatchReason:           m.MatchReason,
		SuggestedEntityType:   stringToEntityTypePtr(m.SuggestedEntityType),
		SuggestedEntityID:     m.SuggestedEntityID,
		SuggestedConfidence:   m.SuggestedConfidence,
		SuggestedReason:       m.SuggestedReason,
		MatchedAt:             m.MatchedAt,
		MatchedBy:             m.MatchedBy,
		AuditFields:           ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainBankTransactionSlice converts a slice of model BankTransactions to a slice of domain BankTransactions
func ToDomainBankTransactionSlice(ms []models.BankTransaction) []domain.BankTransaction {
	ds := make([]domain.BankTransaction, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainBankTransaction(m)
	}
	return ds
}
