package mapping

import (
	"github.com/aggrandize/bankrecon/internal/core/domain"
	"github.com/aggrandize/bankrecon/internal/models"
)

// ToModelMatchAuditLog converts a domain MatchAuditLog to a model MatchAuditLog
func ToModelMatchAuditLog(d domain.MatchAuditLog) models.MatchAuditLog {
	return models.MatchAuditLog{
		AuditID:            d.AuditID,
		TransactionID:      d.TransactionID,
		Action:             models.MatchAction(d.Action),
		PreviousStatus:     models.MatchStatus(d.PreviousStatus),
		NewStatus:          models.MatchStatus(d.NewStatus),
		PreviousEntityType: entityTypeToStringPtr(d.PreviousEntityType),
		PreviousEntityID:   d.PreviousEntityID,
		NewEntityType:      entityTypeToStringPtr(d.NewEntityType),
		NewEntityID:        d.NewEntityID,
		Confidence:         d.Confidence,
		Reason:             d.Reason,
		PerformedBy:        d.PerformedBy,
		CreatedAt:          d.CreatedAt,
	}
}

// ToDomainMatchAuditLog converts a model MatchAuditLog to a domain MatchAuditLog
func ToDomainMatchAuditLog(m models.MatchAuditLog) domain.MatchAuditLog {
	return domain.MatchAuditLog{
		AuditID:            m.AuditID,
		TransactionID:      m.TransactionID,
		Action:             domain.MatchAction(m.Action),
		PreviousStatus:     domain.MatchStatus(m.PreviousStatus),
		NewStatus:          domain.MatchStatus(m.NewStatus),
		PreviousEntityType: stringToEntityTypePtr(m.PreviousEntityType),
		PreviousEntityID:   m.PreviousEntityID,
		NewEntityType:      stringToEntityTypePtr(m.NewEntityType),
		NewEntityID:        m.NewEntityID,
		Confidence:         m.Confidence,
		Reason:             m.Reason,
		PerformedBy:        m.PerformedBy,
		CreatedAt:          m.CreatedAt,
	}
}

// ToDomainMatchAuditLogSlice converts a slice of model MatchAuditLogs to a slice of domain MatchAuditLogs
func ToDomainMatchAuditLogSlice(ms []models.MatchAuditLog) []domain.MatchAuditLog {
	ds := make([]domain.MatchAuditLog, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainMatchAuditLog(m)
	}
	return ds
}
