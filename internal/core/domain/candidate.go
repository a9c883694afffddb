package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntityType identifies which backing table a candidate entity lives in.
type EntityType string

const (
	EntitySalary           EntityType = "salary"
	EntitySubscription     EntityType = "subscription"
	EntityExpense          EntityType = "expense"
	EntityOrderPayment     EntityType = "order_payment"
	EntitySettlement       EntityType = "settlement"
	EntityInternalTransfer EntityType = "internal_transfer"
)

// ValidEntityType reports whether s names one of the six candidate variants.
func ValidEntityType(s string) bool {
	switch EntityType(s) {
	case EntitySalary, EntitySubscription, EntityExpense, EntityOrderPayment, EntitySettlement, EntityInternalTransfer:
		return true
	}
	return false
}

// MonthlyCycle reports whether the entity type recurs on a monthly cycle,
// which widens its date window during candidate generation.
func (t EntityType) MonthlyCycle() bool {
	return t == EntitySalary || t == EntitySubscription
}

// EntityCandidate is the canonical read-only projection of a candidate target
// entity, taken at matching time. The reconciliation core never mutates the
// underlying entity; claiming writes back to the transaction row instead.
type EntityCandidate struct {
	EntityID       string          `json:"entityID"`
	EntityType     EntityType      `json:"entityType"`
	DisplayName    string          `json:"displayName"`
	ExpectedAmount decimal.Decimal `json:"expectedAmount"`
	ExpectedDate   time.Time       `json:"expectedDate"`
	AlreadyClaimed bool            `json:"alreadyClaimed"` // a matched transaction already references this entity
	CreatedAt      time.Time       `json:"createdAt"`      // tie-break: earliest entity wins
}
