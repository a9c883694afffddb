package models

import "time"

// AuditFields holds the common audit columns embedded in every persisted row.
type AuditFields struct {
	CreatedAt     time.Time `db:"created_at"`
	CreatedBy     string    `db:"created_by"` // UserID Reference
	LastUpdatedAt time.Time `db:"last_updated_at"`
	LastUpdatedBy string    `db:"last_updated_by"` // UserID Reference
}
