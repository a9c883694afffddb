package models

// BankAccountType defines the product type of a tracked bank account.
type BankAccountType string

const (
	Savings    BankAccountType = "savings"
	Current    BankAccountType = "current"
	CashCredit BankAccountType = "cash_credit"
	Overdraft  BankAccountType = "overdraft"
)

// BankAccount represents a bank account row that statements are imported against.
type BankAccount struct {
	AccountID          string          `db:"account_id"`
	BankName           string          `db:"bank_name"`
	AccountNumber      string          `db:"account_number"`
	AccountNumberLast4 string          `db:"account_number_last4"` // Denormalized for statement auto-linking
	AccountType        BankAccountType `db:"account_type"`
	IsPrimary          bool            `db:"is_primary"`
	IsActive           bool            `db:"is_active"`
	AuditFields                        // Embed common audit fields
}
