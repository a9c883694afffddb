package domain

// BankAccountType classifies the physical account at the bank.
type BankAccountType string

const (
	AccountSavings   BankAccountType = "savings"
	AccountCurrent   BankAccountType = "current"
	AccountCashCred  BankAccountType = "cash_credit"
	AccountOverdraft BankAccountType = "overdraft"
)

// BankAccount identifies a physical account statements are uploaded against.
// Immutable once created except for the activation flag.
type BankAccount struct {
	AccountID          string          `json:"accountID"`
	BankName           string          `json:"bankName"`
	AccountNumber      string          `json:"accountNumber"`
	AccountNumberLast4 string          `json:"accountNumberLast4"` // used to resolve the owning account from extraction output
	AccountType        BankAccountType `json:"accountType"`
	IsPrimary          bool            `json:"isPrimary"`
	IsActive           bool            `json:"isActive"`
	AuditFields
}
