package domain

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Income    AccountType = "INCOME"
	Expense   AccountType = "EXPENSE"
)

// NormallyCredit reports whether the type carries a credit normal balance.
// Reconciliation inverts drift deltas for these accounts.
func (t AccountType) NormallyCredit() bool {
	switch t {
	case Liability, Equity, Income:
		return true
	default:
		return false
	}
}

// Account represents a ledger account. The name is the only cross-book join
// key: mirrored books hold equally named accounts, there is no shared id.
type Account struct {
	AccountID   string            `json:"accountID"`
	Name        string            `json:"name"`
	AccountType AccountType       `json:"accountType"`
	Properties  map[string]string `json:"properties"`
}
