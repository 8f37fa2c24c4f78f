package domain

import (
	"github.com/shopspring/decimal"
)

// TransactionStatus tracks a transaction through its ledger lifecycle.
// Checked implies posted.
type TransactionStatus string

const (
	Draft   TransactionStatus = "DRAFT"
	Posted  TransactionStatus = "POSTED"
	Checked TransactionStatus = "CHECKED"
)

// Transaction is a single double-entry record in a book. A mirrored
// transaction carries the source transaction's id among its remote ids;
// that tag is the idempotency key for the whole sync engine.
type Transaction struct {
	TransactionID string            `json:"transactionID"`
	Date          string            `json:"date"` // ledger date text, copied verbatim when mirroring
	Amount        *decimal.Decimal  `json:"amount,omitempty"`
	CreditAccount string            `json:"creditAccount"` // account id, empty while unresolved
	DebitAccount  string            `json:"debitAccount"`
	Description   string            `json:"description"`
	Properties    map[string]string `json:"properties"`
	RemoteIDs     []string          `json:"remoteIDs"`
	Status        TransactionStatus `json:"status"`
}

// IsPosted reports whether the transaction has left draft state.
func (t *Transaction) IsPosted() bool {
	return t.Status == Posted || t.Status == Checked
}

// IsChecked reports whether the transaction has been checked.
func (t *Transaction) IsChecked() bool {
	return t.Status == Checked
}

// ReadyToPost is the posting precondition: both accounts resolved and the
// amount known. Anything less stays a draft for manual completion.
func (t *Transaction) ReadyToPost() bool {
	return t.CreditAccount != "" && t.DebitAccount != "" && t.Amount != nil
}

// SetProperty sets a transaction property, allocating the map if needed.
func (t *Transaction) SetProperty(key, value string) {
	if t.Properties == nil {
		t.Properties = make(map[string]string)
	}
	t.Properties[key] = value
}

// Amount helpers: amounts are optional on drafts, so the field is a pointer.

// AmountOrZero returns the amount, or zero when unset.
func (t *Transaction) AmountOrZero() decimal.Decimal {
	if t.Amount == nil {
		return decimal.Zero
	}
	return *t.Amount
}
