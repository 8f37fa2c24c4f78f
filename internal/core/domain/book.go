package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Property keys understood by the sync engine. All of them live in a book's
// free-form property map on the ledger platform.
const (
	// PropExcCode names a book's accounting currency. A book without it is
	// excluded from all synchronization.
	PropExcCode = "exc_code"

	// PropExcRate and PropExcBaseCode are written onto a mirrored transaction
	// when an inline override determined its amount, for auditability.
	PropExcRate     = "exc_rate"
	PropExcBaseCode = "exc_base_code"

	// PropExcAutoCheck, when truthy on the base book, checks a mirrored
	// transaction immediately after posting it.
	PropExcAutoCheck = "exc_auto_check"

	// PropExcRatesURL and PropExcRatesCache configure the external rate
	// provider endpoint and its cache TTL (seconds) per book.
	PropExcRatesURL   = "exc_rates_url"
	PropExcRatesCache = "exc_rates_cache"

	// PropExcAccountPrefix overrides the adjustment account naming used by
	// the reconciliation job.
	PropExcAccountPrefix = "exc_acc_prefix"
)

// Connected books are discovered through properties keyed exc_<code>_book
// whose value is the connected book's id.
const (
	connectedBookKeyPrefix = "exc_"
	connectedBookKeySuffix = "_book"
)

// Book is a ledger on the platform: its formatting settings plus the property
// map that carries all sync configuration.
type Book struct {
	BookID           string            `json:"bookID"`
	Name             string            `json:"name"`
	FractionDigits   int32             `json:"fractionDigits"`
	DatePattern      string            `json:"datePattern"`
	DecimalSeparator string            `json:"decimalSeparator"`
	TimeZone         string            `json:"timeZone"`
	Properties       map[string]string `json:"properties"`
}

// Property returns the trimmed value of a book property, or "" when unset.
func (b *Book) Property(key string) string {
	if b.Properties == nil {
		return ""
	}
	return strings.TrimSpace(b.Properties[key])
}

// SetProperty sets a book property, allocating the map if needed.
func (b *Book) SetProperty(key, value string) {
	if b.Properties == nil {
		b.Properties = make(map[string]string)
	}
	b.Properties[key] = value
}

// ExchangeCode returns the book's accounting currency code, uppercased.
// Empty means the book does not participate in synchronization.
func (b *Book) ExchangeCode() string {
	return strings.ToUpper(b.Property(PropExcCode))
}

// ConnectedBookIDs scans the property map for the exc_<code>_book naming
// convention and returns the referenced book ids, skipping empty values.
func (b *Book) ConnectedBookIDs() []string {
	ids := make([]string, 0)
	for key, value := range b.Properties {
		if !strings.HasPrefix(key, connectedBookKeyPrefix) || !strings.HasSuffix(key, connectedBookKeySuffix) {
			continue
		}
		if id := strings.TrimSpace(value); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// FormatValue renders an amount per the book's fraction digits and decimal
// separator, the way the platform renders it in the ledger UI.
func (b *Book) FormatValue(value decimal.Decimal) string {
	formatted := value.StringFixed(b.FractionDigits)
	if b.DecimalSeparator != "" && b.DecimalSeparator != "." {
		formatted = strings.Replace(formatted, ".", b.DecimalSeparator, 1)
	}
	return formatted
}
