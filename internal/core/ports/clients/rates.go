package clients

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ConvertQuery describes one conversion request against the external rate
// provider. Endpoint and CacheTTL come from the base book's exc_rates_url and
// exc_rates_cache properties; a zero TTL disables caching for the call.
type ConvertQuery struct {
	Amount   decimal.Decimal
	From     string
	To       string
	Date     string // ledger date text, as-of date for the rate
	Endpoint string
	CacheTTL time.Duration
}

// RateProvider converts amounts between currencies as of a date. An
// unresolvable pair is reported as apperrors.ErrRateNotFound, never defaulted.
type RateProvider interface {
	Convert(ctx context.Context, query ConvertQuery) (decimal.Decimal, error)
}
