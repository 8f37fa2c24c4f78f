package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ledgerlink/exchange-bot/internal/apperrors"
	"github.com/ledgerlink/exchange-bot/internal/core/domain"
	"github.com/ledgerlink/exchange-bot/internal/core/ports/clients"
	"github.com/ledgerlink/exchange-bot/internal/middleware"
	"github.com/shopspring/decimal"
)

// AmountDescription is the resolver's result: the amount to use in the
// connected book, the (possibly rewritten) description, and, when an inline
// override was applied, the base code and effective rate for auditing.
type AmountDescription struct {
	Amount      *decimal.Decimal
	Description string
	BaseCode    string
	Rate        *decimal.Decimal
}

// AmountService determines the converted amount and description for a
// mirrored transaction: an inline override token in the description takes
// strict precedence, otherwise the external rate provider is consulted.
type AmountService struct {
	rates           clients.RateProvider
	defaultEndpoint string
}

// NewAmountService creates a new AmountService. defaultEndpoint is used for
// books that carry no exc_rates_url property.
func NewAmountService(rates clients.RateProvider, defaultEndpoint string) *AmountService {
	return &AmountService{
		rates:           rates,
		defaultEndpoint: defaultEndpoint,
	}
}

// ResolveAmountDescription resolves the connected-book amount for txn.
// A nil Amount in the result means no rate could be determined; the caller
// treats that as a rate-not-found failure.
func (s *AmountService) ResolveAmountDescription(ctx context.Context, baseBook, connectedBook *domain.Book, baseCode, connectedCode string, txn *domain.Transaction) (*AmountDescription, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if override := s.parseOverrideToken(baseCode, connectedCode, txn); override != nil {
		logger.Debug("Resolved amount from inline override token",
			slog.String("transaction_id", txn.TransactionID),
			slog.String("code", connectedCode),
			slog.String("amount", override.Amount.String()),
		)
		return override, nil
	}

	if txn.Amount == nil {
		return &AmountDescription{Description: txn.Description}, nil
	}

	converted, err := s.rates.Convert(ctx, clients.ConvertQuery{
		Amount:   *txn.Amount,
		From:     baseCode,
		To:       connectedCode,
		Date:     txn.Date,
		Endpoint: RatesEndpoint(baseBook, s.defaultEndpoint),
		CacheTTL: RatesCacheTTL(baseBook),
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrRateNotFound) {
			return &AmountDescription{Description: txn.Description}, nil
		}
		return nil, fmt.Errorf("failed to convert %s from %s to %s: %w", txn.Amount.String(), baseCode, connectedCode, err)
	}

	amount := converted.Round(connectedBook.FractionDigits)
	return &AmountDescription{
		Amount:      &amount,
		Description: txn.Description,
	}, nil
}

// parseOverrideToken scans the description for a whitespace-delimited token
// prefixed with the connected code, e.g. "EUR120". The remainder is the exact
// amount to use, and the token is replaced by the base code plus the original
// amount so the mirrored description still shows the source value.
func (s *AmountService) parseOverrideToken(baseCode, connectedCode string, txn *domain.Transaction) *AmountDescription {
	if connectedCode == "" {
		return nil
	}
	parts := strings.Fields(txn.Description)
	for i, token := range parts {
		if !strings.HasPrefix(strings.ToUpper(token), connectedCode) {
			continue
		}
		raw := token[len(connectedCode):]
		// Tolerate sentence punctuation stuck to the token ("EUR120,").
		digits := strings.TrimRightFunc(raw, func(r rune) bool { return r < '0' || r > '9' })
		suffix := raw[len(digits):]
		if digits == "" {
			continue
		}
		amount, err := decimal.NewFromString(strings.ReplaceAll(digits, ",", "."))
		if err != nil {
			continue
		}

		result := &AmountDescription{
			Amount:   &amount,
			BaseCode: baseCode,
		}
		if txn.Amount != nil {
			parts[i] = baseCode + txn.Amount.String() + suffix
			if !txn.Amount.IsZero() {
				rate := amount.Div(*txn.Amount)
				result.Rate = &rate
			}
		} else {
			parts[i] = baseCode + suffix
		}
		result.Description = strings.Join(parts, " ")
		return result
	}
	return nil
}

// RatesEndpoint returns the rate provider endpoint for a book, falling back
// to the process-wide default when the book carries none.
func RatesEndpoint(book *domain.Book, defaultEndpoint string) string {
	if endpoint := book.Property(domain.PropExcRatesURL); endpoint != "" {
		return endpoint
	}
	return defaultEndpoint
}

// RatesCacheTTL parses the book's exc_rates_cache property (seconds).
// Absent or unparsable values disable caching.
func RatesCacheTTL(book *domain.Book) time.Duration {
	raw := book.Property(domain.PropExcRatesCache)
	if raw == "" {
		return 0
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
