package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ledgerlink/exchange-bot/internal/core/domain"
	"github.com/ledgerlink/exchange-bot/internal/core/ports/clients"
	"github.com/ledgerlink/exchange-bot/internal/middleware"
)

// BookSyncService copies formatting and rate-source settings from the base
// book to a connected book whenever they diverge, so both books render the
// same economic events consistently.
type BookSyncService struct {
	ledger clients.LedgerClient
}

// NewBookSyncService creates a new BookSyncService.
func NewBookSyncService(ledger clients.LedgerClient) *BookSyncService {
	return &BookSyncService{ledger: ledger}
}

// SyncBookMetadata diffs the synchronized fields and persists the connected
// book only when at least one changed. The returned line describes the
// changes, or "" when the books already agree.
func (s *BookSyncService) SyncBookMetadata(ctx context.Context, baseBook, connectedBook *domain.Book) (string, error) {
	if connectedBook.ExchangeCode() == "" {
		return "", nil
	}

	response := ""

	if baseBook.FractionDigits != connectedBook.FractionDigits {
		connectedBook.FractionDigits = baseBook.FractionDigits
		response += fmt.Sprintf(" decimal places: %d", baseBook.FractionDigits)
	}
	if baseBook.DatePattern != connectedBook.DatePattern {
		connectedBook.DatePattern = baseBook.DatePattern
		response += fmt.Sprintf(" date pattern: %s", baseBook.DatePattern)
	}
	if baseBook.DecimalSeparator != connectedBook.DecimalSeparator {
		connectedBook.DecimalSeparator = baseBook.DecimalSeparator
		response += fmt.Sprintf(" decimal separator: %s", baseBook.DecimalSeparator)
	}
	if baseBook.TimeZone != connectedBook.TimeZone {
		connectedBook.TimeZone = baseBook.TimeZone
		response += fmt.Sprintf(" time zone: %s", baseBook.TimeZone)
	}
	if baseRatesURL := baseBook.Property(domain.PropExcRatesURL); baseRatesURL != connectedBook.Property(domain.PropExcRatesURL) {
		connectedBook.SetProperty(domain.PropExcRatesURL, baseRatesURL)
		response += fmt.Sprintf(" %s: %s", domain.PropExcRatesURL, baseRatesURL)
	}
	if baseRatesCache := baseBook.Property(domain.PropExcRatesCache); baseRatesCache != connectedBook.Property(domain.PropExcRatesCache) {
		connectedBook.SetProperty(domain.PropExcRatesCache, baseRatesCache)
		response += fmt.Sprintf(" %s: %s", domain.PropExcRatesCache, baseRatesCache)
	}

	if response == "" {
		return "", nil
	}

	if err := s.ledger.UpdateBook(ctx, *connectedBook); err != nil {
		return "", fmt.Errorf("failed to update connected book %s: %w", connectedBook.BookID, err)
	}

	middleware.GetLoggerFromCtx(ctx).Info("Connected book metadata synchronized",
		slog.String("connected_book_id", connectedBook.BookID),
		slog.String("changes", response),
	)
	return fmt.Sprintf("%s:%s", buildBookAnchor(s.ledger, connectedBook), response), nil
}
