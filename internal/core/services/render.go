package services

import (
	"fmt"

	"github.com/ledgerlink/exchange-bot/internal/core/domain"
	"github.com/ledgerlink/exchange-bot/internal/core/ports/clients"
)

// buildBookAnchor renders the link that prefixes every response line, so the
// event source can point the user at the affected book.
func buildBookAnchor(ledger clients.LedgerClient, book *domain.Book) string {
	return fmt.Sprintf("<a href='%s' target='_blank'>%s</a>", ledger.BookLink(book.BookID), book.Name)
}
