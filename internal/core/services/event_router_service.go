package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerlink/exchange-bot/internal/apperrors"
	"github.com/ledgerlink/exchange-bot/internal/core/domain"
	"github.com/ledgerlink/exchange-bot/internal/core/ports/clients"
	portsrepo "github.com/ledgerlink/exchange-bot/internal/core/ports/repositories"
	portssvc "github.com/ledgerlink/exchange-bot/internal/core/ports/services"
	"github.com/ledgerlink/exchange-bot/internal/middleware"
)

// missingExchangeCodeMessage is surfaced to the event source verbatim when the
// base book carries no currency code; nothing is dispatched in that case.
const missingExchangeCodeMessage = `Please set the "exc_code" property of this book.`

// eventRouterService resolves a base book's connected books and invokes the
// matching mirror once per connected book. Failures are scoped per connected
// book: one book's failure never blocks the others.
type eventRouterService struct {
	ledger    clients.LedgerClient
	mirror    *TransactionMirrorService
	groups    *GroupMirrorService
	books     *BookSyncService
	syncLog   portsrepo.SyncLogRepository
	publisher clients.EventPublisher
}

// NewEventRouterService creates the router. syncLog and publisher are
// optional; nil disables the audit log and event publishing respectively.
func NewEventRouterService(
	ledger clients.LedgerClient,
	mirror *TransactionMirrorService,
	groups *GroupMirrorService,
	books *BookSyncService,
	syncLog portsrepo.SyncLogRepository,
	publisher clients.EventPublisher,
) portssvc.EventDispatchSvcFacade {
	return &eventRouterService{
		ledger:    ledger,
		mirror:    mirror,
		groups:    groups,
		books:     books,
		syncLog:   syncLog,
		publisher: publisher,
	}
}

var _ portssvc.EventDispatchSvcFacade = (*eventRouterService)(nil)

// DispatchEvent implements portssvc.EventDispatchSvcFacade.
func (s *eventRouterService) DispatchEvent(ctx context.Context, event domain.Event) ([]string, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if event.Kind == domain.EventUnknown {
		return nil, nil
	}
	if err := validateEventPayload(event); err != nil {
		return nil, err
	}

	baseBook, err := s.ledger.GetBook(ctx, event.BookID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch base book %s: %w", event.BookID, err)
	}
	if baseBook.ExchangeCode() == "" {
		logger.Warn("Base book has no exchange code, dispatch aborted", slog.String("book_id", event.BookID))
		return []string{missingExchangeCodeMessage}, nil
	}

	responses := make([]string, 0)
	var dispatchErrs []error
	for _, connectedID := range baseBook.ConnectedBookIDs() {
		connectedBook, err := s.ledger.GetBook(ctx, connectedID)
		if err != nil {
			logger.Warn("Connected book property does not resolve to a book, skipping",
				slog.String("book_id", event.BookID),
				slog.String("connected_book_id", connectedID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if connectedBook.ExchangeCode() == "" {
			continue
		}

		response, err := s.dispatchToBook(ctx, baseBook, connectedBook, event)
		if err != nil {
			logger.Error("Dispatch to connected book failed",
				slog.String("connected_book_id", connectedID),
				slog.String("event_kind", string(event.Kind)),
				slog.String("error", err.Error()),
			)
			dispatchErrs = append(dispatchErrs, fmt.Errorf("book %s: %w", connectedID, err))
			continue
		}
		if response == "" {
			continue
		}

		responses = append(responses, response)
		s.recordOutcome(ctx, event, connectedID, response)
	}

	return responses, errors.Join(dispatchErrs...)
}

// validateEventPayload rejects events whose body omits the object their kind
// concerns, before any book is fetched.
func validateEventPayload(event domain.Event) error {
	switch event.Kind {
	case domain.EventTransactionPosted, domain.EventTransactionChecked:
		if event.Transaction == nil {
			return fmt.Errorf("%w: %s event carries no transaction", apperrors.ErrValidation, event.Kind)
		}
	case domain.EventGroupCreated, domain.EventGroupUpdated:
		if event.Group == nil {
			return fmt.Errorf("%w: %s event carries no group", apperrors.ErrValidation, event.Kind)
		}
	}
	return nil
}

func (s *eventRouterService) dispatchToBook(ctx context.Context, baseBook, connectedBook *domain.Book, event domain.Event) (string, error) {
	switch event.Kind {
	case domain.EventTransactionPosted, domain.EventTransactionChecked:
		return s.mirror.MirrorTransaction(ctx, baseBook, connectedBook, event.Transaction)
	case domain.EventGroupCreated, domain.EventGroupUpdated:
		return s.groups.MirrorGroup(ctx, baseBook, connectedBook, event.Group, event.PreviousName())
	case domain.EventBookUpdated:
		return s.books.SyncBookMetadata(ctx, baseBook, connectedBook)
	default:
		return "", nil
	}
}

// recordOutcome writes the audit record and publishes the stream event.
// Both are best-effort supplements; failures are logged only.
func (s *eventRouterService) recordOutcome(ctx context.Context, event domain.Event, connectedBookID, response string) {
	logger := middleware.GetLoggerFromCtx(ctx)

	record := domain.SyncRecord{
		SyncID:          uuid.NewString(),
		BookID:          event.BookID,
		ConnectedBookID: connectedBookID,
		EventKind:       event.Kind,
		Result:          response,
		CreatedAt:       time.Now().UTC(),
	}
	if event.Transaction != nil {
		record.RemoteID = event.Transaction.TransactionID
	}

	if s.syncLog != nil {
		if err := s.syncLog.SaveSyncRecord(ctx, record); err != nil {
			logger.Warn("Failed to save sync record", slog.String("error", err.Error()))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, record.BookID, record); err != nil {
			logger.Warn("Failed to publish sync event", slog.String("error", err.Error()))
		}
	}
}
