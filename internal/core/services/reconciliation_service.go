package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ledgerlink/exchange-bot/internal/apperrors"
	"github.com/ledgerlink/exchange-bot/internal/core/domain"
	"github.com/ledgerlink/exchange-bot/internal/core/ports/clients"
	portssvc "github.com/ledgerlink/exchange-bot/internal/core/ports/services"
	"github.com/ledgerlink/exchange-bot/internal/middleware"
)

// Tags attached to adjusting entries so gains and losses can be filtered in
// the ledger UI.
const (
	tagExchangeLoss = "#exchange_loss"
	tagExchangeGain = "#exchange_gain"
)

// reconciliationService computes balance drift between a base book and its
// connected books as of a date and posts adjusting entries. For each
// connected book, the base group named after the connected code enumerates
// the accounts holding balances in that currency.
type reconciliationService struct {
	ledger          clients.LedgerClient
	rates           clients.RateProvider
	defaultEndpoint string
}

// NewReconciliationService creates a new reconciliation service.
func NewReconciliationService(ledger clients.LedgerClient, rates clients.RateProvider, defaultEndpoint string) portssvc.ReconcileSvcFacade {
	return &reconciliationService{
		ledger:          ledger,
		rates:           rates,
		defaultEndpoint: defaultEndpoint,
	}
}

var _ portssvc.ReconcileSvcFacade = (*reconciliationService)(nil)

// UpdateGainLoss implements portssvc.ReconcileSvcFacade.
func (s *reconciliationService) UpdateGainLoss(ctx context.Context, bookID string, date string) ([]string, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	book, err := s.ledger.GetBook(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch book %s: %w", bookID, err)
	}
	baseCode := book.ExchangeCode()
	if baseCode == "" {
		return nil, fmt.Errorf("%w: book %s has no %s property", apperrors.ErrConfiguration, bookID, domain.PropExcCode)
	}

	responses := make([]string, 0)
	var reconcileErrs []error
	for _, connectedID := range book.ConnectedBookIDs() {
		connectedBook, err := s.ledger.GetBook(ctx, connectedID)
		if err != nil {
			logger.Warn("Connected book not resolvable, skipping", slog.String("connected_book_id", connectedID), slog.String("error", err.Error()))
			continue
		}
		connectedCode := connectedBook.ExchangeCode()
		if connectedCode == "" {
			continue
		}

		lines, err := s.reconcileConnectedBook(ctx, book, connectedBook, baseCode, connectedCode, date)
		if err != nil {
			logger.Error("Reconciliation against connected book failed",
				slog.String("connected_book_id", connectedID),
				slog.String("error", err.Error()),
			)
			reconcileErrs = append(reconcileErrs, fmt.Errorf("book %s: %w", connectedID, err))
			continue
		}
		responses = append(responses, lines...)
	}

	return responses, errors.Join(reconcileErrs...)
}

// reconcileConnectedBook walks the base group named after the connected code
// and posts one adjusting entry per drifted account.
func (s *reconciliationService) reconcileConnectedBook(ctx context.Context, book, connectedBook *domain.Book, baseCode, connectedCode, date string) ([]string, error) {
	group, err := s.ledger.GetGroupByName(ctx, book.BookID, connectedCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// No currency group for this book: nothing enumerated, nothing to do.
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up group %q: %w", connectedCode, err)
	}

	accounts, err := s.ledger.GroupAccounts(ctx, book.BookID, group.GroupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts of group %q: %w", connectedCode, err)
	}

	lines := make([]string, 0)
	for _, account := range accounts {
		line, err := s.reconcileAccount(ctx, book, connectedBook, account, baseCode, connectedCode, date)
		if err != nil {
			return nil, err
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func (s *reconciliationService) reconcileAccount(ctx context.Context, book, connectedBook *domain.Book, account domain.Account, baseCode, connectedCode, date string) (string, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	connectedAccount, err := s.ledger.GetAccountByName(ctx, connectedBook.BookID, account.Name)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to look up account %q in connected book: %w", account.Name, err)
	}

	connectedBalance, err := s.ledger.GetBalance(ctx, connectedBook.BookID, connectedAccount.AccountID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch balance of %q in connected book: %w", account.Name, err)
	}
	expectedBalance, err := s.rates.Convert(ctx, clients.ConvertQuery{
		Amount:   connectedBalance,
		From:     connectedCode,
		To:       baseCode,
		Date:     date,
		Endpoint: RatesEndpoint(book, s.defaultEndpoint),
		CacheTTL: RatesCacheTTL(book),
	})
	if err != nil {
		return "", fmt.Errorf("failed to convert balance of %q from %s to %s as of %s: %w", account.Name, connectedCode, baseCode, date, err)
	}
	baseBalance, err := s.ledger.GetBalance(ctx, book.BookID, account.AccountID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch balance of %q in base book: %w", account.Name, err)
	}

	delta := baseBalance.Sub(expectedBalance)
	if account.AccountType.NormallyCredit() {
		delta = delta.Neg()
	}

	// Rounding to the nearest unit only decides whether to post; the posted
	// amount is the unrounded absolute delta.
	rounded := delta.Round(0)
	if rounded.IsZero() {
		return "", nil
	}

	adjustment, err := s.adjustmentAccount(ctx, book, account, connectedCode)
	if err != nil {
		return "", err
	}

	amount := delta.Abs()
	entry := domain.Transaction{
		Date:   date,
		Amount: &amount,
		Status: domain.Draft,
	}
	if rounded.IsPositive() {
		entry.Description = tagExchangeLoss
		entry.DebitAccount = account.AccountID
		entry.CreditAccount = adjustment.AccountID
	} else {
		entry.Description = tagExchangeGain
		entry.DebitAccount = adjustment.AccountID
		entry.CreditAccount = account.AccountID
	}

	created, err := s.ledger.CreateTransaction(ctx, book.BookID, entry)
	if err != nil {
		return "", fmt.Errorf("failed to create adjusting entry for %q: %w", account.Name, err)
	}
	if err := s.ledger.PostTransaction(ctx, book.BookID, created.TransactionID); err != nil {
		return "", fmt.Errorf("failed to post adjusting entry for %q: %w", account.Name, err)
	}

	logger.Info("Adjusting entry posted",
		slog.String("account", account.Name),
		slog.String("adjustment_account", adjustment.Name),
		slog.String("amount", book.FormatValue(amount)),
		slog.String("tag", entry.Description),
	)
	return fmt.Sprintf("%s: %s %s %s %s",
		buildBookAnchor(s.ledger, book),
		account.Name,
		adjustment.Name,
		book.FormatValue(amount),
		entry.Description,
	), nil
}

// adjustmentAccount resolves (or creates) the gain/loss account for a
// reconciled account: "<exc_acc_prefix> - <account>" when the base book sets
// a prefix, otherwise the fixed Exchange_<code> fallback.
func (s *reconciliationService) adjustmentAccount(ctx context.Context, book *domain.Book, account domain.Account, connectedCode string) (*domain.Account, error) {
	name := fmt.Sprintf("Exchange_%s", connectedCode)
	if prefix := book.Property(domain.PropExcAccountPrefix); prefix != "" {
		name = fmt.Sprintf("%s - %s", prefix, account.Name)
	}

	existing, err := s.ledger.GetAccountByName(ctx, book.BookID, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up adjustment account %q: %w", name, err)
	}

	created, err := s.ledger.CreateAccount(ctx, book.BookID, domain.Account{
		Name:        name,
		AccountType: domain.Income,
	}, nil)
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return s.ledger.GetAccountByName(ctx, book.BookID, name)
		}
		return nil, fmt.Errorf("failed to create adjustment account %q: %w", name, err)
	}
	return created, nil
}
