package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledgerlink/exchange-bot/internal/apperrors"
	"github.com/ledgerlink/exchange-bot/internal/core/domain"
	"github.com/ledgerlink/exchange-bot/internal/core/ports/clients"
	"github.com/ledgerlink/exchange-bot/internal/middleware"
)

// TransactionMirrorService keeps one mirrored transaction per (source
// transaction id, connected book). The source transaction's id is carried as
// a remote id on the mirror and acts as the idempotency key: re-delivery of
// the same event finds and reuses the mirror, never duplicates it.
type TransactionMirrorService struct {
	ledger    clients.LedgerClient
	amounts   *AmountService
	provision *ProvisionService
}

// NewTransactionMirrorService creates a new TransactionMirrorService.
func NewTransactionMirrorService(ledger clients.LedgerClient, amounts *AmountService, provision *ProvisionService) *TransactionMirrorService {
	return &TransactionMirrorService{
		ledger:    ledger,
		amounts:   amounts,
		provision: provision,
	}
}

// MirrorTransaction finds or creates the mirror of txn in the connected book
// and returns a one-line human-readable record, or "" when the event carried
// no ledger impact (zero amount).
func (s *TransactionMirrorService) MirrorTransaction(ctx context.Context, baseBook, connectedBook *domain.Book, txn *domain.Transaction) (string, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	connected, err := s.ledger.FindTransactionByRemoteID(ctx, connectedBook.BookID, txn.TransactionID)
	if err == nil {
		return s.connectedTransactionFound(ctx, connectedBook, connected)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return "", fmt.Errorf("failed to query book %s for remote id %s: %w", connectedBook.BookID, txn.TransactionID, err)
	}

	logger.Debug("No mirrored transaction yet, constructing one",
		slog.String("transaction_id", txn.TransactionID),
		slog.String("connected_book_id", connectedBook.BookID),
	)
	return s.connectedTransactionNotFound(ctx, baseBook, connectedBook, txn)
}

// connectedTransactionFound advances an existing mirror's state: a posted but
// unchecked mirror is checked (the common late-acknowledgement path), a draft
// that became ready is posted then checked, anything else is only reported.
func (s *TransactionMirrorService) connectedTransactionFound(ctx context.Context, connectedBook *domain.Book, connected *domain.Transaction) (string, error) {
	switch {
	case connected.IsPosted() && !connected.IsChecked():
		if err := s.ledger.CheckTransaction(ctx, connectedBook.BookID, connected.TransactionID); err != nil {
			return "", fmt.Errorf("failed to check transaction %s: %w", connected.TransactionID, err)
		}
		return s.buildCheckResponse(connectedBook, connected), nil

	case !connected.IsPosted() && connected.ReadyToPost():
		if err := s.ledger.PostTransaction(ctx, connectedBook.BookID, connected.TransactionID); err != nil {
			return "", fmt.Errorf("failed to post transaction %s: %w", connected.TransactionID, err)
		}
		if err := s.ledger.CheckTransaction(ctx, connectedBook.BookID, connected.TransactionID); err != nil {
			return "", fmt.Errorf("failed to check transaction %s: %w", connected.TransactionID, err)
		}
		return s.buildCheckResponse(connectedBook, connected), nil

	default:
		return s.buildCheckResponse(connectedBook, connected), nil
	}
}

func (s *TransactionMirrorService) buildCheckResponse(connectedBook *domain.Book, connected *domain.Transaction) string {
	record := fmt.Sprintf("CHECKED: %s %s %s",
		connected.Date,
		connectedBook.FormatValue(connected.AmountOrZero()),
		connected.Description,
	)
	return fmt.Sprintf("%s: %s", buildBookAnchor(s.ledger, connectedBook), record)
}

// connectedTransactionNotFound constructs a new mirrored transaction per the
// source: accounts provisioned by name, amount resolved by override token or
// external rate, zero amounts skipped, unready mirrors persisted as drafts.
func (s *TransactionMirrorService) connectedTransactionNotFound(ctx context.Context, baseBook, connectedBook *domain.Book, txn *domain.Transaction) (string, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	baseCode := baseBook.ExchangeCode()
	connectedCode := connectedBook.ExchangeCode()

	baseCredit, err := s.ledger.GetAccountByID(ctx, baseBook.BookID, txn.CreditAccount)
	if err != nil {
		return "", fmt.Errorf("failed to resolve credit account %s in base book: %w", txn.CreditAccount, err)
	}
	baseDebit, err := s.ledger.GetAccountByID(ctx, baseBook.BookID, txn.DebitAccount)
	if err != nil {
		return "", fmt.Errorf("failed to resolve debit account %s in base book: %w", txn.DebitAccount, err)
	}

	connectedCredit := s.provisionSide(ctx, baseBook.BookID, connectedBook.BookID, *baseCredit)
	connectedDebit := s.provisionSide(ctx, baseBook.BookID, connectedBook.BookID, *baseDebit)

	amountDescription, err := s.amounts.ResolveAmountDescription(ctx, baseBook, connectedBook, baseCode, connectedCode, txn)
	if err != nil {
		return "", err
	}
	if amountDescription.Amount == nil {
		return "", fmt.Errorf("%w for code %s on %s", apperrors.ErrRateNotFound, connectedCode, txn.Date)
	}
	if amountDescription.Amount.IsZero() {
		logger.Debug("Resolved amount is zero, skipping mirror", slog.String("transaction_id", txn.TransactionID))
		return "", nil
	}

	newTransaction := domain.Transaction{
		Date:        txn.Date,
		Amount:      amountDescription.Amount,
		Description: amountDescription.Description,
		Properties:  copyProperties(txn.Properties),
		RemoteIDs:   []string{txn.TransactionID},
		Status:      domain.Draft,
	}
	if connectedCredit != nil {
		newTransaction.CreditAccount = connectedCredit.AccountID
	}
	if connectedDebit != nil {
		newTransaction.DebitAccount = connectedDebit.AccountID
	}
	if amountDescription.BaseCode != "" {
		newTransaction.SetProperty(domain.PropExcBaseCode, amountDescription.BaseCode)
	}
	if amountDescription.Rate != nil {
		newTransaction.SetProperty(domain.PropExcRate, amountDescription.Rate.String())
	}

	record := fmt.Sprintf("%s %s %s %s %s",
		newTransaction.Date,
		connectedBook.FormatValue(*newTransaction.Amount),
		baseCredit.Name,
		baseDebit.Name,
		amountDescription.Description,
	)

	if newTransaction.ReadyToPost() {
		created, err := s.ledger.CreateTransaction(ctx, connectedBook.BookID, newTransaction)
		if err != nil {
			return "", fmt.Errorf("failed to create mirrored transaction: %w", err)
		}
		if err := s.ledger.PostTransaction(ctx, connectedBook.BookID, created.TransactionID); err != nil {
			return "", fmt.Errorf("failed to post mirrored transaction %s: %w", created.TransactionID, err)
		}
		if baseBook.Property(domain.PropExcAutoCheck) != "" {
			if err := s.ledger.CheckTransaction(ctx, connectedBook.BookID, created.TransactionID); err != nil {
				return "", fmt.Errorf("failed to check mirrored transaction %s: %w", created.TransactionID, err)
			}
		}
	} else {
		// Prefix the unresolved side's name(s) so the incomplete draft is
		// visible and fixable in the ledger UI.
		missing := make([]string, 0, 2)
		if newTransaction.CreditAccount == "" {
			missing = append(missing, baseCredit.Name)
		}
		if newTransaction.DebitAccount == "" {
			missing = append(missing, baseDebit.Name)
		}
		newTransaction.Description = strings.TrimSpace(strings.Join(missing, " ") + " " + newTransaction.Description)
		if _, err := s.ledger.CreateTransaction(ctx, connectedBook.BookID, newTransaction); err != nil {
			return "", fmt.Errorf("failed to create draft mirrored transaction: %w", err)
		}
	}

	return fmt.Sprintf("%s: %s", buildBookAnchor(s.ledger, connectedBook), record), nil
}

// provisionSide ensures one side's account exists in the connected book.
// Failures leave the side unresolved: the mirror is then created as a draft
// instead of failing the whole event.
func (s *TransactionMirrorService) provisionSide(ctx context.Context, baseBookID, connectedBookID string, account domain.Account) *domain.Account {
	provisioned, err := s.provision.GetOrCreateAccount(ctx, baseBookID, connectedBookID, account)
	if err != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("Failed to provision account in connected book",
			slog.String("account", account.Name),
			slog.String("connected_book_id", connectedBookID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return provisioned
}

func copyProperties(properties map[string]string) map[string]string {
	if properties == nil {
		return nil
	}
	copied := make(map[string]string, len(properties))
	for key, value := range properties {
		copied[key] = value
	}
	return copied
}
