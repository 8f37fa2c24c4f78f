package clients

import (
	"context"

	"github.com/ledgerlink/exchange-bot/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LedgerClient is the consumed surface of the ledger platform API. Lookups
// return apperrors.ErrNotFound for absent entities; creations return
// apperrors.ErrDuplicate when the entity already exists, which the
// provisioner relies on for its get-or-create semantics.
type LedgerClient interface {
	// Books
	GetBook(ctx context.Context, bookID string) (*domain.Book, error)
	UpdateBook(ctx context.Context, book domain.Book) error
	// BookLink returns the platform URL of a book, used as the anchor that
	// prefixes every response line.
	BookLink(bookID string) string

	// Accounts
	GetAccountByID(ctx context.Context, bookID, accountID string) (*domain.Account, error)
	GetAccountByName(ctx context.Context, bookID, name string) (*domain.Account, error)
	CreateAccount(ctx context.Context, bookID string, account domain.Account, groupIDs []string) (*domain.Account, error)
	AccountGroups(ctx context.Context, bookID, accountID string) ([]domain.Group, error)
	GetBalance(ctx context.Context, bookID, accountID string) (decimal.Decimal, error)

	// Groups
	GetGroupByName(ctx context.Context, bookID, name string) (*domain.Group, error)
	CreateGroup(ctx context.Context, bookID string, group domain.Group) (*domain.Group, error)
	UpdateGroup(ctx context.Context, bookID string, group domain.Group) error
	GroupAccounts(ctx context.Context, bookID, groupID string) ([]domain.Account, error)

	// Transactions
	FindTransactionByRemoteID(ctx context.Context, bookID, remoteID string) (*domain.Transaction, error)
	CreateTransaction(ctx context.Context, bookID string, txn domain.Transaction) (*domain.Transaction, error)
	PostTransaction(ctx context.Context, bookID, transactionID string) error
	CheckTransaction(ctx context.Context, bookID, transactionID string) error
}
