package services_test

import (
	"context"

	"github.com/ledgerlink/exchange-bot/internal/core/domain"
	"github.com/ledgerlink/exchange-bot/internal/core/ports/clients"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockLedgerClient is a mock type for the LedgerClient interface
type MockLedgerClient struct {
	mock.Mock
}

func (m *MockLedgerClient) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	args := m.Called(ctx, bookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}

func (m *MockLedgerClient) UpdateBook(ctx context.Context, book domain.Book) error {
	args := m.Called(ctx, book)
	return args.Error(0)
}

func (m *MockLedgerClient) BookLink(bookID string) string {
	args := m.Called(bookID)
	return args.String(0)
}

func (m *MockLedgerClient) GetAccountByID(ctx context.Context, bookID, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, bookID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockLedgerClient) GetAccountByName(ctx context.Context, bookID, name string) (*domain.Account, error) {
	args := m.Called(ctx, bookID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockLedgerClient) CreateAccount(ctx context.Context, bookID string, account domain.Account, groupIDs []string) (*domain.Account, error) {
	args := m.Called(ctx, bookID, account, groupIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockLedgerClient) AccountGroups(ctx context.Context, bookID, accountID string) ([]domain.Group, error) {
	args := m.Called(ctx, bookID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Group), args.Error(1)
}

func (m *MockLedgerClient) GetBalance(ctx context.Context, bookID, accountID string) (decimal.Decimal, error) {
	args := m.Called(ctx, bookID, accountID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLedgerClient) GetGroupByName(ctx context.Context, bookID, name string) (*domain.Group, error) {
	args := m.Called(ctx, bookID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Group), args.Error(1)
}

func (m *MockLedgerClient) CreateGroup(ctx context.Context, bookID string, group domain.Group) (*domain.Group, error) {
	args := m.Called(ctx, bookID, group)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Group), args.Error(1)
}

func (m *MockLedgerClient) UpdateGroup(ctx context.Context, bookID string, group domain.Group) error {
	args := m.Called(ctx, bookID, group)
	return args.Error(0)
}

func (m *MockLedgerClient) GroupAccounts(ctx context.Context, bookID, groupID string) ([]domain.Account, error) {
	args := m.Called(ctx, bookID, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockLedgerClient) FindTransactionByRemoteID(ctx context.Context, bookID, remoteID string) (*domain.Transaction, error) {
	args := m.Called(ctx, bookID, remoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerClient) CreateTransaction(ctx context.Context, bookID string, txn domain.Transaction) (*domain.Transaction, error) {
	args := m.Called(ctx, bookID, txn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerClient) PostTransaction(ctx context.Context, bookID, transactionID string) error {
	args := m.Called(ctx, bookID, transactionID)
	return args.Error(0)
}

func (m *MockLedgerClient) CheckTransaction(ctx context.Context, bookID, transactionID string) error {
	args := m.Called(ctx, bookID, transactionID)
	return args.Error(0)
}

// MockRateProvider is a mock type for the RateProvider interface
type MockRateProvider struct {
	mock.Mock
}

func (m *MockRateProvider) Convert(ctx context.Context, query clients.ConvertQuery) (decimal.Decimal, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockSyncLogRepository is a mock type for the SyncLogRepository interface
type MockSyncLogRepository struct {
	mock.Mock
}

func (m *MockSyncLogRepository) SaveSyncRecord(ctx context.Context, record domain.SyncRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockSyncLogRepository) ListSyncRecordsByBook(ctx context.Context, bookID string, limit int) ([]domain.SyncRecord, error) {
	args := m.Called(ctx, bookID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SyncRecord), args.Error(1)
}

// MockEventPublisher is a mock type for the EventPublisher interface
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, key string, event any) error {
	args := m.Called(ctx, key, event)
	return args.Error(0)
}
