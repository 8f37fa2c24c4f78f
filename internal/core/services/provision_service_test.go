package services_test

import (
	"context"
	"testing"

	"github.com/ledgerlink/exchange-bot/internal/apperrors"
	"github.com/ledgerlink/exchange-bot/internal/core/domain"
	"github.com/ledgerlink/exchange-bot/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type ProvisionServiceTestSuite struct {
	suite.Suite
	mockLedger *MockLedgerClient
	service    *services.ProvisionService
}

func (suite *ProvisionServiceTestSuite) SetupTest() {
	suite.mockLedger = new(MockLedgerClient)
	suite.service = services.NewProvisionService(suite.mockLedger)
}

func (suite *ProvisionServiceTestSuite) TestGetOrCreateAccount_ExistingIsReused() {
	ctx := context.Background()
	source := domain.Account{AccountID: "acc-1", Name: "Bank", AccountType: domain.Asset}
	existing := &domain.Account{AccountID: "c-acc-1", Name: "Bank", AccountType: domain.Asset}

	suite.mockLedger.On("GetAccountByName", ctx, "target-book", "Bank").Return(existing, nil).Once()

	account, err := suite.service.GetOrCreateAccount(ctx, "source-book", "target-book", source)

	suite.Require().NoError(err)
	suite.Equal(existing, account)
	suite.mockLedger.AssertNotCalled(suite.T(), "CreateAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ProvisionServiceTestSuite) TestGetOrCreateAccount_CreatedWithMirroredGroups() {
	ctx := context.Background()
	source := domain.Account{AccountID: "acc-1", Name: "Bank", AccountType: domain.Asset}

	suite.mockLedger.On("GetAccountByName", ctx, "target-book", "Bank").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockLedger.On("AccountGroups", ctx, "source-book", "acc-1").
		Return([]domain.Group{{GroupID: "grp-1", Name: "Current Assets"}}, nil).Once()

	// The membership group already exists in the target book.
	suite.mockLedger.On("GetGroupByName", ctx, "target-book", "Current Assets").
		Return(&domain.Group{GroupID: "c-grp-1", Name: "Current Assets"}, nil).Once()

	created := &domain.Account{AccountID: "c-acc-1", Name: "Bank", AccountType: domain.Asset}
	suite.mockLedger.On("CreateAccount", ctx, "target-book", mock.MatchedBy(func(account domain.Account) bool {
		return account.Name == "Bank" && account.AccountType == domain.Asset
	}), []string{"c-grp-1"}).Return(created, nil).Once()

	account, err := suite.service.GetOrCreateAccount(ctx, "source-book", "target-book", source)

	suite.Require().NoError(err)
	suite.Equal(created, account)
	suite.mockLedger.AssertExpectations(suite.T())
}

func (suite *ProvisionServiceTestSuite) TestGetOrCreateAccount_MissingGroupIsCreated() {
	ctx := context.Background()
	source := domain.Account{AccountID: "acc-1", Name: "Bank", AccountType: domain.Asset}

	suite.mockLedger.On("GetAccountByName", ctx, "target-book", "Bank").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockLedger.On("AccountGroups", ctx, "source-book", "acc-1").
		Return([]domain.Group{{GroupID: "grp-1", Name: "Current Assets"}}, nil).Once()
	suite.mockLedger.On("GetGroupByName", ctx, "target-book", "Current Assets").
		Return(nil, apperrors.ErrNotFound).Once()
	suite.mockLedger.On("CreateGroup", ctx, "target-book", mock.MatchedBy(func(group domain.Group) bool {
		return group.Name == "Current Assets"
	})).Return(&domain.Group{GroupID: "c-grp-1", Name: "Current Assets"}, nil).Once()
	suite.mockLedger.On("CreateAccount", ctx, "target-book", mock.AnythingOfType("domain.Account"), []string{"c-grp-1"}).
		Return(&domain.Account{AccountID: "c-acc-1", Name: "Bank"}, nil).Once()

	_, err := suite.service.GetOrCreateAccount(ctx, "source-book", "target-book", source)

	suite.Require().NoError(err)
	suite.mockLedger.AssertExpectations(suite.T())
}

func (suite *ProvisionServiceTestSuite) TestGetOrCreateAccount_DuplicateRaceFallsBackToLookup() {
	ctx := context.Background()
	source := domain.Account{AccountID: "acc-1", Name: "Bank", AccountType: domain.Asset}
	winner := &domain.Account{AccountID: "c-acc-1", Name: "Bank"}

	// First lookup misses, creation loses the race, second lookup wins.
	suite.mockLedger.On("GetAccountByName", ctx, "target-book", "Bank").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockLedger.On("AccountGroups", ctx, "source-book", "acc-1").Return([]domain.Group{}, nil).Once()
	suite.mockLedger.On("CreateAccount", ctx, "target-book", mock.AnythingOfType("domain.Account"), []string{}).
		Return(nil, apperrors.ErrDuplicate).Once()
	suite.mockLedger.On("GetAccountByName", ctx, "target-book", "Bank").Return(winner, nil).Once()

	account, err := suite.service.GetOrCreateAccount(ctx, "source-book", "target-book", source)

	suite.Require().NoError(err)
	suite.Equal(winner, account)
	suite.mockLedger.AssertExpectations(suite.T())
}

func (suite *ProvisionServiceTestSuite) TestGetOrCreateAccount_LookupError() {
	ctx := context.Background()
	expectedErr := assert.AnError

	suite.mockLedger.On("GetAccountByName", ctx, "target-book", "Bank").Return(nil, expectedErr).Once()

	account, err := suite.service.GetOrCreateAccount(ctx, "source-book", "target-book", domain.Account{Name: "Bank"})

	suite.Require().Error(err)
	suite.Nil(account)
	suite.ErrorIs(err, expectedErr)
}

func (suite *ProvisionServiceTestSuite) TestGetOrCreateGroup_DuplicateRaceFallsBackToLookup() {
	ctx := context.Background()
	winner := &domain.Group{GroupID: "c-grp-1", Name: "Revenue"}

	suite.mockLedger.On("GetGroupByName", ctx, "target-book", "Revenue").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockLedger.On("CreateGroup", ctx, "target-book", mock.AnythingOfType("domain.Group")).
		Return(nil, apperrors.ErrDuplicate).Once()
	suite.mockLedger.On("GetGroupByName", ctx, "target-book", "Revenue").Return(winner, nil).Once()

	group, err := suite.service.GetOrCreateGroup(ctx, "target-book", domain.Group{Name: "Revenue"})

	suite.Require().NoError(err)
	suite.Equal(winner, group)
	suite.mockLedger.AssertExpectations(suite.T())
}

func TestProvisionService(t *testing.T) {
	suite.Run(t, new(ProvisionServiceTestSuite))
}
