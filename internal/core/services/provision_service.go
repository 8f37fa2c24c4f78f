package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ledgerlink/exchange-bot/internal/apperrors"
	"github.com/ledgerlink/exchange-bot/internal/core/domain"
	"github.com/ledgerlink/exchange-bot/internal/core/ports/clients"
	"github.com/ledgerlink/exchange-bot/internal/middleware"
)

// ProvisionService lazily mirrors accounts and groups into a target book.
// Name equality is the sole cross-book identity mechanism, so provisioning is
// a get-or-create keyed by name: a concurrent creation of the same entity is
// resolved by re-looking it up rather than failing the event.
type ProvisionService struct {
	ledger clients.LedgerClient
}

// NewProvisionService creates a new ProvisionService.
func NewProvisionService(ledger clients.LedgerClient) *ProvisionService {
	return &ProvisionService{ledger: ledger}
}

// GetOrCreateAccount looks up an account of the source account's name in the
// target book, creating it (with its group memberships) when absent.
func (s *ProvisionService) GetOrCreateAccount(ctx context.Context, sourceBookID, targetBookID string, source domain.Account) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	existing, err := s.ledger.GetAccountByName(ctx, targetBookID, source.Name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up account %q in book %s: %w", source.Name, targetBookID, err)
	}

	groupIDs, err := s.mirrorGroupMemberships(ctx, sourceBookID, targetBookID, source)
	if err != nil {
		return nil, err
	}

	created, err := s.ledger.CreateAccount(ctx, targetBookID, domain.Account{
		Name:        source.Name,
		AccountType: source.AccountType,
		Properties:  source.Properties,
	}, groupIDs)
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			// Another event created it concurrently; the lookup is trusted.
			logger.Debug("Account already created concurrently", slog.String("account", source.Name), slog.String("book_id", targetBookID))
			return s.ledger.GetAccountByName(ctx, targetBookID, source.Name)
		}
		return nil, fmt.Errorf("failed to create account %q in book %s: %w", source.Name, targetBookID, err)
	}
	logger.Info("Account provisioned in connected book", slog.String("account", created.Name), slog.String("book_id", targetBookID))
	return created, nil
}

// GetOrCreateGroup looks up a group of the source group's name in the target
// book, creating it when absent.
func (s *ProvisionService) GetOrCreateGroup(ctx context.Context, targetBookID string, source domain.Group) (*domain.Group, error) {
	existing, err := s.ledger.GetGroupByName(ctx, targetBookID, source.Name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up group %q in book %s: %w", source.Name, targetBookID, err)
	}

	created, err := s.ledger.CreateGroup(ctx, targetBookID, domain.Group{
		Name:       source.Name,
		Properties: source.Properties,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return s.ledger.GetGroupByName(ctx, targetBookID, source.Name)
		}
		return nil, fmt.Errorf("failed to create group %q in book %s: %w", source.Name, targetBookID, err)
	}
	return created, nil
}

// mirrorGroupMemberships resolves the target-book group ids matching the
// source account's memberships, creating missing groups along the way.
func (s *ProvisionService) mirrorGroupMemberships(ctx context.Context, sourceBookID, targetBookID string, source domain.Account) ([]string, error) {
	groups, err := s.ledger.AccountGroups(ctx, sourceBookID, source.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch groups of account %q: %w", source.Name, err)
	}

	groupIDs := make([]string, 0, len(groups))
	for _, group := range groups {
		target, err := s.GetOrCreateGroup(ctx, targetBookID, group)
		if err != nil {
			return nil, err
		}
		groupIDs = append(groupIDs, target.GroupID)
	}
	return groupIDs, nil
}
