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

// GroupMirrorService reconciles group create/rename events across books.
// Groups are joined by name; a rename is detected by falling back to the
// event's previous name, so the connected book renames its group instead of
// growing a duplicate.
type GroupMirrorService struct {
	ledger clients.LedgerClient
}

// NewGroupMirrorService creates a new GroupMirrorService.
func NewGroupMirrorService(ledger clients.LedgerClient) *GroupMirrorService {
	return &GroupMirrorService{ledger: ledger}
}

// MirrorGroup finds the connected book's counterpart of group (by name, then
// by previousName on renames) and updates it to match, creating it if absent.
func (s *GroupMirrorService) MirrorGroup(ctx context.Context, baseBook, connectedBook *domain.Book, group *domain.Group, previousName string) (string, error) {
	connectedGroup, err := s.ledger.GetGroupByName(ctx, connectedBook.BookID, group.Name)
	if errors.Is(err, apperrors.ErrNotFound) && previousName != "" {
		connectedGroup, err = s.ledger.GetGroupByName(ctx, connectedBook.BookID, previousName)
	}
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return s.connectedGroupNotFound(ctx, connectedBook, group)
		}
		return "", fmt.Errorf("failed to look up group %q in book %s: %w", group.Name, connectedBook.BookID, err)
	}

	return s.connectedGroupFound(ctx, connectedBook, group, connectedGroup)
}

// connectedGroupFound renames/updates the existing connected group to match
// the base group. Nothing to change yields no response line.
func (s *GroupMirrorService) connectedGroupFound(ctx context.Context, connectedBook *domain.Book, group *domain.Group, connectedGroup *domain.Group) (string, error) {
	renamed := connectedGroup.Name != group.Name
	if !renamed && propertiesEqual(connectedGroup.Properties, group.Properties) {
		return "", nil
	}

	previousName := connectedGroup.Name
	connectedGroup.Name = group.Name
	connectedGroup.Properties = copyProperties(group.Properties)
	if err := s.ledger.UpdateGroup(ctx, connectedBook.BookID, *connectedGroup); err != nil {
		return "", fmt.Errorf("failed to update group %q in book %s: %w", group.Name, connectedBook.BookID, err)
	}

	record := fmt.Sprintf("GROUP UPDATED: %s", group.Name)
	if renamed {
		record = fmt.Sprintf("GROUP RENAMED: %s -> %s", previousName, group.Name)
	}
	middleware.GetLoggerFromCtx(ctx).Info("Connected group updated",
		slog.String("group", group.Name),
		slog.String("connected_book_id", connectedBook.BookID),
	)
	return fmt.Sprintf("%s: %s", buildBookAnchor(s.ledger, connectedBook), record), nil
}

// connectedGroupNotFound creates the group in the connected book.
func (s *GroupMirrorService) connectedGroupNotFound(ctx context.Context, connectedBook *domain.Book, group *domain.Group) (string, error) {
	created, err := s.ledger.CreateGroup(ctx, connectedBook.BookID, domain.Group{
		Name:       group.Name,
		Properties: copyProperties(group.Properties),
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			// Concurrent creation; nothing left to do.
			return "", nil
		}
		return "", fmt.Errorf("failed to create group %q in book %s: %w", group.Name, connectedBook.BookID, err)
	}

	return fmt.Sprintf("%s: GROUP CREATED: %s", buildBookAnchor(s.ledger, connectedBook), created.Name), nil
}

func propertiesEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for key, value := range a {
		if b[key] != value {
			return false
		}
	}
	return true
}
