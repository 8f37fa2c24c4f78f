package services

import (
	"context"
	"fmt"

	"github.com/ledgerlink/exchange-bot/internal/core/domain"
	portsrepo "github.com/ledgerlink/exchange-bot/internal/core/ports/repositories"
	portssvc "github.com/ledgerlink/exchange-bot/internal/core/ports/services"
)

const defaultActivityLimit = 20

// syncLogService exposes the sync audit log to the handlers.
type syncLogService struct {
	syncLogRepo portsrepo.SyncLogRepository
}

// NewSyncLogService creates a new sync-log service.
func NewSyncLogService(syncLogRepo portsrepo.SyncLogRepository) portssvc.SyncLogSvcFacade {
	return &syncLogService{syncLogRepo: syncLogRepo}
}

var _ portssvc.SyncLogSvcFacade = (*syncLogService)(nil)

// ListRecentActivity implements portssvc.SyncLogSvcFacade.
func (s *syncLogService) ListRecentActivity(ctx context.Context, bookID string, limit int) ([]domain.SyncRecord, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	records, err := s.syncLogRepo.ListSyncRecordsByBook(ctx, bookID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync records for book %s: %w", bookID, err)
	}
	return records, nil
}
