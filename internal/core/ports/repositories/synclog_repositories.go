package repositories

import (
	"context"

	"github.com/ledgerlink/exchange-bot/internal/core/domain"
)

// SyncLogRepository persists the sync audit log.
type SyncLogRepository interface {
	SaveSyncRecord(ctx context.Context, record domain.SyncRecord) error
	ListSyncRecordsByBook(ctx context.Context, bookID string, limit int) ([]domain.SyncRecord, error)
}
