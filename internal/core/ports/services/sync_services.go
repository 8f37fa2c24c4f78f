package services

import (
	"context"

	"github.com/ledgerlink/exchange-bot/internal/core/domain"
)

// EventDispatchSvcFacade routes one inbound platform event to every connected
// book and returns the per-book response lines (empty results omitted).
type EventDispatchSvcFacade interface {
	DispatchEvent(ctx context.Context, event domain.Event) ([]string, error)
}

// ReconcileSvcFacade runs the gain/loss reconciliation for a base book as of
// a date, returning one response line per adjusting entry posted.
type ReconcileSvcFacade interface {
	UpdateGainLoss(ctx context.Context, bookID string, date string) ([]string, error)
}

// SyncLogSvcFacade exposes the sync audit log.
type SyncLogSvcFacade interface {
	ListRecentActivity(ctx context.Context, bookID string, limit int) ([]domain.SyncRecord, error)
}

// ServiceContainer aggregates the service facades handed to the handlers.
type ServiceContainer struct {
	Dispatch  EventDispatchSvcFacade
	Reconcile ReconcileSvcFacade
	SyncLog   SyncLogSvcFacade
}
