package services

import (
	"github.com/ledgerlink/exchange-bot/internal/core/ports/clients"
	portsrepo "github.com/ledgerlink/exchange-bot/internal/core/ports/repositories"
	portssvc "github.com/ledgerlink/exchange-bot/internal/core/ports/services"
)

// NewServiceContainer wires the whole service graph from the external
// collaborators. syncLogRepo and publisher may be nil (disabled supplements).
func NewServiceContainer(
	ledger clients.LedgerClient,
	rates clients.RateProvider,
	syncLogRepo portsrepo.SyncLogRepository,
	publisher clients.EventPublisher,
	defaultRatesEndpoint string,
) *portssvc.ServiceContainer {
	amounts := NewAmountService(rates, defaultRatesEndpoint)
	provision := NewProvisionService(ledger)
	mirror := NewTransactionMirrorService(ledger, amounts, provision)
	groups := NewGroupMirrorService(ledger)
	books := NewBookSyncService(ledger)

	container := &portssvc.ServiceContainer{
		Dispatch:  NewEventRouterService(ledger, mirror, groups, books, syncLogRepo, publisher),
		Reconcile: NewReconciliationService(ledger, rates, defaultRatesEndpoint),
	}
	if syncLogRepo != nil {
		container.SyncLog = NewSyncLogService(syncLogRepo)
	}
	return container
}
