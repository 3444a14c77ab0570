package services

import (
	portsevents "github.com/nxtech/credits_ledger_app/internal/core/ports/events"
	portsrepo "github.com/nxtech/credits_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/nxtech/credits_ledger_app/internal/core/ports/services"
)

// NewServiceContainer creates a new service container with properly
// initialized dependencies.
func NewServiceContainer(cfg Config, repo portsrepo.LedgerRepositoryFacade, publisher portsevents.Publisher) *portssvc.ServiceContainer {
	return &portssvc.ServiceContainer{
		Ledger: NewLedgerService(repo, publisher, cfg),
	}
}

// Compile-time interface checks.
var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)
