package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"
	portsrepo "github.com/nxtech/credits_ledger_app/internal/core/ports/repositories"
)

// RepositoryProvider holds the concrete repositories backed by one pool.
type RepositoryProvider struct {
	Ledger portsrepo.LedgerRepositoryFacade
}

// NewRepositoryProvider wires all pgsql repositories.
func NewRepositoryProvider(pool *pgxpool.Pool) *RepositoryProvider {
	return &RepositoryProvider{
		Ledger: NewLedgerRepository(pool),
	}
}
