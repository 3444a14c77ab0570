package repositories

import (
	"context"
	"time"

	"github.com/nxtech/credits_ledger_app/internal/core/domain"
)

// LedgerReader defines non-blocking read operations over the entry table.
// These reads run outside any mutation transaction and may observe a slightly
// stale view under concurrent writers; they must never be used as the basis
// of a write.
type LedgerReader interface {
	// LatestEntry retrieves the most recent entry for the account ordered by
	// id descending, or nil if the account has no entries. Ordering by id is
	// mandatory: concurrent entries may share identical timestamps.
	LatestEntry(ctx context.Context, account domain.AccountRef) (*domain.CreditEntry, error)

	// LatestEntryAt retrieves the most recent entry with created_at <= at,
	// tie-broken by highest id, or nil if none match.
	LatestEntryAt(ctx context.Context, account domain.AccountRef, at time.Time) (*domain.CreditEntry, error)

	// ListEntries retrieves up to limit entries for the account ordered by
	// created_at then id, both in the given direction. The caller is
	// responsible for clamping limit and normalizing order.
	ListEntries(ctx context.Context, account domain.AccountRef, limit int, order domain.SortOrder) ([]domain.CreditEntry, error)
}

// LedgerTx is the mutation scope handed to the closure passed to Mutate.
// Both operations act within the enclosing storage transaction.
type LedgerTx interface {
	// LatestEntryForUpdate retrieves the most recent entry for the account by
	// id descending with its row locked exclusively until the transaction
	// ends. Returns nil if the account has no entries.
	LatestEntryForUpdate(ctx context.Context, account domain.AccountRef) (*domain.CreditEntry, error)

	// AppendEntry inserts an immutable entry, assigning its ID and CreatedAt.
	// The entry becomes visible to subsequent reads within this transaction
	// immediately, and to other transactions only after commit.
	AppendEntry(ctx context.Context, entry *domain.CreditEntry) error
}

// LedgerWriter defines the single mutation primitive of the ledger store.
type LedgerWriter interface {
	// Mutate runs fn inside one storage transaction with the latest entry of
	// each listed account locked for update. Locks are acquired strictly in
	// the order given; callers pass accounts pre-sorted by the global account
	// order so that overlapping mutations never deadlock. Any error from fn
	// aborts the transaction; no entry appended by fn survives. Transient
	// contention surfaces as apperrors.ErrTransientConflict, other storage
	// errors propagate unchanged.
	Mutate(ctx context.Context, accounts []domain.AccountRef, fn func(tx LedgerTx) error) error
}

// LedgerRepositoryFacade combines all ledger store operations.
type LedgerRepositoryFacade interface {
	LedgerReader
	LedgerWriter
}
