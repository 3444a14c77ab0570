// Package memory provides an in-memory LedgerRepository with the same
// transactional semantics as the pgsql implementation: per-account exclusive
// locks acquired in the caller's order, all-or-nothing mutation visibility,
// and monotonic entry ids. It backs the engine's tests and broker-less local
// runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nxtech/credits_ledger_app/internal/core/domain"
	portsrepo "github.com/nxtech/credits_ledger_app/internal/core/ports/repositories"
)

// MemoryLedgerRepository stores committed entries in memory. It is safe for
// concurrent use.
type MemoryLedgerRepository struct {
	mu      sync.Mutex // guards entries and nextID
	entries []domain.CreditEntry
	nextID  int64

	locksMu sync.Mutex // guards the per-account lock map
	locks   map[domain.AccountRef]*sync.Mutex

	now func() time.Time
}

// NewLedgerRepository creates an empty in-memory ledger store.
func NewLedgerRepository() *MemoryLedgerRepository {
	return &MemoryLedgerRepository{
		locks: make(map[domain.AccountRef]*sync.Mutex),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

var _ portsrepo.LedgerRepositoryFacade = (*MemoryLedgerRepository)(nil)

// SetNowFunc overrides the clock used to stamp created_at. Tests use it to
// force identical timestamps across entries.
func (m *MemoryLedgerRepository) SetNowFunc(now func() time.Time) {
	m.now = now
}

func (m *MemoryLedgerRepository) accountLock(account domain.AccountRef) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	if _, exists := m.locks[account]; !exists {
		m.locks[account] = &sync.Mutex{}
	}
	return m.locks[account]
}

// Mutate acquires each account's lock in the order given, runs fn against a
// staging transaction, and commits the staged entries only if fn succeeds.
func (m *MemoryLedgerRepository) Mutate(ctx context.Context, accounts []domain.AccountRef, fn func(tx portsrepo.LedgerTx) error) error {
	for _, account := range accounts {
		lock := m.accountLock(account)
		lock.Lock()
		defer lock.Unlock()
	}

	tx := &memoryLedgerTx{repo: m}
	if err := fn(tx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, tx.staged...)
	return nil
}

// LatestEntry returns the account's entry with the highest id, or nil.
func (m *MemoryLedgerRepository) LatestEntry(ctx context.Context, account domain.AccountRef) (*domain.CreditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return latestCommitted(m.entries, account, nil), nil
}

// LatestEntryAt returns the entry with the highest id among those created at
// or before the given instant, or nil.
func (m *MemoryLedgerRepository) LatestEntryAt(ctx context.Context, account domain.AccountRef, at time.Time) (*domain.CreditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return latestCommitted(m.entries, account, func(e domain.CreditEntry) bool {
		return !e.CreatedAt.After(at)
	}), nil
}

// ListEntries returns up to limit entries ordered by (created_at, id).
func (m *MemoryLedgerRepository) ListEntries(ctx context.Context, account domain.AccountRef, limit int, order domain.SortOrder) ([]domain.CreditEntry, error) {
	m.mu.Lock()
	matched := make([]domain.CreditEntry, 0)
	for _, e := range m.entries {
		if e.Account.Equal(account) {
			matched = append(matched, e)
		}
	}
	m.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if order == domain.SortDesc {
			a, b = b, a
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// memoryLedgerTx stages entries until Mutate commits them. Staged entries are
// visible to reads within the same transaction, matching read-your-writes
// inside a database transaction.
type memoryLedgerTx struct {
	repo   *MemoryLedgerRepository
	staged []domain.CreditEntry
}

var _ portsrepo.LedgerTx = (*memoryLedgerTx)(nil)

func (t *memoryLedgerTx) LatestEntryForUpdate(ctx context.Context, account domain.AccountRef) (*domain.CreditEntry, error) {
	// The account's lock is already held by Mutate; staged entries take
	// precedence over committed ones since their ids are strictly higher.
	for i := len(t.staged) - 1; i >= 0; i-- {
		if t.staged[i].Account.Equal(account) {
			entry := t.staged[i]
			return &entry, nil
		}
	}
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	return latestCommitted(t.repo.entries, account, nil), nil
}

func (t *memoryLedgerTx) AppendEntry(ctx context.Context, entry *domain.CreditEntry) error {
	t.repo.mu.Lock()
	t.repo.nextID++
	entry.ID = t.repo.nextID
	t.repo.mu.Unlock()

	entry.CreatedAt = t.repo.now()
	t.staged = append(t.staged, *entry)
	return nil
}

// latestCommitted returns a copy of the entry with the highest id matching
// the optional filter. Callers must hold the store mutex.
func latestCommitted(entries []domain.CreditEntry, account domain.AccountRef, match func(domain.CreditEntry) bool) *domain.CreditEntry {
	var latest *domain.CreditEntry
	for i := range entries {
		e := entries[i]
		if !e.Account.Equal(account) {
			continue
		}
		if match != nil && !match(e) {
			continue
		}
		if latest == nil || e.ID > latest.ID {
			latest = &e
		}
	}
	if latest == nil {
		return nil
	}
	copied := *latest
	return &copied
}
