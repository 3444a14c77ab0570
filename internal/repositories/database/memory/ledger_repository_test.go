package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nxtech/credits_ledger_app/internal/core/domain"
	portsrepo "github.com/nxtech/credits_ledger_app/internal/core/ports/repositories"
	"github.com/nxtech/credits_ledger_app/internal/repositories/database/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAccount = domain.AccountRef{Kind: "user", ID: "alice"}

func appendEntry(t *testing.T, repo *memory.MemoryLedgerRepository, account domain.AccountRef, amount int64, kind domain.EntryKind, balance int64) *domain.CreditEntry {
	t.Helper()
	entry := &domain.CreditEntry{
		Account:        account,
		Amount:         decimal.NewFromInt(amount),
		Kind:           kind,
		RunningBalance: decimal.NewFromInt(balance),
	}
	err := repo.Mutate(context.Background(), []domain.AccountRef{account}, func(tx portsrepo.LedgerTx) error {
		return tx.AppendEntry(context.Background(), entry)
	})
	require.NoError(t, err)
	return entry
}

func TestLatestEntryEmptyAccount(t *testing.T) {
	repo := memory.NewLedgerRepository()

	latest, err := repo.LatestEntry(context.Background(), testAccount)
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestAppendAssignsMonotonicIDs(t *testing.T) {
	repo := memory.NewLedgerRepository()

	first := appendEntry(t, repo, testAccount, 10, domain.EntryCredit, 10)
	second := appendEntry(t, repo, testAccount, 5, domain.EntryCredit, 15)
	assert.Greater(t, second.ID, first.ID)

	latest, err := repo.LatestEntry(context.Background(), testAccount)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, "15", latest.RunningBalance.String())
}

func TestFailedMutationStagesNothing(t *testing.T) {
	repo := memory.NewLedgerRepository()
	appendEntry(t, repo, testAccount, 10, domain.EntryCredit, 10)

	boom := errors.New("boom")
	err := repo.Mutate(context.Background(), []domain.AccountRef{testAccount}, func(tx portsrepo.LedgerTx) error {
		if appendErr := tx.AppendEntry(context.Background(), &domain.CreditEntry{
			Account: testAccount,
			Amount:  decimal.NewFromInt(99),
			Kind:    domain.EntryCredit,
		}); appendErr != nil {
			return appendErr
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	entries, listErr := repo.ListEntries(context.Background(), testAccount, 10, domain.SortAsc)
	require.NoError(t, listErr)
	assert.Len(t, entries, 1, "entries staged in a failed mutation must not be committed")
}

func TestStagedEntriesVisibleWithinMutation(t *testing.T) {
	repo := memory.NewLedgerRepository()

	err := repo.Mutate(context.Background(), []domain.AccountRef{testAccount}, func(tx portsrepo.LedgerTx) error {
		if err := tx.AppendEntry(context.Background(), &domain.CreditEntry{
			Account:        testAccount,
			Amount:         decimal.NewFromInt(10),
			Kind:           domain.EntryCredit,
			RunningBalance: decimal.NewFromInt(10),
		}); err != nil {
			return err
		}

		latest, err := tx.LatestEntryForUpdate(context.Background(), testAccount)
		if err != nil {
			return err
		}
		require.NotNil(t, latest, "staged entry must be readable in the same transaction")
		assert.Equal(t, "10", latest.RunningBalance.String())
		return nil
	})
	require.NoError(t, err)
}

func TestLatestEntryAtFiltersByTimestampThenID(t *testing.T) {
	repo := memory.NewLedgerRepository()
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	current := t0
	repo.SetNowFunc(func() time.Time { return current })

	appendEntry(t, repo, testAccount, 10, domain.EntryCredit, 10)
	appendEntry(t, repo, testAccount, 5, domain.EntryCredit, 15) // same timestamp
	current = t0.Add(time.Hour)
	third := appendEntry(t, repo, testAccount, 1, domain.EntryCredit, 16)

	// At t0 both same-timestamp entries qualify; highest id wins.
	latest, err := repo.LatestEntryAt(context.Background(), testAccount, t0)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "15", latest.RunningBalance.String())

	// Before the first entry there is nothing.
	latest, err = repo.LatestEntryAt(context.Background(), testAccount, t0.Add(-time.Second))
	require.NoError(t, err)
	assert.Nil(t, latest)

	// Well after everything the newest entry wins.
	latest, err = repo.LatestEntryAt(context.Background(), testAccount, t0.Add(2*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, third.ID, latest.ID)
}

func TestListEntriesOrderAndLimit(t *testing.T) {
	repo := memory.NewLedgerRepository()
	other := domain.AccountRef{Kind: "team", ID: "platform"}

	appendEntry(t, repo, testAccount, 1, domain.EntryCredit, 1)
	appendEntry(t, repo, other, 100, domain.EntryCredit, 100)
	appendEntry(t, repo, testAccount, 2, domain.EntryCredit, 3)
	appendEntry(t, repo, testAccount, 3, domain.EntryCredit, 6)

	asc, err := repo.ListEntries(context.Background(), testAccount, 10, domain.SortAsc)
	require.NoError(t, err)
	require.Len(t, asc, 3, "entries of other accounts must not leak in")
	assert.True(t, asc[0].ID < asc[1].ID && asc[1].ID < asc[2].ID)

	desc, err := repo.ListEntries(context.Background(), testAccount, 10, domain.SortDesc)
	require.NoError(t, err)
	require.Len(t, desc, 3)
	assert.Equal(t, asc[2].ID, desc[0].ID)

	limited, err := repo.ListEntries(context.Background(), testAccount, 2, domain.SortDesc)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
