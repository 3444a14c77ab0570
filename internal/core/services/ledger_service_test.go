package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nxtech/credits_ledger_app/internal/apperrors"
	"github.com/nxtech/credits_ledger_app/internal/core/domain"
	portsrepo "github.com/nxtech/credits_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/nxtech/credits_ledger_app/internal/core/ports/services"
	"github.com/nxtech/credits_ledger_app/internal/core/services"
	"github.com/nxtech/credits_ledger_app/internal/repositories/database/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// --- Recording publisher ---

type recordedEvent struct {
	topic string
	event any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, topic string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{topic: topic, event: event})
	return nil
}

func (p *recordingPublisher) byTopic(topic string) []recordedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []recordedEvent
	for _, e := range p.events {
		if e.topic == topic {
			out = append(out, e)
		}
	}
	return out
}

// --- Flaky repository: fails Mutate with a transient conflict N times ---

type flakyLedgerRepository struct {
	portsrepo.LedgerRepositoryFacade
	mu          sync.Mutex
	failures    int
	mutateCalls int
}

func (r *flakyLedgerRepository) Mutate(ctx context.Context, accounts []domain.AccountRef, fn func(tx portsrepo.LedgerTx) error) error {
	r.mu.Lock()
	r.mutateCalls++
	fail := r.failures > 0
	if fail {
		r.failures--
	}
	r.mu.Unlock()
	if fail {
		return fmt.Errorf("%w: simulated deadlock", apperrors.ErrTransientConflict)
	}
	return r.LedgerRepositoryFacade.Mutate(ctx, accounts, fn)
}

// --- Suite ---

type LedgerServiceTestSuite struct {
	suite.Suite
	repo      *memory.MemoryLedgerRepository
	publisher *recordingPublisher
	svc       portssvc.LedgerSvcFacade
	ctx       context.Context
	user      domain.AccountRef
	team      domain.AccountRef
}

func (s *LedgerServiceTestSuite) SetupTest() {
	s.repo = memory.NewLedgerRepository()
	s.publisher = &recordingPublisher{}
	s.svc = services.NewLedgerService(s.repo, s.publisher, services.DefaultConfig())
	s.ctx = context.Background()
	s.user = domain.AccountRef{Kind: "user", ID: "alice"}
	s.team = domain.AccountRef{Kind: "team", ID: "platform"}
}

func TestLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}

func (s *LedgerServiceTestSuite) mustAdd(account domain.AccountRef, amount int64) *domain.CreditEntry {
	entry, err := s.svc.Add(s.ctx, account, decimal.NewFromInt(amount), "", nil)
	s.Require().NoError(err)
	return entry
}

func (s *LedgerServiceTestSuite) mustDeduct(account domain.AccountRef, amount int64) *domain.CreditEntry {
	entry, err := s.svc.Deduct(s.ctx, account, decimal.NewFromInt(amount), "", nil)
	s.Require().NoError(err)
	return entry
}

func (s *LedgerServiceTestSuite) balance(account domain.AccountRef) string {
	balance, err := s.svc.Balance(s.ctx, account)
	s.Require().NoError(err)
	return balance.String()
}

func (s *LedgerServiceTestSuite) TestAddRejectsNonPositiveAmount() {
	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		_, err := s.svc.Add(s.ctx, s.user, amount, "", nil)
		s.ErrorIs(err, apperrors.ErrInvalidAmount)
		s.ErrorIs(err, apperrors.ErrValidation)
	}
	s.Equal("0", s.balance(s.user))
	s.Empty(s.publisher.events)
}

func (s *LedgerServiceTestSuite) TestDeductRejectsNonPositiveAmount() {
	_, err := s.svc.Deduct(s.ctx, s.user, decimal.Zero, "", nil)
	s.ErrorIs(err, apperrors.ErrInvalidAmount)
}

func (s *LedgerServiceTestSuite) TestBalanceIsZeroForEmptyAccount() {
	s.Equal("0", s.balance(s.user))

	has, err := s.svc.HasCredits(s.ctx, s.user, decimal.NewFromInt(1))
	s.Require().NoError(err)
	s.False(has)
}

func (s *LedgerServiceTestSuite) TestRunningBalanceSequence() {
	// add(100) -> 100; deduct(30) -> 70; add(50) -> 120; deduct(20) -> 100
	s.mustAdd(s.user, 100)
	s.mustDeduct(s.user, 30)
	s.mustAdd(s.user, 50)
	s.mustDeduct(s.user, 20)

	s.Equal("100", s.balance(s.user))

	entries, err := s.svc.History(s.ctx, s.user, 4, "asc")
	s.Require().NoError(err)
	s.Require().Len(entries, 4)

	expected := []string{"100", "70", "120", "100"}
	for i, entry := range entries {
		s.Equal(expected[i], entry.RunningBalance.String(), "running balance at index %d", i)
	}

	// Descending returns the exact reverse sequence.
	reversed, err := s.svc.History(s.ctx, s.user, 4, "desc")
	s.Require().NoError(err)
	s.Require().Len(reversed, 4)
	for i := range reversed {
		s.Equal(entries[len(entries)-1-i].ID, reversed[i].ID)
	}
}

func (s *LedgerServiceTestSuite) TestConservationOverMixedSequence() {
	amounts := []int64{40, 25, 10, 5}
	s.mustAdd(s.user, amounts[0])
	s.mustAdd(s.user, amounts[1])
	s.mustDeduct(s.user, amounts[2])
	s.mustDeduct(s.user, amounts[3])

	expected := amounts[0] + amounts[1] - amounts[2] - amounts[3]
	s.Equal(decimal.NewFromInt(expected).String(), s.balance(s.user))
}

func (s *LedgerServiceTestSuite) TestDeductInsufficientBalance() {
	s.mustAdd(s.user, 10)

	_, err := s.svc.Deduct(s.ctx, s.user, decimal.NewFromInt(30), "", nil)
	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrInsufficientBalance)

	var insufficientErr *apperrors.InsufficientBalanceError
	s.Require().True(errors.As(err, &insufficientErr))
	s.Equal("30", insufficientErr.Requested.String())
	s.Equal("10", insufficientErr.Available.String())

	// The ledger is untouched and no deduction event was emitted.
	s.Equal("10", s.balance(s.user))
	s.Empty(s.publisher.byTopic(domain.TopicEntryDeducted))
}

func (s *LedgerServiceTestSuite) TestDeductAllowedNegativeBalance() {
	svc := services.NewLedgerService(s.repo, s.publisher, services.Config{
		AllowNegativeBalance: true,
		DecimalPrecision:     2,
	})

	entry, err := svc.Deduct(s.ctx, s.user, decimal.NewFromInt(30), "", nil)
	s.Require().NoError(err)
	s.Equal("-30", entry.RunningBalance.String())
	s.Equal("-30", s.balance(s.user))
}

func (s *LedgerServiceTestSuite) TestAmountsRoundedToConfiguredPrecision() {
	entry, err := s.svc.Add(s.ctx, s.user, decimal.RequireFromString("10.555"), "", nil)
	s.Require().NoError(err)
	s.Equal("10.56", entry.Amount.String())
	s.Equal("10.56", entry.RunningBalance.String())
}

func (s *LedgerServiceTestSuite) TestTransferMovesBalanceAtomically() {
	s.mustAdd(s.user, 100)
	s.mustAdd(s.team, 100)

	// A.transfer(B, 30) -> {sender: 70, recipient: 130}
	result, err := s.svc.Transfer(s.ctx, s.user, s.team, decimal.NewFromInt(30), "payout", nil)
	s.Require().NoError(err)
	s.Equal("70", result.SenderBalance.String())
	s.Equal("130", result.RecipientBalance.String())

	// B.transfer(A, 20) -> {sender: 110, recipient: 90}
	result, err = s.svc.Transfer(s.ctx, s.team, s.user, decimal.NewFromInt(20), "", nil)
	s.Require().NoError(err)
	s.Equal("110", result.SenderBalance.String())
	s.Equal("90", result.RecipientBalance.String())

	s.Equal("90", s.balance(s.user))
	s.Equal("110", s.balance(s.team))

	events := s.publisher.byTopic(domain.TopicTransferCompleted)
	s.Require().Len(events, 2)
	first, ok := events[0].event.(domain.TransferCompleted)
	s.Require().True(ok)
	s.Equal("70", first.SenderNewBalance.String())
	s.Equal("130", first.RecipientNewBalance.String())
}

func (s *LedgerServiceTestSuite) TestTransferConservation() {
	s.mustAdd(s.user, 55)
	s.mustAdd(s.team, 45)
	before := decimal.RequireFromString(s.balance(s.user)).Add(decimal.RequireFromString(s.balance(s.team)))

	_, err := s.svc.Transfer(s.ctx, s.user, s.team, decimal.NewFromInt(17), "", nil)
	s.Require().NoError(err)

	after := decimal.RequireFromString(s.balance(s.user)).Add(decimal.RequireFromString(s.balance(s.team)))
	s.True(before.Equal(after), "transfer must conserve total balance")
}

func (s *LedgerServiceTestSuite) TestTransferRejectsNonPositiveAmount() {
	_, err := s.svc.Transfer(s.ctx, s.user, s.team, decimal.Zero, "", nil)
	s.ErrorIs(err, apperrors.ErrInvalidAmount)
	s.Empty(s.publisher.events)
}

func (s *LedgerServiceTestSuite) TestTransferInsufficientBalanceLeavesBothUntouched() {
	s.mustAdd(s.user, 10)
	s.mustAdd(s.team, 100)

	_, err := s.svc.Transfer(s.ctx, s.user, s.team, decimal.NewFromInt(30), "", nil)
	s.ErrorIs(err, apperrors.ErrInsufficientBalance)

	s.Equal("10", s.balance(s.user))
	s.Equal("100", s.balance(s.team))

	history, err := s.svc.History(s.ctx, s.team, 10, "asc")
	s.Require().NoError(err)
	s.Len(history, 1, "no credit entry from the aborted transfer may survive")
	s.Empty(s.publisher.byTopic(domain.TopicTransferCompleted))
}

func (s *LedgerServiceTestSuite) TestSelfTransferKeepsBalanceAndAppendsTwoEntries() {
	s.mustAdd(s.user, 100)

	result, err := s.svc.Transfer(s.ctx, s.user, s.user, decimal.NewFromInt(25), "rebook", nil)
	s.Require().NoError(err)
	s.Equal("100", result.SenderBalance.String())
	s.Equal("100", result.RecipientBalance.String())
	s.Equal("100", s.balance(s.user))

	entries, err := s.svc.History(s.ctx, s.user, 10, "asc")
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	s.Equal(domain.EntryDebit, entries[1].Kind)
	s.Equal("75", entries[1].RunningBalance.String())
	s.Equal(domain.EntryCredit, entries[2].Kind)
	s.Equal("100", entries[2].RunningBalance.String())
}

func (s *LedgerServiceTestSuite) TestConcurrentOppositeTransfersComplete() {
	s.mustAdd(s.user, 100)
	s.mustAdd(s.team, 100)

	const rounds = 25
	var wg sync.WaitGroup
	wg.Add(2)
	errs := make(chan error, 2*rounds)

	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			if _, err := s.svc.Transfer(s.ctx, s.user, s.team, decimal.NewFromInt(1), "", nil); err != nil {
				errs <- err
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			if _, err := s.svc.Transfer(s.ctx, s.team, s.user, decimal.NewFromInt(1), "", nil); err != nil {
				errs <- err
			}
		}
	}()
	wg.Wait()
	close(errs)
	for err := range errs {
		s.Require().NoError(err)
	}

	// Equal traffic in both directions nets to zero.
	s.Equal("100", s.balance(s.user))
	s.Equal("100", s.balance(s.team))
	s.Len(s.publisher.byTopic(domain.TopicTransferCompleted), 2*rounds)
}

func (s *LedgerServiceTestSuite) TestConcurrentAddsConserveTotal() {
	// The account starts empty, so the very first mutations race too: they
	// must serialize even though there is no prior entry.
	const workers = 8
	const perWorker = 10

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_, err := s.svc.Add(s.ctx, s.user, decimal.NewFromInt(1), "", nil)
				assert.NoError(s.T(), err)
			}
		}()
	}
	wg.Wait()

	s.Equal(decimal.NewFromInt(workers*perWorker).String(), s.balance(s.user))

	entries, err := s.svc.History(s.ctx, s.user, domain.MaxHistoryLimit, "asc")
	s.Require().NoError(err)
	s.Require().Len(entries, workers*perWorker)
	for i, entry := range entries {
		// Each entry saw its predecessor: running balance counts 1,2,3,...
		s.Equal(decimal.NewFromInt(int64(i+1)).String(), entry.RunningBalance.String(), "entry %d", i)
	}
}

func (s *LedgerServiceTestSuite) TestHistoryLimitClamping() {
	for i := 0; i < 15; i++ {
		s.mustAdd(s.user, 1)
	}

	entries, err := s.svc.History(s.ctx, s.user, 9999, "asc")
	s.Require().NoError(err)
	s.Len(entries, 15)

	entries, err = s.svc.History(s.ctx, s.user, 0, "asc")
	s.Require().NoError(err)
	s.Len(entries, 1)

	entries, err = s.svc.History(s.ctx, s.user, 1001, "asc")
	s.Require().NoError(err)
	s.Len(entries, 15)

	entries, err = s.svc.History(s.ctx, s.user, -3, "desc")
	s.Require().NoError(err)
	s.Len(entries, 1)
}

func (s *LedgerServiceTestSuite) TestHistoryOrderFallsBackToDescending() {
	s.mustAdd(s.user, 1)
	s.mustAdd(s.user, 2)

	entries, err := s.svc.History(s.ctx, s.user, 10, "sideways")
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Greater(entries[0].ID, entries[1].ID)

	// Case-insensitive ascending.
	entries, err = s.svc.History(s.ctx, s.user, 10, "ASC")
	s.Require().NoError(err)
	s.Less(entries[0].ID, entries[1].ID)
}

func (s *LedgerServiceTestSuite) TestIdenticalTimestampsResolveByHighestID() {
	frozen := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.repo.SetNowFunc(func() time.Time { return frozen })

	s.mustAdd(s.user, 10)
	s.mustAdd(s.user, 20)
	s.mustDeduct(s.user, 5)

	s.Equal("25", s.balance(s.user))

	atBalance, err := s.svc.BalanceAt(s.ctx, s.user, frozen)
	s.Require().NoError(err)
	s.Equal("25", atBalance.String())
}

func (s *LedgerServiceTestSuite) TestBalanceAtPointInTime() {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	current := t0
	s.repo.SetNowFunc(func() time.Time { return current })

	s.mustAdd(s.user, 100)
	current = t0.Add(time.Hour)
	s.mustDeduct(s.user, 40)

	balance, err := s.svc.BalanceAt(s.ctx, s.user, t0.Add(30*time.Minute))
	s.Require().NoError(err)
	s.Equal("100", balance.String())

	balance, err = s.svc.BalanceAt(s.ctx, s.user, t0.Add(2*time.Hour))
	s.Require().NoError(err)
	s.Equal("60", balance.String())

	// Before any entry: zero.
	balance, err = s.svc.BalanceAt(s.ctx, s.user, t0.Add(-time.Minute))
	s.Require().NoError(err)
	s.Equal("0", balance.String())
}

func (s *LedgerServiceTestSuite) TestBalanceAtEpochNormalizesMilliseconds() {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.repo.SetNowFunc(func() time.Time { return t0 })
	s.mustAdd(s.user, 100)

	// Same instant expressed in seconds and in milliseconds.
	balance, err := s.svc.BalanceAtEpoch(s.ctx, s.user, t0.Unix(), "")
	s.Require().NoError(err)
	s.Equal("100", balance.String())

	balance, err = s.svc.BalanceAtEpoch(s.ctx, s.user, t0.UnixMilli(), "")
	s.Require().NoError(err)
	s.Equal("100", balance.String())

	balance, err = s.svc.BalanceAtEpoch(s.ctx, s.user, t0.UnixMilli(), "ms")
	s.Require().NoError(err)
	s.Equal("100", balance.String())

	_, err = s.svc.BalanceAtEpoch(s.ctx, s.user, t0.Unix(), "fortnights")
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *LedgerServiceTestSuite) TestHasCredits() {
	s.mustAdd(s.user, 50)

	has, err := s.svc.HasCredits(s.ctx, s.user, decimal.NewFromInt(50))
	s.Require().NoError(err)
	s.True(has)

	has, err = s.svc.HasCredits(s.ctx, s.user, decimal.NewFromInt(51))
	s.Require().NoError(err)
	s.False(has)
}

func (s *LedgerServiceTestSuite) TestEventsCarryEntryDetails() {
	entry, err := s.svc.Add(s.ctx, s.user, decimal.NewFromInt(42), "signup bonus", map[string]any{"source": "promo"})
	s.Require().NoError(err)

	added := s.publisher.byTopic(domain.TopicEntryAdded)
	s.Require().Len(added, 1)
	event, ok := added[0].event.(domain.EntryAdded)
	s.Require().True(ok)
	s.Equal(entry.ID, event.EntryID)
	s.Equal(s.user, event.Account)
	s.Equal("42", event.Amount.String())
	s.Equal("42", event.NewBalance.String())
	s.Equal("signup bonus", event.Description)
	s.Equal("promo", event.Metadata["source"])
}

func TestMutationRetriesOnTransientConflict(t *testing.T) {
	repo := &flakyLedgerRepository{LedgerRepositoryFacade: memory.NewLedgerRepository(), failures: 2}
	svc := services.NewLedgerService(repo, nil, services.DefaultConfig())
	account := domain.AccountRef{Kind: "user", ID: "bob"}

	entry, err := svc.Add(context.Background(), account, decimal.NewFromInt(10), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "10", entry.RunningBalance.String())
	assert.Equal(t, 3, repo.mutateCalls, "two transient failures then one success")
}

func TestMutationRetryBudgetExhausts(t *testing.T) {
	repo := &flakyLedgerRepository{LedgerRepositoryFacade: memory.NewLedgerRepository(), failures: 100}
	svc := services.NewLedgerService(repo, nil, services.DefaultConfig())
	account := domain.AccountRef{Kind: "user", ID: "bob"}

	_, err := svc.Add(context.Background(), account, decimal.NewFromInt(10), "", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsTransient(err))
	assert.Equal(t, 5, repo.mutateCalls, "retry budget is five attempts")

	balance, err := svc.Balance(context.Background(), account)
	require.NoError(t, err)
	assert.Equal(t, "0", balance.String())
}

func TestStorageFailuresAreNotRetried(t *testing.T) {
	storageErr := errors.New("connection reset")
	repo := &failingLedgerRepository{err: storageErr}
	svc := services.NewLedgerService(repo, nil, services.DefaultConfig())

	_, err := svc.Add(context.Background(), domain.AccountRef{Kind: "user", ID: "bob"}, decimal.NewFromInt(10), "", nil)
	require.ErrorIs(t, err, storageErr)
	assert.Equal(t, 1, repo.mutateCalls, "non-transient errors propagate immediately")
}

type failingLedgerRepository struct {
	portsrepo.LedgerRepositoryFacade
	err         error
	mutateCalls int
}

func (r *failingLedgerRepository) Mutate(ctx context.Context, accounts []domain.AccountRef, fn func(tx portsrepo.LedgerTx) error) error {
	r.mutateCalls++
	return r.err
}
