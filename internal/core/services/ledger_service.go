package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nxtech/credits_ledger_app/internal/apperrors"
	"github.com/nxtech/credits_ledger_app/internal/core/domain"
	portsevents "github.com/nxtech/credits_ledger_app/internal/core/ports/events"
	portsrepo "github.com/nxtech/credits_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/nxtech/credits_ledger_app/internal/core/ports/services"
	"github.com/nxtech/credits_ledger_app/internal/middleware"
	"github.com/nxtech/credits_ledger_app/internal/utils/timeconv"
	"github.com/shopspring/decimal"
)

// maxMutationAttempts bounds the automatic retry loop around a mutation.
// A transfer counts as one mutation.
const maxMutationAttempts = 5

// Config is the engine's per-instance policy, injected at construction.
type Config struct {
	// AllowNegativeBalance permits deductions below zero when true.
	AllowNegativeBalance bool
	// DecimalPrecision is the fixed-point scale applied to amounts and
	// running balances.
	DecimalPrecision int32
}

// DefaultConfig mirrors the documented defaults: negative balances disallowed,
// two decimal places.
func DefaultConfig() Config {
	return Config{AllowNegativeBalance: false, DecimalPrecision: 2}
}

// ledgerService is the credit ledger engine. It owns the balance-integrity
// protocol (read locked latest entry, compute, append), the bounded retry on
// transient storage conflicts, and the deterministic lock ordering that makes
// concurrent transfers deadlock-free.
type ledgerService struct {
	repo      portsrepo.LedgerRepositoryFacade
	publisher portsevents.Publisher
	cfg       Config
}

// NewLedgerService creates the ledger engine. The publisher may be nil, in
// which case no events are emitted.
func NewLedgerService(repo portsrepo.LedgerRepositoryFacade, publisher portsevents.Publisher, cfg Config) portssvc.LedgerSvcFacade {
	return &ledgerService{
		repo:      repo,
		publisher: publisher,
		cfg:       cfg,
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// Add appends a credit entry and emits EntryAdded after commit.
func (s *ledgerService) Add(ctx context.Context, account domain.AccountRef, amount decimal.Decimal, description string, metadata map[string]any) (*domain.CreditEntry, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.ErrInvalidAmount
	}
	amount = s.round(amount)

	var entry *domain.CreditEntry
	err := s.mutate(ctx, []domain.AccountRef{account}, func(tx portsrepo.LedgerTx) error {
		e, err := s.append(ctx, tx, account, amount, domain.EntryCredit, description, metadata)
		if err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, domain.TopicEntryAdded, domain.EntryAdded{
		Account:     account,
		EntryID:     entry.ID,
		Amount:      amount,
		NewBalance:  entry.RunningBalance,
		Description: description,
		Metadata:    metadata,
		OccurredAt:  entry.CreatedAt,
	})
	return entry, nil
}

// Deduct appends a debit entry, enforcing the negative-balance policy, and
// emits EntryDeducted after commit.
func (s *ledgerService) Deduct(ctx context.Context, account domain.AccountRef, amount decimal.Decimal, description string, metadata map[string]any) (*domain.CreditEntry, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.ErrInvalidAmount
	}
	amount = s.round(amount)

	var entry *domain.CreditEntry
	err := s.mutate(ctx, []domain.AccountRef{account}, func(tx portsrepo.LedgerTx) error {
		e, err := s.append(ctx, tx, account, amount, domain.EntryDebit, description, metadata)
		if err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, domain.TopicEntryDeducted, domain.EntryDeducted{
		Account:     account,
		EntryID:     entry.ID,
		Amount:      amount,
		NewBalance:  entry.RunningBalance,
		Description: description,
		Metadata:    metadata,
		OccurredAt:  entry.CreatedAt,
	})
	return entry, nil
}

// Balance returns the running balance of the latest entry by id descending,
// or zero for an empty account. This is a non-blocking informational read.
func (s *ledgerService) Balance(ctx context.Context, account domain.AccountRef) (decimal.Decimal, error) {
	latest, err := s.repo.LatestEntry(ctx, account)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read latest entry for %s: %w", account, err)
	}
	if latest == nil {
		return decimal.Zero, nil
	}
	return latest.RunningBalance, nil
}

// BalanceAt returns the balance as of the given instant: the running balance
// of the latest entry with created_at <= at, tie-broken by highest id.
func (s *ledgerService) BalanceAt(ctx context.Context, account domain.AccountRef, at time.Time) (decimal.Decimal, error) {
	latest, err := s.repo.LatestEntryAt(ctx, account, at)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read entry at %s for %s: %w", at, account, err)
	}
	if latest == nil {
		return decimal.Zero, nil
	}
	return latest.RunningBalance, nil
}

// BalanceAtEpoch resolves an integer epoch to a time and delegates to
// BalanceAt. An explicit unit ("s"/"ms") bypasses the millisecond heuristic.
func (s *ledgerService) BalanceAtEpoch(ctx context.Context, account domain.AccountRef, epoch int64, unit string) (decimal.Decimal, error) {
	at, err := timeconv.FromEpoch(epoch, unit)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", apperrors.ErrValidation, err)
	}
	return s.BalanceAt(ctx, account, at)
}

// HasCredits reports whether the current balance covers amount.
func (s *ledgerService) HasCredits(ctx context.Context, account domain.AccountRef, amount decimal.Decimal) (bool, error) {
	balance, err := s.Balance(ctx, account)
	if err != nil {
		return false, err
	}
	return balance.GreaterThanOrEqual(amount), nil
}

// Transfer debits the sender and credits the recipient inside one storage
// transaction. Locks are taken in the global account order regardless of call
// direction, so two concurrent opposite transfers cannot circular-wait. A
// self-transfer locks the single account once and appends debit then credit.
func (s *ledgerService) Transfer(ctx context.Context, sender, recipient domain.AccountRef, amount decimal.Decimal, description string, metadata map[string]any) (*portssvc.TransferResult, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.ErrInvalidAmount
	}
	amount = s.round(amount)

	var senderEntry, recipientEntry *domain.CreditEntry
	err := s.mutate(ctx, lockOrder(sender, recipient), func(tx portsrepo.LedgerTx) error {
		se, err := s.append(ctx, tx, sender, amount, domain.EntryDebit, description, metadata)
		if err != nil {
			return err
		}
		re, err := s.append(ctx, tx, recipient, amount, domain.EntryCredit, description, metadata)
		if err != nil {
			return err
		}
		senderEntry, recipientEntry = se, re
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &portssvc.TransferResult{
		SenderBalance:    senderEntry.RunningBalance,
		RecipientBalance: recipientEntry.RunningBalance,
	}
	if sender.Equal(recipient) {
		// The credit entry is the account's final state.
		result.SenderBalance = recipientEntry.RunningBalance
	}

	s.emit(ctx, domain.TopicTransferCompleted, domain.TransferCompleted{
		EntryID:             recipientEntry.ID,
		Sender:              sender,
		Recipient:           recipient,
		Amount:              amount,
		SenderNewBalance:    result.SenderBalance,
		RecipientNewBalance: result.RecipientBalance,
		Description:         description,
		Metadata:            metadata,
		OccurredAt:          recipientEntry.CreatedAt,
	})
	return result, nil
}

// History lists entries ordered by created_at then id. Limit is clamped to
// [1,1000] and order falls back to descending when unrecognized.
func (s *ledgerService) History(ctx context.Context, account domain.AccountRef, limit int, order string) ([]domain.CreditEntry, error) {
	entries, err := s.repo.ListEntries(ctx, account, domain.ClampHistoryLimit(limit), domain.NormalizeSortOrder(order))
	if err != nil {
		return nil, fmt.Errorf("failed to list entries for %s: %w", account, err)
	}
	return entries, nil
}

// append reads the locked latest entry, computes the next running balance,
// checks the negative-balance policy, and appends the new entry. It must only
// run inside a Mutate closure holding the account's lock.
func (s *ledgerService) append(ctx context.Context, tx portsrepo.LedgerTx, account domain.AccountRef, amount decimal.Decimal, kind domain.EntryKind, description string, metadata map[string]any) (*domain.CreditEntry, error) {
	latest, err := tx.LatestEntryForUpdate(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to lock latest entry for %s: %w", account, err)
	}

	lastBalance := decimal.Zero
	if latest != nil {
		lastBalance = latest.RunningBalance
	}

	entry := &domain.CreditEntry{
		Account:     account,
		Amount:      amount,
		Kind:        kind,
		Description: description,
		Metadata:    metadata,
	}
	newBalance := lastBalance.Add(entry.SignedAmount())
	if kind == domain.EntryDebit && newBalance.IsNegative() && !s.cfg.AllowNegativeBalance {
		return nil, apperrors.NewInsufficientBalanceError(amount, lastBalance)
	}
	entry.RunningBalance = newBalance

	if err := tx.AppendEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to append entry for %s: %w", account, err)
	}
	return entry, nil
}

// mutate wraps a Mutate call in the bounded transient-conflict retry loop.
// Each retry re-executes fn from scratch so the read-compute-append sequence
// is never replayed from stale values.
func (s *ledgerService) mutate(ctx context.Context, accounts []domain.AccountRef, fn func(tx portsrepo.LedgerTx) error) error {
	var err error
	for attempt := 1; attempt <= maxMutationAttempts; attempt++ {
		err = s.repo.Mutate(ctx, accounts, fn)
		if err == nil || !apperrors.IsTransient(err) {
			return err
		}
		middleware.GetLoggerFromCtx(ctx).Warn("Transient conflict during ledger mutation, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", maxMutationAttempts),
			slog.String("error", err.Error()),
		)
	}
	return err
}

// emit publishes a post-commit event. Delivery failures are logged, never
// surfaced: the mutation is already durable.
func (s *ledgerService) emit(ctx context.Context, topic string, event any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		middleware.GetLoggerFromCtx(ctx).Error("Failed to publish ledger event",
			slog.String("topic", topic),
			slog.String("error", err.Error()),
		)
	}
}

func (s *ledgerService) round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(s.cfg.DecimalPrecision)
}

// lockOrder returns the distinct participants sorted by the global account
// order (Kind, ID). Every mutation touching these accounts requests locks in
// this order, which is the anti-deadlock invariant.
func lockOrder(accounts ...domain.AccountRef) []domain.AccountRef {
	distinct := make([]domain.AccountRef, 0, len(accounts))
	for _, acc := range accounts {
		seen := false
		for _, d := range distinct {
			if d.Equal(acc) {
				seen = true
				break
			}
		}
		if !seen {
			distinct = append(distinct, acc)
		}
	}
	for i := 1; i < len(distinct); i++ {
		for j := i; j > 0 && distinct[j].Less(distinct[j-1]); j-- {
			distinct[j], distinct[j-1] = distinct[j-1], distinct[j]
		}
	}
	return distinct
}
