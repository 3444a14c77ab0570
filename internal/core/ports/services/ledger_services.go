package services

import (
	"context"
	"time"

	"github.com/nxtech/credits_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// TransferResult carries both balances after a completed transfer.
type TransferResult struct {
	SenderBalance    decimal.Decimal `json:"senderBalance"`
	RecipientBalance decimal.Decimal `json:"recipientBalance"`
}

// LedgerSvcFacade is the engine's full operation surface.
type LedgerSvcFacade interface {
	// Add appends a credit entry for the account. Fails with
	// apperrors.ErrInvalidAmount if amount <= 0.
	Add(ctx context.Context, account domain.AccountRef, amount decimal.Decimal, description string, metadata map[string]any) (*domain.CreditEntry, error)

	// Deduct appends a debit entry for the account. Fails with
	// apperrors.ErrInvalidAmount if amount <= 0, and with
	// apperrors.InsufficientBalanceError if the result would be negative and
	// negative balances are disallowed.
	Deduct(ctx context.Context, account domain.AccountRef, amount decimal.Decimal, description string, metadata map[string]any) (*domain.CreditEntry, error)

	// Balance returns the account's current balance, 0 if it has no entries.
	Balance(ctx context.Context, account domain.AccountRef) (decimal.Decimal, error)

	// BalanceAt returns the balance as of the given instant, 0 if no entry
	// exists at or before it.
	BalanceAt(ctx context.Context, account domain.AccountRef, at time.Time) (decimal.Decimal, error)

	// BalanceAtEpoch is BalanceAt for integer epoch input. Unit is "s" or
	// "ms"; when empty, millisecond epochs are auto-detected.
	BalanceAtEpoch(ctx context.Context, account domain.AccountRef, epoch int64, unit string) (decimal.Decimal, error)

	// HasCredits reports whether the account's balance covers amount.
	HasCredits(ctx context.Context, account domain.AccountRef, amount decimal.Decimal) (bool, error)

	// Transfer moves amount from sender to recipient atomically. A transfer
	// to self appends a debit and a credit and leaves the balance unchanged.
	Transfer(ctx context.Context, sender, recipient domain.AccountRef, amount decimal.Decimal, description string, metadata map[string]any) (*TransferResult, error)

	// History lists entries ordered by created_at then id. Limit is clamped
	// to [1,1000]; any order other than asc/desc falls back to desc.
	History(ctx context.Context, account domain.AccountRef, limit int, order string) ([]domain.CreditEntry, error)
}

// ServiceContainer aggregates the engine's service facades for wiring.
type ServiceContainer struct {
	Ledger LedgerSvcFacade
}
