package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind indicates whether a ledger entry credits or debits the account.
type EntryKind string

const (
	EntryCredit EntryKind = "credit"
	EntryDebit  EntryKind = "debit"
)

// CreditEntry is one immutable record of a balance movement. Entries are
// append-only; corrections are new entries, never edits.
type CreditEntry struct {
	ID             int64           `json:"id"` // assigned by storage; the only monotonic total order
	Account        AccountRef      `json:"account"`
	Amount         decimal.Decimal `json:"amount"` // strictly positive magnitude
	Kind           EntryKind       `json:"kind"`
	RunningBalance decimal.Decimal `json:"runningBalance"` // balance immediately after this entry
	Description    string          `json:"description,omitempty"`
	Metadata       map[string]any  `json:"metadata,omitempty"` // opaque to the engine
	CreatedAt      time.Time       `json:"createdAt"`          // advisory; never the sole ordering key
}

// SignedAmount returns the amount with the sign implied by the entry kind:
// positive for credits, negative for debits.
func (e CreditEntry) SignedAmount() decimal.Decimal {
	if e.Kind == EntryDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}

// SortOrder is the direction of a history query.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// NormalizeSortOrder maps arbitrary input to a valid sort order. Anything
// other than "asc" or "desc" (case-insensitive) falls back to descending.
func NormalizeSortOrder(order string) SortOrder {
	switch strings.ToLower(order) {
	case string(SortAsc):
		return SortAsc
	case string(SortDesc):
		return SortDesc
	default:
		return SortDesc
	}
}

// History query limits. Requested limits outside this range are clamped,
// never rejected.
const (
	MinHistoryLimit = 1
	MaxHistoryLimit = 1000
)

// ClampHistoryLimit bounds a requested history limit to [MinHistoryLimit, MaxHistoryLimit].
func ClampHistoryLimit(limit int) int {
	if limit < MinHistoryLimit {
		return MinHistoryLimit
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}
