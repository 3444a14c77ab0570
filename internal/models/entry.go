package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreditEntry is the storage row shape of a ledger entry.
// Metadata is carried as raw JSON between the database and the mapper.
type CreditEntry struct {
	ID             int64           `json:"id"`          // BIGSERIAL primary key; the monotonic total order
	AccountKind    string          `json:"accountKind"` // owning entity type tag
	AccountID      string          `json:"accountID"`   // owning entity identifier
	Amount         decimal.Decimal `json:"amount"`      // positive magnitude
	EntryKind      string          `json:"entryKind"`   // "credit" or "debit"
	RunningBalance decimal.Decimal `json:"runningBalance"`
	Description    string          `json:"description"`
	Metadata       []byte          `json:"metadata"` // JSONB payload, opaque
	CreatedAt      time.Time       `json:"createdAt"`
}
