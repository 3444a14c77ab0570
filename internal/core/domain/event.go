package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event topics published after a durable commit.
const (
	TopicEntryAdded        = "credits.entry_added"
	TopicEntryDeducted     = "credits.entry_deducted"
	TopicTransferCompleted = "credits.transfer_completed"
)

// EntryAdded is emitted after a credit entry commits.
type EntryAdded struct {
	Account     AccountRef      `json:"account"`
	EntryID     int64           `json:"entryId"`
	Amount      decimal.Decimal `json:"amount"`
	NewBalance  decimal.Decimal `json:"newBalance"`
	Description string          `json:"description,omitempty"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
	OccurredAt  time.Time       `json:"occurredAt"`
}

// EntryDeducted is emitted after a debit entry commits.
type EntryDeducted struct {
	Account     AccountRef      `json:"account"`
	EntryID     int64           `json:"entryId"`
	Amount      decimal.Decimal `json:"amount"`
	NewBalance  decimal.Decimal `json:"newBalance"`
	Description string          `json:"description,omitempty"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
	OccurredAt  time.Time       `json:"occurredAt"`
}

// TransferCompleted is emitted once per successful transfer, after both
// entries are durably committed. EntryID references the recipient's credit
// entry, the last entry written by the transfer.
type TransferCompleted struct {
	EntryID             int64           `json:"entryId"`
	Sender              AccountRef      `json:"sender"`
	Recipient           AccountRef      `json:"recipient"`
	Amount              decimal.Decimal `json:"amount"`
	SenderNewBalance    decimal.Decimal `json:"senderNewBalance"`
	RecipientNewBalance decimal.Decimal `json:"recipientNewBalance"`
	Description         string          `json:"description,omitempty"`
	Metadata            map[string]any  `json:"metadata,omitempty"`
	OccurredAt          time.Time       `json:"occurredAt"`
}
