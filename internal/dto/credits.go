package dto

import (
	"time"

	"github.com/nxtech/credits_ledger_app/internal/core/domain"
	portssvc "github.com/nxtech/credits_ledger_app/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

// CreditMutationRequest is the body of add and deduct calls.
type CreditMutationRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description"`
	Metadata    map[string]any  `json:"metadata"`
}

// TransferRequest is the body of a transfer call. The sender comes from the
// URL path; the recipient is named here.
type TransferRequest struct {
	RecipientKind string          `json:"recipientKind" binding:"required"`
	RecipientID   string          `json:"recipientID" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Description   string          `json:"description"`
	Metadata      map[string]any  `json:"metadata"`
}

// EntryResponse is the wire shape of a ledger entry.
type EntryResponse struct {
	ID             int64           `json:"id"`
	AccountKind    string          `json:"accountKind"`
	AccountID      string          `json:"accountID"`
	Amount         decimal.Decimal `json:"amount"`
	Kind           string          `json:"kind"`
	RunningBalance decimal.Decimal `json:"runningBalance"`
	Description    string          `json:"description,omitempty"`
	Metadata       map[string]any  `json:"metadata,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// ToEntryResponse converts a domain entry to its response shape.
func ToEntryResponse(e domain.CreditEntry) EntryResponse {
	return EntryResponse{
		ID:             e.ID,
		AccountKind:    e.Account.Kind,
		AccountID:      e.Account.ID,
		Amount:         e.Amount,
		Kind:           string(e.Kind),
		RunningBalance: e.RunningBalance,
		Description:    e.Description,
		Metadata:       e.Metadata,
		CreatedAt:      e.CreatedAt,
	}
}

// ToEntryResponses converts a slice of domain entries.
func ToEntryResponses(entries []domain.CreditEntry) []EntryResponse {
	out := make([]EntryResponse, len(entries))
	for i, e := range entries {
		out[i] = ToEntryResponse(e)
	}
	return out
}

// BalanceResponse reports a derived balance.
type BalanceResponse struct {
	AccountKind string          `json:"accountKind"`
	AccountID   string          `json:"accountID"`
	Balance     decimal.Decimal `json:"balance"`
}

// TransferResponse reports both balances after a transfer.
type TransferResponse struct {
	SenderBalance    decimal.Decimal `json:"senderBalance"`
	RecipientBalance decimal.Decimal `json:"recipientBalance"`
}

// ToTransferResponse converts an engine transfer result.
func ToTransferResponse(r portssvc.TransferResult) TransferResponse {
	return TransferResponse{
		SenderBalance:    r.SenderBalance,
		RecipientBalance: r.RecipientBalance,
	}
}

// HistoryResponse lists entries for an account.
type HistoryResponse struct {
	Entries []EntryResponse `json:"entries"`
}
