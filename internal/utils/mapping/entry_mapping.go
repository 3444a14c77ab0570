package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/nxtech/credits_ledger_app/internal/core/domain"
	"github.com/nxtech/credits_ledger_app/internal/models"
)

// ToModelEntry converts a domain CreditEntry to a model CreditEntry,
// serializing the metadata payload to JSON.
func ToModelEntry(d domain.CreditEntry) (models.CreditEntry, error) {
	var metadata []byte
	if len(d.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(d.Metadata)
		if err != nil {
			return models.CreditEntry{}, fmt.Errorf("failed to marshal entry metadata: %w", err)
		}
	}
	return models.CreditEntry{
		ID:             d.ID,
		AccountKind:    d.Account.Kind,
		AccountID:      d.Account.ID,
		Amount:         d.Amount,
		EntryKind:      string(d.Kind),
		RunningBalance: d.RunningBalance,
		Description:    d.Description,
		Metadata:       metadata,
		CreatedAt:      d.CreatedAt,
	}, nil
}

// ToDomainEntry converts a model CreditEntry to a domain CreditEntry.
func ToDomainEntry(m models.CreditEntry) (domain.CreditEntry, error) {
	var metadata map[string]any
	if len(m.Metadata) > 0 {
		if err := json.Unmarshal(m.Metadata, &metadata); err != nil {
			return domain.CreditEntry{}, fmt.Errorf("failed to unmarshal entry metadata: %w", err)
		}
	}
	return domain.CreditEntry{
		ID:             m.ID,
		Account:        domain.AccountRef{Kind: m.AccountKind, ID: m.AccountID},
		Amount:         m.Amount,
		Kind:           domain.EntryKind(m.EntryKind),
		RunningBalance: m.RunningBalance,
		Description:    m.Description,
		Metadata:       metadata,
		CreatedAt:      m.CreatedAt,
	}, nil
}
