package domain_test

import (
	"testing"

	"github.com/nxtech/credits_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSignedAmount(t *testing.T) {
	credit := domain.CreditEntry{Amount: decimal.NewFromInt(10), Kind: domain.EntryCredit}
	assert.Equal(t, "10", credit.SignedAmount().String())

	debit := domain.CreditEntry{Amount: decimal.NewFromInt(10), Kind: domain.EntryDebit}
	assert.Equal(t, "-10", debit.SignedAmount().String())
}

func TestNormalizeSortOrder(t *testing.T) {
	testCases := []struct {
		input    string
		expected domain.SortOrder
	}{
		{"asc", domain.SortAsc},
		{"ASC", domain.SortAsc},
		{"desc", domain.SortDesc},
		{"DeSc", domain.SortDesc},
		{"", domain.SortDesc},
		{"newest", domain.SortDesc},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, domain.NormalizeSortOrder(tc.input), "input %q", tc.input)
	}
}

func TestClampHistoryLimit(t *testing.T) {
	assert.Equal(t, 1, domain.ClampHistoryLimit(0))
	assert.Equal(t, 1, domain.ClampHistoryLimit(-50))
	assert.Equal(t, 1, domain.ClampHistoryLimit(1))
	assert.Equal(t, 250, domain.ClampHistoryLimit(250))
	assert.Equal(t, 1000, domain.ClampHistoryLimit(1000))
	assert.Equal(t, 1000, domain.ClampHistoryLimit(1001))
	assert.Equal(t, 1000, domain.ClampHistoryLimit(9999))
}

func TestAccountRefOrdering(t *testing.T) {
	a := domain.AccountRef{Kind: "team", ID: "z"}
	b := domain.AccountRef{Kind: "user", ID: "a"}

	// Kind is compared before ID.
	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))

	// Same kind falls back to ID.
	c := domain.AccountRef{Kind: "user", ID: "b"}
	assert.True(t, b.Less(c))
	assert.False(t, c.Less(b))

	// Total order: equal refs are not less than each other.
	assert.False(t, b.Less(b))
	assert.True(t, b.Equal(domain.AccountRef{Kind: "user", ID: "a"}))
}

func TestAccountRefString(t *testing.T) {
	assert.Equal(t, "user:alice", domain.AccountRef{Kind: "user", ID: "alice"}.String())
}
