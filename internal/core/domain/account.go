package domain

// AccountRef identifies the owner of a credit ledger history.
// The engine stores no state on the account itself; the balance is always
// derived from the account's entries.
type AccountRef struct {
	Kind string `json:"kind"` // stable type tag of the owning entity (e.g. "user", "team")
	ID   string `json:"id"`   // identifier of the owning entity within its kind
}

// Creditable is implemented by any caller type that owns a credit ledger.
// The engine depends only on this narrow identity contract, never on the
// caller's concrete type.
type Creditable interface {
	CreditAccount() AccountRef
}

// Less orders account refs by (Kind, ID). This is the total order used for
// deterministic lock acquisition; it must be stable across all callers.
func (a AccountRef) Less(other AccountRef) bool {
	if a.Kind != other.Kind {
		return a.Kind < other.Kind
	}
	return a.ID < other.ID
}

// Equal reports whether two refs identify the same account.
func (a AccountRef) Equal(other AccountRef) bool {
	return a.Kind == other.Kind && a.ID == other.ID
}

func (a AccountRef) String() string {
	return a.Kind + ":" + a.ID
}
