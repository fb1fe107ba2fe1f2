package snapshot

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Delegation is one account's delegated VESTS.
type Delegation struct {
	Account string
	Amount  decimal.Decimal
}

// Delegations is an immutable list of delegations kept in insertion order.
// Updates return a new value; a Delegations held by an earlier snapshot never
// changes.
type Delegations struct {
	entries []Delegation
}

// Len returns the number of accounts.
func (d Delegations) Len() int { return len(d.entries) }

// Get returns the amount delegated to or from account.
func (d Delegations) Get(account string) (decimal.Decimal, bool) {
	for _, e := range d.entries {
		if e.Account == account {
			return e.Amount, true
		}
	}
	return decimal.Zero, false
}

// Total sums every entry.
func (d Delegations) Total() decimal.Decimal {
	total := decimal.Zero
	for _, e := range d.entries {
		total = total.Add(e.Amount)
	}
	return total
}

// Entries returns a copy of the entries in insertion order.
func (d Delegations) Entries() []Delegation {
	return slices.Clone(d.entries)
}

// Map returns a fresh map of account to amount.
func (d Delegations) Map() map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, len(d.entries))
	for _, e := range d.entries {
		m[e.Account] = e.Amount
	}
	return m
}

// with sets account to amount. Existing entries keep their position and a
// zero amount removes the entry. The classifier only sends zero amounts for
// incoming delegations.
func (d Delegations) with(account string, amount decimal.Decimal) Delegations {
	i := slices.IndexFunc(d.entries, func(e Delegation) bool { return e.Account == account })
	if amount.IsZero() {
		if i < 0 {
			return d
		}
		return Delegations{entries: slices.Delete(slices.Clone(d.entries), i, i+1)}
	}
	next := slices.Clone(d.entries)
	if i < 0 {
		return Delegations{entries: append(next, Delegation{Account: account, Amount: amount})}
	}
	next[i].Amount = amount
	return Delegations{entries: next}
}

// withoutFirst removes the first entry whose amount equals amount.
func (d Delegations) withoutFirst(amount decimal.Decimal) Delegations {
	i := slices.IndexFunc(d.entries, func(e Delegation) bool { return e.Amount.Equal(amount) })
	if i < 0 {
		return d
	}
	return Delegations{entries: slices.Delete(slices.Clone(d.entries), i, i+1)}
}
