package snapshot

import (
	"time"

	"github.com/shopspring/decimal"
)

// Epoch is the timestamp of the zero snapshot every timeline starts with.
var Epoch = time.Unix(0, 0).UTC()

// Snapshot is the account's ledger state at Timestamp.
type Snapshot struct {
	Timestamp    time.Time
	Stake        decimal.Decimal // VESTS
	CurrencyA    decimal.Decimal // STEEM
	CurrencyB    decimal.Decimal // SBD
	DelegatedIn  Delegations
	DelegatedOut Delegations
}

// DelegationChange updates one side of the delegation lists. With
// ByAmount set the account is ignored and the first entry holding Amount is
// removed instead.
type DelegationChange struct {
	Account  string
	Amount   decimal.Decimal
	ByAmount bool
}

// Delta is one ledger update produced by the classifier.
type Delta struct {
	Stake     decimal.Decimal
	CurrencyA decimal.Decimal
	CurrencyB decimal.Decimal
	In        *DelegationChange
	Out       *DelegationChange
}

func zeroSnapshot() Snapshot {
	return Snapshot{
		Timestamp: Epoch,
		Stake:     decimal.Zero,
		CurrencyA: decimal.Zero,
		CurrencyB: decimal.Zero,
	}
}

// apply appends two snapshots for an update at ts: a copy of the tail just
// before ts, then the new state at ts.
func apply(timeline []Snapshot, ts time.Time, d Delta) []Snapshot {
	tail := timeline[len(timeline)-1]

	before := tail
	before.Timestamp = ts.Add(-time.Second)
	if before.Timestamp.Before(tail.Timestamp) {
		before.Timestamp = tail.Timestamp
	}

	after := Snapshot{
		Timestamp:    ts,
		Stake:        tail.Stake.Add(d.Stake),
		CurrencyA:    tail.CurrencyA.Add(d.CurrencyA),
		CurrencyB:    tail.CurrencyB.Add(d.CurrencyB),
		DelegatedIn:  change(tail.DelegatedIn, d.In),
		DelegatedOut: change(tail.DelegatedOut, d.Out),
	}
	return append(timeline, before, after)
}

func change(d Delegations, c *DelegationChange) Delegations {
	switch {
	case c == nil:
		return d
	case c.ByAmount:
		return d.withoutFirst(c.Amount)
	default:
		return d.with(c.Account, c.Amount)
	}
}
