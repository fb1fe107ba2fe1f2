package snapshot

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Point is a snapshot together with its power figures, converted at the
// snapshot's own timestamp.
type Point struct {
	Snapshot
	// Index is the snapshot's position in the timeline.
	Index          int
	OwnPower       decimal.Decimal
	IncomingPower  decimal.Decimal
	OutgoingPower  decimal.Decimal
	EffectivePower decimal.Decimal
}

// Query returns the latest snapshot at or before ts. It reports false when
// ts precedes the whole timeline.
func (s *AccountSnapshot) Query(ts time.Time) (Point, bool) {
	i := s.search(ts)
	if i < 0 {
		return Point{}, false
	}
	return s.point(i), true
}

// search returns the index of the rightmost snapshot with Timestamp <= ts,
// or -1.
func (s *AccountSnapshot) search(ts time.Time) int {
	n := sort.Search(len(s.timeline), func(i int) bool {
		return s.timeline[i].Timestamp.After(ts)
	})
	return n - 1
}

func (s *AccountSnapshot) point(i int) Point {
	snap := s.timeline[i]
	at := snap.Timestamp
	own := s.conv.StakeToPower(snap.Stake, at)
	in := s.conv.StakeToPower(snap.DelegatedIn.Total(), at)
	out := s.conv.StakeToPower(snap.DelegatedOut.Total(), at)
	return Point{
		Snapshot:       snap,
		Index:          i,
		OwnPower:       own,
		IncomingPower:  in,
		OutgoingPower:  out,
		EffectivePower: own.Add(in).Sub(out),
	}
}
