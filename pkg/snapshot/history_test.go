package snapshot

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vestwatch/vestwatch/pkg/ops"
)

func historyFixture(t *testing.T) *AccountSnapshot {
	t.Helper()
	s := newTestSnapshot(t, "alice", nil)
	s.Append(
		ops.New(at(1*time.Hour), 100, 0, ops.Transfer{From: "bob", To: "alice", Amount: steem("5"), Memo: "thanks for the coffee"}),
		ops.New(at(2*time.Hour), 110, 1, ops.Vote{Voter: "alice", Author: "bob", Permlink: "hello-world", Weight: 10000}),
		ops.New(at(3*time.Hour), 120, 2, ops.ProducerReward{Producer: "alice", VestingShares: vests("1")}),
		ops.New(at(4*time.Hour), 130, 3, ops.Transfer{From: "alice", To: "carol", Amount: sbd("1"), Memo: "rent"}),
	)
	return s
}

func blocks(seq []ops.Operation) []uint64 {
	out := make([]uint64, len(seq))
	for i, op := range seq {
		out[i] = op.Block
	}
	return out
}

func TestOps(t *testing.T) {
	s := historyFixture(t)
	u := func(v uint64) *uint64 { return &v }

	tests := []struct {
		name string
		opts IterOptions
		want []uint64
	}{
		{name: "everything", opts: IterOptions{}, want: []uint64{100, 110, 120, 130}},
		{name: "block range", opts: IterOptions{Start: u(110), Stop: u(120)}, want: []uint64{110, 120}},
		{name: "index range", opts: IterOptions{By: ByIndex, Start: u(2)}, want: []uint64{120, 130}},
		{name: "time range", opts: IterOptions{From: at(2 * time.Hour), To: at(3 * time.Hour)}, want: []uint64{110, 120}},
		{name: "include", opts: IterOptions{Include: []string{ops.TypeTransfer}}, want: []uint64{100, 130}},
		{name: "exclude", opts: IterOptions{Exclude: []string{ops.TypeTransfer}}, want: []uint64{110, 120}},
		{name: "empty", opts: IterOptions{Start: u(200)}, want: []uint64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := blocks(slices.Collect(s.Ops(tt.opts)))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpsIsRestartable(t *testing.T) {
	s := historyFixture(t)
	seq := s.Ops(IterOptions{})

	var first []uint64
	for op := range seq {
		first = append(first, op.Block)
		if len(first) == 2 {
			break
		}
	}
	assert.Equal(t, []uint64{100, 110}, first)
	assert.Len(t, slices.Collect(seq), 4)
}

func TestSearch(t *testing.T) {
	s := historyFixture(t)

	tests := []struct {
		name    string
		pattern string
		opts    IterOptions
		want    []uint64
	}{
		{name: "memo substring", pattern: "coffee", want: []uint64{100}},
		{name: "regex", pattern: `"(carol|bob)"`, want: []uint64{100, 110, 130}},
		{name: "type name", pattern: `"producer_reward"`, want: []uint64{120}},
		{name: "timestamp", pattern: `2020-01-01T04:00:00`, want: []uint64{130}},
		{name: "bounded", pattern: `"(carol|bob)"`, opts: IterOptions{From: at(3 * time.Hour)}, want: []uint64{130}},
		{name: "no match", pattern: "nothing here", want: []uint64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := s.Search(tt.pattern, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, blocks(found))
		})
	}
}

func TestSearchRejectsBadPattern(t *testing.T) {
	s := historyFixture(t)
	_, err := s.Search("(", IterOptions{})
	assert.Error(t, err)
}

func TestSearchMatchesNodeEnvelope(t *testing.T) {
	s := historyFixture(t)
	op, err := ops.FromJSON([]byte(`[4, {"trx_id":"deadbeef00","block":140,"trx_in_block":0,"op_in_trx":0,"virtual_op":false,"timestamp":"2020-01-01T05:00:00","op":["transfer",{"from":"alice","to":"dave","amount":"1.000 STEEM","memo":""}]}]`))
	require.NoError(t, err)
	s.Append(op)

	found, err := s.Search("deadbeef", IterOptions{})
	require.NoError(t, err)
	assert.Equal(t, []uint64{140}, blocks(found))

	found, err = s.Search(`"dave"`, IterOptions{})
	require.NoError(t, err)
	assert.Equal(t, []uint64{140}, blocks(found))
}
