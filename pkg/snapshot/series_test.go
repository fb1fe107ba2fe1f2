package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vestwatch/vestwatch/pkg/chain"
	"github.com/vestwatch/vestwatch/pkg/ops"
	"go.uber.org/zap/zaptest"
)

const day = 24 * time.Hour

func TestSeriesNotBuilt(t *testing.T) {
	s := newTestSnapshot(t, "alice", nil)

	_, err := s.PowerSeries()
	assert.ErrorIs(t, err, ErrSeriesNotBuilt)
	_, err = s.ReputationSeries()
	assert.ErrorIs(t, err, ErrSeriesNotBuilt)
	_, err = s.VotingPowerSeries()
	assert.ErrorIs(t, err, ErrSeriesNotBuilt)
	_, err = s.CurationSeries()
	assert.ErrorIs(t, err, ErrSeriesNotBuilt)
}

func TestPowerSeriesFollowsTimeline(t *testing.T) {
	s := newTestSnapshot(t, "alice", nil)
	s.Append(
		op(at(1*time.Hour), 1, ops.ProducerReward{Producer: "alice", VestingShares: vests("10")}),
		op(at(2*time.Hour), 2, ops.DelegateVestingShares{Delegator: "bob", Delegatee: "alice", VestingShares: vests("5")}),
		op(at(3*time.Hour), 3, ops.DelegateVestingShares{Delegator: "alice", Delegatee: "carol", VestingShares: vests("2")}),
	)
	require.NoError(t, s.Build(context.Background(), BuildOptions{}))

	series := s.BuildPowerSeries()
	tl := s.Timeline()
	require.Len(t, series, len(tl))
	for i, p := range series {
		assert.Equal(t, tl[i].Timestamp, p.Timestamp)
	}
	last := series[len(series)-1]
	assertDec(t, "10", last.OwnPower)
	assertDec(t, "13", last.EffectivePower)

	stored, err := s.PowerSeries()
	require.NoError(t, err)
	assert.Equal(t, series, stored)
}

func TestReputationSeries(t *testing.T) {
	s := newTestSnapshot(t, "alice", nil)
	established := int64(1_000_000_000_000) // score 52
	s.inVotes = []IncomingVote{
		{Timestamp: at(1 * time.Hour), VoterReputation: 0, Rshares: 6400},
		{Timestamp: at(2 * time.Hour), VoterReputation: established, Rshares: -6400},
		{Timestamp: at(3 * time.Hour), VoterReputation: established, Rshares: 64 * 100_000_000_000_000},
		{Timestamp: at(4 * time.Hour), VoterReputation: established, Rshares: -64 * 1_000_000_000_000},
		{Timestamp: at(5 * time.Hour), VoterReputation: -5, Rshares: 64},
	}

	series := s.BuildReputationSeries()
	require.Len(t, series, 5)

	raw := make([]int64, len(series))
	for i, p := range series {
		raw[i] = p.Raw
		assert.Equal(t, chain.ReputationToScore(p.Raw), p.Score)
		assert.Equal(t, s.inVotes[i].Timestamp, p.Timestamp)
	}
	assert.Equal(t, []int64{0, 0, 100_000_000_000_000, 99_000_000_000_000, 99_000_000_000_000}, raw)
	assert.InDelta(t, 25.0, series[1].Score, 1e-9, "downvote from a higher score is ignored")
	assert.InDelta(t, 70.0, series[2].Score, 1e-9)
}

func TestReputationSeriesOnlyDecreasesUnderGuard(t *testing.T) {
	s := newTestSnapshot(t, "alice", nil)
	for i := range 50 {
		rshares := int64((i%7)-3) * 1_000_000_000_000
		voter := int64((i%5)+1) * 100_000_000_000
		s.inVotes = append(s.inVotes, IncomingVote{
			Timestamp:       at(time.Duration(i) * time.Hour),
			VoterReputation: voter,
			Rshares:         rshares,
		})
	}

	series := s.BuildReputationSeries()
	prev := int64(0)
	for i, p := range series {
		if p.Raw < prev {
			v := s.inVotes[i]
			assert.Greater(t, chain.ReputationToScore(prev), chain.ReputationToScore(v.VoterReputation), "vote %d", i)
			assert.Negative(t, v.Rshares)
		}
		prev = p.Raw
	}
}

func TestVotingPowerSeries(t *testing.T) {
	s := newTestSnapshot(t, "alice", nil)
	s.Append(
		op(at(0), 1, ops.Vote{Voter: "alice", Author: "bob", Weight: 10000}),
		op(at(0), 2, ops.Vote{Voter: "alice", Author: "carol", Weight: 10000}),
		op(at(day), 3, ops.Vote{Voter: "alice", Author: "dave", Weight: -10000}),
		op(at(day+time.Hour), 4, ops.Vote{Voter: "alice", Author: "erin", Weight: 5000}),
	)
	require.NoError(t, s.Build(context.Background(), BuildOptions{OutVotes: true}))

	series := s.BuildVotingPowerSeries()
	require.Len(t, series, 4)
	got := []int{series[0].Power, series[1].Power, series[2].Power, series[3].Power}
	// 9800 regenerates 83 in an hour, then a half vote costs 99
	assert.Equal(t, []int{9800, 9604, 9800, 9784}, got)
	assert.Equal(t, at(day), series[2].Timestamp)
}

func TestVotingPowerSeriesStaysInRange(t *testing.T) {
	tests := []struct {
		name string
		cost chain.VoteCost
	}{
		{name: "chain cost", cost: chain.ResultingVote(chain.DefaultVotePowerReserveRate)},
		{name: "overdrawn", cost: func(int, int) int { return 3 * chain.Percent100 }},
		{name: "refund", cost: func(int, int) int { return -chain.Percent100 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(Config{Account: "alice", Converter: oneToOne, VoteCost: tt.cost, Logger: zaptest.NewLogger(t)})
			require.NoError(t, err)
			for i := range 200 {
				weight := (i*3733)%20001 - 10000
				s.Append(op(at(time.Duration(i)*time.Minute), uint64(i), ops.Vote{Voter: "alice", Author: "bob", Weight: weight}))
			}
			require.NoError(t, s.Build(context.Background(), BuildOptions{OutVotes: true}))

			series := s.BuildVotingPowerSeries()
			require.Len(t, series, 200)
			for _, p := range series {
				assert.GreaterOrEqual(t, p.Power, 0)
				assert.LessOrEqual(t, p.Power, chain.Percent100)
			}
		})
	}
}

// curationFixture gives alice 1000 VESTS of effective power and a 1 VESTS
// curation reward every day for days+1 days starting at t0.
func curationFixture(t *testing.T, days int) *AccountSnapshot {
	t.Helper()
	s := newTestSnapshot(t, "alice", nil)
	s.Append(op(at(-day), 1, ops.ProducerReward{Producer: "alice", VestingShares: vests("1000")}))
	for i := 0; i <= days; i++ {
		s.Append(op(at(time.Duration(i)*day), uint64(i+2), ops.CurationReward{Curator: "alice", Reward: vests("1")}))
	}
	require.NoError(t, s.Build(context.Background(), BuildOptions{Rewards: true}))
	return s
}

func TestCurationSeriesTwoWindows(t *testing.T) {
	s := curationFixture(t, 14)

	series, err := s.BuildCurationSeries(nil, 7)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, at(7*day), series[0].Timestamp)
	assert.Equal(t, at(14*day), series[1].Timestamp)

	// seven rewards of 1 per 1000 power each
	assert.InDelta(t, 7.0, series[0].Value.InexactFloat64(), 1e-9)
	assert.InDelta(t, series[0].Value.InexactFloat64(), series[1].Value.InexactFloat64(), 1e-9)

	stored, err := s.CurationSeries()
	require.NoError(t, err)
	assert.Equal(t, series, stored)
}

func TestCurationSeriesExplicitEndDate(t *testing.T) {
	s := curationFixture(t, 14)
	end := at(3 * day)

	series, err := s.BuildCurationSeries(&end, 7)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, at(3*day), series[0].Timestamp)
	assert.InDelta(t, 3.0, series[0].Value.InexactFloat64(), 1e-9)
	assert.Equal(t, at(10*day), series[1].Timestamp)
	assert.InDelta(t, 7.0, series[1].Value.InexactFloat64(), 1e-9)
}

func TestCurationSeriesEmptyWindows(t *testing.T) {
	s := newTestSnapshot(t, "alice", nil)
	s.Append(
		op(at(-day), 1, ops.ProducerReward{Producer: "alice", VestingShares: vests("1000")}),
		op(at(0), 2, ops.CurationReward{Curator: "alice", Reward: vests("1")}),
		op(at(time.Hour), 3, ops.CurationReward{Curator: "alice", Reward: vests("0")}),
		op(at(22*day), 4, ops.CurationReward{Curator: "alice", Reward: vests("1")}),
	)
	require.NoError(t, s.Build(context.Background(), BuildOptions{Rewards: true}))

	end := at(7 * day)
	series, err := s.BuildCurationSeries(&end, 7)
	require.NoError(t, err)
	require.Len(t, series, 3)
	assert.InDelta(t, 1.0, series[0].Value.InexactFloat64(), 1e-9)
	assert.True(t, series[1].Value.IsZero())
	assert.True(t, series[2].Value.IsZero())
	assert.Equal(t, at(21*day), series[2].Timestamp)
}

func TestCurationSeriesWithoutEffectivePower(t *testing.T) {
	s := newTestSnapshot(t, "alice", nil)
	s.Append(
		op(at(0), 1, ops.CurationReward{Curator: "alice", Reward: vests("1")}),
		op(at(8*day), 2, ops.CurationReward{Curator: "alice", Reward: vests("1")}),
	)
	require.NoError(t, s.Build(context.Background(), BuildOptions{Rewards: true}))

	series, err := s.BuildCurationSeries(nil, 7)
	require.NoError(t, err)
	// windows end at t0+1d and t0+8d
	require.Len(t, series, 2)
	for _, p := range series {
		assert.True(t, p.Value.IsZero())
	}
	assert.Equal(t, at(8*day), series[1].Timestamp)
}

func TestCurationSeriesRejectsWindow(t *testing.T) {
	s := curationFixture(t, 3)
	for _, w := range []int{0, -7} {
		_, err := s.BuildCurationSeries(nil, w)
		var ce *ConfigError
		require.ErrorAs(t, err, &ce)
	}
	_, err := s.CurationSeries()
	assert.ErrorIs(t, err, ErrSeriesNotBuilt)
}

func TestCurationSeriesWithoutRewards(t *testing.T) {
	s := newTestSnapshot(t, "alice", nil)
	series, err := s.BuildCurationSeries(nil, 7)
	require.NoError(t, err)
	assert.Empty(t, series)
	_, err = s.CurationSeries()
	assert.NoError(t, err)
}
