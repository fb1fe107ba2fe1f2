package snapshot

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vestwatch/vestwatch/pkg/chain"
)

// PowerPoint is own and effective power at one timeline snapshot.
type PowerPoint struct {
	Timestamp      time.Time
	OwnPower       decimal.Decimal
	EffectivePower decimal.Decimal
}

// ReputationPoint is the raw reputation and its score after one incoming vote.
type ReputationPoint struct {
	Timestamp time.Time
	Raw       int64
	Score     float64
}

// VotingPowerPoint holds voting power in basis points, 0 to chain.Percent100.
type VotingPowerPoint struct {
	Timestamp time.Time
	Power     int
}

// CurationPoint is the curation earned per 1000 effective power, scaled to a
// weekly rate, over the window ending at Timestamp.
type CurationPoint struct {
	Timestamp time.Time
	Value     decimal.Decimal
}

var (
	thousand = decimal.NewFromInt(1000)
	week     = decimal.NewFromInt(7)
)

// BuildPowerSeries computes own and effective power for every snapshot.
func (s *AccountSnapshot) BuildPowerSeries() []PowerPoint {
	out := make([]PowerPoint, len(s.timeline))
	for i := range s.timeline {
		p := s.point(i)
		out[i] = PowerPoint{Timestamp: p.Timestamp, OwnPower: p.OwnPower, EffectivePower: p.EffectivePower}
	}
	s.power = out
	s.built.power = true
	return slices.Clone(out)
}

// BuildReputationSeries folds incoming votes into a reputation accumulator.
// Votes from accounts without positive reputation are ignored, and a
// downvote only counts while the accumulated score is above the voter's.
func (s *AccountSnapshot) BuildReputationSeries() []ReputationPoint {
	out := make([]ReputationPoint, 0, len(s.inVotes))
	var rep int64
	for _, v := range s.inVotes {
		if v.VoterReputation > 0 {
			switch {
			case v.Rshares > 0:
				rep += v.Rshares >> chain.ReputationShift
			case v.Rshares < 0 && chain.ReputationToScore(rep) > chain.ReputationToScore(v.VoterReputation):
				rep += v.Rshares >> chain.ReputationShift
			}
		}
		out = append(out, ReputationPoint{Timestamp: v.Timestamp, Raw: rep, Score: chain.ReputationToScore(rep)})
	}
	s.reputation = out
	s.built.reputation = true
	return slices.Clone(out)
}

// BuildVotingPowerSeries replays outgoing votes against a regenerating
// voting power that starts full.
func (s *AccountSnapshot) BuildVotingPowerSeries() []VotingPowerPoint {
	out := make([]VotingPowerPoint, 0, len(s.outVotes))
	vp := chain.Percent100
	var last time.Time
	for i, v := range s.outVotes {
		if i > 0 {
			vp = chain.Regenerate(vp, v.Timestamp.Sub(last).Seconds())
		}
		vp = min(vp, chain.Percent100)
		vp -= s.voteCost(vp, v.Weight)
		vp = max(0, min(vp, chain.Percent100))
		last = v.Timestamp
		out = append(out, VotingPowerPoint{Timestamp: v.Timestamp, Power: vp})
	}
	s.votingPower = out
	s.built.votingPower = true
	return slices.Clone(out)
}

// BuildCurationSeries sums curation rewards per 1000 effective power into
// windows of windowDays days. Windows are aligned on endDate; when nil it
// defaults to the latest reward minus the reward span rounded down to whole
// windows. A point is emitted each time a reward crosses into a later window;
// the still-open last window is not emitted.
func (s *AccountSnapshot) BuildCurationSeries(endDate *time.Time, windowDays int) ([]CurationPoint, error) {
	if windowDays <= 0 {
		return nil, &ConfigError{Field: "curation window", Reason: "must be greater than 0 days"}
	}

	out := []CurationPoint{}
	if len(s.rewards) == 0 {
		s.curation = out
		s.built.curation = true
		return out, nil
	}

	window := time.Duration(windowDays) * 24 * time.Hour
	boundary := defaultCurationEnd(s.rewards, windowDays)
	if endDate != nil {
		boundary = *endDate
	}
	w := decimal.NewFromInt(int64(windowDays))

	sum := decimal.Zero
	open := false
	for _, r := range s.rewards {
		if r.Curation.IsZero() {
			continue
		}
		for !r.Timestamp.Before(boundary) {
			// windows before the first reward are not reported
			if open {
				out = append(out, CurationPoint{Timestamp: boundary, Value: sum})
			}
			boundary = boundary.Add(window)
			sum = decimal.Zero
		}
		open = true
		sum = sum.Add(s.curationValue(r, w))
	}

	s.curation = out
	s.built.curation = true
	return slices.Clone(out), nil
}

func defaultCurationEnd(rewards []RewardEvent, windowDays int) time.Time {
	first, last := rewards[0].Timestamp, rewards[len(rewards)-1].Timestamp
	days := int(last.Sub(first) / (24 * time.Hour))
	days = days / windowDays * windowDays
	return last.Add(-time.Duration(days) * 24 * time.Hour)
}

func (s *AccountSnapshot) curationValue(r RewardEvent, windowDays decimal.Decimal) decimal.Decimal {
	i := s.search(r.Timestamp)
	if i < 0 {
		return decimal.Zero
	}
	eff := s.point(i).EffectivePower
	if !eff.IsPositive() {
		return decimal.Zero
	}
	power := s.conv.StakeToPower(r.Curation, r.Timestamp)
	return power.Div(eff).Mul(thousand).Div(windowDays).Mul(week)
}

// PowerSeries returns the last BuildPowerSeries result.
func (s *AccountSnapshot) PowerSeries() ([]PowerPoint, error) {
	if !s.built.power {
		return nil, ErrSeriesNotBuilt
	}
	return slices.Clone(s.power), nil
}

// ReputationSeries returns the last BuildReputationSeries result.
func (s *AccountSnapshot) ReputationSeries() ([]ReputationPoint, error) {
	if !s.built.reputation {
		return nil, ErrSeriesNotBuilt
	}
	return slices.Clone(s.reputation), nil
}

// VotingPowerSeries returns the last BuildVotingPowerSeries result.
func (s *AccountSnapshot) VotingPowerSeries() ([]VotingPowerPoint, error) {
	if !s.built.votingPower {
		return nil, ErrSeriesNotBuilt
	}
	return slices.Clone(s.votingPower), nil
}

// CurationSeries returns the last BuildCurationSeries result.
func (s *AccountSnapshot) CurationSeries() ([]CurationPoint, error) {
	if !s.built.curation {
		return nil, ErrSeriesNotBuilt
	}
	return slices.Clone(s.curation), nil
}
