package snapshot

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vestwatch/vestwatch/pkg/amount"
	"github.com/vestwatch/vestwatch/pkg/ops"
	"go.uber.org/zap"
)

// RewardEvent is a curation or author-side reward seen while reward tracking
// was enabled. Curation is in VESTS.
type RewardEvent struct {
	Timestamp       time.Time
	Curation        decimal.Decimal
	AuthorStake     decimal.Decimal
	AuthorCurrencyA decimal.Decimal
	AuthorCurrencyB decimal.Decimal
}

// OutgoingVote is a vote cast by the tracked account.
type OutgoingVote struct {
	Timestamp time.Time
	Weight    int
}

// IncomingVote is a vote on the tracked account's content together with the
// voter's reputation and rshares at the time.
type IncomingVote struct {
	Timestamp       time.Time
	Voter           string
	Weight          int
	VoterReputation int64
	Rshares         int64
}

// classify maps one decoded operation onto ledger deltas. Reward and vote
// side series are appended to as a side effect when enabled.
func (s *AccountSnapshot) classify(ctx context.Context, op ops.Operation, p ops.Payload, opts BuildOptions) []Delta {
	ts := op.Timestamp

	switch v := p.(type) {
	case ops.AccountCreate:
		switch s.account {
		case v.NewAccountName:
			return []Delta{{Stake: s.conv.PowerToStake(v.Fee.Value, ts)}}
		case v.Creator:
			return []Delta{{CurrencyA: v.Fee.Value.Neg()}}
		}

	case ops.AccountCreateWithDelegation:
		switch s.account {
		case v.NewAccountName:
			d := Delta{Stake: s.conv.PowerToStake(v.Fee.Value, ts)}
			if v.Delegation.Value.IsPositive() {
				d.In = &DelegationChange{Account: v.Creator, Amount: v.Delegation.Value}
			}
			return []Delta{d}
		case v.Creator:
			d := Delta{CurrencyA: v.Fee.Value.Neg()}
			if v.Delegation.Value.IsPositive() {
				d.Out = &DelegationChange{Account: v.NewAccountName, Amount: v.Delegation.Value}
			}
			return []Delta{d}
		}

	case ops.DelegateVestingShares:
		switch s.account {
		case v.Delegator:
			// An undelegation stays locked until return_vesting_delegation.
			if v.VestingShares.Value.IsZero() {
				return nil
			}
			return []Delta{{Out: &DelegationChange{Account: v.Delegatee, Amount: v.VestingShares.Value}}}
		case v.Delegatee:
			return []Delta{{In: &DelegationChange{Account: v.Delegator, Amount: v.VestingShares.Value}}}
		}

	case ops.ReturnVestingDelegation:
		if v.Account == "" || v.Account == s.account {
			return []Delta{{Out: &DelegationChange{Amount: v.VestingShares.Value, ByAmount: true}}}
		}

	case ops.Transfer:
		if !isCurrency(v.Amount) {
			return nil
		}
		var out []Delta
		if v.From == s.account {
			out = append(out, column(v.Amount.Neg()))
		}
		if v.To == s.account {
			out = append(out, column(v.Amount))
		}
		return out

	case ops.FillOrder:
		if !isCurrency(v.CurrentPays) || !isCurrency(v.OpenPays) {
			return nil
		}
		var out []Delta
		if v.CurrentOwner == s.account {
			out = append(out, merge(column(v.CurrentPays.Neg()), column(v.OpenPays)))
		}
		if v.OpenOwner == s.account {
			out = append(out, merge(column(v.OpenPays.Neg()), column(v.CurrentPays)))
		}
		return out

	case ops.FillConvertRequest:
		if v.Owner == s.account {
			return []Delta{merge(column(v.AmountOut), column(v.AmountIn.Neg()))}
		}

	case ops.TransferToVesting:
		vests := s.conv.PowerToStake(v.Amount.Value, ts)
		switch {
		case v.From == s.account && v.To == s.account:
			return []Delta{{Stake: vests, CurrencyA: v.Amount.Value.Neg()}}
		case v.To == s.account:
			return []Delta{{Stake: vests}}
		case v.From == s.account:
			return []Delta{{CurrencyA: v.Amount.Value.Neg()}}
		}

	case ops.FillVestingWithdraw:
		if v.FromAccount == "" || v.FromAccount == s.account {
			return []Delta{{Stake: v.Withdrawn.Value.Neg()}}
		}

	case ops.ClaimRewardBalance:
		return []Delta{{
			Stake:     v.RewardVests.Value,
			CurrencyA: v.RewardSteem.Value,
			CurrencyB: v.RewardSBD.Value,
		}}

	case ops.CurationReward:
		if opts.Rewards {
			s.rewards = append(s.rewards, RewardEvent{Timestamp: ts, Curation: v.Reward.Value})
		}
		if opts.includes(ops.TypeCurationReward) {
			return []Delta{{Stake: v.Reward.Value}}
		}

	case ops.AuthorReward:
		return s.authorReward(ts, ops.TypeAuthorReward, v.VestingPayout, v.SteemPayout, v.SBDPayout, opts)

	case ops.CommentBenefactorReward:
		if v.Benefactor != s.account {
			return nil
		}
		if v.Reward != nil {
			return s.authorReward(ts, ops.TypeCommentBenefactorReward, *v.Reward, amount.Zero(amount.STEEM), amount.Zero(amount.SBD), opts)
		}
		return s.authorReward(ts, ops.TypeCommentBenefactorReward, v.VestingPayout, v.SteemPayout, v.SBDPayout, opts)

	case ops.ProducerReward:
		return []Delta{{Stake: v.VestingShares.Value}}

	case ops.Vote:
		s.vote(ctx, op, v, opts)
	}
	return nil
}

func (s *AccountSnapshot) authorReward(ts time.Time, typ string, vests, steem, sbd amount.Amount, opts BuildOptions) []Delta {
	if opts.Rewards {
		s.rewards = append(s.rewards, RewardEvent{
			Timestamp:       ts,
			AuthorStake:     vests.Value,
			AuthorCurrencyA: steem.Value,
			AuthorCurrencyB: sbd.Value,
		})
	}
	if !opts.includes(typ) {
		return nil
	}
	return []Delta{{Stake: vests.Value, CurrencyA: steem.Value, CurrencyB: sbd.Value}}
}

func (s *AccountSnapshot) vote(ctx context.Context, op ops.Operation, v ops.Vote, opts BuildOptions) {
	listed := opts.includes(ops.TypeVote)
	if v.Voter == s.account && (listed || opts.OutVotes) {
		s.outVotes = append(s.outVotes, OutgoingVote{Timestamp: op.Timestamp, Weight: v.Weight})
	}
	if !listed && !(opts.InVotes && v.Author == s.account) {
		return
	}
	if s.votes == nil {
		s.logger.Warn("no vote fetcher configured, dropping incoming vote",
			zap.String("voter", v.Voter),
			zap.String("permlink", v.Permlink))
		return
	}
	info, err := s.votes.FetchVoteInfo(ctx, op, v)
	if err != nil {
		s.logger.Warn("vote lookup failed, dropping incoming vote",
			zap.String("voter", v.Voter),
			zap.String("author", v.Author),
			zap.String("permlink", v.Permlink),
			zap.Error(err))
		return
	}
	s.inVotes = append(s.inVotes, IncomingVote{
		Timestamp:       op.Timestamp,
		Voter:           v.Voter,
		Weight:          v.Weight,
		VoterReputation: info.Reputation,
		Rshares:         info.Rshares,
	})
}

func isCurrency(a amount.Amount) bool {
	k := a.Kind()
	return k == amount.KindCurrencyA || k == amount.KindCurrencyB
}

// column places a on the ledger column its symbol belongs to.
func column(a amount.Amount) Delta {
	var d Delta
	switch a.Kind() {
	case amount.KindStake:
		d.Stake = a.Value
	case amount.KindCurrencyA:
		d.CurrencyA = a.Value
	case amount.KindCurrencyB:
		d.CurrencyB = a.Value
	}
	return d
}

func merge(a, b Delta) Delta {
	return Delta{
		Stake:     a.Stake.Add(b.Stake),
		CurrencyA: a.CurrencyA.Add(b.CurrencyA),
		CurrencyB: a.CurrencyB.Add(b.CurrencyB),
	}
}
