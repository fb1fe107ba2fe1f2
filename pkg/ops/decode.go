package ops

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/vestwatch/vestwatch/pkg/amount"
)

// MissingFieldError reports a recognised operation lacking a required field.
type MissingFieldError struct {
	Type  string
	Field string
}

func (e *MissingFieldError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("missing field %q", e.Field)
	}
	return fmt.Sprintf("%s: missing field %q", e.Type, e.Field)
}

// Decode returns the typed payload of op. A pre-set Payload wins over Body.
func Decode(op Operation) (Payload, error) {
	if op.Payload != nil {
		return op.Payload, nil
	}
	r := &reader{typ: op.Type, body: gjson.ParseBytes(op.Body)}

	var p Payload
	switch op.Type {
	case TypeAccountCreate:
		p = AccountCreate{
			Fee:            r.amount("fee"),
			Creator:        r.str("creator"),
			NewAccountName: r.str("new_account_name"),
		}
	case TypeAccountCreateWithDelegation:
		p = AccountCreateWithDelegation{
			Fee:            r.amount("fee"),
			Delegation:     r.amount("delegation"),
			Creator:        r.str("creator"),
			NewAccountName: r.str("new_account_name"),
		}
	case TypeDelegateVestingShares:
		p = DelegateVestingShares{
			Delegator:     r.str("delegator"),
			Delegatee:     r.str("delegatee"),
			VestingShares: r.amount("vesting_shares"),
		}
	case TypeReturnVestingDelegation:
		p = ReturnVestingDelegation{
			Account:       r.optStr("account"),
			VestingShares: r.amount("vesting_shares"),
		}
	case TypeTransfer:
		p = Transfer{
			From:   r.str("from"),
			To:     r.str("to"),
			Amount: r.amount("amount"),
			Memo:   r.optStr("memo"),
		}
	case TypeFillOrder:
		p = FillOrder{
			CurrentOwner: r.str("current_owner"),
			CurrentPays:  r.amount("current_pays"),
			OpenOwner:    r.str("open_owner"),
			OpenPays:     r.amount("open_pays"),
		}
	case TypeFillConvertRequest:
		p = FillConvertRequest{
			Owner:     r.str("owner"),
			AmountIn:  r.amount("amount_in"),
			AmountOut: r.amount("amount_out"),
		}
	case TypeTransferToVesting:
		p = TransferToVesting{
			From:   r.str("from"),
			To:     r.str("to"),
			Amount: r.amount("amount"),
		}
	case TypeFillVestingWithdraw:
		p = FillVestingWithdraw{
			FromAccount: r.optStr("from_account"),
			ToAccount:   r.optStr("to_account"),
			Withdrawn:   r.amount("withdrawn"),
			Deposited:   r.optAmount(amount.VESTS, "deposited"),
		}
	case TypeClaimRewardBalance:
		p = ClaimRewardBalance{
			Account:     r.optStr("account"),
			RewardSteem: r.amount("reward_steem", "reward_hive"),
			RewardSBD:   r.amount("reward_sbd", "reward_hbd"),
			RewardVests: r.amount("reward_vests"),
		}
	case TypeCurationReward:
		p = CurationReward{
			Curator:         r.optStr("curator"),
			Reward:          r.amount("reward"),
			CommentAuthor:   r.optStr("comment_author"),
			CommentPermlink: r.optStr("comment_permlink"),
		}
	case TypeAuthorReward:
		p = AuthorReward{
			Author:        r.optStr("author"),
			Permlink:      r.optStr("permlink"),
			SBDPayout:     r.amount("sbd_payout", "hbd_payout"),
			SteemPayout:   r.amount("steem_payout", "hive_payout"),
			VestingPayout: r.amount("vesting_payout"),
		}
	case TypeCommentBenefactorReward:
		b := CommentBenefactorReward{
			Benefactor: r.str("benefactor"),
			Author:     r.optStr("author"),
			Permlink:   r.optStr("permlink"),
		}
		if r.has("reward") {
			reward := r.amount("reward")
			b.Reward = &reward
		} else {
			b.SBDPayout = r.amount("sbd_payout", "hbd_payout")
			b.SteemPayout = r.amount("steem_payout", "hive_payout")
			b.VestingPayout = r.amount("vesting_payout")
		}
		p = b
	case TypeProducerReward:
		p = ProducerReward{
			Producer:      r.optStr("producer"),
			VestingShares: r.amount("vesting_shares"),
		}
	case TypeVote:
		p = Vote{
			Voter:    r.str("voter"),
			Author:   r.str("author"),
			Permlink: r.optStr("permlink"),
			Weight:   int(r.int("weight")),
		}
	default:
		if IsNoEffect(op.Type) {
			return NoEffect{Type: op.Type}, nil
		}
		return Unknown{Type: op.Type}, nil
	}

	if r.err != nil {
		return nil, r.err
	}
	return p, nil
}

// IsMalformed reports whether err came from decoding a structurally invalid
// operation.
func IsMalformed(err error) bool {
	var mf *MissingFieldError
	var pe *amount.ParseError
	return errors.As(err, &mf) || errors.As(err, &pe)
}

// reader pulls fields out of an operation body; the first failure sticks.
type reader struct {
	typ  string
	body gjson.Result
	err  error
}

func (r *reader) has(name string) bool {
	return r.body.Get(name).Exists()
}

func (r *reader) lookup(names ...string) (gjson.Result, bool) {
	for _, n := range names {
		if v := r.body.Get(n); v.Exists() {
			return v, true
		}
	}
	return gjson.Result{}, false
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *reader) str(names ...string) string {
	v, ok := r.lookup(names...)
	if !ok {
		r.fail(&MissingFieldError{Type: r.typ, Field: names[0]})
		return ""
	}
	return v.String()
}

func (r *reader) optStr(name string) string {
	return r.body.Get(name).String()
}

func (r *reader) int(names ...string) int64 {
	v, ok := r.lookup(names...)
	if !ok {
		r.fail(&MissingFieldError{Type: r.typ, Field: names[0]})
		return 0
	}
	return v.Int()
}

func (r *reader) amount(names ...string) amount.Amount {
	v, ok := r.lookup(names...)
	if !ok {
		r.fail(&MissingFieldError{Type: r.typ, Field: names[0]})
		return amount.Amount{}
	}
	a, err := amount.FromJSON(v)
	if err != nil {
		r.fail(fmt.Errorf("%s.%s: %w", r.typ, names[0], err))
		return amount.Amount{}
	}
	return a
}

func (r *reader) optAmount(symbol amount.Symbol, name string) amount.Amount {
	if !r.has(name) {
		return amount.Zero(symbol)
	}
	return r.amount(name)
}
