package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
	"github.com/vestwatch/vestwatch/pkg/amount"
	"github.com/vestwatch/vestwatch/pkg/ops"
)

const (
	methodAccountHistory  = "condenser_api.get_account_history"
	methodActiveVotes     = "condenser_api.get_active_votes"
	methodGlobalProps     = "condenser_api.get_dynamic_global_properties"
	maxHistoryLimit       = 1000
	latestHistoryPosition = -1
)

// Client wraps a Transport with the node calls account replay needs.
type Client struct {
	t Transport
}

// NewClient returns a Client over t.
func NewClient(t Transport) *Client {
	return &Client{t: t}
}

// Close closes the underlying transport.
func (c *Client) Close() error { return c.t.Close() }

// AccountHistory returns the operations with sequence index in
// [start-limit, start]. A negative start means the newest operation.
func (c *Client) AccountHistory(ctx context.Context, account string, start int64, limit int) ([]ops.Operation, error) {
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	var raw json.RawMessage
	if err := c.t.Call(ctx, methodAccountHistory, []any{account, start, limit}, &raw); err != nil {
		return nil, fmt.Errorf("account history %s@%d: %w", account, start, err)
	}
	res := gjson.ParseBytes(raw)
	if !res.IsArray() {
		return nil, fmt.Errorf("account history %s@%d: result is not an array", account, start)
	}
	entries := res.Array()
	out := make([]ops.Operation, 0, len(entries))
	for _, e := range entries {
		op, err := ops.FromJSON([]byte(e.Raw))
		if err != nil {
			return nil, fmt.Errorf("account history %s@%d: %w", account, start, err)
		}
		out = append(out, op)
	}
	return out, nil
}

// ActiveVote is one entry of a post's active votes.
type ActiveVote struct {
	Voter      string
	Weight     int64
	Rshares    int64
	Percent    int
	Reputation int64
	Time       time.Time
}

// ActiveVotes returns the votes currently recorded on a post.
func (c *Client) ActiveVotes(ctx context.Context, author, permlink string) ([]ActiveVote, error) {
	var raw json.RawMessage
	if err := c.t.Call(ctx, methodActiveVotes, []any{author, permlink}, &raw); err != nil {
		return nil, fmt.Errorf("active votes @%s/%s: %w", author, permlink, err)
	}
	res := gjson.ParseBytes(raw)
	out := make([]ActiveVote, 0, len(res.Array()))
	for _, v := range res.Array() {
		av := ActiveVote{
			Voter:      v.Get("voter").String(),
			Weight:     v.Get("weight").Int(),
			Rshares:    v.Get("rshares").Int(),
			Percent:    int(v.Get("percent").Int()),
			Reputation: v.Get("reputation").Int(),
		}
		if ts := v.Get("time"); ts.Exists() {
			if t, err := ops.ParseTime(ts.String()); err == nil {
				av.Time = t
			}
		}
		out = append(out, av)
	}
	return out, nil
}

// GlobalProperties holds the fields of the dynamic global properties used
// for stake conversion.
type GlobalProperties struct {
	HeadBlock          uint64
	Time               time.Time
	TotalVestingFund   amount.Amount
	TotalVestingShares amount.Amount
}

// DynamicGlobalProperties returns the chain's current global properties.
func (c *Client) DynamicGlobalProperties(ctx context.Context) (GlobalProperties, error) {
	var raw json.RawMessage
	if err := c.t.Call(ctx, methodGlobalProps, nil, &raw); err != nil {
		return GlobalProperties{}, fmt.Errorf("global properties: %w", err)
	}
	res := gjson.ParseBytes(raw)

	var gp GlobalProperties
	gp.HeadBlock = res.Get("head_block_number").Uint()
	t, err := ops.ParseTime(res.Get("time").String())
	if err != nil {
		return GlobalProperties{}, fmt.Errorf("global properties: %w", err)
	}
	gp.Time = t

	fund := res.Get("total_vesting_fund_steem")
	if !fund.Exists() {
		fund = res.Get("total_vesting_fund_hive")
	}
	if gp.TotalVestingFund, err = amount.FromJSON(fund); err != nil {
		return GlobalProperties{}, fmt.Errorf("global properties: %w", err)
	}
	if gp.TotalVestingShares, err = amount.FromJSON(res.Get("total_vesting_shares")); err != nil {
		return GlobalProperties{}, fmt.Errorf("global properties: %w", err)
	}
	return gp, nil
}
