package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vestwatch/vestwatch/pkg/chain"
	"github.com/vestwatch/vestwatch/pkg/config"
	"github.com/vestwatch/vestwatch/pkg/rpc"
	"github.com/vestwatch/vestwatch/pkg/snapshot"
	"go.uber.org/zap"
)

type delegation struct {
	Account string          `json:"account"`
	Amount  decimal.Decimal `json:"amount"`
}

type point struct {
	Timestamp      time.Time       `json:"timestamp"`
	Stake          decimal.Decimal `json:"stake"`
	CurrencyA      decimal.Decimal `json:"currency_a"`
	CurrencyB      decimal.Decimal `json:"currency_b"`
	DelegatedIn    []delegation    `json:"delegated_in"`
	DelegatedOut   []delegation    `json:"delegated_out"`
	OwnPower       decimal.Decimal `json:"own_power"`
	EffectivePower decimal.Decimal `json:"effective_power"`
}

type sample struct {
	Timestamp time.Time `json:"timestamp"`
	Value     any       `json:"value"`
}

type report struct {
	Account     string              `json:"account"`
	Operations  int                 `json:"operations"`
	At          time.Time           `json:"at"`
	Point       point               `json:"point"`
	Statistics  map[string]int      `json:"statistics"`
	Series      map[string][]sample `json:"series"`
	VotesCast   int                 `json:"votes_cast"`
	VotesRecvd  int                 `json:"votes_received"`
	RewardCount int                 `json:"rewards"`
}

func parseAt(v string) (time.Time, error) {
	if v == "" {
		return time.Now().UTC(), nil
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Unix(n, 0).UTC(), nil
	}
	return time.Parse(time.RFC3339, v)
}

func delegations(d snapshot.Delegations) []delegation {
	out := make([]delegation, 0, d.Len())
	for _, e := range d.Entries() {
		out = append(out, delegation{Account: e.Account, Amount: e.Amount})
	}
	return out
}

func tail[T any](pts []T, n int, f func(T) sample) []sample {
	if n >= 0 && len(pts) > n {
		pts = pts[len(pts)-n:]
	}
	out := make([]sample, len(pts))
	for i, p := range pts {
		out[i] = f(p)
	}
	return out
}

// run replays account and writes the report to w.
func run(ctx context.Context, w io.Writer, account string, cfg *config.Config, o options, logger *zap.Logger) error {
	at, err := parseAt(o.at)
	if err != nil {
		return fmt.Errorf("invalid --at: %w", err)
	}
	if len(o.nodes) > 0 {
		cfg.Nodes = o.nodes
	}
	if o.window > 0 {
		cfg.CurationWindowDays = o.window
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	node, err := rpc.DefaultFactory{Opts: cfg.RPCOpts()}.NewNode(cfg.Nodes)
	if err != nil {
		return err
	}
	defer func() { _ = node.Close() }()

	var conv chain.Converter = chain.HistoricalRate
	if sampled, err := rpc.NewSampledConverter(ctx, node); err != nil {
		logger.Warn("Unable to sample vesting ratio, using historical approximation", zap.Error(err))
	} else {
		conv = sampled
	}

	hopts := cfg.HistoryOptions()
	hopts.Logger = logger
	list, err := rpc.FetchHistory(ctx, node, account, hopts)
	if err != nil {
		return err
	}

	snap, err := snapshot.New(snapshot.Config{
		Account:   account,
		Converter: conv,
		Votes:     rpc.NewVoteResolver(node),
		VoteCost:  chain.ResultingVote(cfg.VoteReserveRate),
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	snap.Append(list...)

	bopts := cfg.BuildOptions()
	bopts.Include = o.include
	bopts.Exclude = o.exclude
	if err := snap.Build(ctx, bopts); err != nil {
		return err
	}

	p, ok := snap.Query(at)
	if !ok {
		return fmt.Errorf("no state at or before %s", at.Format(time.RFC3339))
	}
	curation, err := snap.BuildCurationSeries(nil, cfg.CurationWindowDays)
	if err != nil {
		return err
	}

	stats := map[string]int{}
	for typ, n := range snap.Statistics() {
		if n > 0 {
			stats[typ] = n
		}
	}

	r := report{
		Account:    account,
		Operations: snap.Len(),
		At:         at,
		Point: point{
			Timestamp:      p.Timestamp,
			Stake:          p.Stake,
			CurrencyA:      p.CurrencyA,
			CurrencyB:      p.CurrencyB,
			DelegatedIn:    delegations(p.DelegatedIn),
			DelegatedOut:   delegations(p.DelegatedOut),
			OwnPower:       p.OwnPower,
			EffectivePower: p.EffectivePower,
		},
		Statistics: stats,
		Series: map[string][]sample{
			"power": tail(snap.BuildPowerSeries(), o.tail, func(v snapshot.PowerPoint) sample {
				return sample{Timestamp: v.Timestamp, Value: v.EffectivePower}
			}),
			"reputation": tail(snap.BuildReputationSeries(), o.tail, func(v snapshot.ReputationPoint) sample {
				return sample{Timestamp: v.Timestamp, Value: v.Score}
			}),
			"votingpower": tail(snap.BuildVotingPowerSeries(), o.tail, func(v snapshot.VotingPowerPoint) sample {
				return sample{Timestamp: v.Timestamp, Value: v.Power}
			}),
			"curation": tail(curation, o.tail, func(v snapshot.CurationPoint) sample {
				return sample{Timestamp: v.Timestamp, Value: v.Value}
			}),
		},
		VotesCast:   len(snap.OutgoingVotes()),
		VotesRecvd:  len(snap.IncomingVotes()),
		RewardCount: len(snap.Rewards()),
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
