package rpc

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/vestwatch/vestwatch/pkg/chain"
)

// NewSampledConverter samples the node's current vesting ratio and returns a
// converter that is exact at the sample time and falls back to the
// historical curve before it.
func NewSampledConverter(ctx context.Context, c PropertiesReader) (*chain.SampledRate, error) {
	gp, err := c.DynamicGlobalProperties(ctx)
	if err != nil {
		return nil, err
	}
	sample, ok := sampleOf(gp)
	if !ok {
		return chain.NewSampledRate(nil, chain.HistoricalRate), nil
	}
	return chain.NewSampledRate([]chain.RateSample{sample}, chain.HistoricalRate), nil
}

func sampleOf(gp GlobalProperties) (chain.RateSample, bool) {
	shares := gp.TotalVestingShares.Value
	if shares.Sign() <= 0 {
		return chain.RateSample{}, false
	}
	return chain.RateSample{
		Time:           gp.Time,
		SteemPerMVests: gp.TotalVestingFund.Value.Mul(decimal.NewFromInt(1_000_000)).Div(shares),
	}, true
}
