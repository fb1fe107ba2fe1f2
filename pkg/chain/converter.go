package chain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var million = decimal.NewFromInt(1_000_000)

// Converter converts between stake units (VESTS) and power units (STEEM
// Power) at a point in time.
type Converter interface {
	StakeToPower(vests decimal.Decimal, at time.Time) decimal.Decimal
	PowerToStake(power decimal.Decimal, at time.Time) decimal.Decimal
}

// RateFunc is a Converter expressed as a steem-per-mvests curve.
type RateFunc func(at time.Time) decimal.Decimal

func (f RateFunc) StakeToPower(vests decimal.Decimal, at time.Time) decimal.Decimal {
	return stakeToPower(vests, f(at))
}

func (f RateFunc) PowerToStake(power decimal.Decimal, at time.Time) decimal.Decimal {
	return powerToStake(power, f(at))
}

func stakeToPower(vests, steemPerMVests decimal.Decimal) decimal.Decimal {
	return vests.Mul(steemPerMVests).Div(million)
}

func powerToStake(power, steemPerMVests decimal.Decimal) decimal.Decimal {
	if steemPerMVests.Sign() <= 0 {
		return decimal.Zero
	}
	return power.Mul(million).Div(steemPerMVests)
}

// FixedRate converts at a constant rate.
type FixedRate struct {
	SteemPerMVests decimal.Decimal
}

func (r FixedRate) StakeToPower(vests decimal.Decimal, _ time.Time) decimal.Decimal {
	return stakeToPower(vests, r.SteemPerMVests)
}

func (r FixedRate) PowerToStake(power decimal.Decimal, _ time.Time) decimal.Decimal {
	return powerToStake(power, r.SteemPerMVests)
}

// Coefficients of the two-segment linear fit of the historical
// steem-per-mvests curve; the breakpoint is where both lines meet.
const (
	earlySlope     = 2.1325476281078992e-05
	earlyIntercept = -31099.685481490847
	lateSlope      = 2.9019227739473682e-07
	lateIntercept  = 48.41432402074669

	// minSteemPerMVests floors the fit before chain launch, where the early
	// segment goes negative.
	minSteemPerMVests = 1.0
)

// HistoricalSteemPerMVests approximates the chain's steem-per-mvests ratio at
// the given time without contacting a node.
func HistoricalSteemPerMVests(at time.Time) decimal.Decimal {
	ts := float64(at.Unix())
	var v float64
	if ts < (lateIntercept-earlyIntercept)/(earlySlope-lateSlope) {
		v = earlySlope*ts + earlyIntercept
	} else {
		v = lateSlope*ts + lateIntercept
	}
	if v < minSteemPerMVests {
		v = minSteemPerMVests
	}
	return decimal.NewFromFloat(v)
}

// HistoricalRate converts using HistoricalSteemPerMVests.
var HistoricalRate Converter = RateFunc(HistoricalSteemPerMVests)

// RateSample is one observed steem-per-mvests value.
type RateSample struct {
	Time           time.Time
	SteemPerMVests decimal.Decimal
}

// SampledRate interpolates linearly between observed samples. Before the
// first sample it defers to Fallback (HistoricalRate when nil); after the
// last sample it holds the last observed value.
type SampledRate struct {
	samples  []RateSample
	Fallback Converter
}

// NewSampledRate returns a SampledRate over a copy of samples sorted by time.
func NewSampledRate(samples []RateSample, fallback Converter) *SampledRate {
	s := make([]RateSample, len(samples))
	copy(s, samples)
	sort.SliceStable(s, func(i, j int) bool { return s[i].Time.Before(s[j].Time) })
	if fallback == nil {
		fallback = HistoricalRate
	}
	return &SampledRate{samples: s, Fallback: fallback}
}

// rate returns the interpolated value and false when at lies before the
// first sample.
func (r *SampledRate) rate(at time.Time) (decimal.Decimal, bool) {
	n := len(r.samples)
	if n == 0 || at.Before(r.samples[0].Time) {
		return decimal.Zero, false
	}
	i := sort.Search(n, func(i int) bool { return r.samples[i].Time.After(at) })
	if i == n {
		return r.samples[n-1].SteemPerMVests, true
	}
	lo, hi := r.samples[i-1], r.samples[i]
	span := hi.Time.Sub(lo.Time).Seconds()
	if span <= 0 {
		return lo.SteemPerMVests, true
	}
	frac := decimal.NewFromFloat(at.Sub(lo.Time).Seconds() / span)
	return lo.SteemPerMVests.Add(hi.SteemPerMVests.Sub(lo.SteemPerMVests).Mul(frac)), true
}

func (r *SampledRate) StakeToPower(vests decimal.Decimal, at time.Time) decimal.Decimal {
	if v, ok := r.rate(at); ok {
		return stakeToPower(vests, v)
	}
	return r.Fallback.StakeToPower(vests, at)
}

func (r *SampledRate) PowerToStake(power decimal.Decimal, at time.Time) decimal.Decimal {
	if v, ok := r.rate(at); ok {
		return powerToStake(power, v)
	}
	return r.Fallback.PowerToStake(power, at)
}
