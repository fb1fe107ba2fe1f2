package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/vestwatch/vestwatch/pkg/snapshot"
)

type seriesResponse[T any] struct {
	Account string `json:"account"`
	Kind    string `json:"kind"`
	Data    []T    `json:"data"`
}

type powerPoint struct {
	Timestamp      time.Time       `json:"timestamp"`
	OwnPower       decimal.Decimal `json:"own_power"`
	EffectivePower decimal.Decimal `json:"effective_power"`
}

type reputationPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Raw       int64     `json:"raw"`
	Score     float64   `json:"score"`
}

type votingPowerPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Power     int       `json:"power"`
}

type curationPoint struct {
	Timestamp time.Time       `json:"timestamp"`
	Value     decimal.Decimal `json:"value"`
}

// HandleSeries returns one derived series: power, reputation, votingpower or
// curation.
func (c *Controller) HandleSeries(w http.ResponseWriter, r *http.Request) {
	t, ok := c.tracker(w, r)
	if !ok {
		return
	}
	kind := mux.Vars(r)["kind"]

	var (
		resp  any
		known = true
	)
	err := t.View(func(s *snapshot.AccountSnapshot) error {
		switch kind {
		case "power":
			pts, err := s.PowerSeries()
			if err != nil {
				return err
			}
			out := make([]powerPoint, len(pts))
			for i, p := range pts {
				out[i] = powerPoint{Timestamp: p.Timestamp, OwnPower: p.OwnPower, EffectivePower: p.EffectivePower}
			}
			resp = seriesResponse[powerPoint]{Account: s.Account(), Kind: kind, Data: out}
		case "reputation":
			pts, err := s.ReputationSeries()
			if err != nil {
				return err
			}
			out := make([]reputationPoint, len(pts))
			for i, p := range pts {
				out[i] = reputationPoint{Timestamp: p.Timestamp, Raw: p.Raw, Score: p.Score}
			}
			resp = seriesResponse[reputationPoint]{Account: s.Account(), Kind: kind, Data: out}
		case "votingpower":
			pts, err := s.VotingPowerSeries()
			if err != nil {
				return err
			}
			out := make([]votingPowerPoint, len(pts))
			for i, p := range pts {
				out[i] = votingPowerPoint{Timestamp: p.Timestamp, Power: p.Power}
			}
			resp = seriesResponse[votingPowerPoint]{Account: s.Account(), Kind: kind, Data: out}
		case "curation":
			pts, err := s.CurationSeries()
			if err != nil {
				return err
			}
			out := make([]curationPoint, len(pts))
			for i, p := range pts {
				out[i] = curationPoint{Timestamp: p.Timestamp, Value: p.Value}
			}
			resp = seriesResponse[curationPoint]{Account: s.Account(), Kind: kind, Data: out}
		default:
			known = false
		}
		return nil
	})

	switch {
	case !known:
		writeError(w, http.StatusNotFound, "unknown series kind: "+kind)
	case errors.Is(err, snapshot.ErrSeriesNotBuilt):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}
