package controller

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vestwatch/vestwatch/app/query/types"
	"github.com/vestwatch/vestwatch/pkg/snapshot"
)

type delegationResponse struct {
	Account string          `json:"account"`
	Amount  decimal.Decimal `json:"amount"`
}

type pointResponse struct {
	Account        string               `json:"account"`
	Index          int                  `json:"index"`
	Timestamp      time.Time            `json:"timestamp"`
	Stake          decimal.Decimal      `json:"stake"`
	CurrencyA      decimal.Decimal      `json:"currency_a"`
	CurrencyB      decimal.Decimal      `json:"currency_b"`
	DelegatedIn    []delegationResponse `json:"delegated_in"`
	DelegatedOut   []delegationResponse `json:"delegated_out"`
	OwnPower       decimal.Decimal      `json:"own_power"`
	IncomingPower  decimal.Decimal      `json:"incoming_power"`
	OutgoingPower  decimal.Decimal      `json:"outgoing_power"`
	EffectivePower decimal.Decimal      `json:"effective_power"`
}

func delegations(d snapshot.Delegations) []delegationResponse {
	out := make([]delegationResponse, 0, d.Len())
	for _, e := range d.Entries() {
		out = append(out, delegationResponse{Account: e.Account, Amount: e.Amount})
	}
	return out
}

func newPointResponse(account string, p snapshot.Point) pointResponse {
	return pointResponse{
		Account:        account,
		Index:          p.Index,
		Timestamp:      p.Timestamp,
		Stake:          p.Stake,
		CurrencyA:      p.CurrencyA,
		CurrencyB:      p.CurrencyB,
		DelegatedIn:    delegations(p.DelegatedIn),
		DelegatedOut:   delegations(p.DelegatedOut),
		OwnPower:       p.OwnPower,
		IncomingPower:  p.IncomingPower,
		OutgoingPower:  p.OutgoingPower,
		EffectivePower: p.EffectivePower,
	}
}

// parseTime accepts RFC3339 or unix seconds.
func parseTime(v string) (time.Time, error) {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Unix(n, 0).UTC(), nil
	}
	return time.Parse(time.RFC3339, v)
}

// HandleAccounts lists the tracked accounts with their refresh status.
func (c *Controller) HandleAccounts(w http.ResponseWriter, r *http.Request) {
	names := c.App.Accounts()
	out := make([]types.TrackerStatus, 0, len(names))
	for _, name := range names {
		t, err := c.App.LoadTracker(name)
		if err != nil {
			continue
		}
		out = append(out, t.Status())
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleSnapshot returns the account state at a point in time.
// Query parameters:
//   - at (optional): RFC3339 or unix seconds, defaults to now
func (c *Controller) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	t, ok := c.tracker(w, r)
	if !ok {
		return
	}

	at := time.Now().UTC()
	if v := r.URL.Query().Get("at"); v != "" {
		parsed, err := parseTime(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid at parameter")
			return
		}
		at = parsed
	}

	var resp pointResponse
	found := false
	_ = t.View(func(s *snapshot.AccountSnapshot) error {
		if p, ok := s.Query(at); ok {
			resp = newPointResponse(s.Account(), p)
			found = true
		}
		return nil
	})
	if !found {
		writeError(w, http.StatusNotFound, "no snapshot at or before the given time")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type statsResponse struct {
	Account string         `json:"account"`
	Order   []string       `json:"order"`
	Counts  map[string]int `json:"counts"`
}

// HandleStats returns per-type operation counts of the processed history.
func (c *Controller) HandleStats(w http.ResponseWriter, r *http.Request) {
	t, ok := c.tracker(w, r)
	if !ok {
		return
	}
	var resp statsResponse
	_ = t.View(func(s *snapshot.AccountSnapshot) error {
		resp = statsResponse{Account: s.Account(), Order: s.StatisticsKeys(), Counts: s.Statistics()}
		return nil
	})
	writeJSON(w, http.StatusOK, resp)
}

// HandleRefresh refreshes one account synchronously.
func (c *Controller) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	t, ok := c.tracker(w, r)
	if !ok {
		return
	}
	if err := t.Refresh(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, t.Status())
}
