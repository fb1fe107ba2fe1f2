package controller

import (
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/vestwatch/vestwatch/pkg/ops"
	"github.com/vestwatch/vestwatch/pkg/snapshot"
)

type opResponse struct {
	Index     uint64          `json:"index"`
	Block     uint64          `json:"block"`
	TrxID     string          `json:"trx_id,omitempty"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Virtual   bool            `json:"virtual"`
	Body      json.RawMessage `json:"body"`
}

func newOpResponse(op ops.Operation) opResponse {
	body := json.RawMessage(op.Body)
	if len(body) == 0 && op.Payload != nil {
		if b, err := json.Marshal(op.Payload); err == nil {
			body = b
		}
	}
	if len(body) == 0 {
		body = json.RawMessage("{}")
	}
	return opResponse{
		Index:     op.Index,
		Block:     op.Block,
		TrxID:     op.TrxID,
		Type:      op.Type,
		Timestamp: op.Timestamp,
		Virtual:   op.Virtual,
		Body:      body,
	}
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// parseIterOptions reads by, start, stop, from, to, include and exclude.
func parseIterOptions(r *http.Request) (snapshot.IterOptions, error) {
	qs := r.URL.Query()
	var o snapshot.IterOptions

	switch qs.Get("by") {
	case "", "block":
		o.By = snapshot.ByBlock
	case "index":
		o.By = snapshot.ByIndex
	default:
		return o, &parseError{msg: "invalid by, must be 'block' or 'index'"}
	}
	for _, b := range []struct {
		key string
		dst **uint64
	}{{"start", &o.Start}, {"stop", &o.Stop}} {
		if v := qs.Get(b.key); v != "" {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return o, &parseError{msg: "invalid " + b.key}
			}
			*b.dst = &n
		}
	}
	for _, b := range []struct {
		key string
		dst *time.Time
	}{{"from", &o.From}, {"to", &o.To}} {
		if v := qs.Get(b.key); v != "" {
			ts, err := parseTime(v)
			if err != nil {
				return o, &parseError{msg: "invalid " + b.key}
			}
			*b.dst = ts
		}
	}
	o.Include = splitList(qs.Get("include"))
	o.Exclude = splitList(qs.Get("exclude"))
	return o, nil
}

func (c *Controller) writeOps(w http.ResponseWriter, list []ops.Operation, p pageSpec) {
	rows := make([]opResponse, 0, min(len(list), p.Limit+1))
	if p.Sort == SortOrderDesc {
		slices.Reverse(list)
	}
	for _, op := range list {
		if !p.admits(op.Index) {
			continue
		}
		rows = append(rows, newOpResponse(op))
		if len(rows) > p.Limit {
			break
		}
	}
	rows, next := page(p, rows, func(o opResponse) uint64 { return o.Index })
	writeJSON(w, http.StatusOK, pagedResponse[opResponse]{Data: rows, Limit: p.Limit, NextCursor: next})
}

// HandleOps walks the raw operation log.
// Query parameters:
//   - by: "block" (default) or "index", what start and stop refer to
//   - start, stop: inclusive bounds
//   - from, to: inclusive time bounds, RFC3339 or unix seconds
//   - include, exclude: comma separated operation types
//   - cursor, limit, sort: paging over sequence indexes
func (c *Controller) HandleOps(w http.ResponseWriter, r *http.Request) {
	t, ok := c.tracker(w, r)
	if !ok {
		return
	}
	p, err := parsePageSpec(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	opts, err := parseIterOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var list []ops.Operation
	_ = t.View(func(s *snapshot.AccountSnapshot) error {
		list = slices.Collect(s.Ops(opts))
		return nil
	})
	c.writeOps(w, list, p)
}

// HandleSearch returns the operations whose values match the regular
// expression q. It accepts the same filters as HandleOps.
func (c *Controller) HandleSearch(w http.ResponseWriter, r *http.Request) {
	t, ok := c.tracker(w, r)
	if !ok {
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "missing q parameter")
		return
	}
	p, err := parsePageSpec(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	opts, err := parseIterOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var list []ops.Operation
	err = t.View(func(s *snapshot.AccountSnapshot) error {
		var err error
		list, err = s.Search(q, opts)
		return err
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c.writeOps(w, list, p)
}
