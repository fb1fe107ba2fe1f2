package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vestwatch/vestwatch/pkg/chain"
	"github.com/vestwatch/vestwatch/pkg/ops"
	"github.com/vestwatch/vestwatch/pkg/retry"
)

var historyStart = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

type nodeRequest struct {
	ID     uint64            `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// fakeNode answers the condenser_api calls used by Client from in-memory
// fixtures.
type fakeNode struct {
	history int
	votes   map[string][]map[string]any
	props   map[string]any

	// intercept, when set, may fail a request before it is served. A non-zero
	// status is written as an HTTP error.
	intercept func(req nodeRequest, call int) (status int, rpcErr *Error)

	mu    sync.Mutex
	calls map[string]int
}

func newFakeNode(history int) *fakeNode {
	return &fakeNode{history: history, calls: map[string]int{}}
}

func (n *fakeNode) count(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

func (n *fakeNode) record(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls[method]++
	return n.calls[method]
}

func (n *fakeNode) historyEntry(i int) []any {
	return []any{i, map[string]any{
		"trx_id":       fmt.Sprintf("%040x", i),
		"block":        1000 + i,
		"trx_in_block": 0,
		"op_in_trx":    0,
		"virtual_op":   false,
		"timestamp":    historyStart.Add(time.Duration(i) * time.Minute).Format("2006-01-02T15:04:05"),
		"op": []any{"transfer", map[string]any{
			"from":   "alice",
			"to":     "bob",
			"amount": "1.000 STEEM",
			"memo":   fmt.Sprintf("payment %d", i),
		}},
	}}
}

func (n *fakeNode) serve(req nodeRequest) (any, *Error) {
	switch req.Method {
	case methodAccountHistory:
		var start int64
		var limit int64
		if len(req.Params) != 3 || json.Unmarshal(req.Params[1], &start) != nil || json.Unmarshal(req.Params[2], &limit) != nil {
			return nil, &Error{Code: -32602, Message: "invalid params"}
		}
		if n.history == 0 {
			return []any{}, nil
		}
		if start < 0 {
			start = int64(n.history - 1)
		} else if limit > start {
			return nil, &Error{Code: -32000, Message: "start must be greater than limit"}
		}
		out := []any{}
		for i := max(0, start-limit); i <= min(start, int64(n.history-1)); i++ {
			out = append(out, n.historyEntry(int(i)))
		}
		return out, nil
	case methodActiveVotes:
		var author, permlink string
		_ = json.Unmarshal(req.Params[0], &author)
		_ = json.Unmarshal(req.Params[1], &permlink)
		return append([]map[string]any{}, n.votes[author+"/"+permlink]...), nil
	case methodGlobalProps:
		return n.props, nil
	}
	return nil, &Error{Code: -32601, Message: "method not found"}
}

func (n *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req nodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	call := n.record(req.Method)
	if n.intercept != nil {
		status, rpcErr := n.intercept(req, call)
		if status != 0 {
			w.WriteHeader(status)
			return
		}
		if rpcErr != nil {
			_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "error": rpcErr})
			return
		}
	}
	_ = json.NewEncoder(w).Encode(n.reply(req))
}

func (n *fakeNode) reply(req nodeRequest) map[string]any {
	result, rpcErr := n.serve(req)
	if rpcErr != nil {
		return map[string]any{"jsonrpc": "2.0", "id": req.ID, "error": rpcErr}
	}
	return map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": result}
}

func (n *fakeNode) serveWS(t *testing.T) http.HandlerFunc {
	upgrader := websocket.Upgrader{}
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		for {
			var req nodeRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			n.record(req.Method)
			if err := conn.WriteJSON(n.reply(req)); err != nil {
				return
			}
		}
	}
}

func fastOpts(endpoints ...string) Opts {
	return Opts{Endpoints: endpoints, RPS: 1000, Burst: 1000, Timeout: 2 * time.Second}
}

func fastRetry() retry.Config {
	return retry.Config{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 1}
}

func TestHTTPClient_Call(t *testing.T) {
	node := newFakeNode(3)
	server := httptest.NewServer(node)
	defer server.Close()

	client := NewClient(NewHTTPWithOpts(fastOpts(server.URL)))
	list, err := client.AccountHistory(context.Background(), "alice", -1, 2)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, uint64(0), list[0].Index)
	assert.Equal(t, uint64(2), list[2].Index)
	assert.Equal(t, "transfer", list[2].Type)
	assert.Equal(t, uint64(1002), list[2].Block)
	assert.Equal(t, historyStart.Add(2*time.Minute), list[2].Timestamp)
}

func TestHTTPClient_RPCError(t *testing.T) {
	node := newFakeNode(3)
	server := httptest.NewServer(node)
	defer server.Close()

	client := NewClient(NewHTTPWithOpts(fastOpts(server.URL)))
	_, err := client.AccountHistory(context.Background(), "alice", 1, 5)
	require.Error(t, err)
	assert.True(t, IsRPCError(err))

	var rpcErr *Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32000, rpcErr.Code)
}

func TestHTTPClient_Failover(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()
	node := newFakeNode(1)
	healthy := httptest.NewServer(node)
	defer healthy.Close()

	c := NewHTTPWithOpts(fastOpts(broken.URL, healthy.URL))
	list, err := NewClient(c).AccountHistory(context.Background(), "alice", -1, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, c.failures[broken.URL])
}

func TestHTTPClient_BreakerOpens(t *testing.T) {
	c := NewHTTPWithOpts(Opts{Endpoints: []string{"http://node"}, BreakerFailures: 2, BreakerCooldown: time.Hour})
	c.noteFailure("http://node")
	assert.False(t, c.isOpen("http://node"))
	c.noteFailure("http://node")
	assert.True(t, c.isOpen("http://node"))

	err := c.Call(context.Background(), methodGlobalProps, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all endpoints unavailable")
}

func TestHTTPClient_NoEndpoints(t *testing.T) {
	c := NewHTTPWithOpts(Opts{})
	assert.Error(t, c.Call(context.Background(), methodGlobalProps, nil, nil))
}

func TestWSClient_Call(t *testing.T) {
	node := newFakeNode(5)
	server := httptest.NewServer(node.serveWS(t))
	defer server.Close()

	ws := NewWebsocket(fastOpts("ws" + strings.TrimPrefix(server.URL, "http")))
	defer ws.Close()
	client := NewClient(ws)

	for range 2 {
		list, err := client.AccountHistory(context.Background(), "alice", 4, 4)
		require.NoError(t, err)
		assert.Len(t, list, 5)
	}
	assert.Equal(t, 2, node.count(methodAccountHistory))

	_, err := client.AccountHistory(context.Background(), "alice", 1, 3)
	assert.True(t, IsRPCError(err))
	require.NoError(t, ws.Close())
}

func TestWSClient_DialFailure(t *testing.T) {
	ws := NewWebsocket(fastOpts("ws://127.0.0.1:1"))
	err := ws.Call(context.Background(), methodGlobalProps, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial")
}

func TestNewTransport(t *testing.T) {
	tests := []struct {
		name      string
		endpoints []string
		ws        bool
		wantErr   bool
	}{
		{name: "http", endpoints: []string{"https://api.example", "http://other"}},
		{name: "websocket", endpoints: []string{"wss://api.example"}, ws: true},
		{name: "mixed", endpoints: []string{"https://api.example", "wss://api.example"}, wantErr: true},
		{name: "empty", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := NewTransport(tt.endpoints, Opts{})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			_, isWS := tr.(*WSClient)
			assert.Equal(t, tt.ws, isWS)
		})
	}
}

func TestFetchHistory(t *testing.T) {
	tests := []struct {
		name    string
		history int
		since   *uint64
		first   uint64
		count   int
	}{
		{name: "empty account", history: 0},
		{name: "single page", history: 7, count: 7},
		{name: "several pages", history: 25, count: 25},
		{name: "exact pages", history: 30, count: 30},
		{name: "since cursor", history: 25, since: ptr[uint64](19), first: 20, count: 5},
		{name: "up to date", history: 25, since: ptr[uint64](24)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := newFakeNode(tt.history)
			server := httptest.NewServer(node)
			defer server.Close()

			client := NewClient(NewHTTPWithOpts(fastOpts(server.URL)))
			list, err := FetchHistory(context.Background(), client, "alice", HistoryOptions{
				BatchSize: 10,
				Workers:   3,
				Since:     tt.since,
				Retry:     fastRetry(),
			})
			require.NoError(t, err)
			require.Len(t, list, tt.count)
			for i, op := range list {
				assert.Equal(t, tt.first+uint64(i), op.Index)
			}
		})
	}
}

func TestFetchHistory_RetriesTransientFailures(t *testing.T) {
	node := newFakeNode(25)
	node.intercept = func(req nodeRequest, call int) (int, *Error) {
		if req.Method == methodAccountHistory && call == 2 {
			return http.StatusServiceUnavailable, nil
		}
		return 0, nil
	}
	server := httptest.NewServer(node)
	defer server.Close()

	client := NewClient(NewHTTPWithOpts(Opts{Endpoints: []string{server.URL}, RPS: 1000, Burst: 1000, BreakerFailures: 10}))
	list, err := FetchHistory(context.Background(), client, "alice", HistoryOptions{BatchSize: 10, Workers: 1, Retry: fastRetry()})
	require.NoError(t, err)
	assert.Len(t, list, 25)
	// head + 3 pages + 1 retry
	assert.Equal(t, 5, node.count(methodAccountHistory))
}

func TestFetchHistory_RPCErrorIsPermanent(t *testing.T) {
	node := newFakeNode(25)
	node.intercept = func(req nodeRequest, call int) (int, *Error) {
		if req.Method == methodAccountHistory && call > 1 {
			return 0, &Error{Code: -32003, Message: "account history plugin disabled"}
		}
		return 0, nil
	}
	server := httptest.NewServer(node)
	defer server.Close()

	client := NewClient(NewHTTPWithOpts(fastOpts(server.URL)))
	_, err := FetchHistory(context.Background(), client, "alice", HistoryOptions{BatchSize: 10, Workers: 1, Retry: fastRetry()})
	require.Error(t, err)
	assert.True(t, IsRPCError(err))
	assert.Equal(t, 4, node.count(methodAccountHistory))
}

func TestFetchHistory_Cancelled(t *testing.T) {
	node := newFakeNode(25)
	server := httptest.NewServer(node)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := NewClient(NewHTTPWithOpts(fastOpts(server.URL)))
	_, err := FetchHistory(ctx, client, "alice", HistoryOptions{Retry: fastRetry()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVoteResolver(t *testing.T) {
	node := newFakeNode(0)
	node.votes = map[string][]map[string]any{
		"bob/post": {
			{"voter": "alice", "weight": 100, "rshares": "5000", "percent": 10000, "reputation": "100000000000000", "time": "2020-01-01T00:00:00"},
			{"voter": "carol", "weight": 50, "rshares": -200, "percent": -10000, "reputation": 25},
		},
	}
	server := httptest.NewServer(node)
	defer server.Close()

	resolver := NewVoteResolver(NewClient(NewHTTPWithOpts(fastOpts(server.URL))))
	ctx := context.Background()

	info, err := resolver.FetchVoteInfo(ctx, ops.Operation{}, ops.Vote{Voter: "alice", Author: "bob", Permlink: "post"})
	require.NoError(t, err)
	assert.Equal(t, int64(1e14), info.Reputation)
	assert.Equal(t, int64(5000), info.Rshares)

	info, err = resolver.FetchVoteInfo(ctx, ops.Operation{}, ops.Vote{Voter: "carol", Author: "bob", Permlink: "post"})
	require.NoError(t, err)
	assert.Equal(t, int64(25), info.Reputation)
	assert.Equal(t, int64(-200), info.Rshares)

	_, err = resolver.FetchVoteInfo(ctx, ops.Operation{}, ops.Vote{Voter: "dave", Author: "bob", Permlink: "post"})
	assert.Error(t, err)

	assert.Equal(t, 1, node.count(methodActiveVotes))
	assert.Equal(t, 1, resolver.Cached())
}

func TestNewSampledConverter(t *testing.T) {
	node := newFakeNode(0)
	node.props = map[string]any{
		"head_block_number":       50000000,
		"time":                    "2021-01-01T00:00:00",
		"total_vesting_fund_hive": "500.000 HIVE",
		"total_vesting_shares":    "1000000.000000 VESTS",
	}
	server := httptest.NewServer(node)
	defer server.Close()

	conv, err := NewSampledConverter(context.Background(), NewClient(NewHTTPWithOpts(fastOpts(server.URL))))
	require.NoError(t, err)

	at := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	got := conv.StakeToPower(decimal.NewFromInt(1_000_000), at)
	assert.True(t, got.Equal(decimal.NewFromInt(500)), "got %s", got)
	back := conv.PowerToStake(decimal.NewFromInt(500), at.Add(time.Hour))
	assert.True(t, back.Equal(decimal.NewFromInt(1_000_000)), "got %s", back)
}

func TestNewSampledConverter_NoShares(t *testing.T) {
	node := newFakeNode(0)
	node.props = map[string]any{
		"time":                     "2021-01-01T00:00:00",
		"total_vesting_fund_steem": "0.000 STEEM",
		"total_vesting_shares":     "0.000000 VESTS",
	}
	server := httptest.NewServer(node)
	defer server.Close()

	conv, err := NewSampledConverter(context.Background(), NewClient(NewHTTPWithOpts(fastOpts(server.URL))))
	require.NoError(t, err)
	at := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	want := chain.HistoricalRate.StakeToPower(decimal.NewFromInt(1_000_000), at)
	assert.True(t, conv.StakeToPower(decimal.NewFromInt(1_000_000), at).Equal(want))
}

func ptr[T any](v T) *T { return &v }
