package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
)

// Transport executes one JSON-RPC call and decodes its result into out.
type Transport interface {
	Call(ctx context.Context, method string, params any, out any) error
	Close() error
}

// Error is a JSON-RPC error object returned by a node. It is never retried.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// IsRPCError reports whether err carries a node-side JSON-RPC error.
func IsRPCError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      uint64 `json:"id"`
}

type response struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *Error          `json:"error"`
}

var requestIDs atomic.Uint64

func newRequest(method string, params any) request {
	if params == nil {
		params = []any{}
	}
	return request{JSONRPC: "2.0", Method: method, Params: params, ID: requestIDs.Add(1)}
}

func (r response) decode(out any) error {
	if r.Error != nil {
		return r.Error
	}
	if out == nil {
		return nil
	}
	if len(r.Result) == 0 {
		return fmt.Errorf("empty result")
	}
	return json.Unmarshal(r.Result, out)
}

// NewTransport picks the transport matching the endpoints' scheme. All
// endpoints must share one scheme family.
func NewTransport(endpoints []string, o Opts) (Transport, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no endpoints configured")
	}
	ws := strings.HasPrefix(endpoints[0], "ws://") || strings.HasPrefix(endpoints[0], "wss://")
	for _, ep := range endpoints[1:] {
		if isWS := strings.HasPrefix(ep, "ws://") || strings.HasPrefix(ep, "wss://"); isWS != ws {
			return nil, fmt.Errorf("mixed http and websocket endpoints: %s", ep)
		}
	}
	o.Endpoints = endpoints
	if ws {
		return NewWebsocket(o), nil
	}
	return NewHTTPWithOpts(o), nil
}
