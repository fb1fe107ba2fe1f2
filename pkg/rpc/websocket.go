package rpc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vestwatch/vestwatch/pkg/utils"
)

// WSClient is a JSON-RPC transport over one persistent websocket. Calls are
// serialised on the connection. When the connection fails the next endpoint
// is dialled, cycling through the list once per call.
type WSClient struct {
	endpoints []string
	dialer    *websocket.Dialer
	timeout   time.Duration
	keepAlive time.Duration

	mu   sync.Mutex
	conn *websocket.Conn
	next int
	stop chan struct{}
}

// NewWebsocket creates a websocket transport. The connection is opened on
// the first call.
func NewWebsocket(o Opts) *WSClient {
	o.defaults()
	return &WSClient{
		endpoints: utils.Dedup(o.Endpoints),
		dialer:    &websocket.Dialer{HandshakeTimeout: o.Timeout},
		timeout:   o.Timeout,
		keepAlive: o.KeepAlive,
	}
}

// Call sends a request and waits for the reply with the matching id.
func (c *WSClient) Call(ctx context.Context, method string, params any, out any) error {
	if len(c.endpoints) == 0 {
		return fmt.Errorf("no endpoints configured")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	req := newRequest(method, params)
	var lastErr error
	for range c.endpoints {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.conn == nil {
			if err := c.connect(ctx); err != nil {
				lastErr = err
				continue
			}
		}
		r, err := c.roundTrip(ctx, req)
		if err != nil {
			lastErr = err
			c.disconnect()
			continue
		}
		return r.decode(out)
	}
	return lastErr
}

func (c *WSClient) roundTrip(ctx context.Context, req request) (response, error) {
	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteJSON(req); err != nil {
		return response{}, fmt.Errorf("write: %w", err)
	}
	_ = c.conn.SetReadDeadline(deadline)
	for {
		var r response
		if err := c.conn.ReadJSON(&r); err != nil {
			return response{}, fmt.Errorf("read: %w", err)
		}
		// replies to abandoned requests are skipped
		if r.ID == req.ID {
			return r, nil
		}
	}
}

// connect dials the next endpoint in the rotation and starts the keepalive
// pinger. Callers hold c.mu.
func (c *WSClient) connect(ctx context.Context) error {
	ep := c.endpoints[c.next%len(c.endpoints)]
	c.next++
	conn, resp, err := c.dialer.DialContext(ctx, ep, nil)
	if resp != nil {
		_ = utils.DrainAndClose(resp.Body)
	}
	if err != nil {
		return fmt.Errorf("dial %s: %w", ep, err)
	}
	c.conn = conn
	c.stop = make(chan struct{})
	go c.ping(conn, c.stop)
	return nil
}

func (c *WSClient) ping(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(c.keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.timeout)); err != nil {
				return
			}
		}
	}
}

// disconnect drops the current connection. Callers hold c.mu.
func (c *WSClient) disconnect() {
	if c.conn == nil {
		return
	}
	close(c.stop)
	_ = c.conn.Close()
	c.conn = nil
}

// Close closes the connection and stops the keepalive pinger.
func (c *WSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnect()
	return nil
}
