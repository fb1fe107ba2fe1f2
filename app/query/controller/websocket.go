package controller

import (
	"context"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vestwatch/vestwatch/app/query/types"
	"go.uber.org/zap"
)

const (
	pingInterval = 30 * time.Second
	readTimeout  = 60 * time.Second
	sendBuffer   = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ClientMessage represents messages sent by WebSocket clients.
type ClientMessage struct {
	Action  string `json:"action"`  // "subscribe" or "unsubscribe"
	Account string `json:"account"` // account to follow, or "*" for all accounts
}

// ServerMessage represents messages sent to WebSocket clients.
type ServerMessage struct {
	Type    string `json:"type"`    // "account.refreshed", "subscribed", "unsubscribed", "error"
	Payload any    `json:"payload"` // Event-specific data
}

// clientSubscriptions tracks what accounts a client follows.
type clientSubscriptions struct {
	mu       sync.RWMutex
	accounts map[string]bool
}

func newClientSubscriptions() *clientSubscriptions {
	return &clientSubscriptions{
		accounts: make(map[string]bool),
	}
}

func (cs *clientSubscriptions) subscribe(account string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.accounts[account] = true
}

func (cs *clientSubscriptions) unsubscribe(account string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	delete(cs.accounts, account)
}

// isSubscribed checks if an account is followed. Wildcard (*) matches all
// accounts.
func (cs *clientSubscriptions) isSubscribed(account string) bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.accounts["*"] || cs.accounts[account]
}

// HandleWebSocket upgrades HTTP connection to WebSocket and streams refresh
// events.
//
// Protocol:
// Client sends: {"action": "subscribe", "account": "alice"}  // Follow one account
// Client sends: {"action": "subscribe", "account": "*"}      // Follow ALL accounts
// Client sends: {"action": "unsubscribe", "account": "alice"}
//
// Server sends:
// - {"type": "account.refreshed", "payload": {...tracker status...}}
// - {"type": "subscribed", "payload": {"account": "alice"}}
// - {"type": "unsubscribed", "payload": {"account": "alice"}}
// - {"type": "error", "payload": {"message": "..."}}
//
// Pings are websocket control frames.
func (c *Controller) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if c.App.Events == nil {
		http.Error(w, "Real-time events not available", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.App.Logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}
	defer func(conn *websocket.Conn) {
		if err := conn.Close(); err != nil {
			c.App.Logger.Debug("Failed to close WebSocket connection", zap.Error(err))
		}
	}(conn)

	c.App.Logger.Info("WebSocket client connected", zap.String("remote_addr", r.RemoteAddr))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	subs := newClientSubscriptions()
	send := make(chan ServerMessage, sendBuffer)

	id, events := c.App.Events.Subscribe(sendBuffer)
	defer c.App.Events.Unsubscribe(id)

	// producers write to send and must stop before it is closed
	var producers, writer sync.WaitGroup

	producers.Add(2)
	go c.guard(&producers, cancel, r.RemoteAddr, "event forwarder", func() {
		c.forwardEvents(ctx, events, send, subs)
	})
	go c.guard(&producers, cancel, r.RemoteAddr, "ping ticker", func() {
		c.sendPings(ctx, conn)
	})

	writer.Add(1)
	go c.guard(&writer, cancel, r.RemoteAddr, "message writer", func() {
		c.writeMessages(conn, send)
	})

	// Blocks until the connection closes
	c.readClientMessages(ctx, conn, subs, send)

	cancel()
	producers.Wait()
	close(send)
	writer.Wait()

	c.App.Logger.Info("WebSocket client disconnected", zap.String("remote_addr", r.RemoteAddr))
}

// guard runs fn, turning a panic into a logged connection shutdown.
func (c *Controller) guard(wg *sync.WaitGroup, cancel context.CancelFunc, remote, name string, fn func()) {
	defer wg.Done()
	defer func() {
		if rec := recover(); rec != nil {
			c.App.Logger.Error("Panic in "+name+" goroutine",
				zap.Any("panic", rec),
				zap.String("stack", string(debug.Stack())),
				zap.String("remote_addr", remote))
			cancel()
		}
	}()
	fn()
}

// forwardEvents passes broker events the client follows on to send.
func (c *Controller) forwardEvents(ctx context.Context, events <-chan types.Event, send chan<- ServerMessage, subs *clientSubscriptions) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if !subs.isSubscribed(ev.Account) {
				continue
			}
			select {
			case send <- ServerMessage{Type: ev.Type, Payload: ev.Payload}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// sendPings sends periodic WebSocket ping frames to keep the connection alive.
// The client will automatically respond with pong frames, which resets the read deadline.
func (c *Controller) sendPings(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				c.App.Logger.Debug("Failed to send ping", zap.Error(err))
				return
			}
		}
	}
}

// writeMessages writes messages from the send channel to the WebSocket connection.
func (c *Controller) writeMessages(conn *websocket.Conn, send <-chan ServerMessage) {
	for msg := range send {
		if err := conn.WriteJSON(msg); err != nil {
			c.App.Logger.Debug("Failed to write WebSocket message", zap.Error(err))
			// keep draining so producers never block
			for range send {
			}
			return
		}
	}
}

func (c *Controller) reply(ctx context.Context, send chan<- ServerMessage, msg ServerMessage) bool {
	select {
	case send <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}

// readClientMessages handles subscription requests until the connection
// closes or ctx is cancelled.
func (c *Controller) readClientMessages(ctx context.Context, conn *websocket.Conn, subs *clientSubscriptions, send chan<- ServerMessage) {
	if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		c.App.Logger.Error("Failed to set read deadline", zap.Error(err))
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.App.Logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}
		if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return
		}

		var out ServerMessage
		switch msg.Action {
		case "subscribe", "unsubscribe":
			if msg.Account == "" {
				out = ServerMessage{Type: "error", Payload: map[string]string{"message": "account is required"}}
				break
			}
			if msg.Action == "subscribe" {
				if _, err := c.App.LoadTracker(msg.Account); err != nil && msg.Account != "*" {
					out = ServerMessage{Type: "error", Payload: map[string]string{"message": err.Error(), "account": msg.Account}}
					break
				}
				subs.subscribe(msg.Account)
				out = ServerMessage{Type: "subscribed", Payload: map[string]string{"account": msg.Account}}
			} else {
				subs.unsubscribe(msg.Account)
				out = ServerMessage{Type: "unsubscribed", Payload: map[string]string{"account": msg.Account}}
			}
			c.App.Logger.Debug("Client "+out.Type, zap.String("account", msg.Account))
		default:
			out = ServerMessage{Type: "error", Payload: map[string]string{"message": "unknown action: " + msg.Action}}
		}
		if !c.reply(ctx, send, out) {
			return
		}
	}
}
