package types

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"
)

// EventAccountRefreshed is published after a tracker refresh applied new
// operations.
const EventAccountRefreshed = "account.refreshed"

// Event is a real-time notification delivered to websocket subscribers.
type Event struct {
	Type    string `json:"type"`
	Account string `json:"account"`
	Payload any    `json:"payload"`
}

// Broker fans events out to in-process subscribers. Slow subscribers miss
// events instead of blocking publishers.
type Broker struct {
	subs *xsync.Map[uint64, chan Event]
	next atomic.Uint64
}

func NewBroker() *Broker {
	return &Broker{subs: xsync.NewMap[uint64, chan Event]()}
}

// Subscribe registers a subscriber with the given channel buffer.
func (b *Broker) Subscribe(buffer int) (uint64, <-chan Event) {
	id := b.next.Add(1)
	ch := make(chan Event, buffer)
	b.subs.Store(id, ch)
	return id, ch
}

// Unsubscribe removes a subscriber. Its channel is left open.
func (b *Broker) Unsubscribe(id uint64) {
	b.subs.Delete(id)
}

// Publish delivers ev to every subscriber with room in its buffer and
// returns the number of deliveries.
func (b *Broker) Publish(ev Event) int {
	delivered := 0
	b.subs.Range(func(_ uint64, ch chan Event) bool {
		select {
		case ch <- ev:
			delivered++
		default:
		}
		return true
	})
	return delivered
}

// Subscribers returns the number of registered subscribers.
func (b *Broker) Subscribers() int { return b.subs.Size() }
