/*
Package chat contains the actor core of the server.

This file defines the Broadcaster, the single publish point for server-wide
messages. Every session subscribes while active; delivery is at-most-once
per subscriber and a subscriber that is not draining its queue misses
messages rather than blocking the publisher.
*/
package chat

import (
	"sync"

	"github.com/rs/zerolog"

	"tcpchat/internal/app/proto"
	"tcpchat/internal/pkg/logx"
)

// Envelope pairs a broadcast message with its originating user so sessions
// can suppress the echo to the sender.
type Envelope struct {
	From    string
	Message proto.ServerMessage
}

// Broadcaster fans published envelopes out to every current subscriber.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[uint64]chan Envelope
	nextID uint64

	// buffer is the per-subscriber queue capacity.
	buffer int

	logger zerolog.Logger
}

// NewBroadcaster creates a broadcaster whose subscribers each get a queue of
// the given capacity.
func NewBroadcaster(buffer int) *Broadcaster {
	return &Broadcaster{
		subs:   make(map[uint64]chan Envelope),
		buffer: buffer,
		logger: logx.Logger().With().Str("component", "Broadcaster").Logger(),
	}
}

// Subscribe registers a new subscriber and returns its id and receive
// channel. History is not replayed; a late subscriber starts empty.
func (b *Broadcaster) Subscribe() (uint64, <-chan Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	ch := make(chan Envelope, b.buffer)
	b.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber. Its channel is not closed; the session
// simply stops selecting on it.
func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
}

// Publish delivers env to every current subscriber at most once. A
// subscriber with a full queue is skipped so one stuck session cannot stall
// the publishing actor.
func (b *Broadcaster) Publish(env Envelope) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs {
		select {
		case ch <- env:
		default:
			b.logger.Warn().
				Uint64("subscriber_id", id).
				Str("from", env.From).
				Msg("Subscriber queue full, dropping broadcast message.")
		}
	}
}

// Subscribers reports the current subscriber count.
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
