/*
Package chat contains the actor core of the server: the per-connection
session handler, the user and room registries, the per-room actors, and the
command router that connects them.

This file defines the Mailbox, the bounded point-to-point delivery channel
through which every targeted message reaches its user.
*/
package chat

import (
	"errors"
	"sync"

	"tcpchat/internal/app/proto"
)

// ErrMailboxClosed reports a delivery attempt against a mailbox whose owner
// has disconnected.
var ErrMailboxClosed = errors.New("mailbox closed")

// Mailbox is a bounded, ordered delivery channel owned by one session.
// The user registry creates it on registration and closes it on disconnect;
// everyone else only ever holds a handle for sending.
type Mailbox struct {
	ch        chan proto.ServerMessage
	done      chan struct{}
	closeOnce sync.Once
}

func newMailbox(buffer int) *Mailbox {
	return &Mailbox{
		ch:   make(chan proto.ServerMessage, buffer),
		done: make(chan struct{}),
	}
}

// Send delivers msg to the owning session. A full mailbox blocks the caller
// (backpressure) until space frees up or the mailbox closes. Messages from
// one sender arrive in send order.
func (m *Mailbox) Send(msg proto.ServerMessage) error {
	select {
	case <-m.done:
		return ErrMailboxClosed
	default:
	}

	select {
	case m.ch <- msg:
		return nil
	case <-m.done:
		return ErrMailboxClosed
	}
}

// C is the receive side, consumed only by the owning session.
func (m *Mailbox) C() <-chan proto.ServerMessage {
	return m.ch
}

// Close marks the mailbox dead. Safe to call more than once. Queued messages
// stay readable; further sends fail with ErrMailboxClosed.
func (m *Mailbox) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
	})
}
