package chat

import (
	"errors"
	"testing"
	"time"

	"tcpchat/internal/app/proto"
)

func TestMailboxDeliversInOrder(t *testing.T) {
	mb := newMailbox(4)

	for _, text := range []string{"one", "two", "three"} {
		if err := mb.Send(proto.NewNotice("alice", text)); err != nil {
			t.Fatalf("send %q: %v", text, err)
		}
	}
	for _, want := range []string{"one", "two", "three"} {
		got := <-mb.C()
		if got.Content.Text != want {
			t.Fatalf("received %q, want %q", got.Content.Text, want)
		}
	}
}

func TestMailboxSendAfterClose(t *testing.T) {
	mb := newMailbox(4)
	if err := mb.Send(proto.NewNotice("alice", "queued")); err != nil {
		t.Fatalf("send before close: %v", err)
	}

	mb.Close()
	mb.Close() // safe to repeat

	if err := mb.Send(proto.NewNotice("alice", "late")); !errors.Is(err, ErrMailboxClosed) {
		t.Fatalf("send after close: %v, want ErrMailboxClosed", err)
	}

	// Already queued messages stay readable.
	got := <-mb.C()
	if got.Content.Text != "queued" {
		t.Fatalf("received %q, want the queued message", got.Content.Text)
	}
}

func TestMailboxCloseUnblocksSender(t *testing.T) {
	mb := newMailbox(1)
	if err := mb.Send(proto.NewNotice("alice", "fill")); err != nil {
		t.Fatalf("send: %v", err)
	}

	result := make(chan error, 1)
	go func() {
		result <- mb.Send(proto.NewNotice("alice", "blocked"))
	}()

	// The sender is parked on the full mailbox until Close releases it.
	select {
	case err := <-result:
		t.Fatalf("send returned %v before close", err)
	case <-time.After(settle):
	}

	mb.Close()
	select {
	case err := <-result:
		if !errors.Is(err, ErrMailboxClosed) {
			t.Fatalf("blocked send: %v, want ErrMailboxClosed", err)
		}
	case <-time.After(waitFor):
		t.Fatal("blocked send never returned after close")
	}
}
