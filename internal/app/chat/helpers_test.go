package chat

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tcpchat/internal/app/proto"
	"tcpchat/internal/pkg/errs"
)

func init() {
	zerolog.SetGlobalLevel(zerolog.ErrorLevel)
}

// waitFor is how long tests wait for an asynchronous delivery before failing.
const waitFor = 2 * time.Second

// settle is how long tests wait before asserting that nothing was delivered.
const settle = 100 * time.Millisecond

// newTestCore starts a broadcaster and both registries. The actor goroutines
// run for the rest of the test binary's life, which is fine for tests.
func newTestCore(t *testing.T) (*Broadcaster, *UserRegistry, *RoomRegistry) {
	t.Helper()

	broadcaster := NewBroadcaster(16)
	users := NewUserRegistry(broadcaster, 16, 16)
	rooms := NewRoomRegistry(users, broadcaster, 16)
	go users.Run()
	go rooms.Run()
	return broadcaster, users, rooms
}

// register runs the registration round trip and fails the test on rejection.
func register(t *testing.T, users *UserRegistry, name string) *Mailbox {
	t.Helper()

	reply := make(chan NewUserReply, 1)
	users.Submit(UserCommand{Kind: userCmdNew, From: name, Reply: reply})
	res := <-reply
	if res.Err != nil {
		t.Fatalf("registering %s: %v", name, res.Err)
	}
	return res.Mailbox
}

// mustReceive waits for the next mailbox delivery and asserts its kind.
func mustReceive(t *testing.T, mb *Mailbox, kind proto.ServerKind) proto.ServerMessage {
	t.Helper()

	select {
	case msg := <-mb.C():
		if msg.Content.Kind != kind {
			t.Fatalf("received kind %d (text %q), want kind %d", msg.Content.Kind, msg.Content.Text, kind)
		}
		return msg
	case <-time.After(waitFor):
		t.Fatalf("timed out waiting for message kind %d", kind)
	}
	return proto.ServerMessage{}
}

// mustReceiveError waits for an error notice and asserts it carries the
// message of the given error code.
func mustReceiveError(t *testing.T, mb *Mailbox, code int, details ...any) {
	t.Helper()

	msg := mustReceive(t, mb, proto.ServerError)
	want := errs.NewError(code, details...).Message
	if msg.Content.Text != want {
		t.Fatalf("error notice %q, want %q", msg.Content.Text, want)
	}
}

// mustBeSilent asserts that no delivery arrives within the settle window.
func mustBeSilent(t *testing.T, mb *Mailbox) {
	t.Helper()

	select {
	case msg := <-mb.C():
		t.Fatalf("unexpected delivery kind %d (text %q)", msg.Content.Kind, msg.Content.Text)
	case <-time.After(settle):
	}
}

// mustReceiveEnvelope waits for the next broadcast envelope on a subscriber
// channel and asserts the content kind.
func mustReceiveEnvelope(t *testing.T, ch <-chan Envelope, kind proto.ServerKind) Envelope {
	t.Helper()

	select {
	case env := <-ch:
		if env.Message.Content.Kind != kind {
			t.Fatalf("broadcast kind %d (text %q), want kind %d", env.Message.Content.Kind, env.Message.Content.Text, kind)
		}
		return env
	case <-time.After(waitFor):
		t.Fatalf("timed out waiting for broadcast kind %d", kind)
	}
	return Envelope{}
}
