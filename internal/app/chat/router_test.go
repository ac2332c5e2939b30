package chat

import (
	"testing"
	"time"

	"tcpchat/internal/app/proto"
)

// newTestRouter starts the full actor core with a running command router.
func newTestRouter(t *testing.T) (*Broadcaster, *UserRegistry, *RoomRegistry, *CommandRouter) {
	t.Helper()

	broadcaster, users, rooms := newTestCore(t)
	router := NewCommandRouter(users, rooms, broadcaster, 16)
	go router.Run()
	return broadcaster, users, rooms, router
}

func TestRouterPublishesGlobalChat(t *testing.T) {
	broadcaster, _, _, router := newTestRouter(t)
	_, sub := broadcaster.Subscribe()

	msg := proto.NewGlobalChat("hello everyone")
	router.Submit(Command{From: "alice", Client: &msg})

	env := mustReceiveEnvelope(t, sub, proto.ServerGlobalChat)
	if env.From != "alice" {
		t.Fatalf("envelope from %q, want alice", env.From)
	}
	if env.Message.Content.From != "alice" || env.Message.Content.Text != "hello everyone" {
		t.Fatalf("relayed chat %+v, want hello everyone from alice", env.Message.Content)
	}
}

func TestRouterRepublishesServerMessages(t *testing.T) {
	broadcaster, _, _, router := newTestRouter(t)
	_, sub := broadcaster.Subscribe()

	notice := proto.NewNotice("alice", "alice disconnected")
	router.Submit(Command{From: "alice", Server: &notice})

	env := mustReceiveEnvelope(t, sub, proto.ServerNotice)
	if env.Message.Content.Text != "alice disconnected" {
		t.Fatalf("republished notice %q, want alice disconnected", env.Message.Content.Text)
	}
}

func TestRouterDispatchesToUserRegistry(t *testing.T) {
	_, users, _, router := newTestRouter(t)
	register(t, users, "alice")
	bobMailbox := register(t, users, "bob")

	msg := proto.NewPrivateMessage("bob", "psst")
	router.Submit(Command{From: "alice", Client: &msg})

	got := mustReceive(t, bobMailbox, proto.ServerPrivateMessage)
	if got.Content.From != "alice" || got.Content.Text != "psst" {
		t.Fatalf("private message %+v, want psst from alice", got.Content)
	}
}

func TestRouterDispatchesDisconnect(t *testing.T) {
	_, users, _, router := newTestRouter(t)
	register(t, users, "alice")

	msg := proto.ClientMessage{Kind: proto.ClientDisconnect}
	router.Submit(Command{From: "alice", Client: &msg})

	// The disconnect flows through two actor hops; poll until it lands.
	deadline := time.Now().Add(waitFor)
	for {
		if _, cerr := users.Lookup("alice"); cerr != nil {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("alice still registered after routed disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRouterDispatchesToRoomRegistry(t *testing.T) {
	_, users, _, router := newTestRouter(t)
	aliceMailbox := register(t, users, "alice")

	msg := proto.ClientMessage{Kind: proto.ClientCreateRoom, Room: "lobby"}
	router.Submit(Command{From: "alice", Client: &msg})

	got := mustReceive(t, aliceMailbox, proto.ServerNotice)
	if got.Content.Text != "You created room: lobby" {
		t.Fatalf("creation notice %q, want confirmation for lobby", got.Content.Text)
	}
}

func TestRouterDropsActiveHandshake(t *testing.T) {
	broadcaster, users, _, router := newTestRouter(t)
	aliceMailbox := register(t, users, "alice")
	_, sub := broadcaster.Subscribe()

	msg := proto.NewHandshake("alice")
	router.Submit(Command{From: "alice", Client: &msg})

	mustBeSilent(t, aliceMailbox)
	select {
	case env := <-sub:
		t.Fatalf("unexpected broadcast after dropped handshake: %+v", env)
	case <-time.After(settle):
	}
}
