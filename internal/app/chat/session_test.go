package chat

import (
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"tcpchat/internal/app/proto"
	"tcpchat/internal/configs"
)

// startSession runs a session over an in-memory pipe and returns the client
// end. The pipe is synchronous, so reads and writes must be interleaved the
// way a real client would.
func startSession(t *testing.T, cfg *configs.AppConfig) net.Conn {
	t.Helper()

	broadcaster, users, rooms := newTestCore(t)
	router := NewCommandRouter(users, rooms, broadcaster, 16)
	go router.Run()

	client, server := net.Pipe()
	t.Cleanup(func() { client.Close() })

	session := NewSession(server, router, users, broadcaster, cfg)
	go session.Run()
	return client
}

func sessionConfig() *configs.AppConfig {
	return &configs.AppConfig{
		Environment:      "development",
		HandshakeTimeout: time.Second,
		MailboxBuffer:    16,
		BroadcastBuffer:  16,
		CommandBuffer:    16,
		MessageRate:      500,
		MessageBurst:     500,
	}
}

func readFrame(t *testing.T, conn net.Conn) proto.ServerMessage {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(waitFor))
	msg, err := proto.ReadServerFrame(conn)
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return msg
}

func TestSessionHandshakeWelcome(t *testing.T) {
	client := startSession(t, sessionConfig())

	if err := proto.WriteClientFrame(client, proto.NewHandshake("alice")); err != nil {
		t.Fatalf("write handshake: %v", err)
	}

	welcome := readFrame(t, client)
	if welcome.Content.Kind != proto.ServerNotice || welcome.Content.Text != "Welcome, alice!" {
		t.Fatalf("got %+v, want the welcome notice", welcome.Content)
	}
}

func TestSessionHandshakeTimeout(t *testing.T) {
	cfg := sessionConfig()
	cfg.HandshakeTimeout = 50 * time.Millisecond
	client := startSession(t, cfg)

	msg := readFrame(t, client)
	if msg.Content.Kind != proto.ServerError || !strings.Contains(msg.Content.Text, "timeout") {
		t.Fatalf("got %+v, want a handshake timeout error", msg.Content)
	}

	client.SetReadDeadline(time.Now().Add(waitFor))
	if _, err := proto.ReadServerFrame(client); !errors.Is(err, proto.ErrConnectionClosed) {
		t.Fatalf("got %v, want ErrConnectionClosed after the timeout", err)
	}
}

func TestHandshakeTimeoutReleasesLateRegistration(t *testing.T) {
	broadcaster, users, rooms := newTestCore(t)
	router := NewCommandRouter(users, rooms, broadcaster, 16)
	go router.Run()

	// Wedge the registry: blocker's mailbox is filled to capacity, so the
	// next delivery to it parks the registry loop mid-command and every
	// following command waits in the queue.
	blockerMailbox := register(t, users, "blocker")
	for i := 0; i < cap(blockerMailbox.ch); i++ {
		if err := blockerMailbox.Send(proto.NewNotice("blocker", "fill")); err != nil {
			t.Fatalf("fill mailbox: %v", err)
		}
	}
	users.Submit(UserCommand{Kind: userCmdPrivateMessage, From: "blocker", To: "blocker", Content: "wedge"})

	_, sub := broadcaster.Subscribe()

	cfg := sessionConfig()
	cfg.HandshakeTimeout = 100 * time.Millisecond

	client, server := net.Pipe()
	t.Cleanup(func() { client.Close() })
	session := NewSession(server, router, users, broadcaster, cfg)
	go session.Run()

	if err := proto.WriteClientFrame(client, proto.NewHandshake("alice")); err != nil {
		t.Fatalf("write handshake: %v", err)
	}

	// The registration request sits behind the wedged command, so the
	// handshake window expires first.
	msg := readFrame(t, client)
	if msg.Content.Kind != proto.ServerError || !strings.Contains(msg.Content.Text, "timeout") {
		t.Fatalf("got %+v, want a handshake timeout error", msg.Content)
	}

	// Unwedge the registry. The late registration lands and must then be
	// rolled back, since the session that asked for it is already gone.
	for len(blockerMailbox.ch) > 0 {
		<-blockerMailbox.C()
	}

	env := mustReceiveEnvelope(t, sub, proto.ServerUserJoined)
	if env.Message.Content.Name != "alice" {
		t.Fatalf("join announcement for %q, want alice", env.Message.Content.Name)
	}
	departure := mustReceiveEnvelope(t, sub, proto.ServerNotice)
	if !strings.Contains(departure.Message.Content.Text, "alice disconnected") {
		t.Fatalf("departure notice %q, want alice disconnected", departure.Message.Content.Text)
	}

	if _, cerr := users.Lookup("alice"); cerr == nil {
		t.Fatal("alice stayed registered after a timed-out handshake")
	}
}

func TestSessionDropsFloodingClient(t *testing.T) {
	cfg := sessionConfig()
	cfg.MessageRate = 0.001
	cfg.MessageBurst = 1
	client := startSession(t, cfg)

	if err := proto.WriteClientFrame(client, proto.NewHandshake("alice")); err != nil {
		t.Fatalf("write handshake: %v", err)
	}
	readFrame(t, client) // welcome

	// The single burst token admits one frame.
	if err := proto.WriteClientFrame(client, proto.NewPing(1)); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	pong := readFrame(t, client)
	if pong.Content.Kind != proto.ServerPong {
		t.Fatalf("got %+v, want a pong", pong.Content)
	}

	// Every further frame is over the limit. After maxRateStrikes
	// consecutive rejections the session hangs up.
	for i := 0; i < maxRateStrikes; i++ {
		if err := proto.WriteClientFrame(client, proto.NewPing(uint16(i))); err != nil {
			t.Fatalf("write flood frame %d: %v", i, err)
		}
		msg := readFrame(t, client)
		if msg.Content.Kind != proto.ServerError || !strings.Contains(msg.Content.Text, "Slow down") {
			t.Fatalf("flood frame %d: got %+v, want a rate limit error", i, msg.Content)
		}
	}

	client.SetReadDeadline(time.Now().Add(waitFor))
	if _, err := proto.ReadServerFrame(client); !errors.Is(err, proto.ErrConnectionClosed) {
		t.Fatalf("got %v, want ErrConnectionClosed after flooding", err)
	}
}
