/*
Package chat contains the actor core of the server.

This file defines the Session, the per-connection handler that owns the
socket, performs the handshake, and bridges network I/O with the internal
message bus.
*/
package chat

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tcpchat/internal/app/proto"
	"tcpchat/internal/configs"
	"tcpchat/internal/pkg/errs"
	"tcpchat/internal/pkg/limiter"
	"tcpchat/internal/pkg/logx"
)

// maxRateStrikes is how many consecutive over-limit frames a session may
// send before it is dropped instead of warned.
const maxRateStrikes = 10

// inboundFrame is one result of the read pump: a decoded frame or the error
// that ended reading.
type inboundFrame struct {
	msg proto.ClientMessage
	err error
}

// Session handles one client connection from handshake to disconnect.
type Session struct {
	conn        net.Conn
	connID      string
	router      *CommandRouter
	users       *UserRegistry
	broadcaster *Broadcaster
	limiter     *limiter.MessageLimiter

	handshakeTimeout time.Duration

	// name is set only after successful registration; it doubles as the
	// "registered" flag for cleanup.
	name    string
	mailbox *Mailbox

	logger zerolog.Logger
}

// NewSession wraps an accepted connection. Run drives it.
func NewSession(conn net.Conn, router *CommandRouter, users *UserRegistry, broadcaster *Broadcaster, cfg *configs.AppConfig) *Session {
	connID := uuid.NewString()

	sessionLogger := logx.Logger().With().
		Str("component", "Session").
		Str("conn_id", connID).
		Str("remote_addr", conn.RemoteAddr().String()).
		Logger()

	return &Session{
		conn:             conn,
		connID:           connID,
		router:           router,
		users:            users,
		broadcaster:      broadcaster,
		limiter:          limiter.NewMessageLimiter(cfg.MessageRate, cfg.MessageBurst, maxRateStrikes),
		handshakeTimeout: cfg.HandshakeTimeout,
		logger:           sessionLogger,
	}
}

// Run drives the session through Authenticating and Active until the
// connection ends. Whatever the exit path, a registered user is always
// disconnected from the registry.
func (s *Session) Run() {
	defer func() {
		if err := s.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Warn().Err(err).Msg("Connection close error.")
		}
	}()

	// done stops the read pump from blocking on a dead frames channel once
	// the session loop has returned.
	done := make(chan struct{})
	defer close(done)

	frames := make(chan inboundFrame)
	go s.readPump(frames, done)

	defer func() {
		if s.name != "" {
			s.router.Submit(Command{
				From:   s.name,
				Client: &proto.ClientMessage{Kind: proto.ClientDisconnect},
			})
		}
	}()

	if err := s.authenticate(frames); err != nil {
		s.logger.Info().Err(err).Msg("Session ended before going active.")
		return
	}

	s.logger.Info().Str("user", s.name).Msg("Session active.")
	s.active(frames)
}

// readPump reads whole frames from the socket and hands them to the session
// loop. Running the blocking reads here keeps the session's select free to
// abandon a wait without consuming partial frame state.
func (s *Session) readPump(frames chan<- inboundFrame, done <-chan struct{}) {
	for {
		msg, err := proto.ReadClientFrame(s.conn)
		select {
		case frames <- inboundFrame{msg: msg, err: err}:
		case <-done:
			return
		}
		if err != nil {
			return
		}
	}
}

// authenticate enforces the handshake sub-protocol: the first frame must be
// a handshake, the whole exchange must finish inside the handshake window,
// and the username must be free.
func (s *Session) authenticate(frames <-chan inboundFrame) error {
	timer := time.NewTimer(s.handshakeTimeout)
	defer timer.Stop()

	var handshake proto.ClientMessage
	select {
	case <-timer.C:
		cerr := errs.NewError(errs.ErrHandshakeTimeout)
		s.writeErrorNotice(cerr)
		return cerr
	case in := <-frames:
		if in.err != nil {
			if errors.Is(in.err, proto.ErrConnectionClosed) {
				return in.err
			}
			s.writeErrorNotice(errs.NewError(errs.ErrInvalidHandshake))
			return in.err
		}
		handshake = in.msg
	}

	if handshake.Kind != proto.ClientHandshake || handshake.Name == "" {
		cerr := errs.NewError(errs.ErrInvalidHandshake)
		s.writeErrorNotice(cerr)
		return cerr
	}

	reply := make(chan NewUserReply, 1)
	s.users.Submit(UserCommand{Kind: userCmdNew, From: handshake.Name, Reply: reply})

	select {
	case <-timer.C:
		// The registry may still register the name after the deadline.
		// Undo a late success so the username does not leak; a rejection
		// needs no cleanup and must not touch the name's real owner.
		go func() {
			if res := <-reply; res.Err == nil {
				s.users.Submit(UserCommand{Kind: userCmdDisconnect, From: handshake.Name})
			}
		}()
		cerr := errs.NewError(errs.ErrHandshakeTimeout)
		s.writeErrorNotice(cerr)
		return cerr
	case res := <-reply:
		if res.Err != nil {
			s.writeErrorNotice(res.Err)
			return res.Err
		}
		s.name = handshake.Name
		s.mailbox = res.Mailbox
	}

	welcome := proto.NewNotice(s.name, fmt.Sprintf("Welcome, %s!", s.name))
	if err := proto.WriteServerFrame(s.conn, welcome); err != nil {
		return err
	}
	return nil
}

// active services the three event sources of a live session: inbound frames,
// the global broadcast, and the private mailbox. One select keeps the wait
// fair and never consumes from a branch it does not take.
func (s *Session) active(frames <-chan inboundFrame) {
	subID, bcast := s.broadcaster.Subscribe()
	defer s.broadcaster.Unsubscribe(subID)

	for {
		select {
		case in := <-frames:
			if in.err != nil {
				if errors.Is(in.err, proto.ErrConnectionClosed) {
					s.logger.Debug().Str("user", s.name).Msg("Connection closed by client.")
				} else {
					s.logger.Warn().Err(in.err).Str("user", s.name).Msg("Read failed, closing session.")
				}
				return
			}

			if !s.limiter.Allow() {
				s.writeErrorNotice(errs.NewError(errs.ErrRateLimitExceeded))
				if s.limiter.Exhausted() {
					s.logger.Warn().Str("user", s.name).Msg("Session kept flooding past the limit, dropping connection.")
					return
				}
				continue
			}

			if in.msg.Kind == proto.ClientDisconnect {
				// The deferred disconnect submission notifies the router.
				s.logger.Debug().Str("user", s.name).Msg("Client requested disconnect.")
				return
			}

			msg := in.msg
			s.router.Submit(Command{From: s.name, Client: &msg})

		case env := <-bcast:
			// A session never receives its own message over the broadcast
			// path; targeted copies arrive through the mailbox instead.
			if env.From == s.name {
				continue
			}
			if err := proto.WriteServerFrame(s.conn, env.Message); err != nil {
				s.logger.Warn().Err(err).Str("user", s.name).Msg("Broadcast write failed, closing session.")
				return
			}

		case msg := <-s.mailbox.C():
			// Mailbox deliveries are always meant for this user, whatever
			// their origin.
			if err := proto.WriteServerFrame(s.conn, msg); err != nil {
				s.logger.Warn().Err(err).Str("user", s.name).Msg("Mailbox write failed, closing session.")
				return
			}
		}
	}
}

// writeErrorNotice makes a best-effort attempt to tell the client why their
// request or connection failed. Write errors are only logged; the session is
// on its way out anyway in most of these paths.
func (s *Session) writeErrorNotice(cerr *errs.CustomError) {
	notice := proto.NewErrorNotice(s.name, cerr.Message)
	if err := proto.WriteServerFrame(s.conn, notice); err != nil {
		s.logger.Debug().Err(err).Msg("Error notice write failed.")
	}
}
