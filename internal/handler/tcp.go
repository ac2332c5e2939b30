/*
Package handler provides the transport surfaces of the server.

This file defines the TCP listener that accepts chat connections and hands
each one to its own session handler.
*/
package handler

import (
	"context"
	"errors"
	"net"

	"github.com/rs/zerolog"

	"tcpchat/internal/app/chat"
	"tcpchat/internal/configs"
	"tcpchat/internal/pkg/logx"
)

// TCPServer accepts chat protocol connections and spawns one Session per
// accepted socket.
type TCPServer struct {
	addr        string
	listener    net.Listener
	router      *chat.CommandRouter
	users       *chat.UserRegistry
	broadcaster *chat.Broadcaster
	config      *configs.AppConfig

	logger zerolog.Logger
}

// NewTCPServer wires the accept loop to the actor core.
func NewTCPServer(addr string, router *chat.CommandRouter, users *chat.UserRegistry, broadcaster *chat.Broadcaster, cfg *configs.AppConfig) *TCPServer {
	return &TCPServer{
		addr:        addr,
		router:      router,
		users:       users,
		broadcaster: broadcaster,
		config:      cfg,
		logger:      logx.Logger().With().Str("component", "TCPServer").Logger(),
	}
}

// Listen binds the TCP address without accepting yet. It exists so callers
// can learn the bound address before serving, e.g. when listening on port 0.
func (s *TCPServer) Listen() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener
	return nil
}

// Addr returns the bound listener address. It is only valid after Listen.
func (s *TCPServer) Addr() net.Addr {
	return s.listener.Addr()
}

// ListenAndServe blocks accepting connections until the context is
// cancelled. Closing a session only ever affects that session; the accept
// loop and the actors stay up.
func (s *TCPServer) ListenAndServe(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Serve runs the accept loop on the bound listener until the context is
// cancelled.
func (s *TCPServer) Serve(ctx context.Context) error {
	s.logger.Info().Str("addr", s.listener.Addr().String()).Msg("Chat server listening.")

	// Unblock Accept when the context ends.
	go func() {
		<-ctx.Done()
		if err := s.listener.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Listener close error.")
		}
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.logger.Info().Msg("Accept loop stopped.")
				return nil
			}
			s.logger.Warn().Err(err).Msg("Accept failed.")
			continue
		}

		s.logger.Debug().Str("remote_addr", conn.RemoteAddr().String()).Msg("Accepted connection.")

		session := chat.NewSession(conn, s.router, s.users, s.broadcaster, s.config)
		go session.Run()
	}
}
