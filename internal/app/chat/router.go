/*
Package chat contains the actor core of the server.

This file defines the CommandRouter, the single place where wire-level
client messages are translated into the internal command vocabulary of the
registries.
*/
package chat

import (
	"github.com/rs/zerolog"

	"tcpchat/internal/app/proto"
	"tcpchat/internal/pkg/logx"
)

// CommandRouter receives every tagged client message and every
// registry-produced server message and dispatches them.
type CommandRouter struct {
	commands    chan Command
	users       *UserRegistry
	rooms       *RoomRegistry
	broadcaster *Broadcaster

	logger zerolog.Logger
}

// NewCommandRouter constructs the router. Run must be started for commands
// to be processed.
func NewCommandRouter(users *UserRegistry, rooms *RoomRegistry, broadcaster *Broadcaster, commandBuffer int) *CommandRouter {
	return &CommandRouter{
		commands:    make(chan Command, commandBuffer),
		users:       users,
		rooms:       rooms,
		broadcaster: broadcaster,
		logger:      logx.Logger().With().Str("component", "CommandRouter").Logger(),
	}
}

// Submit queues a command for the router. A full mailbox blocks the caller.
func (r *CommandRouter) Submit(cmd Command) {
	r.commands <- cmd
}

// Run is the router's actor loop. It runs for the process lifetime.
func (r *CommandRouter) Run() {
	r.logger.Info().Msg("Command router started.")

	for cmd := range r.commands {
		switch {
		case cmd.Client != nil:
			r.dispatchClient(cmd.From, *cmd.Client)
		case cmd.Server != nil:
			// Registry replies that are not mailbox-targeted come back here
			// for republication to everyone.
			r.broadcaster.Publish(Envelope{From: cmd.From, Message: *cmd.Server})
		default:
			r.logger.Warn().Str("from", cmd.From).Msg("Empty command dropped.")
		}
	}
}

// dispatchClient is the dispatch table from wire messages to registry
// commands. The registries run for the process lifetime, so a send here can
// only block on backpressure, never fail.
func (r *CommandRouter) dispatchClient(from string, msg proto.ClientMessage) {
	r.logger.Debug().Str("from", from).Int("kind", int(msg.Kind)).Msg("Dispatching client message.")

	switch msg.Kind {
	case proto.ClientDisconnect:
		r.users.Submit(UserCommand{Kind: userCmdDisconnect, From: from})

	case proto.ClientGlobalChat:
		r.broadcaster.Publish(Envelope{
			From:    from,
			Message: proto.NewGlobalChatMessage(from, msg.Content),
		})

	case proto.ClientPrivateMessage:
		r.users.Submit(UserCommand{Kind: userCmdPrivateMessage, From: from, To: msg.To, Content: msg.Content})

	case proto.ClientPing:
		r.users.Submit(UserCommand{Kind: userCmdPing, From: from, Nonce: msg.Nonce})

	case proto.ClientListUsers:
		r.users.Submit(UserCommand{Kind: userCmdListUsers, From: from})

	case proto.ClientCreateRoom:
		r.rooms.Submit(RoomCommand{Kind: roomCmdCreate, From: from, Room: msg.Room})

	case proto.ClientJoinRoom:
		r.rooms.Submit(RoomCommand{Kind: roomCmdJoin, From: from, Room: msg.Room})

	case proto.ClientLeaveRoom:
		r.rooms.Submit(RoomCommand{Kind: roomCmdLeave, From: from, Room: msg.Room})

	case proto.ClientListRooms:
		r.rooms.Submit(RoomCommand{Kind: roomCmdListRooms, From: from})

	case proto.ClientListRoomUsers:
		r.rooms.Submit(RoomCommand{Kind: roomCmdListUsers, From: from, Room: msg.Room})

	case proto.ClientRoomMessage:
		r.rooms.Submit(RoomCommand{Kind: roomCmdMessage, From: from, Room: msg.Room, Content: msg.Content})

	case proto.ClientHandshake:
		// Handshakes are consumed by the session before it goes active.
		r.logger.Warn().Str("from", from).Msg("Handshake received on an active session, dropped.")

	default:
		r.logger.Warn().Str("from", from).Int("kind", int(msg.Kind)).Msg("Unknown client message kind dropped.")
	}
}
