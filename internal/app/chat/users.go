/*
Package chat contains the actor core of the server.

This file defines the UserRegistry, the single authority for the set of
connected users and their mailboxes. The registry owns its map exclusively
and mutates it only from its own Run loop, so no locking is needed.
*/
package chat

import (
	"fmt"

	"github.com/rs/zerolog"

	"tcpchat/internal/app/proto"
	"tcpchat/internal/pkg/errs"
	"tcpchat/internal/pkg/logx"
)

// UserRegistry owns the UserName to mailbox map and processes commands
// strictly one at a time in arrival order.
type UserRegistry struct {
	commands    chan UserCommand
	broadcaster *Broadcaster

	// users is reachable only from the Run loop.
	users map[string]*Mailbox

	// mailboxBuffer is the capacity given to each newly created mailbox.
	mailboxBuffer int

	logger zerolog.Logger
}

// NewUserRegistry constructs the registry. Run must be started for commands
// to be processed.
func NewUserRegistry(broadcaster *Broadcaster, commandBuffer, mailboxBuffer int) *UserRegistry {
	return &UserRegistry{
		commands:      make(chan UserCommand, commandBuffer),
		broadcaster:   broadcaster,
		users:         make(map[string]*Mailbox),
		mailboxBuffer: mailboxBuffer,
		logger:        logx.Logger().With().Str("component", "UserRegistry").Logger(),
	}
}

// Submit queues a command for the registry. A full mailbox blocks the caller.
func (r *UserRegistry) Submit(cmd UserCommand) {
	r.commands <- cmd
}

// Run is the registry's actor loop. It runs for the process lifetime.
func (r *UserRegistry) Run() {
	r.logger.Info().Msg("User registry started.")

	for cmd := range r.commands {
		switch cmd.Kind {
		case userCmdNew:
			r.handleNewUser(cmd)
		case userCmdDisconnect:
			r.handleDisconnect(cmd)
		case userCmdGetInfo:
			r.handleGetInfo(cmd)
		case userCmdPrivateMessage:
			r.handlePrivateMessage(cmd)
		case userCmdPing:
			r.handlePing(cmd)
		case userCmdListUsers:
			r.handleListUsers(cmd)
		case userCmdNames:
			cmd.NamesReply <- r.names()
		default:
			r.logger.Warn().Int("kind", int(cmd.Kind)).Msg("Unknown user command kind.")
		}
	}
}

// handleNewUser registers a user. Duplicate names are rejected without
// touching the existing session.
func (r *UserRegistry) handleNewUser(cmd UserCommand) {
	if _, exists := r.users[cmd.From]; exists {
		r.logger.Warn().Str("user", cmd.From).Msg("Rejected handshake for a name already in use.")
		cmd.Reply <- NewUserReply{Err: errs.NewError(errs.ErrUserExists, cmd.From)}
		return
	}

	mailbox := newMailbox(r.mailboxBuffer)
	r.users[cmd.From] = mailbox
	cmd.Reply <- NewUserReply{Mailbox: mailbox}

	r.logger.Info().Str("user", cmd.From).Int("total_users", len(r.users)).Msg("User registered.")

	r.broadcaster.Publish(Envelope{
		From: cmd.From,
		Message: proto.ServerMessage{
			From:    cmd.From,
			Content: proto.ServerContent{Kind: proto.ServerUserJoined, Name: cmd.From},
		},
	})
}

// handleDisconnect removes a user and closes their mailbox. Disconnecting an
// absent name is a no-op so retries and duplicate cleanup paths are safe.
func (r *UserRegistry) handleDisconnect(cmd UserCommand) {
	mailbox, exists := r.users[cmd.From]
	if !exists {
		r.logger.Debug().Str("user", cmd.From).Msg("Disconnect for unknown user ignored.")
		return
	}

	// Room membership is not pruned here: rooms keep their own member sets
	// and treat the closed mailbox as a delivery failure.
	mailbox.Close()
	delete(r.users, cmd.From)

	r.logger.Info().Str("user", cmd.From).Int("total_users", len(r.users)).Msg("User disconnected.")

	r.broadcaster.Publish(Envelope{
		From:    cmd.From,
		Message: proto.NewNotice(cmd.From, fmt.Sprintf("%s disconnected", cmd.From)),
	})
}

func (r *UserRegistry) handleGetInfo(cmd UserCommand) {
	mailbox, exists := r.users[cmd.From]
	if !exists {
		cmd.InfoReply <- UserInfoReply{Err: errs.NewError(errs.ErrUserNotExists, cmd.From)}
		return
	}
	cmd.InfoReply <- UserInfoReply{User: UserRecord{Name: cmd.From, Mailbox: mailbox}}
}

func (r *UserRegistry) handlePrivateMessage(cmd UserCommand) {
	recipient, exists := r.users[cmd.To]
	if !exists {
		r.notifyError(cmd.From, errs.NewError(errs.ErrUserNotExists, cmd.To))
		return
	}
	if cmd.To == cmd.From {
		r.notifyError(cmd.From, errs.NewError(errs.ErrSelfMessage))
		return
	}

	msg := proto.ServerMessage{
		From: cmd.From,
		Content: proto.ServerContent{
			Kind: proto.ServerPrivateMessage,
			From: cmd.From,
			Text: cmd.Content,
		},
	}
	if err := recipient.Send(msg); err != nil {
		r.logger.Warn().Err(err).Str("from", cmd.From).Str("to", cmd.To).Msg("Private message delivery failed.")
	}
}

func (r *UserRegistry) handlePing(cmd UserCommand) {
	sender, exists := r.users[cmd.From]
	if !exists {
		r.logger.Debug().Str("user", cmd.From).Msg("Ping from unknown user ignored.")
		return
	}

	msg := proto.ServerMessage{
		From:    cmd.From,
		Content: proto.ServerContent{Kind: proto.ServerPong, Nonce: cmd.Nonce},
	}
	if err := sender.Send(msg); err != nil {
		r.logger.Warn().Err(err).Str("user", cmd.From).Msg("Pong delivery failed.")
	}
}

func (r *UserRegistry) handleListUsers(cmd UserCommand) {
	sender, exists := r.users[cmd.From]
	if !exists {
		r.logger.Debug().Str("user", cmd.From).Msg("List-users from unknown user ignored.")
		return
	}

	msg := proto.ServerMessage{
		From:    cmd.From,
		Content: proto.ServerContent{Kind: proto.ServerUserList, Names: r.names()},
	}
	if err := sender.Send(msg); err != nil {
		r.logger.Warn().Err(err).Str("user", cmd.From).Msg("User list delivery failed.")
	}
}

// notifyError delivers a domain error notice to the offending user's own
// mailbox. Domain errors are never broadcast.
func (r *UserRegistry) notifyError(user string, cerr *errs.CustomError) {
	mailbox, exists := r.users[user]
	if !exists {
		r.logger.Debug().Str("user", user).Str("error", cerr.Message).Msg("No mailbox for error notice.")
		return
	}
	if err := mailbox.Send(proto.NewErrorNotice(user, cerr.Message)); err != nil {
		r.logger.Warn().Err(err).Str("user", user).Msg("Error notice delivery failed.")
	}
}

func (r *UserRegistry) names() []string {
	names := make([]string, 0, len(r.users))
	for name := range r.users {
		names = append(names, name)
	}
	return names
}

// Lookup fetches the current session record for name. It is the
// request/response form of get-user-info used by room actors and the room
// registry; the reply channel keeps the map owned by the actor loop.
func (r *UserRegistry) Lookup(name string) (UserRecord, *errs.CustomError) {
	reply := make(chan UserInfoReply, 1)
	r.Submit(UserCommand{Kind: userCmdGetInfo, From: name, InfoReply: reply})
	res := <-reply
	return res.User, res.Err
}

// Names is the ops-facing query for the connected usernames. It round-trips
// through the actor loop so the map is never read concurrently.
func (r *UserRegistry) Names() []string {
	reply := make(chan []string, 1)
	r.Submit(UserCommand{Kind: userCmdNames, NamesReply: reply})
	return <-reply
}
