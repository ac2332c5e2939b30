/*
Package chat contains the actor core of the server.

This file defines the Room actor. Each room owns its membership set
exclusively and processes its commands sequentially in its own Run loop;
the room registry only ever forwards commands to it.
*/
package chat

import (
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tcpchat/internal/app/proto"
	"tcpchat/internal/pkg/errs"
	"tcpchat/internal/pkg/logx"
)

// Room is one chat room: a name and the set of member session records.
type Room struct {
	name     string
	commands chan RoomCommand
	users    *UserRegistry

	// members is reachable only from the Run loop. Values are cloned
	// session records; the user registry keeps ownership of the originals.
	members map[string]UserRecord

	logger zerolog.Logger
}

func newRoom(name string, users *UserRegistry, commandBuffer int) *Room {
	return &Room{
		name:     name,
		commands: make(chan RoomCommand, commandBuffer),
		users:    users,
		members:  make(map[string]UserRecord),
		logger:   logx.Logger().With().Str("component", "Room").Str("room", name).Logger(),
	}
}

// Run is the room's actor loop. Rooms live for the process lifetime; there
// is no teardown path.
func (rm *Room) Run() {
	rm.logger.Info().Msg("Room started.")

	for cmd := range rm.commands {
		switch cmd.Kind {
		case roomCmdJoin:
			rm.handleJoin(cmd)
		case roomCmdLeave:
			rm.handleLeave(cmd)
		case roomCmdListUsers:
			rm.handleListUsers(cmd)
		case roomCmdMessage:
			rm.handleMessage(cmd)
		default:
			rm.logger.Warn().Int("kind", int(cmd.Kind)).Msg("Unknown room command kind.")
		}
	}
}

// handleJoin queries the user registry for the joiner's current session
// record and admits them unless they are already a member.
func (rm *Room) handleJoin(cmd RoomCommand) {
	record, cerr := rm.users.Lookup(cmd.From)
	if cerr != nil {
		rm.logger.Warn().Str("user", cmd.From).Str("error", cerr.Message).Msg("Join from unknown user ignored.")
		return
	}

	if _, member := rm.members[cmd.From]; member {
		rm.notifyError(record, errs.NewError(errs.ErrUserInRoom, rm.name))
		return
	}

	rm.members[cmd.From] = record
	rm.logger.Info().Str("user", cmd.From).Int("total_members", len(rm.members)).Msg("User joined room.")

	// The joiner is a member already, so they see their own join message.
	rm.fanOut(cmd.From, fmt.Sprintf("%s joined the room", cmd.From))
}

func (rm *Room) handleLeave(cmd RoomCommand) {
	if _, member := rm.members[cmd.From]; !member {
		record, cerr := rm.users.Lookup(cmd.From)
		if cerr != nil {
			rm.logger.Warn().Str("user", cmd.From).Msg("Leave from unknown non-member ignored.")
			return
		}
		rm.notifyError(record, errs.NewError(errs.ErrUserNotInRoom, rm.name))
		return
	}

	delete(rm.members, cmd.From)
	rm.logger.Info().Str("user", cmd.From).Int("total_members", len(rm.members)).Msg("User left room.")

	rm.fanOut(cmd.From, fmt.Sprintf("%s left the room", cmd.From))
}

// handleListUsers replies the member name list. The requester does not have
// to be a member.
func (rm *Room) handleListUsers(cmd RoomCommand) {
	record, cerr := rm.users.Lookup(cmd.From)
	if cerr != nil {
		rm.logger.Warn().Str("user", cmd.From).Msg("List-users from unknown user ignored.")
		return
	}

	names := make([]string, 0, len(rm.members))
	for name := range rm.members {
		names = append(names, name)
	}

	msg := proto.ServerMessage{
		From:    cmd.From,
		Content: proto.ServerContent{Kind: proto.ServerRoomUsers, Room: rm.name, Names: names},
	}
	if err := record.Mailbox.Send(msg); err != nil {
		rm.logger.Warn().Err(err).Str("user", cmd.From).Msg("Room user list delivery failed.")
	}
}

// handleMessage fans the message out to every member. Delivery is
// best-effort: members that can be reached get the message even when others
// fail, and the sender is told about any failure.
func (rm *Room) handleMessage(cmd RoomCommand) {
	sender, cerr := rm.users.Lookup(cmd.From)
	if cerr != nil {
		rm.logger.Warn().Str("user", cmd.From).Msg("Room message from unknown user ignored.")
		return
	}

	if len(rm.members) == 0 {
		rm.notifyError(sender, errs.NewError(errs.ErrNoUsersInRoom, rm.name))
		return
	}

	if err := rm.deliverToMembers(cmd.From, cmd.Content); err != nil {
		rm.notifyError(sender, errs.NewError(errs.ErrRoomMessageNotSent, rm.name))
	}
}

// fanOut broadcasts a room notice produced by the room itself (joins and
// leaves). Failures are logged but carry no sender to notify.
func (rm *Room) fanOut(from, text string) {
	if err := rm.deliverToMembers(from, text); err != nil {
		rm.logger.Warn().Err(err).Str("from", from).Msg("Room fan-out incomplete.")
	}
}

// deliverToMembers sends a room message concurrently to every member and
// collects delivery failures. A failed member (typically a stale record for
// a user that disconnected without leaving) does not block the others.
func (rm *Room) deliverToMembers(from, text string) error {
	msg := proto.ServerMessage{
		From: from,
		Content: proto.ServerContent{
			Kind: proto.ServerRoomMessage,
			Room: rm.name,
			From: from,
			Text: text,
		},
	}

	var g errgroup.Group
	for _, member := range rm.members {
		member := member
		g.Go(func() error {
			if err := member.Mailbox.Send(msg); err != nil {
				rm.logger.Warn().Err(err).Str("member", member.Name).Msg("Room message delivery failed for member.")
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

func (rm *Room) notifyError(record UserRecord, cerr *errs.CustomError) {
	if err := record.Mailbox.Send(proto.NewErrorNotice(record.Name, cerr.Message)); err != nil {
		rm.logger.Warn().Err(err).Str("user", record.Name).Msg("Error notice delivery failed.")
	}
}
