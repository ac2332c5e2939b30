/*
Package chat contains the actor core of the server.

This file defines the RoomRegistry, the single authority for the set of live
rooms. It spawns one Room actor per room and forwards member operations to
the addressed room's own mailbox.
*/
package chat

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"tcpchat/internal/app/proto"
	"tcpchat/internal/pkg/errs"
	"tcpchat/internal/pkg/logx"
)

// RoomRegistry owns the RoomName to Room map and processes commands strictly
// one at a time in arrival order.
type RoomRegistry struct {
	commands    chan RoomCommand
	users       *UserRegistry
	broadcaster *Broadcaster

	// rooms is reachable only from the Run loop. Rooms are never removed;
	// a created room lives for the process lifetime.
	rooms map[string]*Room

	// commandBuffer is the mailbox capacity given to each spawned room.
	commandBuffer int

	logger zerolog.Logger
}

// NewRoomRegistry constructs the registry. Run must be started for commands
// to be processed.
func NewRoomRegistry(users *UserRegistry, broadcaster *Broadcaster, commandBuffer int) *RoomRegistry {
	return &RoomRegistry{
		commands:      make(chan RoomCommand, commandBuffer),
		users:         users,
		broadcaster:   broadcaster,
		rooms:         make(map[string]*Room),
		commandBuffer: commandBuffer,
		logger:        logx.Logger().With().Str("component", "RoomRegistry").Logger(),
	}
}

// Submit queues a command for the registry. A full mailbox blocks the caller.
func (r *RoomRegistry) Submit(cmd RoomCommand) {
	r.commands <- cmd
}

// Run is the registry's actor loop. It runs for the process lifetime.
func (r *RoomRegistry) Run() {
	r.logger.Info().Msg("Room registry started.")

	for cmd := range r.commands {
		switch cmd.Kind {
		case roomCmdCreate:
			r.handleCreate(cmd)
		case roomCmdListRooms:
			r.handleListRooms(cmd)
		case roomCmdJoin, roomCmdLeave, roomCmdListUsers, roomCmdMessage:
			r.forward(cmd)
		case roomCmdNames:
			cmd.NamesReply <- r.names()
		default:
			r.logger.Warn().Int("kind", int(cmd.Kind)).Msg("Unknown room command kind.")
		}
	}
}

// handleCreate spawns a room actor for a fresh name, tells the creator
// directly, and announces the room to everyone else over the broadcast.
func (r *RoomRegistry) handleCreate(cmd RoomCommand) {
	if _, exists := r.rooms[cmd.Room]; exists {
		r.notifyError(cmd.From, errs.NewError(errs.ErrRoomExists, cmd.Room))
		return
	}

	room := newRoom(cmd.Room, r.users, r.commandBuffer)
	r.rooms[cmd.Room] = room
	go room.Run()

	r.logger.Info().Str("room", cmd.Room).Str("creator", cmd.From).Int("total_rooms", len(r.rooms)).Msg("Room created.")

	r.notify(cmd.From, fmt.Sprintf("You created room: %s", cmd.Room))

	r.broadcaster.Publish(Envelope{
		From:    cmd.From,
		Message: proto.NewNotice(cmd.From, fmt.Sprintf("Room %s created", cmd.Room)),
	})
}

// handleListRooms replies the live room names as a plain notice; the wire
// vocabulary has no dedicated room-list variant.
func (r *RoomRegistry) handleListRooms(cmd RoomCommand) {
	r.notify(cmd.From, fmt.Sprintf("Rooms: [%s]", strings.Join(r.names(), ", ")))
}

// forward hands a member operation to the addressed room's own mailbox.
// Unknown rooms are answered here so room actors only ever see rooms that
// exist.
func (r *RoomRegistry) forward(cmd RoomCommand) {
	room, exists := r.rooms[cmd.Room]
	if !exists {
		r.notifyError(cmd.From, errs.NewError(errs.ErrRoomNotFound, cmd.Room))
		return
	}
	room.commands <- cmd
}

func (r *RoomRegistry) names() []string {
	names := make([]string, 0, len(r.rooms))
	for name := range r.rooms {
		names = append(names, name)
	}
	return names
}

// notify delivers a plain notice to one user's mailbox via a registry lookup.
func (r *RoomRegistry) notify(user, text string) {
	record, cerr := r.users.Lookup(user)
	if cerr != nil {
		r.logger.Warn().Str("user", user).Msg("Notice for unknown user dropped.")
		return
	}
	if err := record.Mailbox.Send(proto.NewNotice(user, text)); err != nil {
		r.logger.Warn().Err(err).Str("user", user).Msg("Notice delivery failed.")
	}
}

func (r *RoomRegistry) notifyError(user string, cerr *errs.CustomError) {
	record, lookupErr := r.users.Lookup(user)
	if lookupErr != nil {
		r.logger.Warn().Str("user", user).Str("error", cerr.Message).Msg("Error notice for unknown user dropped.")
		return
	}
	if err := record.Mailbox.Send(proto.NewErrorNotice(user, cerr.Message)); err != nil {
		r.logger.Warn().Err(err).Str("user", user).Msg("Error notice delivery failed.")
	}
}

// Names is the ops-facing query for the live room names. It round-trips
// through the actor loop so the map is never read concurrently.
func (r *RoomRegistry) Names() []string {
	reply := make(chan []string, 1)
	r.Submit(RoomCommand{Kind: roomCmdNames, NamesReply: reply})
	return <-reply
}
