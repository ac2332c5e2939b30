/*
Package chat contains the actor core of the server.

This file defines the internal command envelopes that flow between the
session handlers, the command router, and the registries. None of these are
visible on the wire.
*/
package chat

import (
	"tcpchat/internal/app/proto"
	"tcpchat/internal/pkg/errs"
)

// Command is one element of the command router's mailbox: either a
// client-originated wire message or a registry-produced server message to be
// republished on the global broadcast. Exactly one of Client and Server is
// set.
type Command struct {
	// From is the username of the session the command concerns.
	From string

	Client *proto.ClientMessage
	Server *proto.ServerMessage
}

// UserRecord is the session record held by the user registry: the identity
// plus the delivery handle. Identity is the name alone; the mailbox handle
// never participates in equality.
type UserRecord struct {
	Name    string
	Mailbox *Mailbox
}

// UserCommandKind selects a user registry operation.
type UserCommandKind int

const (
	// userCmdNew registers a user and replies with their new mailbox.
	userCmdNew UserCommandKind = iota

	// userCmdDisconnect removes a user. Absence is tolerated.
	userCmdDisconnect

	// userCmdGetInfo replies with the user's current session record.
	userCmdGetInfo

	// userCmdPrivateMessage delivers text to one recipient's mailbox.
	userCmdPrivateMessage

	// userCmdPing delivers a pong to the sender's mailbox.
	userCmdPing

	// userCmdListUsers delivers the connected-user list to the sender.
	userCmdListUsers

	// userCmdNames replies with the connected usernames (ops queries).
	userCmdNames
)

// UserCommand is one element of the user registry's mailbox.
type UserCommand struct {
	Kind UserCommandKind
	From string

	// To and Content are set for private messages.
	To      string
	Content string

	// Nonce is set for pings.
	Nonce uint16

	// Reply receives the registration result for userCmdNew.
	Reply chan NewUserReply

	// InfoReply receives the lookup result for userCmdGetInfo.
	InfoReply chan UserInfoReply

	// NamesReply receives the username list for userCmdNames.
	NamesReply chan []string
}

// NewUserReply answers a registration request. On success Mailbox is the
// receive handle for the new session; on failure Err names the rejection.
type NewUserReply struct {
	Mailbox *Mailbox
	Err     *errs.CustomError
}

// UserInfoReply answers a session record lookup.
type UserInfoReply struct {
	User UserRecord
	Err  *errs.CustomError
}

// RoomCommandKind selects a room registry or room actor operation.
type RoomCommandKind int

const (
	// roomCmdCreate spawns a new room actor.
	roomCmdCreate RoomCommandKind = iota

	// roomCmdListRooms replies with the live room names to the sender.
	roomCmdListRooms

	// roomCmdJoin adds the sender to a room.
	roomCmdJoin

	// roomCmdLeave removes the sender from a room.
	roomCmdLeave

	// roomCmdListUsers delivers a room's member list to the sender.
	roomCmdListUsers

	// roomCmdMessage fans text out to a room's members.
	roomCmdMessage

	// roomCmdNames replies with the live room names (ops queries).
	roomCmdNames
)

// RoomCommand is one element of the room registry's mailbox, forwarded
// unchanged to the addressed room's own mailbox for member operations.
type RoomCommand struct {
	Kind RoomCommandKind
	From string
	Room string

	// Content is set for room messages.
	Content string

	// NamesReply receives the room name list for roomCmdNames.
	NamesReply chan []string
}
