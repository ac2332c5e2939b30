/*
Package proto defines the wire protocol: the client and server message
vocabularies and the length-prefixed binary frame codec that carries them.

This file defines ClientMessage, the closed set of client-originated requests.
*/
package proto

import (
	"encoding/binary"
	"fmt"
)

// ClientKind is the tag discriminant of a ClientMessage variant.
type ClientKind uint8

const (
	// ClientHandshake introduces the connecting user. It must be the first
	// frame on every connection and is invalid anywhere else.
	ClientHandshake ClientKind = iota + 1

	// ClientGlobalChat is a chat message addressed to every connected user.
	ClientGlobalChat

	// ClientPrivateMessage is a chat message addressed to a single user.
	ClientPrivateMessage

	// ClientPing requests a pong echoing the same nonce.
	ClientPing

	// ClientListUsers requests the list of connected usernames.
	ClientListUsers

	// ClientDisconnect announces that the client is leaving.
	ClientDisconnect

	// ClientCreateRoom requests creation of a new room.
	ClientCreateRoom

	// ClientJoinRoom requests membership in an existing room.
	ClientJoinRoom

	// ClientLeaveRoom revokes membership in a room.
	ClientLeaveRoom

	// ClientListRooms requests the list of live room names.
	ClientListRooms

	// ClientListRoomUsers requests the member list of one room.
	ClientListRoomUsers

	// ClientRoomMessage is a chat message scoped to one room.
	ClientRoomMessage
)

// ClientMessage is one client request. Kind selects the variant; only the
// fields belonging to that variant are meaningful.
type ClientMessage struct {
	Kind ClientKind

	// Name is the username carried by a handshake.
	Name string

	// To is the recipient of a private message.
	To string

	// Room names the target room for room-scoped requests.
	Room string

	// Content is the chat text of global, private, and room messages.
	Content string

	// Nonce is the 16-bit ping nonce.
	Nonce uint16
}

// NewHandshake builds the mandatory first frame of a session.
func NewHandshake(name string) ClientMessage {
	return ClientMessage{Kind: ClientHandshake, Name: name}
}

// NewGlobalChat builds a server-wide chat message.
func NewGlobalChat(content string) ClientMessage {
	return ClientMessage{Kind: ClientGlobalChat, Content: content}
}

// NewPrivateMessage builds a chat message for a single recipient.
func NewPrivateMessage(to, content string) ClientMessage {
	return ClientMessage{Kind: ClientPrivateMessage, To: to, Content: content}
}

// NewPing builds a ping carrying the given nonce.
func NewPing(nonce uint16) ClientMessage {
	return ClientMessage{Kind: ClientPing, Nonce: nonce}
}

// NewRoomMessage builds a chat message scoped to one room.
func NewRoomMessage(room, content string) ClientMessage {
	return ClientMessage{Kind: ClientRoomMessage, Room: room, Content: content}
}

// marshalPayload encodes the message as a frame payload: the kind tag byte
// followed by the variant's fields.
func (m ClientMessage) marshalPayload() ([]byte, error) {
	buf := []byte{byte(m.Kind)}

	switch m.Kind {
	case ClientHandshake:
		buf = appendString(buf, m.Name)
	case ClientGlobalChat:
		buf = appendString(buf, m.Content)
	case ClientPrivateMessage:
		buf = appendString(buf, m.To)
		buf = appendString(buf, m.Content)
	case ClientPing:
		buf = binary.LittleEndian.AppendUint16(buf, m.Nonce)
	case ClientListUsers, ClientDisconnect, ClientListRooms:
		// tag only
	case ClientCreateRoom, ClientJoinRoom, ClientLeaveRoom, ClientListRoomUsers:
		buf = appendString(buf, m.Room)
	case ClientRoomMessage:
		buf = appendString(buf, m.Room)
		buf = appendString(buf, m.Content)
	default:
		return nil, fmt.Errorf("%w: unknown client message kind %d", ErrEncodingFailure, m.Kind)
	}

	return buf, nil
}

// decodeClientPayload decodes one ClientMessage from a full frame payload.
// The payload must be consumed exactly.
func decodeClientPayload(payload []byte) (ClientMessage, error) {
	r := payloadReader{buf: payload}

	tag, err := r.byte()
	if err != nil {
		return ClientMessage{}, err
	}

	m := ClientMessage{Kind: ClientKind(tag)}

	switch m.Kind {
	case ClientHandshake:
		m.Name, err = r.string()
	case ClientGlobalChat:
		m.Content, err = r.string()
	case ClientPrivateMessage:
		if m.To, err = r.string(); err == nil {
			m.Content, err = r.string()
		}
	case ClientPing:
		m.Nonce, err = r.uint16()
	case ClientListUsers, ClientDisconnect, ClientListRooms:
		// tag only
	case ClientCreateRoom, ClientJoinRoom, ClientLeaveRoom, ClientListRoomUsers:
		m.Room, err = r.string()
	case ClientRoomMessage:
		if m.Room, err = r.string(); err == nil {
			m.Content, err = r.string()
		}
	default:
		return ClientMessage{}, fmt.Errorf("%w: unknown client message tag %d", ErrDecodingFailure, tag)
	}

	if err != nil {
		return ClientMessage{}, err
	}
	if err := r.finish(); err != nil {
		return ClientMessage{}, err
	}

	return m, nil
}
