/*
Package proto defines the wire protocol: the client and server message
vocabularies and the length-prefixed binary frame codec that carries them.

This file defines ServerMessage, the envelope for everything the server sends.
*/
package proto

import (
	"encoding/binary"
	"fmt"
)

// ServerKind is the tag discriminant of a ServerContent variant.
type ServerKind uint8

const (
	// ServerNotice is a plain, human-readable server announcement.
	ServerNotice ServerKind = iota + 1

	// ServerGlobalChat is a chat message relayed to every connected user.
	ServerGlobalChat

	// ServerPrivateMessage is a chat message delivered to a single user.
	ServerPrivateMessage

	// ServerUserJoined announces that a user joined the server.
	ServerUserJoined

	// ServerUserList carries the names of all connected users.
	ServerUserList

	// ServerError reports a domain error to the offending user.
	ServerError

	// ServerPong answers a ping with the same nonce.
	ServerPong

	// ServerRoomMessage is a chat message scoped to one room.
	ServerRoomMessage

	// ServerRoomUsers carries the member names of one room.
	ServerRoomUsers
)

// ServerContent is one server payload. Kind selects the variant; only the
// fields belonging to that variant are meaningful.
type ServerContent struct {
	Kind ServerKind

	// Text is the body of notices, errors, and chat messages.
	Text string

	// From is the originating user of chat content.
	From string

	// Name is the user announced by a user-joined notice.
	Name string

	// Room names the room of room-scoped content.
	Room string

	// Names is the name list of user-list and room-users replies.
	Names []string

	// Nonce is the 16-bit pong nonce.
	Nonce uint16
}

// ServerMessage wraps ServerContent with the user it concerns. For targeted
// replies From is the requester; for relayed chat it is the original sender.
type ServerMessage struct {
	From    string
	Content ServerContent
}

// NewNotice builds a plain server notice attributed to the given user.
func NewNotice(from, text string) ServerMessage {
	return ServerMessage{From: from, Content: ServerContent{Kind: ServerNotice, Text: text}}
}

// NewErrorNotice builds an error notice for the given user.
func NewErrorNotice(from, text string) ServerMessage {
	return ServerMessage{From: from, Content: ServerContent{Kind: ServerError, Text: text}}
}

// NewGlobalChatMessage builds a relayed server-wide chat message.
func NewGlobalChatMessage(from, text string) ServerMessage {
	return ServerMessage{From: from, Content: ServerContent{Kind: ServerGlobalChat, From: from, Text: text}}
}

// marshalPayload encodes the envelope as a frame payload: the From name,
// the content tag byte, then the variant's fields.
func (m ServerMessage) marshalPayload() ([]byte, error) {
	buf := appendString(nil, m.From)
	buf = append(buf, byte(m.Content.Kind))

	c := m.Content
	switch c.Kind {
	case ServerNotice, ServerError:
		buf = appendString(buf, c.Text)
	case ServerGlobalChat, ServerPrivateMessage:
		buf = appendString(buf, c.From)
		buf = appendString(buf, c.Text)
	case ServerUserJoined:
		buf = appendString(buf, c.Name)
	case ServerUserList:
		buf = appendStringSlice(buf, c.Names)
	case ServerPong:
		buf = binary.LittleEndian.AppendUint16(buf, c.Nonce)
	case ServerRoomMessage:
		buf = appendString(buf, c.Room)
		buf = appendString(buf, c.From)
		buf = appendString(buf, c.Text)
	case ServerRoomUsers:
		buf = appendString(buf, c.Room)
		buf = appendStringSlice(buf, c.Names)
	default:
		return nil, fmt.Errorf("%w: unknown server message kind %d", ErrEncodingFailure, c.Kind)
	}

	return buf, nil
}

// decodeServerPayload decodes one ServerMessage from a full frame payload.
// The payload must be consumed exactly.
func decodeServerPayload(payload []byte) (ServerMessage, error) {
	r := payloadReader{buf: payload}

	from, err := r.string()
	if err != nil {
		return ServerMessage{}, err
	}
	tag, err := r.byte()
	if err != nil {
		return ServerMessage{}, err
	}

	m := ServerMessage{From: from, Content: ServerContent{Kind: ServerKind(tag)}}
	c := &m.Content

	switch c.Kind {
	case ServerNotice, ServerError:
		c.Text, err = r.string()
	case ServerGlobalChat, ServerPrivateMessage:
		if c.From, err = r.string(); err == nil {
			c.Text, err = r.string()
		}
	case ServerUserJoined:
		c.Name, err = r.string()
	case ServerUserList:
		c.Names, err = r.stringSlice()
	case ServerPong:
		c.Nonce, err = r.uint16()
	case ServerRoomMessage:
		if c.Room, err = r.string(); err == nil {
			if c.From, err = r.string(); err == nil {
				c.Text, err = r.string()
			}
		}
	case ServerRoomUsers:
		if c.Room, err = r.string(); err == nil {
			c.Names, err = r.stringSlice()
		}
	default:
		return ServerMessage{}, fmt.Errorf("%w: unknown server message tag %d", ErrDecodingFailure, tag)
	}

	if err != nil {
		return ServerMessage{}, err
	}
	if err := r.finish(); err != nil {
		return ServerMessage{}, err
	}

	return m, nil
}
