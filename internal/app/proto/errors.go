/*
Package proto defines the wire protocol: the client and server message
vocabularies and the length-prefixed binary frame codec that carries them.

This file defines the connection-level error values raised by the codec.
*/
package proto

import "errors"

var (
	// ErrConnectionClosed reports that the peer closed the stream before a
	// frame header arrived. This is the normal end of a session, not a bug.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrInvalidFrameSize reports a frame whose payload did not match its
	// declared length, or whose declared length exceeds MaxFrameSize.
	ErrInvalidFrameSize = errors.New("invalid frame size")

	// ErrEncodingFailure reports that a message value could not be encoded.
	// It is fatal for that message only.
	ErrEncodingFailure = errors.New("encoding failure")

	// ErrDecodingFailure reports a payload that could not be decoded, or one
	// that decoded without consuming exactly the declared byte count.
	ErrDecodingFailure = errors.New("decoding failure")
)
