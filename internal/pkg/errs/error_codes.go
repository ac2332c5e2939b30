/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific protocol or business errors both inside
the server and in error notices sent to clients.
*/
package errs

// 1xxx: Protocol and Session Errors.
// These are fatal to the connection that caused them; the session is closed
// after a best-effort error notice.
const (
	// ErrInvalidHandshake indicates that the first frame on a connection was
	// not a handshake frame.
	ErrInvalidHandshake = 1101

	// ErrHandshakeTimeout indicates that no handshake frame arrived within
	// the handshake window.
	ErrHandshakeTimeout = 1102

	// ErrRateLimitExceeded indicates that the client sent frames faster than
	// the per-session limit allows.
	ErrRateLimitExceeded = 1103
)

// 21xx: User Business Logic Errors.
// Domain errors are recoverable and reported to the requesting user only.
const (
	// ErrUserExists indicates a handshake with a username that is already in use.
	ErrUserExists = 2101

	// ErrUserNotExists indicates an operation against an unknown username.
	ErrUserNotExists = 2102

	// ErrSelfMessage indicates a private message addressed to its own sender.
	ErrSelfMessage = 2103
)

// 22xx: Room Business Logic Errors.
const (
	// ErrRoomExists indicates an attempt to create a room that already exists.
	ErrRoomExists = 2201

	// ErrRoomNotFound indicates an operation against an unknown room.
	ErrRoomNotFound = 2202

	// ErrUserInRoom indicates a join request from a user who is already a member.
	ErrUserInRoom = 2203

	// ErrUserNotInRoom indicates a leave request from a user who is not a member.
	ErrUserNotInRoom = 2204

	// ErrNoUsersInRoom indicates a room message sent to a room with no members.
	ErrNoUsersInRoom = 2205

	// ErrRoomMessageNotSent indicates that delivery of a room message failed
	// for at least one member.
	ErrRoomMessageNotSent = 2206
)

// 5xxx: Internal System Errors.
const (
	// ErrUnknown is the fallback for unexpected internal failures.
	ErrUnknown = 5000
)
