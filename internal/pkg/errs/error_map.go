/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError template used
when constructing errors. Messages with printf placeholders accept details
via NewError.
*/
package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
var errorMap = map[int]CustomError{
	// 1xxx: Protocol and Session Errors
	ErrInvalidHandshake:  {Code: ErrInvalidHandshake, Message: "Expected a handshake as the first frame."},
	ErrHandshakeTimeout:  {Code: ErrHandshakeTimeout, Message: "Handshake timeout."},
	ErrRateLimitExceeded: {Code: ErrRateLimitExceeded, Message: "Too many messages. Slow down.", Status: http.StatusTooManyRequests},

	// 21xx: User Business Logic Errors
	ErrUserExists:    {Code: ErrUserExists, Message: "Username %s is already taken."},
	ErrUserNotExists: {Code: ErrUserNotExists, Message: "User not found: %s"},
	ErrSelfMessage:   {Code: ErrSelfMessage, Message: "You can't send a private message to yourself."},

	// 22xx: Room Business Logic Errors
	ErrRoomExists:         {Code: ErrRoomExists, Message: "Room %s already exists."},
	ErrRoomNotFound:       {Code: ErrRoomNotFound, Message: "Room not found: %s"},
	ErrUserInRoom:         {Code: ErrUserInRoom, Message: "You are already in room %s."},
	ErrUserNotInRoom:      {Code: ErrUserNotInRoom, Message: "You are not in room %s."},
	ErrNoUsersInRoom:      {Code: ErrNoUsersInRoom, Message: "No users in room %s."},
	ErrRoomMessageNotSent: {Code: ErrRoomMessageNotSent, Message: "Message could not be delivered to every member of room %s."},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
