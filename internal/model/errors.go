package model

import "errors"

// ErrorKind classifies a failed room operation
type ErrorKind string

const (
	KindNotFound     ErrorKind = "not_found"
	KindUnauthorized ErrorKind = "unauthorized"
	KindConflict     ErrorKind = "conflict"
	KindBadRequest   ErrorKind = "bad_request"
	KindForbidden    ErrorKind = "forbidden"
)

// Status returns the numeric status code associated with the kind
func (k ErrorKind) Status() int {
	switch k {
	case KindNotFound:
		return 404
	case KindUnauthorized:
		return 401
	case KindConflict:
		return 409
	case KindBadRequest:
		return 400
	case KindForbidden:
		return 403
	default:
		return 500
	}
}

// Error is a validation failure raised by the room store.
// Code is a stable machine-readable identifier for the specific failure.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

// Error implements error interface
func (e *Error) Error() string {
	return e.Message
}

// Status returns the status code for the error's kind
func (e *Error) Status() int {
	return e.Kind.Status()
}

// Is matches errors with the same code, so wrapped copies still compare equal
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// KindOf returns the kind of a store error, or "" for anything else
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newError(kind ErrorKind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	// Not found
	ErrRoomNotFound  = newError(KindNotFound, "ROOM_NOT_FOUND", "room not found")
	ErrSeatNotHeld   = newError(KindNotFound, "SEAT_NOT_HELD", "player does not hold that seat")
	ErrUnknownSymbol = newError(KindNotFound, "SEAT_NOT_FOUND", "no such seat")

	// Unauthorized
	ErrInvalidPasscode = newError(KindUnauthorized, "INVALID_PASSCODE", "invalid passcode")

	// Conflict
	ErrRoomNameTaken = newError(KindConflict, "ROOM_NAME_TAKEN", "room with this name already exists")
	ErrRoomFull      = newError(KindConflict, "ROOM_FULL", "room is full")
	ErrGameOver      = newError(KindConflict, "GAME_OVER", "game is already over")

	// Bad request
	ErrMissingName           = newError(KindBadRequest, "MISSING_NAME", "room name is required")
	ErrInvalidPasscodeFormat = newError(KindBadRequest, "INVALID_PASSCODE_FORMAT", "passcode must be 4 digits")
	ErrMissingPlayerID       = newError(KindBadRequest, "MISSING_PLAYER_ID", "player id is required")
	ErrInvalidMove           = newError(KindBadRequest, "INVALID_MOVE", "invalid move")
	ErrNotInRoom             = newError(KindBadRequest, "NOT_IN_ROOM", "connection has not joined that room")

	// Forbidden
	ErrNotSeated   = newError(KindForbidden, "NOT_SEATED", "player is not seated in this room")
	ErrNotYourTurn = newError(KindForbidden, "NOT_YOUR_TURN", "not your turn")
)
