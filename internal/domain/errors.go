package domain

import (
	"errors"
	"strings"
)

// Kind is a stable error category that callers can switch on without
// matching message text.
type Kind string

const (
	KindNotFound           Kind = "NOT_FOUND"
	KindForbidden          Kind = "FORBIDDEN"
	KindInvalidState       Kind = "INVALID_STATE"
	KindInvalidArgument    Kind = "INVALID_ARGUMENT"
	KindPreconditionFailed Kind = "PRECONDITION_FAILED"
	KindConflict           Kind = "CONFLICT"
	KindRoomFull           Kind = "ROOM_FULL"
	KindBusy               Kind = "BUSY" // transient, the caller may retry
	KindInternal           Kind = "INTERNAL_ERROR"
)

// Error is a domain error tagged with its Kind.
type Error struct {
	Kind    Kind
	Message string
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return strings.ToLower(strings.ReplaceAll(string(e.Kind), "_", " "))
	}
	return e.Message
}

// Is reports whether target is the bare sentinel of e's kind, so that
// errors.Is(ErrRoomNotFound, ErrNotFound) holds.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// Kind sentinels
var (
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrForbidden          = &Error{Kind: KindForbidden}
	ErrInvalidState       = &Error{Kind: KindInvalidState}
	ErrInvalidArgument    = &Error{Kind: KindInvalidArgument}
	ErrPreconditionFailed = &Error{Kind: KindPreconditionFailed}
	ErrConflict           = &Error{Kind: KindConflict}
	ErrFull               = &Error{Kind: KindRoomFull}
	ErrBusy               = &Error{Kind: KindBusy}
	ErrInternal           = &Error{Kind: KindInternal}
)

// Domain errors
var (
	ErrRoomNotFound       = newError(KindNotFound, "room not found")
	ErrPlayerNotFound     = newError(KindNotFound, "player not found")
	ErrPolicyNotFound     = newError(KindNotFound, "policy not found")
	ErrIdeologyNotFound   = newError(KindNotFound, "ideology not found")
	ErrNotHost            = newError(KindForbidden, "only host can perform this action")
	ErrGameAlreadyStarted = newError(KindInvalidState, "game already started")
	ErrInvalidStatus      = newError(KindInvalidState, "invalid action for current room status")
	ErrNoVotes            = newError(KindInvalidState, "no votes cast this turn")
	ErrPolicyNotDealt     = newError(KindInvalidArgument, "policy is not on the table this turn")
	ErrEmptyPetition      = newError(KindInvalidArgument, "petition text cannot be empty")
	ErrEmptyName          = newError(KindInvalidArgument, "display name cannot be empty")
	ErrNotEnoughPlayers   = newError(KindPreconditionFailed, "room must be full to start")
	ErrPlayersNotReady    = newError(KindPreconditionFailed, "all players must be ready")
	ErrPetitionUsed       = newError(KindConflict, "petition already used")
	ErrPlayerExists       = newError(KindConflict, "player already in room")
	ErrRoomExists         = newError(KindConflict, "room already exists")
	ErrRoomFull           = newError(KindRoomFull, "room is full")
	ErrRoomBusy           = newError(KindBusy, "room is busy, try again")
	ErrDeckExhausted      = newError(KindInternal, "not enough distinct policies to deal")
	ErrInvalidTransition  = newError(KindInternal, "invalid status transition")
	ErrStorage            = newError(KindInternal, "unexpected storage error")
)

// KindOf returns the Kind carried by err, or KindInternal for errors that
// did not originate in the domain.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}
