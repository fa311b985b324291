package main

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode is the stable wire identifier for a rejected command.
type ErrorCode string

const (
	ErrRoomNotFound     ErrorCode = "room_not_found"
	ErrUnauthorized     ErrorCode = "unauthorized"
	ErrInvalidState     ErrorCode = "invalid_state"
	ErrNotYourTurn      ErrorCode = "not_your_turn"
	ErrWrongPhase       ErrorCode = "wrong_phase"
	ErrNotEnoughPlayers ErrorCode = "not_enough_players"
	ErrDuplicateAction  ErrorCode = "duplicate_action"
	ErrInternal         ErrorCode = "internal"
)

// GameError rejects a single command without touching room state.
type GameError struct {
	Code    ErrorCode
	Message string
}

func (e *GameError) Error() string {
	return string(e.Code) + ": " + e.Message
}

func gameErrorf(code ErrorCode, format string, args ...any) *GameError {
	return &GameError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// errCode extracts the wire code from any error returned by a room
// command. Non-GameError values count as internal faults.
func errCode(err error) ErrorCode {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return ErrInternal
}

func errMessage(err error) string {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Message
	}
	return "internal error"
}

// httpStatus maps an error from the synchronous action path onto a
// response code.
func httpStatus(err error) int {
	switch errCode(err) {
	case ErrRoomNotFound:
		return http.StatusNotFound
	case ErrUnauthorized, ErrNotYourTurn:
		return http.StatusForbidden
	case ErrInvalidState, ErrWrongPhase, ErrNotEnoughPlayers, ErrDuplicateAction:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
