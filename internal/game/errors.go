package game

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrRoomNotJoinable    = errors.New("room is not joinable")
	ErrUserNotFoundInRoom = errors.New("user not found in room")
	ErrNotOwner           = errors.New("only the room owner can do that")
	ErrGameInProgress     = errors.New("game already in progress")
	ErrRoundNotActive     = errors.New("round is not active")
)
