package race

import "errors"

// ErrRoomFull is returned when a join is attempted on a room that already
// has two players.
var ErrRoomFull = errors.New("room is full")

// ErrDuplicatePlayer is returned when a player id joins a room it is
// already in.
var ErrDuplicatePlayer = errors.New("player already in room")

// ErrRoomClosed is returned when a join races with the room's removal from
// the registry. The caller retries against a fresh room.
var ErrRoomClosed = errors.New("room is closed")
