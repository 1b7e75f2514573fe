// internal/lobby/errors.go
package lobby

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means no room exists with the given id.
	ErrNotFound = errors.New("room not found")
	// ErrAlreadyStarted means the room's game server was already deployed.
	ErrAlreadyStarted = errors.New("room already started")
	// ErrRoomFull means the room is at its player ceiling.
	ErrRoomFull = errors.New("room full")
)

// CapacityError is returned by Create when the active-room ceiling is hit.
type CapacityError struct {
	Max int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("maximum active rooms reached (%d)", e.Max)
}
