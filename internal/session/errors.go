package session

import (
	"errors"
	"fmt"
)

// ErrSuperseded is returned when a newer selection replaced the slot while this one was processing
var ErrSuperseded = errors.New("selection superseded by a newer file")

// ErrSlotsLocked is returned when a slot is changed while the AR screen is active
var ErrSlotsLocked = errors.New("files cannot change while the AR experience is active")

// TransportError wraps a failed network round trip (remote fetch or upload)
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
