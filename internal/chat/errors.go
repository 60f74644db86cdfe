package chat

import "fmt"

var (
	// ErrEmptyMessage is returned when an outbound message has no text and no
	// media attachment.
	ErrEmptyMessage = fmt.Errorf("message is empty")
	// ErrInvalidTarget is returned when a conversation target is malformed.
	ErrInvalidTarget = fmt.Errorf("invalid target")
	// ErrNoActiveTarget is returned when sending before any target was
	// activated.
	ErrNoActiveTarget = fmt.Errorf("no active target")
)
