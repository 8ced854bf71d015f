package comm

import (
	"errors"
	"fmt"
)

var (
	// ErrNotReady indicates the link is not synced.
	ErrNotReady = errors.New("link not ready")
	// ErrNoReply indicates a command got no reply: a later command was
	// answered first, or the link lost sync.
	ErrNoReply = errors.New("no reply")
)

// CommandError is a failure reported by the peer.
type CommandError struct {
	Code byte
}

// Error implements error.
func (e *CommandError) Error() string {
	return fmt.Sprintf("command %#02x failed", e.Code)
}
