package bytestore

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnresponsive indicates the device stopped responding.
	ErrUnresponsive = errors.New("byte store unresponsive")
	// ErrNack indicates the device did not acknowledge a transfer.
	ErrNack = errors.New("byte store not acknowledged")
)

// UnresponsiveError reports which wait ran out.
type UnresponsiveError struct {
	Op      string
	Addr    uint16
	Waiting Flags
	Clear   bool
	After   time.Duration
}

// Error implements error.
func (e *UnresponsiveError) Error() string {
	cond := "set"
	if e.Clear {
		cond = "clear"
	}
	return fmt.Sprintf("%s %#04x: %v waiting %s %s after %v",
		e.Op, e.Addr, ErrUnresponsive, e.Waiting, cond, e.After)
}

// Unwrap returns ErrUnresponsive.
func (e *UnresponsiveError) Unwrap() error {
	return ErrUnresponsive
}
