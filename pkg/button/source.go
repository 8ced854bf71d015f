package button

import (
	"context"
	"time"

	"github.com/robotalks/reflex/pkg/timing"
)

// DefaultPollInterval is the delay between mailbox checks.
const DefaultPollInterval = time.Millisecond

// Source consumes button events from a Mailbox against deadlines.
type Source struct {
	Mailbox  *Mailbox
	Clock    timing.Clock
	Interval time.Duration
}

// NewSource creates a Source.
func NewSource(mb *Mailbox, clock timing.Clock) *Source {
	return &Source{Mailbox: mb, Clock: clock, Interval: DefaultPollInterval}
}

// Poll waits for a button event until the deadline. It returns false
// without error when the deadline passes with nothing signaled.
func (s *Source) Poll(ctx context.Context, deadline timing.Millis) (Color, bool, error) {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	for {
		if deadline.Reached(s.Clock.Now()) {
			return NoPress, false, nil
		}
		if c, ok := s.Mailbox.Take(); ok {
			return c, true, nil
		}
		if err := ctx.Err(); err != nil {
			return NoPress, false, err
		}
		s.Clock.Sleep(interval)
	}
}
