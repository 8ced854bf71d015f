package comm

import (
	"context"
	"sync"

	"github.com/golang/glog"
	"github.com/samber/lo"
)

// Result is the reply to a command.
type Result struct {
	Err  error
	Code byte
	Data []byte
}

// Command is a command waiting for its reply.
type Command struct {
	seq      PacketSeq
	resultCh chan Result
}

// RequestSeq returns the sequence number the command was sent with.
func (c *Command) RequestSeq() PacketSeq {
	return c.seq
}

// ResultChan delivers exactly one Result.
func (c *Command) ResultChan() <-chan Result {
	return c.resultCh
}

// Client matches replies to commands and separates board events.
type Client struct {
	fifo    *FIFO
	events  chan *Packet
	states  chan SyncState
	lock    sync.Mutex
	pending []*Command
}

// NewClient creates a Client over fifo.
func NewClient(fifo *FIFO) *Client {
	c := &Client{
		fifo:   fifo,
		events: make(chan *Packet, 16),
		states: make(chan SyncState, 4),
	}
	fifo.Handler = c
	fifo.Notifier = StateChangedFunc(c.stateChanged)
	return c
}

// FIFO returns the underlying FIFO.
func (c *Client) FIFO() *FIFO {
	return c.fifo
}

// EventChan delivers event packets.
func (c *Client) EventChan() <-chan *Packet {
	return c.events
}

// StateChan delivers sync state changes. Changes are dropped while the
// channel is full.
func (c *Client) StateChan() <-chan SyncState {
	return c.states
}

// Do sends a command.
func (c *Client) Do(pkt *Packet) *Command {
	c.lock.Lock()
	defer c.lock.Unlock()
	cmd := &Command{resultCh: make(chan Result, 1)}
	if err := c.fifo.Send(pkt); err != nil {
		cmd.resultCh <- Result{Err: err}
		return cmd
	}
	cmd.seq = pkt.Seq
	c.pending = append(c.pending, cmd)
	return cmd
}

// Call sends a command and waits for its reply.
func (c *Client) Call(ctx context.Context, pkt *Packet) (Result, error) {
	cmd := c.Do(pkt)
	select {
	case r := <-cmd.resultCh:
		return r, r.Err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// HandlePacket implements PacketHandler.
func (c *Client) HandlePacket(ctx context.Context, pkt *Packet) {
	if pkt.IsEvent() {
		select {
		case c.events <- pkt:
		case <-ctx.Done():
		}
		return
	}
	if len(pkt.Data) == 0 || !PacketSeq(pkt.Data[0]).IsValid() {
		glog.Warningf("malformed reply code %#02x", pkt.Code)
		return
	}
	seq := PacketSeq(pkt.Data[0])
	c.lock.Lock()
	cmd, index, ok := lo.FindIndexOf(c.pending, func(cmd *Command) bool {
		return cmd.seq == seq
	})
	var skipped []*Command
	if ok {
		skipped = c.pending[:index]
		c.pending = c.pending[index+1:]
	}
	c.lock.Unlock()
	if !ok {
		glog.V(2).Infof("reply for unknown command %d", seq)
		return
	}
	for _, s := range skipped {
		s.resultCh <- Result{Err: ErrNoReply}
	}
	code := pkt.Code &^ (CodeEvent | CodeFailed)
	if pkt.Code&CodeFailed != 0 {
		cmd.resultCh <- Result{Err: &CommandError{Code: code}, Code: code}
		return
	}
	cmd.resultCh <- Result{Code: code, Data: pkt.Data[1:]}
}

func (c *Client) stateChanged(ctx context.Context, state SyncState) {
	if !state.IsReady() {
		c.lock.Lock()
		dropped := c.pending
		c.pending = nil
		c.lock.Unlock()
		for _, cmd := range dropped {
			cmd.resultCh <- Result{Err: ErrNoReply}
		}
	}
	select {
	case c.states <- state:
	default:
		glog.V(3).Infof("link state %s not delivered", state)
	}
}

// Run runs the FIFO.
func (c *Client) Run(ctx context.Context) error {
	return c.fifo.Run(ctx)
}
