package comm

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultSyncTimeout is the inter-byte timeout while syncing or
// receiving a packet.
const DefaultSyncTimeout = 100 * time.Millisecond

// PacketHandler is called for every received packet.
type PacketHandler interface {
	HandlePacket(context.Context, *Packet)
}

// HandlePacketFunc is func form of PacketHandler.
type HandlePacketFunc func(context.Context, *Packet)

// HandlePacket implements PacketHandler.
func (f HandlePacketFunc) HandlePacket(ctx context.Context, pkt *Packet) {
	f(ctx, pkt)
}

// StateNotifier is called when the sync state changes.
type StateNotifier interface {
	StateChanged(context.Context, SyncState)
}

// StateChangedFunc is func form of StateNotifier.
type StateChangedFunc func(context.Context, SyncState)

// StateChanged implements StateNotifier.
func (f StateChangedFunc) StateChanged(ctx context.Context, state SyncState) {
	f(ctx, state)
}

// Stats counts link activity.
type Stats struct {
	Sent     uint64
	Received uint64
	Resyncs  uint64
}

// FIFO exchanges packets over a byte stream.
type FIFO struct {
	Stream   io.ReadWriter
	Handler  PacketHandler
	Notifier StateNotifier
	Timeout  time.Duration
	// PollingRead is set when Stream.Read returns after its own
	// timeout (zero bytes or a timeout error), so reads can run on the
	// same goroutine as the timer.
	PollingRead bool

	lock  sync.Mutex
	seq   PacketSeq
	state SyncState
	stats Stats

	parser Parser
	timer  <-chan time.Time
}

// NewFIFO creates a FIFO.
func NewFIFO(stream io.ReadWriter) *FIFO {
	return &FIFO{
		Stream:  stream,
		Timeout: DefaultSyncTimeout,
		seq:     NewPacketSeq(),
	}
}

// State returns the sync state.
func (f *FIFO) State() SyncState {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.state
}

// Stats returns a copy of the counters.
func (f *FIFO) Stats() Stats {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.stats
}

// Send assigns the next sequence number and writes the packet.
func (f *FIFO) Send(pkt *Packet) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if !f.state.IsReady() {
		return ErrNotReady
	}
	pkt.Seq = f.seq
	if _, err := pkt.WriteTo(f.Stream); err != nil {
		return err
	}
	f.seq = f.seq.Next()
	f.stats.Sent++
	return nil
}

// Run syncs with the peer and dispatches received packets until the
// stream fails or ctx is done.
func (f *FIFO) Run(ctx context.Context) error {
	if err := f.apply(ctx, f.parser.Reset()); err != nil {
		return err
	}
	next := f.readPolling
	if !f.PollingRead {
		next = f.readAsync(ctx)
	}
	for {
		pr, err := next(ctx)
		if err != nil {
			return err
		}
		if err := f.apply(ctx, pr); err != nil {
			return err
		}
	}
}

func (f *FIFO) readPolling(ctx context.Context) (ParseResult, error) {
	select {
	case <-ctx.Done():
		return ParseResult{}, ctx.Err()
	case <-f.timer:
		return f.parser.Timeout(), nil
	default:
	}
	var buf [1]byte
	n, err := f.Stream.Read(buf[:])
	switch {
	case err != nil && os.IsTimeout(err), err == nil && n == 0:
		return f.parser.Timeout(), nil
	case err != nil:
		return ParseResult{}, err
	}
	return f.parser.Parse(buf[0]), nil
}

func (f *FIFO) readAsync(ctx context.Context) func(context.Context) (ParseResult, error) {
	byteCh, errCh := make(chan byte), make(chan error, 1)
	go func() {
		var buf [1]byte
		for {
			if _, err := f.Stream.Read(buf[:]); err != nil {
				errCh <- err
				return
			}
			select {
			case byteCh <- buf[0]:
			case <-ctx.Done():
				return
			}
		}
	}()
	return func(ctx context.Context) (ParseResult, error) {
		select {
		case b := <-byteCh:
			return f.parser.Parse(b), nil
		case err := <-errCh:
			return ParseResult{}, err
		case <-ctx.Done():
			return ParseResult{}, ctx.Err()
		case <-f.timer:
			return f.parser.Timeout(), nil
		}
	}
}

func (f *FIFO) apply(ctx context.Context, pr ParseResult) error {
	var notifier StateNotifier
	f.lock.Lock()
	if f.state != pr.State {
		glog.V(3).Infof("link %s -> %s", f.state, pr.State)
		f.state = pr.State
		notifier = f.Notifier
	}
	var err error
	if pr.Sync != 0 {
		if pr.Sync == SyncREQ {
			f.stats.Resyncs++
		}
		_, err = f.Stream.Write([]byte{pr.Sync, byte(f.seq)})
	}
	if pr.Packet != nil {
		f.stats.Received++
	}
	f.lock.Unlock()
	if err != nil {
		return err
	}

	action := pr.WhatAboutTimer()
	if f.PollingRead {
		// reads time out by themselves, only a pending sync request
		// needs the timer.
		action = TimerStop
		if pr.Sync == SyncREQ {
			action = TimerRestart
		}
	}
	switch action {
	case TimerRestart:
		f.timer = time.After(f.Timeout)
	case TimerStop:
		f.timer = nil
	}

	if notifier != nil {
		notifier.StateChanged(ctx, pr.State)
	}
	if pr.Packet != nil && f.Handler != nil {
		f.Handler.HandlePacket(ctx, pr.Packet)
	}
	return nil
}
