package board

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/reflex/pkg/button"
	"github.com/robotalks/reflex/pkg/l0/comm"
	"github.com/robotalks/reflex/pkg/rng"
)

// DefaultCommandTimeout bounds every command round trip.
const DefaultCommandTimeout = time.Second

// Link talks to the board firmware over the link protocol.
type Link struct {
	Lines   *button.Lines
	Timeout time.Duration

	client *comm.Client
}

// NewLink creates a Link over a byte stream.
func NewLink(stream io.ReadWriter, lines *button.Lines) *Link {
	return &Link{
		Lines:   lines,
		Timeout: DefaultCommandTimeout,
		client:  comm.NewClient(comm.NewFIFO(stream)),
	}
}

// Client returns the protocol client.
func (l *Link) Client() *comm.Client {
	return l.client
}

// Ready reports whether the link is synced.
func (l *Link) Ready() bool {
	return l.client.FIFO().State().IsReady()
}

func (l *Link) call(code byte, data ...byte) (comm.Result, error) {
	ctx, cancel := context.WithTimeout(context.Background(), l.Timeout)
	defer cancel()
	return l.client.Call(ctx, &comm.Packet{Code: code, Data: data})
}

// SetIndicator implements Board.
func (l *Link) SetIndicator(c button.Color, active bool) error {
	_, err := l.call(CodeSetIndicator, byte(c), flag(active))
	return err
}

// FlashAll implements Board.
func (l *Link) FlashAll(active bool) error {
	_, err := l.call(CodeFlashAll, flag(active))
	return err
}

// Next implements Board.
func (l *Link) Next() (uint32, error) {
	r, err := l.call(CodeRandom)
	var cmdErr *comm.CommandError
	switch {
	case errors.As(err, &cmdErr):
		return 0, fmt.Errorf("%w: %v", rng.ErrTransient, err)
	case err != nil:
		return 0, err
	case len(r.Data) != 4:
		return 0, fmt.Errorf("random reply has %d bytes", len(r.Data))
	}
	return binary.BigEndian.Uint32(r.Data), nil
}

// Run implements Board.
func (l *Link) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- l.client.Run(ctx) }()
	for {
		select {
		case pkt := <-l.client.EventChan():
			l.handleEvent(pkt)
		case state := <-l.client.StateChan():
			if state.IsReady() {
				glog.Info("board link ready")
			} else if !state.IsReceiving() {
				glog.Warning("board link lost sync")
			}
		case err := <-errCh:
			return err
		}
	}
}

func (l *Link) handleEvent(pkt *comm.Packet) {
	if pkt.Code != CodeButtonEdge || len(pkt.Data) != 1 {
		glog.Warningf("unknown board event %#02x %v", pkt.Code, pkt.Data)
		return
	}
	if err := l.Lines.Raise(button.Line(pkt.Data[0])); err != nil {
		glog.Warningf("button edge on line %d: %v", pkt.Data[0], err)
	}
}
