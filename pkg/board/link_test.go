package board

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/reflex/pkg/button"
	"github.com/robotalks/reflex/pkg/l0/comm"
	"github.com/robotalks/reflex/pkg/rng"
)

// firmware answers commands on the device end of a link. It numbers its
// own packets from seq, which it announces in every sync ack.
type firmware struct {
	conn net.Conn

	lock     sync.Mutex
	seq      comm.PacketSeq
	commands [][]byte
	handle   func(code byte, data []byte) (byte, []byte)
}

func (f *firmware) read(n int) ([]byte, error) {
	buf := make([]byte, n)
	_, err := io.ReadFull(f.conn, buf)
	return buf, err
}

func (f *firmware) ack() {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.conn.Write([]byte{comm.SyncACK, byte(f.seq)})
}

func (f *firmware) write(code byte, data ...byte) {
	f.lock.Lock()
	defer f.lock.Unlock()
	pkt := &comm.Packet{Seq: f.seq, Code: code, Data: data}
	f.seq = f.seq.Next()
	f.conn.Write(pkt.Bytes())
}

func (f *firmware) serve() {
	for {
		b, err := f.read(1)
		if err != nil {
			return
		}
		if b[0] == comm.SyncREQ {
			if _, err := f.read(1); err != nil {
				return
			}
			f.ack()
			continue
		}
		hdr, err := f.read(1)
		if err != nil {
			return
		}
		n := int(hdr[0]>>4) & 7
		if n == 7 {
			l, err := f.read(1)
			if err != nil {
				return
			}
			n = int(l[0])
		}
		data, err := f.read(n)
		if err != nil {
			return
		}
		code := hdr[0] & 0x0f
		f.lock.Lock()
		f.commands = append(f.commands, append([]byte{code}, data...))
		handle := f.handle
		f.lock.Unlock()
		replyCode, reply := code, []byte(nil)
		if handle != nil {
			replyCode, reply = handle(code, data)
		}
		f.write(replyCode, append([]byte{b[0]}, reply...)...)
	}
}

func (f *firmware) received() [][]byte {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([][]byte(nil), f.commands...)
}

func startLink(t *testing.T, handle func(byte, []byte) (byte, []byte)) (*Link, *firmware, *button.Mailbox) {
	host, dev := net.Pipe()
	mb := &button.Mailbox{}
	link := NewLink(host, button.NewLines(mb))
	fw := &firmware{conn: dev, seq: 0xee, handle: handle}
	go fw.serve()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- link.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		host.Close()
		dev.Close()
		<-errCh
	})
	require.Eventually(t, link.Ready, time.Second, time.Millisecond)
	return link, fw, mb
}

func TestLinkCommands(t *testing.T) {
	link, fw, _ := startLink(t, func(code byte, data []byte) (byte, []byte) {
		if code == CodeRandom {
			return code, []byte{0x12, 0x34, 0x56, 0x78}
		}
		return code, nil
	})
	require.NoError(t, link.SetIndicator(button.Blue, true))
	require.NoError(t, link.FlashAll(false))
	v, err := link.Next()
	require.NoError(t, err)
	require.Equal(t, uint32(0x12345678), v)
	require.Equal(t, [][]byte{
		{CodeSetIndicator, byte(button.Blue), 1},
		{CodeFlashAll, 0},
		{CodeRandom},
	}, fw.received())
}

func TestLinkRandomFault(t *testing.T) {
	var lock sync.Mutex
	faults := 2
	link, _, _ := startLink(t, func(code byte, data []byte) (byte, []byte) {
		lock.Lock()
		defer lock.Unlock()
		if faults > 0 {
			faults--
			return code | comm.CodeFailed, nil
		}
		reply := make([]byte, 4)
		binary.BigEndian.PutUint32(reply, 0xc0ffee)
		return code, reply
	})
	_, err := link.Next()
	require.True(t, errors.Is(err, rng.ErrTransient))

	v, err := rng.NewRetrying(link).Next()
	require.NoError(t, err)
	require.Equal(t, uint32(0xc0ffee), v)
}

func TestLinkShortRandomReply(t *testing.T) {
	link, _, _ := startLink(t, func(code byte, data []byte) (byte, []byte) {
		return code, []byte{1, 2}
	})
	_, err := link.Next()
	require.Error(t, err)
	require.False(t, errors.Is(err, rng.ErrTransient))
}

func TestLinkButtonEvent(t *testing.T) {
	_, fw, mb := startLink(t, nil)
	fw.write(CodeButtonEdge, 9)
	fw.write(CodeButtonEdge, 12)
	require.Eventually(t, func() bool {
		c, ok := mb.Take()
		return ok && c == button.Blue
	}, time.Second, time.Millisecond)
}

func TestDialUnsupported(t *testing.T) {
	_, _, err := Dial("udp://localhost:1", button.NewLines(&button.Mailbox{}))
	require.Error(t, err)
}
