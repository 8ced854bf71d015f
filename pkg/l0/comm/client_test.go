package comm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeBoard is the firmware end of a link.
type fakeBoard struct {
	t    *testing.T
	conn net.Conn
	rx   chan byte
}

func newFakeBoard(t *testing.T, conn net.Conn) *fakeBoard {
	b := &fakeBoard{t: t, conn: conn, rx: make(chan byte, 256)}
	go func() {
		var buf [1]byte
		for {
			if _, err := conn.Read(buf[:]); err != nil {
				close(b.rx)
				return
			}
			b.rx <- buf[0]
		}
	}()
	return b
}

func (b *fakeBoard) expect(want ...byte) {
	got := make([]byte, 0, len(want))
	timeout := time.After(time.Second)
	for len(got) < len(want) {
		select {
		case c, ok := <-b.rx:
			require.True(b.t, ok, "link closed")
			got = append(got, c)
		case <-timeout:
			b.t.Fatalf("expect %v, got %v", want, got)
		}
	}
	require.Equal(b.t, want, got)
}

func (b *fakeBoard) send(bs ...byte) {
	b.conn.SetWriteDeadline(time.Now().Add(time.Second))
	_, err := b.conn.Write(bs)
	require.NoError(b.t, err)
}

// pollingConn makes reads return after a short timeout, like a serial
// port with a read timeout.
type pollingConn struct {
	net.Conn
}

func (c pollingConn) Read(p []byte) (int, error) {
	c.Conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	return c.Conn.Read(p)
}

func waitState(t *testing.T, c *Client, want SyncState) {
	timeout := time.After(time.Second)
	for {
		select {
		case s := <-c.StateChan():
			if s == want {
				return
			}
		case <-timeout:
			t.Fatalf("link never reached %s", want)
		}
	}
}

func waitResult(t *testing.T, cmd *Command) Result {
	select {
	case r := <-cmd.ResultChan():
		return r
	case <-time.After(time.Second):
		t.Fatal("no result")
	}
	return Result{}
}

func connect(t *testing.T, polling bool) (*Client, *fakeBoard) {
	host, dev := net.Pipe()
	var stream net.Conn = host
	if polling {
		stream = pollingConn{host}
	}
	fifo := NewFIFO(stream)
	fifo.PollingRead = polling
	fifo.seq = 1
	fifo.Timeout = 5 * time.Second
	client := NewClient(fifo)
	board := newFakeBoard(t, dev)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- client.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		host.Close()
		dev.Close()
		<-errCh
	})
	board.expect(SyncREQ, 1)
	board.send(SyncACK, 1)
	waitState(t, client, SyncStateReady)
	return client, board
}

func TestFIFOExchange(t *testing.T) {
	for _, polling := range []bool{false, true} {
		t.Run(fmt.Sprintf("polling=%v", polling), func(t *testing.T) {
			testFIFOExchange(t, polling)
		})
	}
}

func testFIFOExchange(t *testing.T, polling bool) {
	client, board := connect(t, polling)
	fifo := client.FIFO()

	require.NoError(t, fifo.Send(&Packet{Code: 0x02}))
	board.expect(1, 0x02)
	require.NoError(t, fifo.Send(&Packet{Code: 0x04, Data: []byte{1, 2, 3, 4, 5, 6, 7, 8}}))
	board.expect(2, 0x74, 8, 1, 2, 3, 4, 5, 6, 7, 8)

	board.send(1, 0x91, 12)
	select {
	case pkt := <-client.EventChan():
		require.Equal(t, &Packet{Seq: 1, Code: 0x81, Data: []byte{12}}, pkt)
	case <-time.After(time.Second):
		t.Fatal("no event")
	}
	stats := fifo.Stats()
	require.Equal(t, uint64(2), stats.Sent)
	require.Equal(t, uint64(1), stats.Received)
	require.Equal(t, uint64(1), stats.Resyncs)
}

func TestClientCall(t *testing.T) {
	client, board := connect(t, false)
	type callResult struct {
		r   Result
		err error
	}
	done := make(chan callResult, 1)
	go func() {
		r, err := client.Call(context.Background(), &Packet{Code: 0x06})
		done <- callResult{r, err}
	}()
	board.expect(1, 0x06)
	board.send(1, 0x36, 1, 0xab, 0xcd)
	res := <-done
	require.NoError(t, res.err)
	require.Equal(t, byte(0x06), res.r.Code)
	require.Equal(t, []byte{0xab, 0xcd}, res.r.Data)
}

func TestClientNoReply(t *testing.T) {
	client, board := connect(t, false)
	first := client.Do(&Packet{Code: 0x02})
	board.expect(1, 0x02)
	second := client.Do(&Packet{Code: 0x04})
	board.expect(2, 0x04)
	board.send(1, 0x24, 2, 3)
	require.Equal(t, ErrNoReply, waitResult(t, first).Err)
	r := waitResult(t, second)
	require.NoError(t, r.Err)
	require.Equal(t, byte(0x04), r.Code)
	require.Equal(t, []byte{3}, r.Data)
}

func TestClientCommandError(t *testing.T) {
	client, board := connect(t, false)
	cmd := client.Do(&Packet{Code: 0x04})
	board.expect(1, 0x04)
	board.send(1, 0x15, 1)
	r := waitResult(t, cmd)
	var ce *CommandError
	require.True(t, errors.As(r.Err, &ce))
	require.Equal(t, byte(0x04), ce.Code)
}

func TestClientLostSync(t *testing.T) {
	client, board := connect(t, false)
	cmd := client.Do(&Packet{Code: 0x02})
	board.expect(1, 0x02)
	board.send(SyncREQ, 0xf5)
	require.Equal(t, ErrNoReply, waitResult(t, cmd).Err)
	board.expect(SyncREQ, 2)
	require.Equal(t, ErrNotReady, waitResult(t, client.Do(&Packet{Code: 0x02})).Err)
}
