package board

import (
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"

	"go.bug.st/serial"
	"golang.org/x/net/websocket"

	"github.com/robotalks/reflex/pkg/button"
	"github.com/robotalks/reflex/pkg/l0/comm"
)

// DefaultBaudRate is used for serial links without a baud parameter.
const DefaultBaudRate = 115200

// Dial opens a Link to the board at the URL:
//
//	serial:///dev/ttyUSB0?baud=115200
//	tcp://host:port
//	ws://host:port/path
func Dial(rawURL string, lines *button.Lines) (*Link, io.Closer, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, nil, err
	}
	switch u.Scheme {
	case "serial":
		return dialSerial(u, lines)
	case "tcp":
		conn, err := net.Dial("tcp", u.Host)
		if err != nil {
			return nil, nil, err
		}
		return NewLink(conn, lines), conn, nil
	case "ws", "wss":
		origin := "http://" + u.Host + "/"
		conn, err := websocket.Dial(rawURL, "", origin)
		if err != nil {
			return nil, nil, err
		}
		conn.PayloadType = websocket.BinaryFrame
		return NewLink(conn, lines), conn, nil
	}
	return nil, nil, fmt.Errorf("unsupported board url scheme %q", u.Scheme)
}

func dialSerial(u *url.URL, lines *button.Lines) (*Link, io.Closer, error) {
	baud := DefaultBaudRate
	if s := u.Query().Get("baud"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid baud %q: %w", s, err)
		}
		baud = n
	}
	port, err := serial.Open(u.Path, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", u.Path, err)
	}
	if err := port.SetReadTimeout(comm.DefaultSyncTimeout); err != nil {
		port.Close()
		return nil, nil, err
	}
	link := NewLink(port, lines)
	link.client.FIFO().PollingRead = true
	return link, port, nil
}
