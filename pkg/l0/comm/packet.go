package comm

import (
	"errors"
	"io"
	"time"
)

// Code bits.
const (
	CodeEvent   byte = 0x80
	CodeFailed  byte = 0x01
	codeMask    byte = 0x8f
	codeLenMask byte = 0x70
	// MaxDataLen is the largest payload a packet can carry.
	MaxDataLen = 0x7f
)

// ErrDataTooLong indicates a payload over MaxDataLen.
var ErrDataTooLong = errors.New("packet data too long")

// PacketSeq is a packet sequence number, valid in [1, 0xf0).
type PacketSeq byte

// NewPacketSeq picks a random starting sequence number.
func NewPacketSeq() PacketSeq {
	return PacketSeq(byte(time.Now().UnixNano())).Next()
}

// Next returns the following sequence number.
func (s PacketSeq) Next() PacketSeq {
	n := byte(s) + 1
	if n == 0 || n >= 0xf0 {
		n = 1
	}
	return PacketSeq(n)
}

// IsValid reports whether s can appear on the wire.
func (s PacketSeq) IsValid() bool {
	return s > 0 && s < 0xf0
}

// Packet is a decoded packet.
type Packet struct {
	Seq  PacketSeq
	Code byte
	Data []byte
}

// IsEvent reports whether the packet is an unsolicited event.
func (p *Packet) IsEvent() bool {
	return p.Code&CodeEvent != 0
}

func (p *Packet) header() []byte {
	code, n := p.Code&codeMask, len(p.Data)
	if n < 7 {
		return []byte{byte(p.Seq), code | byte(n)<<4}
	}
	return []byte{byte(p.Seq), code | codeLenMask, byte(n)}
}

// Bytes encodes the packet.
func (p *Packet) Bytes() []byte {
	return append(p.header(), p.Data...)
}

// WriteTo writes the encoded packet.
func (p *Packet) WriteTo(w io.Writer) (int64, error) {
	if len(p.Data) > MaxDataLen {
		return 0, ErrDataTooLong
	}
	n, err := w.Write(p.header())
	if err != nil || len(p.Data) == 0 {
		return int64(n), err
	}
	m, err := w.Write(p.Data)
	return int64(n + m), err
}
