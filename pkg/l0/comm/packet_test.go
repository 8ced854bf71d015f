package comm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPacketSeq(t *testing.T) {
	for s := 0; s <= 0xff; s++ {
		seq := PacketSeq(s)
		valid := s > 0 && s < 0xf0
		require.Equal(t, valid, seq.IsValid(), "seq %#02x", s)
		next := seq.Next()
		require.True(t, next.IsValid())
		if valid && s+1 < 0xf0 {
			require.Equal(t, PacketSeq(s+1), next)
		} else {
			require.Equal(t, PacketSeq(1), next)
		}
	}
	require.True(t, NewPacketSeq().IsValid())
}

func TestPacketEncoding(t *testing.T) {
	seven := []byte{1, 2, 3, 4, 5, 6, 7}
	testCases := []struct {
		name   string
		packet Packet
		expect []byte
	}{
		{"command", Packet{Seq: 1, Code: 0x02}, []byte{1, 0x02}},
		{"command with data", Packet{Seq: 2, Code: 0x02, Data: []byte{3, 1}}, []byte{2, 0x22, 3, 1}},
		{"command long data", Packet{Seq: 3, Code: 0x04, Data: seven}, []byte{3, 0x74, 7, 1, 2, 3, 4, 5, 6, 7}},
		{"event", Packet{Seq: 4, Code: 0x82, Data: []byte{13}}, []byte{4, 0x92, 13}},
		{"event long data", Packet{Seq: 5, Code: 0x82, Data: seven}, []byte{5, 0xf2, 7, 1, 2, 3, 4, 5, 6, 7}},
		{"length bits ignored", Packet{Seq: 6, Code: 0x7a}, []byte{6, 0x0a}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, tc.packet.Bytes())
			var buf bytes.Buffer
			n, err := tc.packet.WriteTo(&buf)
			require.NoError(t, err)
			require.Equal(t, int64(len(tc.expect)), n)
			require.Equal(t, tc.expect, buf.Bytes())
		})
	}
}

func TestPacketTooLong(t *testing.T) {
	pkt := &Packet{Seq: 1, Code: 2, Data: make([]byte, MaxDataLen+1)}
	var buf bytes.Buffer
	_, err := pkt.WriteTo(&buf)
	require.Equal(t, ErrDataTooLong, err)
	require.Zero(t, buf.Len())
}

func TestPacketIsEvent(t *testing.T) {
	require.True(t, (&Packet{Code: 0x81}).IsEvent())
	require.False(t, (&Packet{Code: 0x01}).IsEvent())
}
