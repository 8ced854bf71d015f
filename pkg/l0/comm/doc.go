// Package comm implements the link protocol between the host and the
// game board firmware.
//
// The protocol runs over any byte stream (serial port, TCP, websocket)
// and recovers from lost or corrupted bytes by resynchronizing on
// packet sequence numbers. There is no checksum; enable parity on the
// serial port if bit errors matter.
//
// Sync: either side sends SyncREQ followed by its next sequence
// number, the peer answers SyncACK with its own sequence number.
//
// Packet: [seq][code][len][data...]. Bits 4-6 of code carry the data
// length when it is below 7, otherwise they are all set and an explicit
// length byte follows. Bit 7 of code marks an unsolicited event from the
// board. Replies carry the request sequence number as the first data
// byte, and bit 0 of a reply code marks a failed command.
package comm
