package comm

// Sync bytes.
const (
	SyncREQ byte = 0xff
	SyncACK byte = 0xfe
)

// SyncState is the state of the link as seen by the parser.
type SyncState int

// Sync states, Ready and Receiving may be combined.
const (
	SyncStateSyncing   SyncState = 0
	SyncStateReady     SyncState = 0x01
	SyncStateReceiving SyncState = 0x02
)

// IsReady reports whether packets can be exchanged.
func (s SyncState) IsReady() bool {
	return s&SyncStateReady != 0
}

// IsReceiving reports whether a sync or a packet is partially received.
func (s SyncState) IsReceiving() bool {
	return s&SyncStateReceiving != 0
}

func (s SyncState) String() string {
	switch s {
	case SyncStateSyncing:
		return "syncing"
	case SyncStateReceiving:
		return "syncing/receiving"
	case SyncStateReady:
		return "ready"
	}
	return "ready/receiving"
}

// TimerAction tells the owner of the parser what to do with the
// inter-byte timer.
type TimerAction int

// Timer actions.
const (
	TimerNoChange TimerAction = iota
	TimerRestart
	TimerStop
)

// ParseResult is the outcome of feeding the parser.
type ParseResult struct {
	// Sync is a sync byte to send back to the peer, zero for none.
	Sync   byte
	State  SyncState
	Packet *Packet
}

// WhatAboutTimer decides what to do with the inter-byte timer.
func (r ParseResult) WhatAboutTimer() TimerAction {
	switch {
	case r.State.IsReceiving(), r.Sync == SyncREQ:
		return TimerRestart
	case r.State.IsReady():
		return TimerStop
	}
	return TimerNoChange
}

type parseStep int

const (
	stepAwaitSync   parseStep = iota // SyncREQ sent, waiting for the peer
	stepPeerReqSeq                   // got SyncREQ, waiting for peer seq
	stepPeerAckSeq                   // got SyncACK, waiting for peer seq
	stepIdle                         // synced, waiting for a packet seq
	stepAckSeq                       // got SyncACK while synced
	stepCode                         // waiting for packet code
	stepLen                          // waiting for explicit length
	stepData                         // waiting for payload
)

// Parser decodes the byte stream from the peer.
type Parser struct {
	step    parseStep
	peerSeq PacketSeq
	packet  *Packet
	filled  int
}

// State returns the current sync state.
func (p *Parser) State() SyncState {
	switch {
	case p.step == stepAwaitSync:
		return SyncStateSyncing
	case p.step == stepIdle:
		return SyncStateReady
	case p.step > stepIdle:
		return SyncStateReady | SyncStateReceiving
	}
	return SyncStateReceiving
}

// Reset drops everything and starts syncing.
func (p *Parser) Reset() ParseResult {
	p.packet = nil
	return p.result(p.resync())
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) ParseResult {
	var sync byte
	var pkt *Packet
	switch p.step {
	case stepAwaitSync:
		p.awaitSync(b)
	case stepPeerReqSeq, stepPeerAckSeq:
		sync = p.peerSync(b)
	case stepIdle:
		sync = p.idle(b)
	case stepAckSeq:
		if PacketSeq(b) != p.peerSeq {
			sync = p.resync()
		} else {
			p.step = stepIdle
		}
	case stepCode:
		sync, pkt = p.code(b)
	case stepLen:
		sync, pkt = p.length(b)
	case stepData:
		p.packet.Data[p.filled] = b
		if p.filled++; p.filled >= len(p.packet.Data) {
			pkt = p.complete()
		}
	}
	r := p.result(sync)
	r.Packet = pkt
	return r
}

// Timeout tells the parser the inter-byte timer expired. A partial sync
// or packet is dropped.
func (p *Parser) Timeout() ParseResult {
	if p.step == stepIdle {
		return p.result(0)
	}
	return p.result(p.resync())
}

func (p *Parser) result(sync byte) ParseResult {
	return ParseResult{Sync: sync, State: p.State()}
}

func (p *Parser) awaitSync(b byte) {
	switch b {
	case SyncREQ:
		p.step = stepPeerReqSeq
	case SyncACK:
		p.step = stepPeerAckSeq
	}
}

func (p *Parser) peerSync(b byte) byte {
	seq := PacketSeq(b)
	if !seq.IsValid() {
		return p.resync()
	}
	ack := p.step == stepPeerReqSeq
	p.peerSeq, p.step = seq, stepIdle
	if ack {
		return SyncACK
	}
	return 0
}

func (p *Parser) idle(b byte) byte {
	switch {
	case b == SyncREQ:
		p.step = stepPeerReqSeq
	case b == SyncACK:
		p.step = stepAckSeq
	case PacketSeq(b) != p.peerSeq:
		return p.resync()
	default:
		p.packet = &Packet{Seq: p.peerSeq}
		p.peerSeq = p.peerSeq.Next()
		p.step = stepCode
	}
	return 0
}

func (p *Parser) code(b byte) (byte, *Packet) {
	p.packet.Code = b & codeMask
	n := int(b&codeLenMask) >> 4
	switch n {
	case 0:
		return 0, p.complete()
	case 7:
		p.step = stepLen
	default:
		p.expect(n)
	}
	return 0, nil
}

func (p *Parser) length(b byte) (byte, *Packet) {
	switch {
	case b > MaxDataLen:
		return p.resync(), nil
	case b == 0:
		return 0, p.complete()
	}
	p.expect(int(b))
	return 0, nil
}

func (p *Parser) expect(n int) {
	p.packet.Data, p.filled = make([]byte, n), 0
	p.step = stepData
}

func (p *Parser) complete() *Packet {
	pkt := p.packet
	p.packet, p.step = nil, stepIdle
	return pkt
}

func (p *Parser) resync() byte {
	p.step = stepAwaitSync
	return SyncREQ
}
