package leaderboard

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Record layout.
const (
	NameLen    = 3
	RecordSize = NameLen + 2
	MaxScore   = 9999
)

var (
	// ErrInvalidName indicates a name which is not three letters A-Z.
	ErrInvalidName = errors.New("name must be 3 letters A-Z")
	// ErrScoreOutOfRange indicates a score not in (0, MaxScore).
	ErrScoreOutOfRange = errors.New("score out of range")
)

// Name is a player's initials.
type Name [NameLen]byte

// ParseName parses initials, upper casing letters.
func ParseName(s string) (Name, error) {
	var n Name
	s = strings.ToUpper(s)
	if len(s) != NameLen {
		return n, ErrInvalidName
	}
	for i := 0; i < NameLen; i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return n, ErrInvalidName
		}
		n[i] = s[i]
	}
	return n, nil
}

func (n Name) String() string {
	return string(n[:])
}

// ValidScore reports whether a score can be stored.
func ValidScore(score uint16) bool {
	return score > 0 && score < MaxScore
}

// Record is a ranked player score.
type Record struct {
	Name  Name
	Score uint16
}

// Valid reports whether the record holds a storable score.
func (r Record) Valid() bool {
	return ValidScore(r.Score)
}

// Encode returns the stored form: name, then score big-endian.
func (r Record) Encode() []byte {
	b := make([]byte, RecordSize)
	copy(b, r.Name[:])
	binary.BigEndian.PutUint16(b[NameLen:], r.Score)
	return b
}

// DecodeRecord decodes the stored form.
func DecodeRecord(b []byte) (Record, error) {
	var r Record
	if len(b) != RecordSize {
		return r, fmt.Errorf("record needs %d bytes, got %d", RecordSize, len(b))
	}
	copy(r.Name[:], b)
	r.Score = binary.BigEndian.Uint16(b[NameLen:])
	return r, nil
}

func (r Record) String() string {
	return fmt.Sprintf("%s %d", r.Name, r.Score)
}
