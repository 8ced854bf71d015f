package game

import (
	"errors"

	"github.com/robotalks/reflex/pkg/button"
)

// Capacity is the longest sequence, and so the last level.
const Capacity = 32

// ErrAppendOverflow indicates an append to a full Sequence.
var ErrAppendOverflow = errors.New("sequence full")

// Sequence is a bounded list of colors.
type Sequence struct {
	colors [Capacity]button.Color
	length int
}

// Append adds a color. A full sequence is left unchanged.
func (s *Sequence) Append(c button.Color) error {
	if s.length >= Capacity {
		return ErrAppendOverflow
	}
	s.colors[s.length] = c
	s.length++
	return nil
}

// Len returns the number of colors.
func (s *Sequence) Len() int {
	return s.length
}

// At returns the color at index i.
func (s *Sequence) At(i int) button.Color {
	return s.colors[i]
}

// Equal compares two sequences element-wise.
func (s *Sequence) Equal(o *Sequence) bool {
	if s.length != o.length {
		return false
	}
	for i := 0; i < s.length; i++ {
		if s.colors[i] != o.colors[i] {
			return false
		}
	}
	return true
}

// Reset empties the sequence.
func (s *Sequence) Reset() {
	s.length = 0
}

// Colors returns a copy of the colors.
func (s *Sequence) Colors() []button.Color {
	return append([]button.Color(nil), s.colors[:s.length]...)
}
