package button

import (
	"errors"
	"sync"
)

// Line is the number of an edge-triggered input line.
type Line uint8

// ErrUnknownLine indicates an edge on a line not wired to a button.
var ErrUnknownLine = errors.New("unknown line")

var lineColors = map[Line]Color{
	3:  White,
	5:  Yellow,
	4:  Green,
	12: Blue,
	13: Red,
}

// ColorOf returns the color wired to a line.
func ColorOf(line Line) (Color, bool) {
	c, ok := lineColors[line]
	return c, ok
}

// LineOf returns the line a color is wired to.
func LineOf(c Color) (Line, bool) {
	for line, color := range lineColors {
		if color == c {
			return line, true
		}
	}
	return 0, false
}

// Lines models the five rising-edge inputs and their pending indicators.
// Handled edges are delivered into the Mailbox.
type Lines struct {
	Mailbox *Mailbox

	lock    sync.Mutex
	pending uint32
}

// NewLines creates Lines delivering into mb.
func NewLines(mb *Mailbox) *Lines {
	return &Lines{Mailbox: mb}
}

// Raise latches a rising edge on the line and runs the edge handler.
func (l *Lines) Raise(line Line) error {
	if _, ok := lineColors[line]; !ok {
		return ErrUnknownLine
	}
	l.lock.Lock()
	l.pending |= 1 << line
	l.lock.Unlock()
	l.Edge(line)
	return nil
}

// Edge is the edge handler. If the line has a pending edge, it
// acknowledges it and posts the line's color. It reports whether an
// edge was handled.
func (l *Lines) Edge(line Line) bool {
	color, ok := lineColors[line]
	if !ok {
		return false
	}
	l.lock.Lock()
	bit := uint32(1) << line
	if l.pending&bit == 0 {
		l.lock.Unlock()
		return false
	}
	l.pending &^= bit
	l.lock.Unlock()
	l.Mailbox.Post(color)
	return true
}

// Pending reports whether the line has an unacknowledged edge.
func (l *Lines) Pending(line Line) bool {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.pending&(1<<line) != 0
}
