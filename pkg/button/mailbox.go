package button

import "sync"

// Mailbox holds at most one button event. A newer event overwrites an
// unconsumed older one.
//
// Post is the only writer and runs in edge handler context. Take is the
// only reader. The lock stands in for masking interrupts and is held
// just for the read-and-clear.
type Mailbox struct {
	lock  sync.Mutex
	color Color
	ready bool
}

// Post stores the color and marks the event ready.
func (m *Mailbox) Post(c Color) {
	m.lock.Lock()
	m.color = c
	m.ready = true
	m.lock.Unlock()
}

// Take consumes the pending event if any.
func (m *Mailbox) Take() (Color, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if !m.ready {
		return NoPress, false
	}
	c := m.color
	m.color, m.ready = NoPress, false
	return c, true
}

// Clear drops any pending event.
func (m *Mailbox) Clear() {
	m.Take()
}
