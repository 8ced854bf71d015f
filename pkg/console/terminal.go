//go:build !windows

package console

import (
	"fmt"
	"os"

	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
)

// Terminal switches a tty into cbreak mode so keys arrive unbuffered.
type Terminal struct {
	file  *os.File
	saved unix.Termios
}

// OpenTerminal puts the terminal in cbreak mode.
func OpenTerminal(f *os.File) (*Terminal, error) {
	t := &Terminal{file: f}
	if err := termios.Tcgetattr(f.Fd(), &t.saved); err != nil {
		return nil, fmt.Errorf("%s is not a terminal: %w", f.Name(), err)
	}
	attr := t.saved
	termios.Cfmakecbreak(&attr)
	if err := termios.Tcsetattr(f.Fd(), termios.TCIFLUSH, &attr); err != nil {
		return nil, err
	}
	return t, nil
}

// Restore returns the terminal to the mode it was opened in.
func (t *Terminal) Restore() error {
	return termios.Tcsetattr(t.file.Fd(), termios.TCIFLUSH, &t.saved)
}
