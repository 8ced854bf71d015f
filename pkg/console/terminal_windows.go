package console

import (
	"errors"
	"os"
)

// Terminal is unsupported on windows.
type Terminal struct{}

// OpenTerminal always fails on windows.
func OpenTerminal(f *os.File) (*Terminal, error) {
	return nil, errors.New("cbreak terminal not supported")
}

// Restore does nothing.
func (t *Terminal) Restore() error {
	return nil
}
