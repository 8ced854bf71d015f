package board

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/reflex/pkg/button"
	"github.com/robotalks/reflex/pkg/console"
	"github.com/robotalks/reflex/pkg/leaderboard"
	"github.com/robotalks/reflex/pkg/rng"
)

// Sim is a Board on a text console. The keys W, Y, G, B and R raise the
// corresponding button lines and indicators are drawn on the console.
type Sim struct {
	Console *console.Console
	Lines   *button.Lines
	Random  rng.Source

	lock  sync.Mutex
	entry chan byte
}

// NewSim creates a Sim.
func NewSim(con *console.Console, lines *button.Lines, random rng.Source) *Sim {
	return &Sim{Console: con, Lines: lines, Random: random}
}

// SetIndicator implements Board.
func (s *Sim) SetIndicator(c button.Color, active bool) error {
	return s.Console.ShowIndicator(c, active)
}

// FlashAll implements Board.
func (s *Sim) FlashAll(active bool) error {
	for _, c := range button.Colors {
		if err := s.Console.ShowIndicator(c, active); err != nil {
			return err
		}
	}
	return nil
}

// Next implements Board.
func (s *Sim) Next() (uint32, error) {
	return s.Random.Next()
}

// Run implements Board. It returns nil when the console input ends.
func (s *Sim) Run(ctx context.Context) error {
	keys := make(chan byte)
	errCh := make(chan error, 1)
	go func() {
		for {
			b, err := s.Console.ReadKey()
			if err != nil {
				errCh <- err
				return
			}
			select {
			case keys <- b:
			case <-ctx.Done():
				return
			}
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		case b := <-keys:
			s.handleKey(b)
		}
	}
}

func (s *Sim) handleKey(b byte) {
	s.lock.Lock()
	entry := s.entry
	s.lock.Unlock()
	if entry != nil {
		select {
		case entry <- b:
		default:
		}
		return
	}
	letter, ok := console.Upper(b)
	if !ok {
		return
	}
	c, err := button.ParseColor(string(letter))
	if err != nil {
		glog.V(3).Infof("ignore key %q", letter)
		return
	}
	line, _ := button.LineOf(c)
	if err := s.Lines.Raise(line); err != nil {
		glog.Warningf("raise line %d: %v", line, err)
	}
}

// ReadInitials switches the keys to name entry until three letters are
// typed. Run must be running.
func (s *Sim) ReadInitials(ctx context.Context) (leaderboard.Name, error) {
	entry := make(chan byte, 8)
	s.lock.Lock()
	s.entry = entry
	s.lock.Unlock()
	defer func() {
		s.lock.Lock()
		s.entry = nil
		s.lock.Unlock()
	}()

	var name leaderboard.Name
	s.Console.Printf("\nNEW HIGH SCORE! ENTER INITIALS: ")
	for i := 0; i < len(name); {
		select {
		case <-ctx.Done():
			return name, ctx.Err()
		case b := <-entry:
			if letter, ok := console.Upper(b); ok {
				s.Console.Printf("%c", letter)
				name[i] = letter
				i++
			}
		}
	}
	s.Console.Printf("\n")
	return name, nil
}
