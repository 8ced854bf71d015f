package env

import (
	"context"
	"sync"

	"github.com/robotalks/reflex/pkg/arcade"
	"github.com/robotalks/reflex/pkg/board"
	"github.com/robotalks/reflex/pkg/console"
	"github.com/robotalks/reflex/pkg/leaderboard"
)

type initials struct {
	name leaderboard.Name
	err  error
}

// consoleNames reads initials from a console which nothing else reads.
// An entry abandoned on timeout is handed to the next request.
type consoleNames struct {
	console *console.Console

	lock    sync.Mutex
	pending chan initials
}

func (n *consoleNames) ReadInitials(ctx context.Context) (leaderboard.Name, error) {
	n.lock.Lock()
	ch := n.pending
	if ch == nil {
		ch = make(chan initials, 1)
		n.pending = ch
		go func() {
			name, err := n.console.ReadInitials()
			ch <- initials{name, err}
		}()
	}
	n.lock.Unlock()
	select {
	case r := <-ch:
		n.lock.Lock()
		n.pending = nil
		n.lock.Unlock()
		return r.name, r.err
	case <-ctx.Done():
		return leaderboard.Name{}, ctx.Err()
	}
}

// NameEntry returns how initials are collected on this cabinet.
func (e *Env) NameEntry() arcade.NameEntry {
	if sim, ok := e.Board.(*board.Sim); ok {
		return sim
	}
	return &consoleNames{console: e.Console}
}
