// Package arcade runs the game cabinet: it waits for a player, plays a
// game, takes initials for high scores and publishes results.
package arcade

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/robotalks/reflex/pkg/board"
	"github.com/robotalks/reflex/pkg/button"
	"github.com/robotalks/reflex/pkg/game"
	"github.com/robotalks/reflex/pkg/leaderboard"
	"github.com/robotalks/reflex/pkg/timing"
)

// startPoll is the poll window while waiting for a player.
const startPoll = time.Second

// Anonymous is recorded when no initials are entered.
var Anonymous = leaderboard.Name{'A', 'A', 'A'}

// NameEntry collects the initials of a player.
type NameEntry interface {
	ReadInitials(ctx context.Context) (leaderboard.Name, error)
}

// NameEntryFunc is func form of NameEntry.
type NameEntryFunc func(ctx context.Context) (leaderboard.Name, error)

// ReadInitials implements NameEntry.
func (f NameEntryFunc) ReadInitials(ctx context.Context) (leaderboard.Name, error) {
	return f(ctx)
}

// Renderer shows the leaderboard to players.
type Renderer interface {
	RenderLeaderboard(entries []leaderboard.Record)
}

// Publisher sends finished games and the leaderboard elsewhere.
type Publisher interface {
	PublishResult(ctx context.Context, g *Game) error
	PublishLeaderboard(ctx context.Context, cabinet string, entries []leaderboard.Record) error
}

// Game is one finished game on a cabinet.
type Game struct {
	ID      string
	Cabinet string
	At      time.Time
	Result  *game.Result
	Name    leaderboard.Name
	// Rank is the leaderboard position, -1 when the score did not enter.
	Rank int
}

// Status is a snapshot of the cabinet.
type Status struct {
	Cabinet   string    `json:"cabinet"`
	State     string    `json:"state"`
	Level     int       `json:"level"`
	Games     int       `json:"games"`
	LastScore uint16    `json:"last_score"`
	TopScore  uint16    `json:"top_score"`
	LastGame  time.Time `json:"last_game"`
}

// Cabinet ties a board, the game engine and the leaderboard together.
type Cabinet struct {
	Config
	Board     board.Board
	Engine    *game.Engine
	Mailbox   *button.Mailbox
	Events    game.Events
	Scores    *leaderboard.Board
	Names     NameEntry
	Renderer  Renderer
	Publisher Publisher
	Clock     timing.Clock

	lock   sync.RWMutex
	status Status
	last   *Game
}

// Status returns a snapshot of the cabinet.
func (c *Cabinet) Status() Status {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.status
}

// LastGame returns the most recent finished game, nil before the first.
func (c *Cabinet) LastGame() *Game {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.last
}

func (c *Cabinet) setState(state string, level int) {
	c.lock.Lock()
	c.status.State, c.status.Level = state, level
	c.lock.Unlock()
}

func (c *Cabinet) stateChanged(s *game.Session) {
	c.setState(s.State.String(), s.Level)
}

// Run plays games until ctx is done or the configured number of games
// is reached.
func (c *Cabinet) Run(ctx context.Context) error {
	if err := c.Scores.Load(ctx); err != nil {
		return fmt.Errorf("load leaderboard: %w", err)
	}
	c.updateTop()
	c.render()
	for n := 0; c.Games <= 0 || n < c.Games; n++ {
		if _, err := c.PlayOnce(ctx); err != nil {
			return err
		}
	}
	return nil
}

// PlayOnce waits for any button, then plays one game.
func (c *Cabinet) PlayOnce(ctx context.Context) (*Game, error) {
	c.setState("attract", 0)
	if err := c.waitStart(ctx); err != nil {
		return nil, err
	}
	c.Mailbox.Clear()
	if _, err := c.Engine.Play(ctx); err != nil {
		return nil, err
	}
	return c.LastGame(), nil
}

func (c *Cabinet) waitStart(ctx context.Context) error {
	c.Mailbox.Clear()
	glog.V(2).Info("waiting for a player")
	for {
		color, ok, err := c.Events.Poll(ctx, timing.DeadlineAfter(c.Clock, startPoll))
		if err != nil {
			return err
		}
		if ok {
			glog.Infof("game started with %s", color)
			return nil
		}
	}
}

// Report implements game.Reporter. It runs the end of game sequence.
func (c *Cabinet) Report(ctx context.Context, r *game.Result) error {
	g := &Game{
		ID:      uuid.New().String(),
		Cabinet: c.Cabinet,
		At:      time.Now(),
		Result:  r,
		Rank:    -1,
	}
	c.flash()

	score := r.Score()
	if c.Scores.Qualifies(score) {
		c.setState("name-entry", r.Level)
		name, err := c.readName(ctx)
		if err != nil {
			return err
		}
		g.Name = name
		if g.Rank, err = c.Scores.RecordScore(ctx, name, score); err != nil {
			glog.Errorf("record score %d for %s: %v", score, name, err)
			g.Rank = -1
		}
	}
	c.render()

	c.lock.Lock()
	c.status.State = r.Outcome.String()
	c.status.Games++
	c.status.LastScore = score
	c.status.LastGame = g.At
	c.last = g
	c.lock.Unlock()
	c.updateTop()

	if p := c.Publisher; p != nil {
		if err := p.PublishResult(ctx, g); err != nil {
			glog.Warningf("publish game %s: %v", g.ID, err)
		}
		if g.Rank >= 0 {
			if err := p.PublishLeaderboard(ctx, c.Cabinet, c.Scores.Entries()); err != nil {
				glog.Warningf("publish leaderboard: %v", err)
			}
		}
	}
	return nil
}

func (c *Cabinet) flash() {
	if c.Flash <= 0 {
		return
	}
	if err := c.Board.FlashAll(true); err != nil {
		glog.Warningf("flash all: %v", err)
		return
	}
	c.Clock.Sleep(c.Flash)
	if err := c.Board.FlashAll(false); err != nil {
		glog.Warningf("flash all: %v", err)
	}
}

func (c *Cabinet) readName(ctx context.Context) (leaderboard.Name, error) {
	if c.Names == nil {
		return Anonymous, nil
	}
	if c.NameTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.NameTimeout)
		defer cancel()
	}
	name, err := c.Names.ReadInitials(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		glog.Info("no initials entered")
		return Anonymous, nil
	}
	return name, err
}

func (c *Cabinet) updateTop() {
	entries := c.Scores.Entries()
	if len(entries) == 0 {
		return
	}
	c.lock.Lock()
	c.status.TopScore = entries[0].Score
	c.lock.Unlock()
}

func (c *Cabinet) render() {
	if c.Renderer != nil {
		c.Renderer.RenderLeaderboard(c.Scores.Entries())
	}
}
