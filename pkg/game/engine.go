package game

import (
	"context"
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/reflex/pkg/button"
	"github.com/robotalks/reflex/pkg/rng"
	"github.com/robotalks/reflex/pkg/timing"
)

// Display drives the color indicators.
type Display interface {
	SetIndicator(c button.Color, active bool) error
}

// Events delivers button presses until a deadline.
type Events interface {
	Poll(ctx context.Context, deadline timing.Millis) (button.Color, bool, error)
}

// Reporter receives the result of every finished game.
type Reporter interface {
	Report(ctx context.Context, r *Result) error
}

// Engine runs the game state machine.
type Engine struct {
	Config
	Random   rng.Source
	Display  Display
	Events   Events
	Clock    timing.Clock
	Reporter Reporter

	// OnState is invoked on every state change.
	OnState func(*Session)
}

// NewSession starts a game at level 1.
func (e *Engine) NewSession() *Session {
	s := &Session{Level: 1}
	e.enter(s, Idle)
	return s
}

func (e *Engine) enter(s *Session, state State) {
	s.State = state
	glog.V(2).Infof("level %d: %s", s.Level, state)
	if fn := e.OnState; fn != nil {
		fn(s)
	}
}

// Generate brings the sequence to the length of the current level,
// extending it or, with Regenerate, drawing it anew.
func (e *Engine) Generate(s *Session) error {
	e.enter(s, Generating)
	if e.Regenerate {
		s.Sequence.Reset()
	}
	for s.Sequence.Len() < s.Level {
		c, err := rng.DrawColor(e.Random)
		if err != nil {
			return fmt.Errorf("generate level %d: %w", s.Level, err)
		}
		if err := s.Sequence.Append(c); err != nil {
			return err
		}
	}
	return nil
}

// ShowSequence shows the sequence one indicator at a time.
func (e *Engine) ShowSequence(ctx context.Context, s *Session) error {
	e.enter(s, Displaying)
	for i := 0; i < s.Sequence.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		c := s.Sequence.At(i)
		if err := e.Display.SetIndicator(c, true); err != nil {
			return fmt.Errorf("indicator %s on: %w", c, err)
		}
		e.Clock.Sleep(e.On)
		if err := e.Display.SetIndicator(c, false); err != nil {
			return fmt.Errorf("indicator %s off: %w", c, err)
		}
		e.Clock.Sleep(e.Off)
	}
	return nil
}

// AwaitReply collects one press per sequence element within a single
// reply window. It returns TimedOut if the window closes first,
// otherwise Verifying.
func (e *Engine) AwaitReply(ctx context.Context, s *Session) (State, error) {
	e.enter(s, AwaitingReply)
	s.Replay.Reset()
	deadline := timing.DeadlineAfter(e.Clock, e.Window)
	for s.Replay.Len() < s.Sequence.Len() {
		c, ok, err := e.Events.Poll(ctx, deadline)
		if err != nil {
			return s.State, err
		}
		if !ok {
			return TimedOut, nil
		}
		if err := s.Replay.Append(c); err != nil {
			return s.State, err
		}
	}
	return Verifying, nil
}

// Verify compares the replay with the sequence and advances the level
// on a match.
func (e *Engine) Verify(s *Session) State {
	e.enter(s, Verifying)
	if !s.Replay.Equal(&s.Sequence) {
		return Mismatch
	}
	s.Level++
	if s.Level > Capacity {
		return Won
	}
	return LevelUp
}

// PlayRound plays the current level and returns LevelUp or a terminal
// state.
func (e *Engine) PlayRound(ctx context.Context, s *Session) (State, error) {
	if err := e.Generate(s); err != nil {
		return s.State, err
	}
	if err := e.ShowSequence(ctx, s); err != nil {
		return s.State, err
	}
	e.Clock.Sleep(e.Pause)
	state, err := e.AwaitReply(ctx, s)
	if err != nil || state == TimedOut {
		if err == nil {
			e.enter(s, state)
		}
		return state, err
	}
	state = e.Verify(s)
	e.enter(s, state)
	return state, nil
}

// Play runs a game until it ends and reports the result.
func (e *Engine) Play(ctx context.Context) (*Result, error) {
	s := e.NewSession()
	for {
		state, err := e.PlayRound(ctx, s)
		if err != nil {
			return nil, err
		}
		if state.Terminal() {
			break
		}
	}
	r := &Result{
		Outcome:        s.State,
		Level:          min(s.Level, Capacity),
		Completed:      s.Completed(),
		PointsPerLevel: e.PointsPerLevel,
		Sequence:       s.Sequence.Colors(),
		Replay:         s.Replay.Colors(),
	}
	glog.Infof("game over: %s after %d levels, score %d", r.Outcome, r.Completed, r.Score())
	if e.Reporter != nil {
		if err := e.Reporter.Report(ctx, r); err != nil {
			return r, fmt.Errorf("report result: %w", err)
		}
	}
	return r, nil
}
