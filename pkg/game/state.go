package game

import (
	"fmt"

	"github.com/robotalks/reflex/pkg/button"
)

// State is a step of the game state machine.
type State int

// States.
const (
	Idle State = iota
	Generating
	Displaying
	AwaitingReply
	Verifying
	LevelUp
	TimedOut
	Mismatch
	Won
)

var stateNames = [...]string{
	"idle",
	"generating",
	"displaying",
	"awaiting-reply",
	"verifying",
	"level-up",
	"timed-out",
	"mismatch",
	"won",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether the game ends in this state.
func (s State) Terminal() bool {
	return s == TimedOut || s == Mismatch || s == Won
}

// Session is the state of one game.
type Session struct {
	Level    int
	State    State
	Sequence Sequence
	Replay   Sequence
}

// Completed returns the number of levels passed.
func (s *Session) Completed() int {
	return s.Level - 1
}

// Result is the outcome of a finished game.
type Result struct {
	Outcome        State
	Level          int
	Completed      int
	PointsPerLevel int
	Sequence       []button.Color
	Replay         []button.Color
}

// MaxScore is the highest score a game reports; larger totals are
// capped so they still fit a leaderboard slot.
const MaxScore = 9998

// Score is the final score of the game, in [0, MaxScore].
func (r *Result) Score() uint16 {
	score := r.Completed * r.PointsPerLevel
	switch {
	case score < 0:
		return 0
	case score > MaxScore:
		return MaxScore
	}
	return uint16(score)
}
