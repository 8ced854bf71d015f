package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/reflex/pkg/button"
	"github.com/robotalks/reflex/pkg/rng"
	"github.com/robotalks/reflex/pkg/timing"
)

type indicatorChange struct {
	color  button.Color
	active bool
	at     timing.Millis
}

type recordingDisplay struct {
	clock   timing.Clock
	changes []indicatorChange
}

func (d *recordingDisplay) SetIndicator(c button.Color, active bool) error {
	d.changes = append(d.changes, indicatorChange{color: c, active: active, at: d.clock.Now()})
	return nil
}

type scriptedEvents struct {
	presses []button.Color
	clock   *timing.ManualClock
}

func (e *scriptedEvents) Poll(ctx context.Context, deadline timing.Millis) (button.Color, bool, error) {
	if len(e.presses) == 0 {
		e.clock.Advance(deadline.Until(e.clock.Now()))
		return button.NoPress, false, nil
	}
	c := e.presses[0]
	e.presses = e.presses[1:]
	return c, true, nil
}

// colorValues returns random values drawing the given colors.
func colorValues(colors ...button.Color) rng.Source {
	return rng.SourceFunc(func() (uint32, error) {
		c := colors[0]
		colors = append(colors[1:], c)
		return rng.Partition[c-1].Low, nil
	})
}

type recordingReporter struct {
	results []*Result
}

func (r *recordingReporter) Report(ctx context.Context, res *Result) error {
	r.results = append(r.results, res)
	return nil
}

func newTestEngine(random rng.Source, presses ...button.Color) (*Engine, *recordingDisplay, *scriptedEvents) {
	clock := timing.NewManualClock(0)
	display := &recordingDisplay{clock: clock}
	events := &scriptedEvents{presses: presses, clock: clock}
	return NewConfig().NewEngine(random, display, events, clock), display, events
}

func TestSequenceAppendOverflow(t *testing.T) {
	var s Sequence
	for i := 0; i < Capacity; i++ {
		require.NoError(t, s.Append(button.Green))
	}
	require.Equal(t, ErrAppendOverflow, s.Append(button.Red))
	require.Equal(t, Capacity, s.Len())
	require.Equal(t, button.Green, s.At(Capacity-1))
	s.Reset()
	require.Zero(t, s.Len())
	require.Empty(t, s.Colors())
}

func TestGenerateLength(t *testing.T) {
	e, _, _ := newTestEngine(rng.NewMathSource(7))
	s := e.NewSession()
	for level := 1; level <= 5; level++ {
		s.Level = level
		require.NoError(t, e.Generate(s))
		require.Equal(t, level, s.Sequence.Len())
		for _, c := range s.Sequence.Colors() {
			require.True(t, c.Valid())
		}
	}
}

func TestGenerateExtendsOrRegenerates(t *testing.T) {
	e, _, _ := newTestEngine(colorValues(button.Red, button.Blue, button.White, button.Green))
	s := e.NewSession()
	require.NoError(t, e.Generate(s))
	s.Level = 2
	require.NoError(t, e.Generate(s))
	require.Equal(t, []button.Color{button.Red, button.Blue}, s.Sequence.Colors())

	e.Regenerate = true
	require.NoError(t, e.Generate(s))
	require.Equal(t, []button.Color{button.White, button.Green}, s.Sequence.Colors())
}

func TestShowSequenceTiming(t *testing.T) {
	e, display, _ := newTestEngine(colorValues(button.Yellow, button.Blue))
	s := e.NewSession()
	s.Level = 2
	require.NoError(t, e.Generate(s))
	require.NoError(t, e.ShowSequence(context.Background(), s))
	require.Equal(t, []indicatorChange{
		{button.Yellow, true, 0},
		{button.Yellow, false, 1500},
		{button.Blue, true, 3000},
		{button.Blue, false, 4500},
	}, display.changes)
}

func TestFirstRound(t *testing.T) {
	testCases := []struct {
		name    string
		presses []button.Color
		state   State
		level   int
	}{
		{"correct", []button.Color{button.Green}, LevelUp, 2},
		{"wrong", []button.Color{button.Red}, Mismatch, 1},
		{"no input", nil, TimedOut, 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e, _, _ := newTestEngine(colorValues(button.Green), tc.presses...)
			s := e.NewSession()
			state, err := e.PlayRound(context.Background(), s)
			require.NoError(t, err)
			require.Equal(t, tc.state, state)
			require.Equal(t, tc.state, s.State)
			require.Equal(t, tc.level, s.Level)
		})
	}
}

func TestReplyWindowCoversWholeSequence(t *testing.T) {
	clock := timing.NewManualClock(0xffff0000)
	var mb button.Mailbox
	lines := button.NewLines(&mb)
	green, _ := button.LineOf(button.Green)
	pressed := 0
	var windowOpen timing.Millis
	clock.OnSleep = func(now timing.Millis) {
		// one press every 20s: the second arrives after the window.
		if windowOpen != 0 && now == windowOpen.Add(time.Duration(pressed+1)*20*time.Second) {
			pressed++
			lines.Raise(green)
		}
	}
	e := NewConfig().NewEngine(colorValues(button.Green), &recordingDisplay{clock: clock}, button.NewSource(&mb, clock), clock)
	e.OnState = func(s *Session) {
		if s.State == AwaitingReply {
			windowOpen = clock.Now()
		}
	}
	s := e.NewSession()
	s.Level = 2
	state, err := e.PlayRound(context.Background(), s)
	require.NoError(t, err)
	require.Equal(t, TimedOut, state)
	require.Equal(t, 1, s.Replay.Len())
}

func TestPlayToWin(t *testing.T) {
	e, _, events := newTestEngine(rng.NewMathSource(42))
	e.OnState = func(s *Session) {
		if s.State == AwaitingReply {
			events.presses = s.Sequence.Colors()
		}
	}
	reporter := &recordingReporter{}
	e.Reporter = reporter
	res, err := e.Play(context.Background())
	require.NoError(t, err)
	require.Equal(t, Won, res.Outcome)
	require.Equal(t, Capacity, res.Level)
	require.Equal(t, Capacity, res.Completed)
	require.Equal(t, uint16(320), res.Score())
	require.Len(t, res.Sequence, Capacity)
	require.Equal(t, []*Result{res}, reporter.results)
}

func TestPlayMismatchScore(t *testing.T) {
	e, _, _ := newTestEngine(colorValues(button.White, button.Red, button.Blue),
		button.White,
		button.White, button.Red,
		button.White, button.Red, button.Red)
	res, err := e.Play(context.Background())
	require.NoError(t, err)
	require.Equal(t, Mismatch, res.Outcome)
	require.Equal(t, 2, res.Completed)
	require.Equal(t, uint16(20), res.Score())
	require.Equal(t, []button.Color{button.White, button.Red, button.Red}, res.Replay)
}

func TestScoreBounds(t *testing.T) {
	testCases := []struct {
		completed int
		points    int
		score     uint16
	}{
		{0, 10, 0},
		{32, 10, 320},
		{32, 312, 9984},
		{32, 313, MaxScore},
		{32, 2048, MaxScore},
		{5, -10, 0},
	}
	for _, tc := range testCases {
		r := &Result{Completed: tc.completed, PointsPerLevel: tc.points}
		require.Equal(t, tc.score, r.Score(), "%d x %d", tc.completed, tc.points)
	}
}

func TestPlayCanceled(t *testing.T) {
	e, _, _ := newTestEngine(colorValues(button.White))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Play(ctx)
	require.Equal(t, context.Canceled, err)
}
