package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDeadlineReached(t *testing.T) {
	testCases := []struct {
		name    string
		now     Millis
		window  time.Duration
		elapsed time.Duration
		reached bool
	}{
		{"before", 1000, 30 * time.Second, 29999 * time.Millisecond, false},
		{"exactly", 1000, 30 * time.Second, 30 * time.Second, true},
		{"after", 1000, 30 * time.Second, 31 * time.Second, true},
		{"across wrap before", 0xffffff00, 30 * time.Second, time.Second, false},
		{"across wrap after", 0xffffff00, 30 * time.Second, 30001 * time.Millisecond, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewManualClock(tc.now)
			deadline := DeadlineAfter(c, tc.window)
			c.Advance(tc.elapsed)
			require.Equal(t, tc.reached, deadline.Reached(c.Now()))
		})
	}
}

func TestUntil(t *testing.T) {
	deadline := Millis(0xfffffff0).Add(100 * time.Millisecond)
	require.Equal(t, Millis(0x54), deadline)
	require.Equal(t, 100*time.Millisecond, deadline.Until(0xfffffff0))
	require.Equal(t, time.Duration(0), deadline.Until(0x60))
}

func TestManualClockOnSleep(t *testing.T) {
	c := NewManualClock(5)
	var seen []Millis
	c.OnSleep = func(now Millis) { seen = append(seen, now) }
	c.Sleep(time.Millisecond)
	c.Sleep(10 * time.Millisecond)
	require.Equal(t, []Millis{6, 16}, seen)
}
