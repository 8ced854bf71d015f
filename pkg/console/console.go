// Package console is the player facing text terminal: key input, name
// entry and rendering of indicators and the leaderboard.
package console

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/robotalks/reflex/pkg/button"
	"github.com/robotalks/reflex/pkg/leaderboard"
)

// Console reads keys and writes text.
type Console struct {
	in  *bufio.Reader
	out io.Writer

	lock    sync.Mutex
	paints  map[button.Color]*color.Color
	lit     map[button.Color]bool
	noColor bool
}

// New creates a Console.
func New(in io.Reader, out io.Writer) *Console {
	return &Console{
		in:  bufio.NewReader(in),
		out: out,
		paints: map[button.Color]*color.Color{
			button.White:  color.New(color.BgWhite, color.FgBlack),
			button.Yellow: color.New(color.BgYellow, color.FgBlack),
			button.Green:  color.New(color.BgGreen, color.FgBlack),
			button.Blue:   color.New(color.BgBlue, color.FgWhite),
			button.Red:    color.New(color.BgRed, color.FgWhite),
		},
		lit: make(map[button.Color]bool),
	}
}

// DisableColor renders indicators as plain text.
func (c *Console) DisableColor() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.noColor = true
	for _, p := range c.paints {
		p.DisableColor()
	}
}

// Printf writes formatted text.
func (c *Console) Printf(format string, args ...interface{}) {
	c.lock.Lock()
	defer c.lock.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

// ReadKey reads one key.
func (c *Console) ReadKey() (byte, error) {
	return c.in.ReadByte()
}

// Upper upper-cases a letter and reports whether b is a letter.
func Upper(b byte) (byte, bool) {
	switch {
	case b >= 'a' && b <= 'z':
		return b - 'a' + 'A', true
	case b >= 'A' && b <= 'Z':
		return b, true
	}
	return 0, false
}

// ReadUppercaseLetter reads keys until a letter, echoes and returns it
// upper cased.
func (c *Console) ReadUppercaseLetter() (byte, error) {
	for {
		b, err := c.ReadKey()
		if err != nil {
			return 0, err
		}
		if letter, ok := Upper(b); ok {
			c.Printf("%c", letter)
			return letter, nil
		}
	}
}

// ReadInitials prompts for and reads a player name.
func (c *Console) ReadInitials() (leaderboard.Name, error) {
	var name leaderboard.Name
	c.Printf("\nNEW HIGH SCORE! ENTER INITIALS: ")
	for i := range name {
		letter, err := c.ReadUppercaseLetter()
		if err != nil {
			return name, err
		}
		name[i] = letter
	}
	c.Printf("\n")
	return name, nil
}

// ShowIndicator lights or clears an indicator and redraws the row.
func (c *Console) ShowIndicator(col button.Color, active bool) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.lit[col] = active
	var sb strings.Builder
	sb.WriteString("\r")
	for _, b := range button.Colors {
		label := fmt.Sprintf(" %c ", b.Letter())
		switch {
		case !c.lit[b]:
			sb.WriteString(" . ")
		case c.noColor:
			sb.WriteString(label)
		default:
			sb.WriteString(c.paints[b].Sprint(label))
		}
	}
	_, err := io.WriteString(c.out, sb.String())
	return err
}

// SetIndicator is ShowIndicator, so a Console can be a game display.
func (c *Console) SetIndicator(col button.Color, active bool) error {
	return c.ShowIndicator(col, active)
}

// RenderLeaderboard draws the records in a box.
func (c *Console) RenderLeaderboard(entries []leaderboard.Record) {
	const width = 20
	var sb strings.Builder
	line := strings.Repeat("═", width)
	sb.WriteString("\n╔" + line + "╗\n")
	sb.WriteString(fmt.Sprintf("║%-*s║\n", width, "    HIGH SCORES"))
	sb.WriteString("╠" + line + "╣\n")
	for i := 0; i < leaderboard.Capacity; i++ {
		row := fmt.Sprintf(" %2d. ---     ----", i+1)
		if i < len(entries) {
			row = fmt.Sprintf(" %2d. %s  %6d", i+1, entries[i].Name, entries[i].Score)
		}
		sb.WriteString(fmt.Sprintf("║%-*s║\n", width, row))
	}
	sb.WriteString("╚" + line + "╝\n")
	c.lock.Lock()
	defer c.lock.Unlock()
	io.WriteString(c.out, sb.String())
}
