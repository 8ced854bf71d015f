package button

import (
	"fmt"
	"strings"
)

// Color identifies a button and its indicator.
type Color uint8

// Colors are numbered as the board firmware encodes them.
const (
	NoPress Color = iota
	White
	Yellow
	Green
	Blue
	Red
)

// Colors lists all button colors in code order.
var Colors = []Color{White, Yellow, Green, Blue, Red}

var colorNames = [...]string{"none", "white", "yellow", "green", "blue", "red"}

func (c Color) String() string {
	if int(c) < len(colorNames) {
		return colorNames[c]
	}
	return fmt.Sprintf("color(%d)", uint8(c))
}

// Valid reports whether c is one of the five button colors.
func (c Color) Valid() bool {
	return c >= White && c <= Red
}

// Letter returns the single letter key for the color.
func (c Color) Letter() byte {
	if !c.Valid() {
		return '-'
	}
	return strings.ToUpper(colorNames[c])[0]
}

// ParseColor parses a color from its name or its first letter.
func ParseColor(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range Colors {
		name := colorNames[c]
		if s == name || (len(s) == 1 && s[0] == name[0]) {
			return c, nil
		}
	}
	return NoPress, fmt.Errorf("unknown color %q", s)
}
