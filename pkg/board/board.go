// Package board connects the game to the physical (or simulated) game
// board: button lines in, indicators and random values out.
package board

import (
	"context"

	"github.com/robotalks/reflex/pkg/button"
)

// Board is the hardware the game runs on.
type Board interface {
	SetIndicator(c button.Color, active bool) error
	FlashAll(active bool) error
	// Next draws a value from the hardware random generator.
	Next() (uint32, error)
	// Run delivers button edges to the lines until ctx is done.
	Run(ctx context.Context) error
}

// Link protocol codes.
const (
	// CodeSetIndicator data: [color, on].
	CodeSetIndicator byte = 0x02
	// CodeFlashAll data: [on].
	CodeFlashAll byte = 0x04
	// CodeRandom replies 4 bytes, big-endian. It fails when the
	// generator flagged a seed or clock error.
	CodeRandom byte = 0x06
	// CodeButtonEdge is an event, data: [line].
	CodeButtonEdge byte = 0x82
)

func flag(on bool) byte {
	if on {
		return 1
	}
	return 0
}
