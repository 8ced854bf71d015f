package rng

import (
	"sort"

	"github.com/robotalks/reflex/pkg/button"
)

// Range is an inclusive span of random values mapped to one color.
type Range struct {
	Low   uint32
	High  uint32
	Color button.Color
}

// Partition splits the 32-bit value space into five contiguous spans.
// 2^32 is not a multiple of five, so White covers one extra value.
var Partition = []Range{
	{0x00000000, 0x33333333, button.White},
	{0x33333334, 0x66666666, button.Yellow},
	{0x66666667, 0x99999999, button.Green},
	{0x9999999A, 0xCCCCCCCC, button.Blue},
	{0xCCCCCCCD, 0xFFFFFFFF, button.Red},
}

// ColorOf maps a random value to its color.
func ColorOf(v uint32) button.Color {
	i := sort.Search(len(Partition), func(i int) bool {
		return Partition[i].High >= v
	})
	return Partition[i].Color
}
