package sh

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/robotalks/reflex/pkg/bytestore"
	"github.com/robotalks/reflex/pkg/bytestore/eeprom"
	"github.com/robotalks/reflex/pkg/leaderboard"
	"github.com/robotalks/reflex/pkg/timing"
)

// Image is an EEPROM image file accessed through the same byte store
// protocol the cabinet uses.
type Image struct {
	Device *eeprom.Device
	Scores *leaderboard.Board
}

// OpenImage opens the image at path, creating a blank one if missing,
// and loads the leaderboard.
func OpenImage(ctx context.Context, path string) (*Image, error) {
	dev, err := eeprom.Open(path)
	if err != nil {
		return nil, err
	}
	img := &Image{
		Device: dev,
		Scores: leaderboard.New(bytestore.NewStore(dev, timing.NewSystemClock(), 0)),
	}
	if err := img.Scores.Load(ctx); err != nil {
		return nil, err
	}
	return img, nil
}

// Record parses name and score and records them.
func (img *Image) Record(ctx context.Context, name, score string) (int, error) {
	n, err := leaderboard.ParseName(name)
	if err != nil {
		return -1, err
	}
	s, err := strconv.ParseUint(score, 10, 16)
	if err != nil {
		return -1, fmt.Errorf("invalid score %q", score)
	}
	return img.Scores.RecordScore(ctx, n, uint16(s))
}

// Dump formats n bytes from addr as a hex dump.
func (img *Image) Dump(addr uint16, n int) string {
	if rest := eeprom.Size - int(addr); n > rest {
		n = rest
	}
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = img.Device.At(addr + uint16(i))
	}
	return hex.Dump(buf)
}

// ParseAddr parses a decimal, 0x hex or 0 octal address.
func ParseAddr(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil || v >= eeprom.Size {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return uint16(v), nil
}
