package arcade

import (
	"flag"
	"time"

	"github.com/robotalks/reflex/pkg/board"
	"github.com/robotalks/reflex/pkg/button"
	"github.com/robotalks/reflex/pkg/game"
	"github.com/robotalks/reflex/pkg/leaderboard"
	"github.com/robotalks/reflex/pkg/timing"
)

// Config defines the cabinet behavior between games.
type Config struct {
	Cabinet     string
	Flash       time.Duration
	NameTimeout time.Duration
	Games       int
}

var defaultConfig = Config{
	Flash:       1500 * time.Millisecond,
	NameTimeout: time.Minute,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.DurationVar(&defaultConfig.Flash, "flash", defaultConfig.Flash, "How long all indicators flash when a game ends.")
	flag.DurationVar(&defaultConfig.NameTimeout, "name-timeout", defaultConfig.NameTimeout, "Time to enter initials for a high score.")
	flag.IntVar(&defaultConfig.Games, "games", defaultConfig.Games, "Stop after this many games, 0 for no limit.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewCabinet creates a Cabinet using the config. The engine draws from
// and displays on the board and reports to the cabinet.
func (c *Config) NewCabinet(b board.Board, engine *game.Engine, mb *button.Mailbox, scores *leaderboard.Board, clock timing.Clock) *Cabinet {
	cab := &Cabinet{
		Config:  *c,
		Board:   b,
		Engine:  engine,
		Mailbox: mb,
		Events:  engine.Events,
		Scores:  scores,
		Clock:   clock,
	}
	cab.status.Cabinet = c.Cabinet
	cab.status.State = "attract"
	engine.Reporter = cab
	engine.OnState = cab.stateChanged
	return cab
}
