package game

import (
	"flag"
	"time"

	"github.com/robotalks/reflex/pkg/rng"
	"github.com/robotalks/reflex/pkg/timing"
)

// Config defines the game timing and scoring.
type Config struct {
	Window         time.Duration
	On             time.Duration
	Off            time.Duration
	Pause          time.Duration
	Regenerate     bool
	PointsPerLevel int
}

var defaultConfig = Config{
	Window:         30 * time.Second,
	On:             1500 * time.Millisecond,
	Off:            1500 * time.Millisecond,
	Pause:          3 * time.Second,
	PointsPerLevel: 10,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.DurationVar(&defaultConfig.Window, "reply-window", defaultConfig.Window, "Time to replay a whole sequence.")
	flag.DurationVar(&defaultConfig.On, "on-time", defaultConfig.On, "Time an indicator stays on.")
	flag.DurationVar(&defaultConfig.Off, "off-time", defaultConfig.Off, "Time between indicators.")
	flag.DurationVar(&defaultConfig.Pause, "pause", defaultConfig.Pause, "Pause after display before the reply window opens.")
	flag.BoolVar(&defaultConfig.Regenerate, "regenerate", defaultConfig.Regenerate, "Draw a new sequence every level instead of extending it.")
	flag.IntVar(&defaultConfig.PointsPerLevel, "points", defaultConfig.PointsPerLevel, "Points per completed level.")
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

// NewEngine creates an Engine using the config.
func (c *Config) NewEngine(random rng.Source, display Display, events Events, clock timing.Clock) *Engine {
	return &Engine{
		Config:  *c,
		Random:  random,
		Display: display,
		Events:  events,
		Clock:   clock,
	}
}
