// Package env assembles the cabinet from configuration: the board,
// the byte store with its leaderboard and the console.
package env

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/golang/glog"
	"github.com/joho/godotenv"

	"github.com/robotalks/reflex/pkg/board"
	"github.com/robotalks/reflex/pkg/button"
	"github.com/robotalks/reflex/pkg/bytestore"
	"github.com/robotalks/reflex/pkg/bytestore/eeprom"
	"github.com/robotalks/reflex/pkg/console"
	"github.com/robotalks/reflex/pkg/leaderboard"
	"github.com/robotalks/reflex/pkg/rng"
	"github.com/robotalks/reflex/pkg/timing"
)

// SimBoard selects the simulated board.
const SimBoard = "sim"

// Config defines where the cabinet hardware is.
type Config struct {
	// Cabinet identifies the cabinet in published topics.
	Cabinet string
	// BoardURL is SimBoard or a Dial URL.
	BoardURL string
	// StorePath is the EEPROM image file.
	StorePath string
	// MQTTBrokerURL e.g. mqtt://host:port/topic-prefix, empty to disable.
	MQTTBrokerURL string
	// Seed seeds the simulated random source, 0 for time based.
	Seed int64
}

var defaultConfig = Config{
	BoardURL:  SimBoard,
	StorePath: "reflex.eeprom",
}

// LoadDotEnv loads variables from the files, or from .env when none
// is given. A missing .env is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	return godotenv.Load(files...)
}

// FromEnv applies REFLEX_* variables to the config.
func (c *Config) FromEnv() error {
	if val := os.Getenv("REFLEX_CABINET"); val != "" {
		c.Cabinet = val
	}
	if val := os.Getenv("REFLEX_BOARD"); val != "" {
		c.BoardURL = val
	}
	if val := os.Getenv("REFLEX_STORE"); val != "" {
		c.StorePath = val
	}
	if val := os.Getenv("REFLEX_MQTT_URL"); val != "" {
		c.MQTTBrokerURL = val
	}
	if val := os.Getenv("REFLEX_SEED"); val != "" {
		seed, err := strconv.ParseInt(val, 0, 64)
		if err != nil {
			return fmt.Errorf("REFLEX_SEED: %w", err)
		}
		c.Seed = seed
	}
	return nil
}

// SetupFlags loads .env, applies the environment and sets command line
// flags.
func SetupFlags() {
	if err := LoadDotEnv(); err != nil {
		glog.Warningf("load .env: %v", err)
	}
	if err := defaultConfig.FromEnv(); err != nil {
		glog.Warning(err)
	}
	if defaultConfig.Cabinet == "" {
		defaultConfig.Cabinet = MachineID()
	}
	flag.StringVar(&defaultConfig.Cabinet, "cabinet", defaultConfig.Cabinet, "Cabinet ID.")
	flag.StringVar(&defaultConfig.BoardURL, "board", defaultConfig.BoardURL, "Board URL: sim, serial:///dev/ttyX?baud=N, tcp://host:port or ws://host:port/path.")
	flag.StringVar(&defaultConfig.StorePath, "store", defaultConfig.StorePath, "EEPROM image file.")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL, empty to disable publishing.")
	flag.Int64Var(&defaultConfig.Seed, "seed", defaultConfig.Seed, "Seed of the simulated random source.")
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

// Env is the assembled cabinet hardware.
type Env struct {
	Config  *Config
	Clock   timing.Clock
	Mailbox *button.Mailbox
	Lines   *button.Lines
	Events  *button.Source
	Board   board.Board
	Random  rng.Source
	Device  *eeprom.Device
	Store   *bytestore.Store
	Scores  *leaderboard.Board
	Console *console.Console

	closers []io.Closer
}

// NewEnv creates the Env. The console is the player terminal.
func (c *Config) NewEnv(con *console.Console, store *bytestore.Config) (*Env, error) {
	e := &Env{
		Config:  c,
		Clock:   timing.NewSystemClock(),
		Mailbox: &button.Mailbox{},
		Console: con,
	}
	e.Lines = button.NewLines(e.Mailbox)
	e.Events = button.NewSource(e.Mailbox, e.Clock)

	if c.BoardURL == SimBoard {
		seed := c.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		e.Board = board.NewSim(con, e.Lines, rng.NewMathSource(seed))
		glog.Info("using simulated board")
	} else {
		link, closer, err := board.Dial(c.BoardURL, e.Lines)
		if err != nil {
			return nil, fmt.Errorf("board %s: %w", c.BoardURL, err)
		}
		e.closers = append(e.closers, closer)
		e.Board = link
		glog.Infof("board link %s", c.BoardURL)
	}
	e.Random = rng.NewRetrying(e.Board)

	dev, err := eeprom.Open(c.StorePath)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.Device = dev
	e.Store = store.NewStore(dev, e.Clock)
	e.Scores = leaderboard.New(e.Store)
	return e, nil
}

// Close releases the board connection.
func (e *Env) Close() error {
	var errs []error
	for _, c := range e.closers {
		errs = append(errs, c.Close())
	}
	e.closers = nil
	return errors.Join(errs...)
}
