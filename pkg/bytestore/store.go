package bytestore

import (
	"context"
	"flag"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/time/rate"

	"github.com/robotalks/reflex/pkg/timing"
)

// Defaults.
const (
	DefaultTimeout      = 50 * time.Millisecond
	DefaultPollInterval = time.Millisecond
	DefaultSettle       = 5 * time.Millisecond
)

// Config defines the byte store timing.
type Config struct {
	Timeout time.Duration
	Settle  time.Duration
}

var defaultConfig = Config{
	Timeout: DefaultTimeout,
	Settle:  DefaultSettle,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.DurationVar(&defaultConfig.Timeout, "store-timeout", defaultConfig.Timeout, "Longest wait for a byte store status flag.")
	flag.DurationVar(&defaultConfig.Settle, "store-settle", defaultConfig.Settle, "Minimum interval between byte store operations.")
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

// NewStore creates a Store using the config.
func (c *Config) NewStore(ctl Controller, clock timing.Clock) *Store {
	s := NewStore(ctl, clock, c.Settle)
	s.Timeout = c.Timeout
	return s
}

// Store reads and writes single bytes of a 16-bit addressed memory
// device through a Controller. Operations are serialized and paced so
// consecutive operations are at least the settle time apart.
type Store struct {
	Controller   Controller
	Target       uint8
	Clock        timing.Clock
	Timeout      time.Duration
	PollInterval time.Duration

	pacer *rate.Limiter
	lock  sync.Mutex
}

// NewStore creates a Store for the device at DeviceAddr.
func NewStore(ctl Controller, clock timing.Clock, settle time.Duration) *Store {
	limit := rate.Inf
	if settle > 0 {
		limit = rate.Every(settle)
	}
	return &Store{
		Controller:   ctl,
		Target:       DeviceAddr,
		Clock:        clock,
		Timeout:      DefaultTimeout,
		PollInterval: DefaultPollInterval,
		pacer:        rate.NewLimiter(limit, 1),
	}
}

// Put stores one byte in a single auto-terminated transfer of
// address high, address low and data.
func (s *Store) Put(ctx context.Context, addr uint16, data byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.pacer.Wait(ctx); err != nil {
		return err
	}
	const op = "write"
	if err := s.wait(ctx, op, addr, Busy, false); err != nil {
		return err
	}
	s.Controller.Clear(STOPF | NACKF)
	s.Controller.Start(Transfer{Target: s.Target, NBytes: 3, AutoEnd: true})
	for _, b := range []byte{byte(addr >> 8), byte(addr), data} {
		if err := s.wait(ctx, op, addr, TXIS, true); err != nil {
			return err
		}
		s.Controller.WriteData(b)
	}
	if err := s.wait(ctx, op, addr, STOPF, true); err != nil {
		return err
	}
	s.Controller.Clear(STOPF)
	glog.V(3).Infof("store %#04x <- %#02x", addr, data)
	return nil
}

// Get loads one byte. The address is sent in a transfer held
// open, then a repeated start reads a single byte.
func (s *Store) Get(ctx context.Context, addr uint16) (byte, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.pacer.Wait(ctx); err != nil {
		return 0, err
	}
	const op = "read"
	if err := s.wait(ctx, op, addr, Busy, false); err != nil {
		return 0, err
	}
	s.Controller.Clear(STOPF | NACKF)
	s.Controller.Start(Transfer{Target: s.Target, NBytes: 2})
	for _, b := range []byte{byte(addr >> 8), byte(addr)} {
		if err := s.wait(ctx, op, addr, TXIS, true); err != nil {
			return 0, err
		}
		s.Controller.WriteData(b)
	}
	if err := s.wait(ctx, op, addr, TC, true); err != nil {
		return 0, err
	}
	s.Controller.Start(Transfer{Target: s.Target, NBytes: 1, Read: true, AutoEnd: true})
	if err := s.wait(ctx, op, addr, RXNE, true); err != nil {
		return 0, err
	}
	data := s.Controller.ReadData()
	if err := s.wait(ctx, op, addr, STOPF, true); err != nil {
		return 0, err
	}
	s.Controller.Clear(STOPF | NACKF)
	glog.V(3).Infof("store %#04x -> %#02x", addr, data)
	return data, nil
}

// wait polls until flag reaches the wanted state, the device NACKs or
// the timeout runs out.
func (s *Store) wait(ctx context.Context, op string, addr uint16, flag Flags, set bool) error {
	interval := s.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	deadline := timing.DeadlineAfter(s.Clock, timeout)
	for {
		status := s.Controller.Status()
		if set && status&NACKF != 0 {
			s.Controller.Clear(STOPF | NACKF)
			return fmt.Errorf("%s %#04x: %w", op, addr, ErrNack)
		}
		if (status&flag != 0) == set {
			return nil
		}
		if deadline.Reached(s.Clock.Now()) {
			err := &UnresponsiveError{Op: op, Addr: addr, Waiting: flag, Clear: !set, After: timeout}
			glog.Warning(err)
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		s.Clock.Sleep(interval)
	}
}
