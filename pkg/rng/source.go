package rng

import (
	"errors"
	"math/rand"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/reflex/pkg/button"
)

// DefaultAttempts is the number of draws Retrying tries.
const DefaultAttempts = 8

var (
	// ErrTransient indicates the generator flagged a recoverable fault
	// (seed or clock error) which was cleared. The draw may be retried.
	ErrTransient = errors.New("transient random source error")
	// ErrExhausted indicates every retry reported a transient error.
	ErrExhausted = errors.New("random source keeps failing")
)

// Source produces uniformly distributed 32-bit values.
type Source interface {
	Next() (uint32, error)
}

// SourceFunc is func form of Source.
type SourceFunc func() (uint32, error)

// Next implements Source.
func (f SourceFunc) Next() (uint32, error) {
	return f()
}

type mathSource struct {
	lock sync.Mutex
	rnd  *rand.Rand
}

// NewMathSource creates a pseudo random Source.
func NewMathSource(seed int64) Source {
	return &mathSource{rnd: rand.New(rand.NewSource(seed))}
}

func (s *mathSource) Next() (uint32, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.rnd.Uint32(), nil
}

// Retrying retries draws which fail with ErrTransient.
type Retrying struct {
	Source   Source
	Attempts int
}

// NewRetrying wraps src with DefaultAttempts.
func NewRetrying(src Source) *Retrying {
	return &Retrying{Source: src, Attempts: DefaultAttempts}
}

// Next implements Source.
func (r *Retrying) Next() (uint32, error) {
	attempts := r.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	for n := 1; n <= attempts; n++ {
		v, err := r.Source.Next()
		if err == nil || !errors.Is(err, ErrTransient) {
			return v, err
		}
		glog.Warningf("random draw %d/%d: %v", n, attempts, err)
	}
	return 0, ErrExhausted
}

// DrawColor draws one value and maps it to a color.
func DrawColor(src Source) (button.Color, error) {
	v, err := src.Next()
	if err != nil {
		return button.NoPress, err
	}
	return ColorOf(v), nil
}
