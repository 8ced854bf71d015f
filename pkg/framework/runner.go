package framework

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/golang/glog"
)

// ErrForcedExit is returned by Wait after a second stop signal.
var ErrForcedExit = errors.New("forced exit")

type namedRunnable struct {
	Runnable
	name string
}

func (r *namedRunnable) Name() string {
	return r.name
}

// NamedRun gives a Runnable a name for logs and errors.
func NamedRun(name string, runnable Runnable) Runnable {
	return &namedRunnable{Runnable: runnable, name: name}
}

type exit struct {
	name string
	err  error
}

// Runner runs Runnables side by side. A Runnable failing stops all of
// them, and so does Stop.
type Runner struct {
	ctx    context.Context
	cancel context.CancelFunc
	exits  chan exit
	forced chan struct{}
	count  int
}

// NewRunner creates a Runner stopped when ctx is done.
func NewRunner(ctx context.Context) *Runner {
	r := &Runner{
		exits:  make(chan exit),
		forced: make(chan struct{}),
	}
	r.ctx, r.cancel = context.WithCancel(ctx)
	return r
}

// Context is canceled when the Runner stops.
func (r *Runner) Context() context.Context {
	return r.ctx
}

// Stop asks all Runnables to stop.
func (r *Runner) Stop() {
	r.cancel()
}

// HandleSignals stops on SIGINT or SIGTERM. A second signal makes Wait
// return without waiting.
func (r *Runner) HandleSignals() *Runner {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		glog.Infof("%s: stopping", sig)
		r.Stop()
		sig = <-sigCh
		glog.Errorf("%s: exit now", sig)
		close(r.forced)
	}()
	return r
}

// Go starts Runnables.
func (r *Runner) Go(runners ...Runnable) *Runner {
	for _, runner := range runners {
		name := "#" + strconv.Itoa(r.count)
		if named, ok := runner.(Named); ok {
			name = named.Name()
		}
		r.count++
		go r.run(name, runner)
	}
	return r
}

func (r *Runner) run(name string, runner Runnable) {
	glog.V(4).Infof("%s started", name)
	err := runner.Run(r.ctx)
	switch {
	case err == nil || errors.Is(err, context.Canceled):
		glog.V(4).Infof("%s stopped", name)
		err = nil
	default:
		glog.Errorf("%s failed: %v", name, err)
		r.Stop()
	}
	r.exits <- exit{name: name, err: err}
}

// Wait returns when all Runnables returned. Failures are collected in
// an AggregatedError, each prefixed with the Runnable name.
func (r *Runner) Wait() error {
	defer r.Stop()
	var errs AggregatedError
	for n := 0; n < r.count; n++ {
		select {
		case <-r.forced:
			return ErrForcedExit
		case e := <-r.exits:
			if e.err != nil {
				errs.Add(fmt.Errorf("%s: %w", e.name, e.err))
			}
		}
	}
	return errs.Aggregate()
}

// RunWithContextCancel runs fn, which can't take a context, until it
// returns. When ctx is done first, onCancel is called to make fn return
// and context.Canceled is returned.
func RunWithContextCancel(ctx context.Context, onCancel func(), fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
	}
	if onCancel != nil {
		onCancel()
	}
	<-done
	return context.Canceled
}
