package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, r *Runner) error {
	done := make(chan error, 1)
	go func() { done <- r.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(time.Second):
		t.Fatal("runner did not stop")
	}
	return nil
}

func untilDone(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestRunnerStopsOnFailure(t *testing.T) {
	failure := errors.New("board gone")
	r := NewRunner(context.Background()).Go(
		NamedRun("board", RunFunc(func(ctx context.Context) error { return failure })),
		NamedRun("cabinet", RunFunc(untilDone)),
	)
	err := waitFor(t, r)
	require.ErrorIs(t, err, failure)
	require.EqualError(t, err, "board: board gone")
}

func TestRunnerAggregates(t *testing.T) {
	r := NewRunner(context.Background()).Go(
		RunFunc(func(ctx context.Context) error { return errors.New("a") }),
		RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return errors.New("b")
		}),
	)
	err := waitFor(t, r)
	var agg *AggregatedError
	require.True(t, errors.As(err, &agg))
	require.Len(t, agg.Errors, 2)
	require.Contains(t, err.Error(), "#0: a")
	require.Contains(t, err.Error(), "#1: b")
}

func TestRunnerStop(t *testing.T) {
	r := NewRunner(context.Background())
	r.Go(
		RunFunc(untilDone),
		NamedRun("games", RunFunc(func(ctx context.Context) error {
			r.Stop()
			return nil
		})),
	)
	require.NoError(t, waitFor(t, r))
	require.Error(t, r.Context().Err())
}

func TestRunnerParentCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunner(ctx).Go(RunFunc(untilDone))
	cancel()
	require.NoError(t, waitFor(t, r))
}

func TestRunWithContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	go cancel()
	err := RunWithContextCancel(ctx, func() { close(release) }, func() error {
		<-release
		return nil
	})
	require.Equal(t, context.Canceled, err)

	err = RunWithContextCancel(context.Background(), nil, func() error { return errors.New("done") })
	require.EqualError(t, err, "done")
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil, nil).Aggregate())
	a := errors.New("a")
	errs.Add(a)
	require.Equal(t, a, errs.Aggregate())
	errs.Add(nil, errors.New("b"))
	require.EqualError(t, errs.Aggregate(), "a; b")
}
