package lodestar_test

import (
	"context"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/require"

	lodestar "github.com/lodestar-engine/lodestar"
)

func TestWorld_StartLoopRunsUntilCancelled(t *testing.T) {
	t.Setenv("LODESTAR_FRAME_RATE", "500")
	w := newTestWorld(t)

	var once sync.Once
	reached := make(chan struct{})
	frames := 0
	require.NoError(t, w.RegisterPass(lodestar.PhaseMain, "counter", lodestar.CommitNone,
		func(_ *lodestar.Context) error {
			frames++
			if frames >= 3 {
				once.Do(func() { close(reached) })
			}
			return nil
		}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.StartLoop(ctx, nil) }()

	<-reached
	cancel()
	require.NoError(t, <-done)
	require.GreaterOrEqual(t, frames, 3)
	require.ErrorContains(t, w.RunFrame(nil), "ShutDown")
}

func TestWorld_StartLoopStopsOnSystemError(t *testing.T) {
	t.Setenv("LODESTAR_FRAME_RATE", "500")
	w := newTestWorld(t)

	require.NoError(t, w.RegisterPass(lodestar.PhaseMain, "faulty", lodestar.CommitNone,
		func(ctx *lodestar.Context) error {
			if ctx.Frame() == 2 {
				return eris.New("wheels off")
			}
			return nil
		}))

	err := w.StartLoop(context.Background(), nil)
	require.ErrorContains(t, err, "wheels off")
	require.Equal(t, uint64(2), w.Frame())
}

func TestWorld_StartLoopSamplesInputEachFrame(t *testing.T) {
	t.Setenv("LODESTAR_FRAME_RATE", "500")
	w := newTestWorld(t)

	var once sync.Once
	reached := make(chan struct{})
	var seen []any
	require.NoError(t, w.RegisterPass(lodestar.PhasePre, "input-check", lodestar.CommitNone,
		func(ctx *lodestar.Context) error {
			seen = append(seen, ctx.Input())
			if len(seen) >= 2 {
				once.Do(func() { close(reached) })
			}
			return nil
		}))

	next := 0
	inputFn := func() any {
		next++
		return next
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.StartLoop(ctx, inputFn) }()

	<-reached
	cancel()
	require.NoError(t, <-done)
	require.Equal(t, 1, seen[0])
	require.Equal(t, 2, seen[1])
}
