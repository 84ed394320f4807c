package lodestar

import (
	"context"
	"time"
)

// StartLoop drives RunFrame at the configured frame rate until ctx is cancelled, a
// frame fails, or Shutdown is called. It calls Init first if the world is still in its
// bootstrap stage. inputFn, when non-nil, is sampled once at the top of each frame and
// the result is the frame's immutable input snapshot.
//
// StartLoop blocks; run it on the goroutine that should own the world.
func (w *World) StartLoop(ctx context.Context, inputFn func() any) error {
	if w.stage.Current() == stageInit {
		if err := w.Init(); err != nil {
			return err
		}
	}

	w.logger.Info().Int("frame_rate", w.config.FrameRate).Msg("game loop started")
	ticker := time.NewTicker(time.Second / time.Duration(w.config.FrameRate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.Shutdown()
			w.logger.Info().Uint64("frames", w.frame).Msg("game loop stopped")
			return nil
		case <-ticker.C:
			var input any
			if inputFn != nil {
				input = inputFn()
			}
			if err := w.RunFrame(input); err != nil {
				w.Shutdown()
				return err
			}
			if w.stage.Current() != stageRunning {
				w.logger.Info().Uint64("frames", w.frame).Msg("game loop stopped")
				return nil
			}
		}
	}
}
