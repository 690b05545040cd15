package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Run drives the timeline and renders at fps until ctx is cancelled.
func (c *Core) Run(ctx context.Context, fps int) error {
	if fps <= 0 {
		fps = 60
	}
	dt := time.Second / time.Duration(fps)
	ticker := time.NewTicker(dt)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.Step(ctx, dt.Seconds()); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Error().Err(err).Uint64("frame", c.Eng.FrameID()).Msg("render failed")
			}
		}
	}
}
