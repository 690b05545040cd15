package fake

import (
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/arcaluminis-ssgi/internal/render"
)

// Driver logs a compact summary of the frame (first pixel & avg), useful for headless runs.
type Driver struct {
	Count int
	// LogEvery logs one summary per N frames; 0 logs nothing.
	LogEvery int
	Last     render.Color // average of the last frame
}

func (d *Driver) Write(buf []render.Color) error {
	d.Count++
	var r, g, b float64
	for i := range buf {
		r += float64(buf[i].R)
		g += float64(buf[i].G)
		b += float64(buf[i].B)
	}
	n := float64(len(buf))
	if n == 0 {
		return nil
	}
	d.Last = render.Color{R: float32(r / n), G: float32(g / n), B: float32(b / n)}
	if d.LogEvery > 0 && d.Count%d.LogEvery == 0 {
		log.Debug().
			Int("frame", d.Count).
			Floats32("avg", []float32{d.Last.R, d.Last.G, d.Last.B}).
			Floats32("first", []float32{buf[0].R, buf[0].G, buf[0].B}).
			Msg("frame")
	}
	return nil
}
