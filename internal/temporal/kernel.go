package temporal

import (
	"image"
	"math"

	"github.com/coreman2200/arcaluminis-ssgi/internal/render"
)

// depthEpsilon keeps the relative depth test finite near the camera.
const depthEpsilon = 1e-6

// frameJob is the read-only description of one frame shared by all tiles.
// Tiles write disjoint pixel ranges of the out* slices.
type frameJob struct {
	dim   render.Dimensions
	cfg   Config
	in    Inputs
	reset bool

	outC []render.Color
	outM []render.Moment
	outH []float32
	outD []float32
	outN []render.Vec3

	histC []render.Color
	histM []render.Moment
	histH []float32
	histD []float32
	histN []render.Vec3

	useD, useN     bool
	storeD, storeN bool
}

type rejection int

const (
	accepted rejection = iota
	noHistory
	offScreen
	depthRejected
	normalRejected
)

func (j *frameJob) resolveTile(b image.Rectangle) Stats {
	var st Stats
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := j.dim.Index(x, y)
			st.Pixels++

			hi, why := j.reproject(x, y, i)
			switch why {
			case accepted:
				st.Accumulated++
			case noHistory:
				st.NoHistory++
			case offScreen:
				st.OffScreen++
			case depthRejected:
				st.DepthRejected++
			case normalRejected:
				st.NormalRejected++
			}

			st.HistorySum += float64(j.blend(i, hi, why == accepted))

			if j.storeD {
				j.outD[i] = j.in.Depth[i]
			}
			if j.storeN {
				j.outN[i] = j.in.Normal[i]
			}
		}
	}
	return st
}

// reproject returns the history index for pixel (x, y) and whether the
// history sample there may be reused.
func (j *frameJob) reproject(x, y, i int) (int, rejection) {
	if j.reset {
		return -1, noHistory
	}
	var m render.Vec2
	if j.in.Motion != nil {
		m = j.in.Motion[i]
	}
	// Nearest texel of the previous pixel center.
	hx := int(math.Floor(float64(x) + 0.5 - float64(m.X)))
	hy := int(math.Floor(float64(y) + 0.5 - float64(m.Y)))
	if !j.dim.Contains(hx, hy) {
		return -1, offScreen
	}
	hi := j.dim.Index(hx, hy)
	if j.histH[hi] < MinHistory {
		return hi, noHistory
	}
	if j.useD && !depthMatches(j.in.Depth[i], j.histD[hi], j.cfg.DepthThreshold) {
		return hi, depthRejected
	}
	if j.useN && !normalMatches(j.in.Normal[i], j.histN[hi], j.cfg.NormalThreshold) {
		return hi, normalRejected
	}
	return hi, accepted
}

// blend writes the output sample for pixel i and returns its history length.
func (j *frameJob) blend(i, hi int, valid bool) float32 {
	c := j.in.Color[i]
	w := float32(MinHistory)
	if valid {
		w = min(j.histH[hi]+1, j.cfg.MaxHistory)
	}
	alpha := 1 / w
	j.outH[i] = w

	if valid {
		j.outC[i] = render.Lerp(j.histC[hi], c, alpha)
	} else {
		j.outC[i] = c
	}

	if j.outM == nil {
		return w
	}
	lum := c.Luminance()
	m := render.Moment{Mean: lum, MeanSq: lum * lum}
	if valid {
		h := j.histM[hi]
		m.Mean = h.Mean + (m.Mean-h.Mean)*alpha
		m.MeanSq = h.MeanSq + (m.MeanSq-h.MeanSq)*alpha
	}
	j.outM[i] = m
	return w
}

// depthMatches compares view depths relative to the current depth. Two
// background samples (infinite depth) match; background against geometry does not.
func depthMatches(cur, prev, threshold float32) bool {
	ci, pi := math.IsInf(float64(cur), 0), math.IsInf(float64(prev), 0)
	if ci || pi {
		return ci == pi
	}
	den := float32(math.Max(math.Abs(float64(cur)), depthEpsilon))
	return float32(math.Abs(float64(cur-prev)))/den <= threshold
}

// normalMatches accepts when either normal is missing (zero length).
func normalMatches(cur, prev render.Vec3, threshold float32) bool {
	if cur.Dot(cur) == 0 || prev.Dot(prev) == 0 {
		return true
	}
	return cur.Normalize().Dot(prev.Normalize()) >= threshold
}
