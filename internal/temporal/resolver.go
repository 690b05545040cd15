package temporal

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/arcaluminis-ssgi/internal/render"
)

// Inputs are the host-owned planes of the current frame. They are only read.
// Motion, Depth and Normal may be nil: nil motion means a static camera, and a
// nil geometry plane disables the matching validity test.
type Inputs struct {
	Color  []render.Color
	Motion []render.Vec2
	Depth  []float32
	Normal []render.Vec3
}

// Stats counts the per-pixel outcomes of one frame.
type Stats struct {
	Frame  uint64
	Pixels int

	// Accumulated pixels blended with a valid history sample.
	Accumulated int

	// Rejected pixels, split by the first failing test.
	NoHistory      int
	OffScreen      int
	DepthRejected  int
	NormalRejected int

	// HistorySum is the sum of the written history lengths.
	HistorySum float64
}

func (s Stats) Rejected() int {
	return s.NoHistory + s.OffScreen + s.DepthRejected + s.NormalRejected
}

// RejectRatio is the fraction of pixels whose history was discarded.
func (s Stats) RejectRatio() float64 {
	if s.Pixels == 0 {
		return 0
	}
	return float64(s.Rejected()) / float64(s.Pixels)
}

func (s Stats) MeanHistory() float64 {
	if s.Pixels == 0 {
		return 0
	}
	return s.HistorySum / float64(s.Pixels)
}

func (s *Stats) add(o Stats) {
	s.Pixels += o.Pixels
	s.Accumulated += o.Accumulated
	s.NoHistory += o.NoHistory
	s.OffScreen += o.OffScreen
	s.DepthRejected += o.DepthRejected
	s.NormalRejected += o.NormalRejected
	s.HistorySum += o.HistorySum
}

// Result exposes the surfaces written by the last Resolve. The slices belong
// to the resolver and stay valid until the next Resolve call.
type Result struct {
	Radiance []render.Color
	// Moments is nil when moment tracking is disabled.
	Moments []render.Moment
	Stats   Stats
}

// Resolver owns the ping-pong history of one temporal resolve pass.
type Resolver struct {
	mu  sync.Mutex
	dim render.Dimensions
	cfg Config

	// cur is the slot written by the next frame; 1-cur holds the history.
	cur      int
	radiance [2][]render.Color
	moments  [2][]render.Moment
	history  [2][]float32
	depth    [2][]float32
	normal   [2][]render.Vec3

	// hasDepth and hasNormal record whether a slot holds geometry planes.
	hasDepth  [2]bool
	hasNormal [2]bool

	frames uint64
	reset  bool
	closed bool
	last   Stats

	tiles []image.Rectangle
	pool  *workerPool
}

// New allocates the history surfaces for a width x height image and starts
// the worker pool. The moments surface is allocated only when cfg.Moments is set.
func New(width, height int, cfg Config) (*Resolver, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidConfig, width, height)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dim := render.Dimensions{W: width, H: height}
	n := dim.Count()

	r := &Resolver{dim: dim, cfg: cfg}
	for s := 0; s < 2; s++ {
		r.radiance[s] = make([]render.Color, n)
		r.history[s] = make([]float32, n)
		r.depth[s] = make([]float32, n)
		r.normal[s] = make([]render.Vec3, n)
		if cfg.Moments {
			r.moments[s] = make([]render.Moment, n)
		}
	}

	r.tiles = tileGrid(width, height, cfg.TileSize)
	r.pool = newWorkerPool(cfg.Workers, len(r.tiles))
	r.pool.Start()
	return r, nil
}

func (r *Resolver) Dim() render.Dimensions { return r.dim }

func (r *Resolver) Config() Config { return r.cfg }

// Resolve runs one frame: reproject, validate, blend and swap.
// Calls are serialized; validity failures are reported in Stats, not as errors.
func (r *Resolver) Resolve(ctx context.Context, in Inputs) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return Result{}, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := r.checkInputs(in); err != nil {
		return Result{}, err
	}

	cur, prev := r.cur, 1-r.cur
	job := &frameJob{
		dim:    r.dim,
		cfg:    r.cfg,
		in:     in,
		reset:  r.reset || r.frames == 0,
		outC:   r.radiance[cur],
		outM:   r.moments[cur],
		outH:   r.history[cur],
		outD:   r.depth[cur],
		outN:   r.normal[cur],
		histC:  r.radiance[prev],
		histM:  r.moments[prev],
		histH:  r.history[prev],
		histD:  r.depth[prev],
		histN:  r.normal[prev],
		useD:   in.Depth != nil && r.hasDepth[prev],
		useN:   in.Normal != nil && r.hasNormal[prev],
		storeD: in.Depth != nil,
		storeN: in.Normal != nil,
	}

	for id, t := range r.tiles {
		r.pool.Submit(tileTask{TaskID: id, Bounds: t, Job: job})
	}
	stats := Stats{Frame: r.frames}
	for range r.tiles {
		res, ok := r.pool.Result()
		if !ok {
			return Result{}, fmt.Errorf("temporal: worker pool closed unexpectedly")
		}
		stats.add(res.Stats)
	}

	r.hasDepth[cur] = job.storeD
	r.hasNormal[cur] = job.storeN
	r.reset = false
	r.frames++
	r.last = stats
	r.cur = prev

	return Result{
		Radiance: r.radiance[cur],
		Moments:  r.moments[cur],
		Stats:    stats,
	}, nil
}

func (r *Resolver) checkInputs(in Inputs) error {
	n := r.dim.Count()
	if len(in.Color) != n {
		return fmt.Errorf("%w: color has %d pixels, want %d", ErrInputSize, len(in.Color), n)
	}
	if in.Motion != nil && len(in.Motion) != n {
		return fmt.Errorf("%w: motion has %d pixels, want %d", ErrInputSize, len(in.Motion), n)
	}
	if in.Depth != nil && len(in.Depth) != n {
		return fmt.Errorf("%w: depth has %d pixels, want %d", ErrInputSize, len(in.Depth), n)
	}
	if in.Normal != nil && len(in.Normal) != n {
		return fmt.Errorf("%w: normal has %d pixels, want %d", ErrInputSize, len(in.Normal), n)
	}
	return nil
}

// ResetHistory discards all history on the next frame, e.g. after a camera cut.
func (r *Resolver) ResetHistory() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset = true
	log.Debug().Uint64("frame", r.frames).Msg("temporal history reset requested")
}

// Texture returns the radiance written by the last completed frame.
func (r *Resolver) Texture() []render.Color {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.radiance[1-r.cur]
}

// MomentsTexture returns the moments written by the last completed frame, or
// nil when moment tracking is disabled.
func (r *Resolver) MomentsTexture() []render.Moment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.moments[1-r.cur]
}

// HistoryLength returns the per-pixel history lengths of the last frame.
func (r *Resolver) HistoryLength() []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history[1-r.cur]
}

// LastStats returns the statistics of the last completed frame.
func (r *Resolver) LastStats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Close stops the workers. The surfaces stay readable.
func (r *Resolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.pool.Stop()
	return nil
}
