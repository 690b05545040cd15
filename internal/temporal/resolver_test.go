package temporal

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/arcaluminis-ssgi/internal/render"
)

func fill(n int, c render.Color) []render.Color {
	out := make([]render.Color, n)
	for i := range out {
		out[i] = c
	}
	return out
}

func newResolver(t *testing.T, w, h int, mutate func(*Config)) *Resolver {
	t.Helper()
	cfg := DefaultConfig()
	cfg.TileSize = 2
	cfg.Workers = 3
	if mutate != nil {
		mutate(&cfg)
	}
	r, err := New(w, h, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestFirstFrameReturnsRawSample(t *testing.T) {
	r := newResolver(t, 4, 3, nil)
	in := make([]render.Color, 12)
	for i := range in {
		in[i] = render.Color{R: float32(i), G: 0.5, B: 1}
	}

	res, err := r.Resolve(context.Background(), Inputs{Color: in})
	require.NoError(t, err)
	assert.Equal(t, in, res.Radiance)
	assert.Equal(t, in, r.Texture())
	assert.Equal(t, 12, res.Stats.NoHistory)
	assert.Zero(t, res.Stats.Accumulated)
	for _, h := range r.HistoryLength() {
		assert.Equal(t, float32(MinHistory), h)
	}
}

func TestStaticPixelsAccumulate(t *testing.T) {
	r := newResolver(t, 2, 2, nil)
	ctx := context.Background()

	_, err := r.Resolve(ctx, Inputs{Color: fill(4, render.Color{R: 1})})
	require.NoError(t, err)
	res, err := r.Resolve(ctx, Inputs{Color: fill(4, render.Color{R: 0})})
	require.NoError(t, err)

	// history 2, alpha 1/2
	assert.InDelta(t, 0.5, res.Radiance[0].R, 1e-6)
	assert.Equal(t, 4, res.Stats.Accumulated)
	assert.InDelta(t, 2, res.Stats.MeanHistory(), 1e-9)

	res, err = r.Resolve(ctx, Inputs{Color: fill(4, render.Color{R: 0})})
	require.NoError(t, err)
	// history 3, alpha 1/3
	assert.InDelta(t, 1.0/3, res.Radiance[3].R, 1e-6)
}

func TestHistorySaturatesAtMax(t *testing.T) {
	r := newResolver(t, 1, 1, func(c *Config) { c.MaxHistory = 4 })
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		_, err := r.Resolve(ctx, Inputs{Color: fill(1, render.Color{G: 1})})
		require.NoError(t, err)
	}
	assert.Equal(t, float32(4), r.HistoryLength()[0])

	// Converged history plus a new sample at weight 1/4.
	res, err := r.Resolve(ctx, Inputs{Color: fill(1, render.Color{G: 0})})
	require.NoError(t, err)
	assert.InDelta(t, 0.75, res.Radiance[0].G, 1e-6)
}

func TestResetHistoryOutputsRawSampleThenBlends(t *testing.T) {
	r := newResolver(t, 2, 1, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := r.Resolve(ctx, Inputs{Color: fill(2, render.Color{B: 1})})
		require.NoError(t, err)
	}
	r.ResetHistory()

	res, err := r.Resolve(ctx, Inputs{Color: fill(2, render.Color{B: 0.2})})
	require.NoError(t, err)
	assert.Equal(t, float32(0.2), res.Radiance[0].B)
	assert.Equal(t, 2, res.Stats.NoHistory)
	assert.Equal(t, float32(MinHistory), r.HistoryLength()[1])

	res, err = r.Resolve(ctx, Inputs{Color: fill(2, render.Color{B: 0.4})})
	require.NoError(t, err)
	assert.InDelta(t, 0.3, res.Radiance[1].B, 1e-6)
	assert.Equal(t, 2, res.Stats.Accumulated)
}

func TestOffScreenMotionResets(t *testing.T) {
	r := newResolver(t, 3, 1, nil)
	ctx := context.Background()

	_, err := r.Resolve(ctx, Inputs{Color: []render.Color{{R: 1}, {R: 2}, {R: 3}}})
	require.NoError(t, err)

	// Everything moved one pixel right: pixel x came from x-1.
	motion := []render.Vec2{{X: 1}, {X: 1}, {X: 1}}
	res, err := r.Resolve(ctx, Inputs{
		Color:  []render.Color{{R: 10}, {R: 10}, {R: 10}},
		Motion: motion,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Stats.OffScreen)
	assert.Equal(t, float32(10), res.Radiance[0].R)
	// pixel 1 blends with history of pixel 0, pixel 2 with pixel 1.
	assert.InDelta(t, 5.5, res.Radiance[1].R, 1e-6)
	assert.InDelta(t, 6, res.Radiance[2].R, 1e-6)
}

func TestDepthAndNormalRejection(t *testing.T) {
	r := newResolver(t, 3, 1, func(c *Config) {
		c.DepthThreshold = 0.1
		c.NormalThreshold = 0.9
	})
	ctx := context.Background()
	up := render.Vec3{Y: 1}
	inf := float32(math.Inf(1))

	_, err := r.Resolve(ctx, Inputs{
		Color:  fill(3, render.Color{R: 1}),
		Depth:  []float32{1, 1, inf},
		Normal: []render.Vec3{up, up, {}},
	})
	require.NoError(t, err)

	res, err := r.Resolve(ctx, Inputs{
		Color:  fill(3, render.Color{R: 0}),
		Depth:  []float32{2, 1.05, inf},
		Normal: []render.Vec3{up, {X: 1}, {}},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Stats.DepthRejected)
	assert.Equal(t, 1, res.Stats.NormalRejected)
	assert.Equal(t, 1, res.Stats.Accumulated)
	assert.Equal(t, float32(0), res.Radiance[0].R)
	assert.Equal(t, float32(0), res.Radiance[1].R)
	// background matches background, missing normals skip the test
	assert.InDelta(t, 0.5, res.Radiance[2].R, 1e-6)
	assert.InDelta(t, 2.0/3, res.Stats.RejectRatio(), 1e-9)
}

func TestGeometryTestsSkippedWithoutHistoryPlanes(t *testing.T) {
	r := newResolver(t, 1, 1, nil)
	ctx := context.Background()

	_, err := r.Resolve(ctx, Inputs{Color: fill(1, render.Color{R: 1})})
	require.NoError(t, err)
	res, err := r.Resolve(ctx, Inputs{
		Color: fill(1, render.Color{R: 0}),
		Depth: []float32{100},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stats.Accumulated)
}

func TestMomentsAccumulate(t *testing.T) {
	r := newResolver(t, 1, 1, nil)
	ctx := context.Background()

	res, err := r.Resolve(ctx, Inputs{Color: fill(1, render.Color{R: 1, G: 1, B: 1})})
	require.NoError(t, err)
	require.Len(t, res.Moments, 1)
	assert.InDelta(t, 1, res.Moments[0].Mean, 1e-6)
	assert.InDelta(t, 1, res.Moments[0].MeanSq, 1e-6)
	assert.InDelta(t, 0, res.Moments[0].Variance(), 1e-6)

	res, err = r.Resolve(ctx, Inputs{Color: fill(1, render.Color{})})
	require.NoError(t, err)
	m := res.Moments[0]
	assert.InDelta(t, 0.5, m.Mean, 1e-6)
	assert.InDelta(t, 0.5, m.MeanSq, 1e-6)
	assert.InDelta(t, 0.25, m.Variance(), 1e-6)
	assert.Equal(t, res.Moments, r.MomentsTexture())
}

func TestMomentsDisabledHasNoSurface(t *testing.T) {
	r := newResolver(t, 2, 2, func(c *Config) { c.Moments = false })
	res, err := r.Resolve(context.Background(), Inputs{Color: fill(4, render.Color{R: 1})})
	require.NoError(t, err)
	assert.Nil(t, res.Moments)
	assert.Nil(t, r.MomentsTexture())
}

func TestTilingIsDeterministic(t *testing.T) {
	const w, h = 7, 5
	frames := make([][]render.Color, 4)
	motion := make([]render.Vec2, w*h)
	for f := range frames {
		frames[f] = make([]render.Color, w*h)
		for i := range frames[f] {
			frames[f][i] = render.Color{R: float32((i*7 + f*13) % 11), G: float32(f)}
		}
	}
	for i := range motion {
		motion[i] = render.Vec2{X: float32(i%3) - 1, Y: 0.4}
	}

	run := func(tile, workers int) []render.Color {
		r := newResolver(t, w, h, func(c *Config) {
			c.TileSize = tile
			c.Workers = workers
		})
		var last Result
		for _, c := range frames {
			var err error
			last, err = r.Resolve(context.Background(), Inputs{Color: c, Motion: motion})
			require.NoError(t, err)
		}
		return append([]render.Color(nil), last.Radiance...)
	}

	want := run(64, 1)
	assert.Equal(t, want, run(2, 4))
	assert.Equal(t, want, run(3, 2))
}

func TestInputSizeMismatch(t *testing.T) {
	r := newResolver(t, 2, 2, nil)
	ctx := context.Background()

	_, err := r.Resolve(ctx, Inputs{Color: fill(3, render.Color{})})
	assert.ErrorIs(t, err, ErrInputSize)
	_, err = r.Resolve(ctx, Inputs{Color: fill(4, render.Color{}), Motion: make([]render.Vec2, 1)})
	assert.ErrorIs(t, err, ErrInputSize)
	_, err = r.Resolve(ctx, Inputs{Color: fill(4, render.Color{}), Depth: make([]float32, 5)})
	assert.ErrorIs(t, err, ErrInputSize)
	_, err = r.Resolve(ctx, Inputs{Color: fill(4, render.Color{}), Normal: make([]render.Vec3, 2)})
	assert.ErrorIs(t, err, ErrInputSize)
}

func TestResolveHonoursContextAndClose(t *testing.T) {
	r := newResolver(t, 1, 1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Resolve(ctx, Inputs{Color: fill(1, render.Color{})})
	assert.ErrorIs(t, err, context.Canceled)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	_, err = r.Resolve(context.Background(), Inputs{Color: fill(1, render.Color{})})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"max history below floor", func(c *Config) { c.MaxHistory = 0.5 }},
		{"zero depth threshold", func(c *Config) { c.DepthThreshold = 0 }},
		{"normal threshold above one", func(c *Config) { c.NormalThreshold = 1.5 }},
		{"zero tile", func(c *Config) { c.TileSize = 0 }},
		{"negative workers", func(c *Config) { c.Workers = -1 }},
	}
	require.NoError(t, DefaultConfig().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
			_, err := New(4, 4, cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
	_, err := New(0, 4, DefaultConfig())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestTileGridCoversImage(t *testing.T) {
	tiles := tileGrid(5, 3, 2)
	require.Len(t, tiles, 6)
	area := 0
	for _, b := range tiles {
		area += b.Dx() * b.Dy()
	}
	assert.Equal(t, 15, area)
}

func TestPassWritesFrame(t *testing.T) {
	r := newResolver(t, 2, 1, nil)
	p := NewPass(r)
	var got []Stats
	p.OnStats = func(s Stats) { got = append(got, s) }
	assert.Equal(t, PassName, p.Name())

	f := render.NewFrame(render.Dimensions{W: 2, H: 1})
	f.Color[0] = render.Color{R: 1}
	f.Index = 7
	require.NoError(t, p.Render(context.Background(), f))
	assert.Equal(t, render.Color{R: 1}, f.Color[0])
	require.Len(t, f.Moments, 2)

	f.Color[0] = render.Color{R: 0}
	f.Index = 8
	require.NoError(t, p.Render(context.Background(), f))
	assert.InDelta(t, 0.5, f.Color[0].R, 1e-6)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(8), got[1].Frame)
}
