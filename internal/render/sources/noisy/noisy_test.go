package noisy

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/arcaluminis-ssgi/internal/render"
	"github.com/coreman2200/arcaluminis-ssgi/internal/temporal"
)

func TestRenderIsDeterministicPerFrame(t *testing.T) {
	s := New("noisy")
	u := render.DefaultUniforms()
	s.ApplyPreset("default", &u)

	a := render.NewFrame(render.Dimensions{W: 16, H: 8})
	b := render.NewFrame(render.Dimensions{W: 16, H: 8})
	a.Index, b.Index = 3, 3
	s.Render(a, 0, &u)
	s.Render(b, 0, &u)
	assert.Equal(t, a.Color, b.Color)

	b.Index = 4
	s.Render(b, 0, &u)
	assert.NotEqual(t, a.Color, b.Color)
}

func TestGeometryPlanes(t *testing.T) {
	s := New("noisy")
	u := render.DefaultUniforms()
	s.ApplyPreset("default", &u)
	u.PanX, u.PanY = 2, 1
	u.OccluderSpeed = 3

	dim := render.Dimensions{W: 40, H: 20}
	f := render.NewFrame(dim)
	f.Index = 10
	s.Render(f, 0, &u)

	var floor, sphere int
	for i := range f.Color {
		switch f.Depth[i] {
		case floorDepth:
			floor++
			assert.Equal(t, render.Vec2{X: -2, Y: -1}, f.Motion[i])
			assert.Equal(t, render.Vec3{Z: 1}, f.Normal[i])
		default:
			sphere++
			assert.Less(t, f.Depth[i], float32(sphereNear+1e-3))
			assert.Equal(t, render.Vec2{X: 3}, f.Motion[i])
			n := f.Normal[i]
			assert.InDelta(t, 1, math.Sqrt(float64(n.Dot(n))), 1e-3)
		}
	}
	assert.Positive(t, floor)
	assert.Positive(t, sphere)
}

func TestPresetsAdjustUniforms(t *testing.T) {
	s := New("noisy")
	assert.Equal(t, []string{"default", "static", "fast-pan", "harsh"}, s.Presets())

	u := render.DefaultUniforms()
	s.ApplyPreset("static", &u)
	assert.Zero(t, u.PanX)
	assert.Zero(t, u.OccluderSpeed)

	s.ApplyPreset("harsh", &u)
	assert.Equal(t, 1, u.Samples)
	assert.Equal(t, 20.0, s.SunPower)
}

// Accumulating a static view must land closer to the converged image than a
// single raw frame does.
func TestArmingNextPresetKeepsActiveScene(t *testing.T) {
	reg := render.NewRegistry()
	s := New("noisy")
	reg.Register(s)
	dim := render.Dimensions{W: 8, H: 4}
	e, err := render.NewEngine(dim, nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, e.SetSource("noisy", "default", reg))
	before := *e.U

	require.NoError(t, e.ArmNext("noisy", "fast-pan", reg))
	require.NoError(t, e.ArmNext("noisy", "harsh", reg))
	assert.Equal(t, before, *e.U)
	assert.Equal(t, 6.0, s.SunPower)
	assert.Equal(t, 0.25, s.SkyLevel)

	// At alpha 0 the frame is exactly the active shot.
	e.SetPost(render.PostPipeline{})
	require.NoError(t, e.RenderOnce(context.Background(), 0))
	want := render.NewFrame(dim)
	New("noisy").Render(want, 0, &before)
	assert.Equal(t, want.Color, e.Snapshot())

	c := s.Clone().(*Source)
	c.ApplyPreset("harsh", nil)
	assert.Equal(t, 6.0, s.SunPower)
}

func TestTemporalAccumulationReducesError(t *testing.T) {
	dim := render.Dimensions{W: 24, H: 12}
	s := New("noisy")
	u := render.DefaultUniforms()
	s.ApplyPreset("static", &u)
	u.Samples = 2

	reference := make([]float64, dim.Count())
	const refFrames = 256
	f := render.NewFrame(dim)
	for k := 0; k < refFrames; k++ {
		f.Index = uint64(1000 + k)
		s.Render(f, 0, &u)
		for i, c := range f.Color {
			reference[i] += float64(c.Luminance()) / refFrames
		}
	}

	r, err := temporal.New(dim.W, dim.H, temporal.DefaultConfig())
	require.NoError(t, err)
	defer r.Close()

	var raw, res temporal.Result
	for k := 0; k < 32; k++ {
		f.Index = uint64(k)
		s.Render(f, 0, &u)
		raw.Radiance = append(raw.Radiance[:0], f.Color...)
		res, err = r.Resolve(context.Background(), temporal.Inputs{
			Color: f.Color, Motion: f.Motion, Depth: f.Depth, Normal: f.Normal,
		})
		require.NoError(t, err)
	}

	meanErr := func(img []render.Color) float64 {
		var e float64
		for i, c := range img {
			e += math.Abs(float64(c.Luminance()) - reference[i])
		}
		return e / float64(len(img))
	}
	assert.Less(t, meanErr(res.Radiance), meanErr(raw.Radiance))
	assert.Equal(t, dim.Count(), res.Stats.Accumulated)
}
