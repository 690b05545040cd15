package render

import (
	"fmt"
	"math"
	"sort"
)

type Vec2 struct{ X, Y float32 }
type Vec3 struct{ X, Y, Z float32 }
type Color struct{ R, G, B float32 }

// Moment holds the running first and second moments of a pixel's luminance.
type Moment struct{ Mean, MeanSq float32 }

// Variance derives the per-pixel variance, clamped at zero.
func (m Moment) Variance() float32 {
	v := m.MeanSq - m.Mean*m.Mean
	if v < 0 {
		return 0
	}
	return v
}

// Luminance uses Rec. 709 weights.
func (c Color) Luminance() float32 {
	return 0.2126*c.R + 0.7152*c.G + 0.0722*c.B
}

func (c Color) Scale(s float32) Color { return Color{c.R * s, c.G * s, c.B * s} }

func (v Vec3) Dot(o Vec3) float32 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec3) Normalize() Vec3 {
	l := float32(math.Sqrt(float64(v.Dot(v))))
	if l == 0 {
		return v
	}
	return Vec3{v.X / l, v.Y / l, v.Z / l}
}

type Dimensions struct{ W, H int }

func (d Dimensions) Count() int { return d.W * d.H }

// Index maps x,y to the row-major pixel index.
func (d Dimensions) Index(x, y int) int { return y*d.W + x }

func (d Dimensions) Contains(x, y int) bool { return x >= 0 && y >= 0 && x < d.W && y < d.H }

// Uniforms is the typed per-frame parameter record shared by sources and post.
type Uniforms struct {
	ExposureEV  float64
	OutputGamma float64
	TimeScale   float64

	// Camera pan in pixels per frame. Drives both the source content and its motion vectors.
	PanX, PanY float64
	// OccluderSpeed is the horizontal speed of the moving occluder, pixels per frame.
	OccluderSpeed float64
	// Samples per pixel for stochastic sources.
	Samples int
	// Noise scales the per-sample jitter of stochastic sources.
	Noise float64
}

// DefaultUniforms returns the values used when no preset or config overrides them.
func DefaultUniforms() Uniforms {
	return Uniforms{
		OutputGamma:   2.2,
		TimeScale:     1,
		PanX:          0.5,
		OccluderSpeed: 1.5,
		Samples:       4,
		Noise:         1,
	}
}

// Set updates a uniform by name. Names match the ones used in sequence programs.
func (u *Uniforms) Set(name string, v float64) error {
	switch name {
	case "ExposureEV":
		u.ExposureEV = v
	case "OutputGamma":
		u.OutputGamma = v
	case "TimeScale":
		u.TimeScale = v
	case "PanX":
		u.PanX = v
	case "PanY":
		u.PanY = v
	case "OccluderSpeed":
		u.OccluderSpeed = v
	case "Samples":
		if v < 1 {
			return fmt.Errorf("uniform Samples must be >= 1, got %v", v)
		}
		u.Samples = int(v)
	case "Noise":
		u.Noise = v
	default:
		return fmt.Errorf("unknown uniform %q", name)
	}
	return nil
}

// Frame is the G-buffer handed from a Source through the pass pipeline.
// Color is replaced by passes; the geometry planes are read-only after the source ran.
type Frame struct {
	Dim   Dimensions
	Index uint64

	Color  []Color
	Motion []Vec2 // previous position = pixel - Motion
	Depth  []float32
	Normal []Vec3

	// Moments is set by passes that track them; nil otherwise.
	Moments []Moment
}

func NewFrame(dim Dimensions) *Frame {
	n := dim.Count()
	return &Frame{
		Dim:    dim,
		Color:  make([]Color, n),
		Motion: make([]Vec2, n),
		Depth:  make([]float32, n),
		Normal: make([]Vec3, n),
	}
}

// Source produces the noisy radiance estimate and geometry for a frame.
type Source interface {
	Name() string
	Presets() []string
	ApplyPreset(name string, u *Uniforms)
	Render(f *Frame, t float64, u *Uniforms)
}

// Cloner is implemented by sources whose presets mutate source state. The
// engine arms a clone so a crossfade never retunes the shot on screen.
type Cloner interface {
	Clone() Source
}

type Registry struct{ m map[string]Source }

func NewRegistry() *Registry { return &Registry{m: map[string]Source{}} }

func (r *Registry) Register(s Source) {
	if s == nil {
		return
	}
	r.m[s.Name()] = s
}

func (r *Registry) Get(name string) (Source, bool) {
	s, ok := r.m[name]
	return s, ok
}

func (r *Registry) List() []string {
	out := make([]string, 0, len(r.m))
	for k := range r.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
