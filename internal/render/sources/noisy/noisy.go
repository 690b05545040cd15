// Package noisy renders a stochastic indirect-light estimate of a procedural
// scene: a textured floor lit by a sky with a bright sun lobe, a camera that
// pans across it and a sphere that slides over the floor. Every pixel gathers
// a few sky samples from a Vogel disk rotated per pixel and per frame, so the
// raw output is noisy in the way a screen-space GI pass is.
package noisy

import (
	"math"

	"github.com/coreman2200/arcaluminis-ssgi/internal/render"
	"github.com/coreman2200/arcaluminis-ssgi/internal/sampling"
)

const (
	floorDepth = 10
	sphereNear = 4
)

type Source struct {
	name, preset string

	// SunX, SunY place the sun lobe inside the unit sampling disk.
	SunX, SunY float64
	SunPower   float64
	SkyLevel   float64
	// Radius of the occluding sphere relative to the frame height.
	Radius float64

	pattern []sampling.Point
}

func New(name string) *Source {
	s := &Source{name: name}
	s.ApplyPreset("default", nil)
	return s
}

// Clone returns an independent copy with the same scene constants.
func (s *Source) Clone() render.Source {
	c := *s
	c.pattern = nil
	return &c
}

func (s *Source) Name() string { return s.name }
func (s *Source) Presets() []string {
	return []string{"default", "static", "fast-pan", "harsh"}
}

// ApplyPreset sets scene constants and, when u is non-nil, the motion uniforms.
func (s *Source) ApplyPreset(p string, u *render.Uniforms) {
	s.preset = p
	s.SunX, s.SunY = 0.55, 0.25
	s.SunPower = 6
	s.SkyLevel = 0.25
	s.Radius = 0.22
	if p == "harsh" {
		s.SunPower = 20
		s.SkyLevel = 0.05
	}
	if u == nil {
		return
	}
	u.PanX, u.PanY = 0.5, 0
	u.OccluderSpeed = 1.5
	u.Samples = 4
	u.Noise = 1
	switch p {
	case "static":
		u.PanX, u.PanY = 0, 0
		u.OccluderSpeed = 0
	case "fast-pan":
		u.PanX, u.PanY = 3, 1
		u.OccluderSpeed = 4
	case "harsh":
		u.Samples = 1
		u.Noise = 2
	}
}

func (s *Source) Render(f *render.Frame, t float64, u *render.Uniforms) {
	spp := 4
	noise := 1.0
	var panX, panY, speed float64
	if u != nil {
		spp = max(u.Samples, 1)
		noise = u.Noise
		panX, panY, speed = u.PanX, u.PanY, u.OccluderSpeed
	}
	if len(s.pattern) != spp {
		// spp >= 1, the error case cannot happen.
		s.pattern, _ = sampling.VogelPoints(spp, 1)
	}

	w, h := f.Dim.W, f.Dim.H
	frame := float64(f.Index)
	offX, offY := panX*frame, panY*frame

	radius := s.Radius * float64(h)
	span := float64(w) + 2*radius
	cx := math.Mod(speed*frame, span) - radius
	if cx < -radius {
		cx += span
	}
	cy := float64(h) * 0.55
	frameRot := frame * sampling.GoldenAngle

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := f.Dim.Index(x, y)
			px, py := float64(x)+0.5, float64(y)+0.5

			dx, dy := (px-cx)/radius, (py-cy)/radius
			d2 := dx*dx + dy*dy
			if d2 < 1 {
				dz := math.Sqrt(1 - d2)
				f.Normal[i] = render.Vec3{X: float32(dx), Y: float32(-dy), Z: float32(dz)}
				f.Depth[i] = float32(sphereNear - dz)
				f.Motion[i] = render.Vec2{X: float32(speed)}
				albedo := 0.7
				vis := 0.5 + 0.5*dz
				f.Color[i] = s.gather(albedo, vis, noise, frameRot, x, y, f.Index)
				continue
			}

			wx, wy := px+offX, py+offY
			f.Normal[i] = render.Vec3{Z: 1}
			f.Depth[i] = floorDepth
			f.Motion[i] = render.Vec2{X: float32(-panX), Y: float32(-panY)}

			// Contact shadow under the sphere.
			vis := 1 - 0.6*math.Exp(-max(d2-1, 0)*1.5)
			f.Color[i] = s.gather(checker(wx, wy), vis, noise, frameRot, x, y, f.Index)
		}
	}
}

// gather averages sky radiance over the rotated sampling pattern.
func (s *Source) gather(albedo, vis, noise, frameRot float64, x, y int, frame uint64) render.Color {
	theta := frameRot + 2*math.Pi*hash01(uint32(x), uint32(y), uint32(frame))
	var sum float64
	for _, p := range s.pattern {
		q := sampling.Rotate(p, theta)
		sum += s.sky(q, noise)
	}
	l := albedo * vis * sum / float64(len(s.pattern))
	return render.Color{R: float32(l * 1.0), G: float32(l * 0.92), B: float32(l * 0.8)}
}

// sky is the radiance seen through sampling-disk position q.
func (s *Source) sky(q sampling.Point, noise float64) float64 {
	dx, dy := q.X-s.SunX, q.Y-s.SunY
	lobe := math.Exp(-(dx*dx + dy*dy) / 0.02)
	return s.SkyLevel + noise*s.SunPower*lobe
}

func checker(wx, wy float64) float64 {
	cx := int(math.Floor(wx / 16))
	cy := int(math.Floor(wy / 16))
	if (cx+cy)&1 == 0 {
		return 0.8
	}
	return 0.35
}

// hash01 maps a pixel and frame to [0,1).
func hash01(x, y, f uint32) float64 {
	h := x*0x8da6b343 ^ y*0xd8163841 ^ f*0xcb1ab31f
	h ^= h >> 16
	h *= 0x7feb352d
	h ^= h >> 15
	h *= 0x846ca68b
	h ^= h >> 16
	return float64(h) / (1 << 32)
}
