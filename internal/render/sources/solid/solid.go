// Package solid is a constant radiance source with a static camera.
package solid

import "github.com/coreman2200/arcaluminis-ssgi/internal/render"

type Source struct {
	name  string
	Color render.Color
	Depth float32
}

func New(name string, c render.Color) *Source {
	return &Source{name: name, Color: c, Depth: 1}
}

func (s *Source) Clone() render.Source {
	c := *s
	return &c
}

func (s *Source) Name() string      { return s.name }
func (s *Source) Presets() []string { return []string{"white", "grey", "black"} }
func (s *Source) ApplyPreset(p string, u *render.Uniforms) {
	switch p {
	case "white":
		s.Color = render.Color{R: 1, G: 1, B: 1}
	case "grey":
		s.Color = render.Color{R: 0.18, G: 0.18, B: 0.18}
	case "black":
		s.Color = render.Color{}
	}
}

func (s *Source) Render(f *render.Frame, t float64, u *render.Uniforms) {
	up := render.Vec3{Z: 1}
	for i := range f.Color {
		f.Color[i] = s.Color
		f.Motion[i] = render.Vec2{}
		f.Depth[i] = s.Depth
		f.Normal[i] = up
	}
}
