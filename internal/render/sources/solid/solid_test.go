package solid

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coreman2200/arcaluminis-ssgi/internal/render"
)

func TestSolidFillsFrame(t *testing.T) {
	s := New("solid", render.Color{R: 0.5})
	s.ApplyPreset("grey", nil)

	f := render.NewFrame(render.Dimensions{W: 3, H: 2})
	s.Render(f, 0, nil)
	for i := range f.Color {
		assert.Equal(t, render.Color{R: 0.18, G: 0.18, B: 0.18}, f.Color[i])
		assert.Equal(t, float32(1), f.Depth[i])
		assert.Equal(t, render.Vec2{}, f.Motion[i])
	}
}
