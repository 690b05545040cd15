// Package envmap computes the addressing constants of a PMREM cube-UV
// environment map: a cube map whose mip chain is packed into one atlas image.
package envmap

import (
	"math"
	"strconv"

	"github.com/coreman2200/arcaluminis-ssgi/internal/shader"
)

// minTexelWidthDenominator is 7*16: the atlas is never narrower than the
// extra blurred mips appended after the last real mip level.
const minTexelWidthDenominator = 7 * 16

// CubeUVSize holds the shader constants for sampling a cube-UV atlas.
// The values feed CUBEUV_* defines directly and must not be rounded.
type CubeUVSize struct {
	TexelWidth  float64
	TexelHeight float64
	MaxMip      float64
}

// CubeUVSizeFor derives the atlas constants from the atlas height in pixels.
// A height <= 0 means there is no environment map and returns nil.
func CubeUVSizeFor(height int) *CubeUVSize {
	if height <= 0 {
		return nil
	}
	h := float64(height)
	maxMip := math.Log2(h) - 2
	return &CubeUVSize{
		TexelWidth:  1.0 / (3 * math.Max(math.Pow(2, maxMip), minTexelWidthDenominator)),
		TexelHeight: 1.0 / h,
		MaxMip:      maxMip,
	}
}

// Defines returns the preprocessor definitions consumed by the cube-UV
// sampling chunk. A nil size returns no definitions.
func (s *CubeUVSize) Defines() shader.Defines {
	if s == nil {
		return nil
	}
	var d shader.Defines
	d.Set("ENVMAP_TYPE_CUBE_UV", "")
	d.Set("CUBEUV_TEXEL_WIDTH", s.TexelWidth)
	d.Set("CUBEUV_TEXEL_HEIGHT", s.TexelHeight)
	d.Set("CUBEUV_MAX_MIP", glslFloat(s.MaxMip))
	return d
}

// glslFloat keeps integral values typed as float in GLSL ("6" -> "6.0").
func glslFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if v == math.Trunc(v) {
		s += ".0"
	}
	return s
}

// MaxMipLevel is the number of mip levels of a width x height texture.
func MaxMipLevel(width, height int) int {
	m := max(width, height)
	if m <= 0 {
		return 0
	}
	return int(math.Floor(math.Log2(float64(m)))) + 1
}
