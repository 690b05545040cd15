package sampling

// Vec4 mirrors a shader vec4 uniform slot.
type Vec4 [4]float64

// PackVec4 groups values into vec4 slots for uniform arrays. The last slot is
// zero padded when len(values) is not a multiple of four.
func PackVec4(values []float64) []Vec4 {
	out := make([]Vec4, 0, (len(values)+3)/4)
	for i := 0; i < len(values); i += 4 {
		var v Vec4
		copy(v[:], values[i:min(i+4, len(values))])
		out = append(out, v)
	}
	return out
}

// Flatten lays out a point pattern as x0,y0,x1,y1,... for PackVec4.
func Flatten(pts []Point) []float64 {
	out := make([]float64, 0, len(pts)*2)
	for _, p := range pts {
		out = append(out, p.X, p.Y)
	}
	return out
}
