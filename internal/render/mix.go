package render

// Lerp returns a*(1-t) + b*t. t=1 returns b exactly.
func Lerp(a, b Color, t float32) Color {
	if t >= 1 {
		return b
	}
	if t <= 0 {
		return a
	}
	af := 1 - t
	return Color{
		R: a.R*af + b.R*t,
		G: a.G*af + b.G*t,
		B: a.B*af + b.B*t,
	}
}

// Mix blends two framebuffers (a,b) into dst using alpha (0..1).
// Channels are linear; no gamma assumed.
func Mix(dst, a, b []Color, alpha float64) {
	if alpha <= 0 {
		copy(dst, a)
		return
	}
	if alpha >= 1 {
		copy(dst, b)
		return
	}
	t := float32(alpha)
	for i := range dst {
		dst[i] = Lerp(a[i], b[i], t)
	}
}
