package render

import (
	"image"
	"image/color"
	"math"
)

// FilmicToneMap maps scene-referred radiance to display values in place:
// exposure in EV, the Narkowicz ACES fit, then output gamma. OutputGamma <= 0
// falls back to 2.2.
func FilmicToneMap(buf []Color, u *Uniforms) {
	ev, gamma := 0.0, 2.2
	if u != nil {
		ev = u.ExposureEV
		if u.OutputGamma > 0 {
			gamma = u.OutputGamma
		}
	}
	exposure := float32(math.Exp2(ev))
	invGamma := 1 / gamma

	tone := func(x float32) float32 {
		x = aces(x * exposure)
		if invGamma != 1 {
			x = float32(math.Pow(float64(x), invGamma))
		}
		return clamp01(x)
	}
	for i := range buf {
		buf[i] = Color{R: tone(buf[i].R), G: tone(buf[i].G), B: tone(buf[i].B)}
	}
}

// ToRGBA quantizes a display-referred buffer (0..1) into an 8-bit image.
func ToRGBA(buf []Color, dim Dimensions) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, dim.W, dim.H))
	for y := 0; y < dim.H; y++ {
		for x := 0; x < dim.W; x++ {
			c := buf[dim.Index(x, y)]
			img.SetRGBA(x, y, color.RGBA{R: clamp255(c.R), G: clamp255(c.G), B: clamp255(c.B), A: 255})
		}
	}
	return img
}

func clamp255(x float32) byte {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 255
	}
	return byte(x*255.0 + 0.5)
}

func clamp01(x float32) float32 {
	return min(max(x, 0), 1)
}

func aces(x float32) float32 {
	const a, b, c, d, e = 2.51, 0.03, 2.43, 0.59, 0.14
	return clamp01(x * (a*x + b) / (x*(c*x+d) + e))
}
