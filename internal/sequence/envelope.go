package sequence

import "sort"

// Easing curves for the segment that starts at a keyframe.
const (
	EaseLinear = "linear"
	EaseSmooth = "smooth" // 3x² − 2x³
	EaseCubic  = "cubic"  // 6x⁵ − 15x⁴ + 10x³
)

func clamp01(x float64) float64 {
	return min(max(x, 0), 1)
}

// ease maps u in [0,1] through the named curve. Unknown names are linear.
func ease(kind string, u float64) float64 {
	switch kind {
	case EaseSmooth:
		return u*u*(3-2*u)
	case EaseCubic:
		return u*u*u*(u*(u*6-15)+10)
	default:
		return u
	}
}

// Eval samples the envelope at t seconds. Values hold flat before the first
// and after the last key; an empty envelope is 0. Keys are sorted by T.
func (e Envelope) Eval(t float64) float64 {
	keys := e.Keys
	switch {
	case len(keys) == 0:
		return 0
	case t <= keys[0].T:
		return keys[0].V
	case t >= keys[len(keys)-1].T:
		return keys[len(keys)-1].V
	}
	// first key strictly after t; the segment starts one before it
	j := sort.Search(len(keys), func(i int) bool { return keys[i].T > t })
	a, b := keys[j-1], keys[j]
	span := b.T - a.T
	if span <= 0 {
		return b.V
	}
	u := ease(a.Ease, clamp01((t-a.T)/span))
	return a.V + (b.V-a.V)*u
}
