// Package sampling generates deterministic sample patterns for ray and kernel sampling.
package sampling

import (
	"errors"
	"fmt"
	"iter"
	"math"
)

// GoldenAngle is π(3 − √5), the angular step of a Vogel spiral.
var GoldenAngle = math.Pi * (3 - math.Sqrt(5))

// ErrInvalidSampleCount is returned when a pattern is requested with n <= 0.
var ErrInvalidSampleCount = errors.New("sampling: sample count must be positive")

type Point struct{ X, Y float64 }

// Radius returns the distance from the pattern center.
func (p Point) Radius() float64 { return math.Hypot(p.X, p.Y) }

// Vogel returns a lazy, restartable sequence of n points on a golden-angle
// spiral inside a disk of radius scale. Point i sits at radius
// scale*sqrt(i/n) and angle i*GoldenAngle. Ranging over the sequence again
// yields the same points.
func Vogel(n int, scale float64) (iter.Seq[Point], error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleCount, n)
	}
	return func(yield func(Point) bool) {
		for i := 0; i < n; i++ {
			if !yield(vogelPoint(i, n, scale)) {
				return
			}
		}
	}, nil
}

// VogelPoints materializes the Vogel sequence into a slice.
func VogelPoints(n int, scale float64) ([]Point, error) {
	seq, err := Vogel(n, scale)
	if err != nil {
		return nil, err
	}
	out := make([]Point, 0, n)
	for p := range seq {
		out = append(out, p)
	}
	return out, nil
}

func vogelPoint(i, n int, scale float64) Point {
	r := scale * math.Sqrt(float64(i)/float64(n))
	theta := float64(i) * GoldenAngle
	return Point{X: r * math.Cos(theta), Y: r * math.Sin(theta)}
}

// Rotate turns p around the origin by theta radians. Used to time-slice one
// fixed pattern across frames.
func Rotate(p Point, theta float64) Point {
	s, c := math.Sincos(theta)
	return Point{X: p.X*c - p.Y*s, Y: p.X*s + p.Y*c}
}
