// Package geom holds the small amount of 2-D vector arithmetic the
// simulation needs on top of orb points.
package geom

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

func Add(a, b orb.Point) orb.Point {
	return orb.Point{a[0] + b[0], a[1] + b[1]}
}

func Sub(a, b orb.Point) orb.Point {
	return orb.Point{a[0] - b[0], a[1] - b[1]}
}

func Scale(a orb.Point, k float64) orb.Point {
	return orb.Point{a[0] * k, a[1] * k}
}

// Div divides both components by k.
func Div(a orb.Point, k float64) orb.Point {
	return orb.Point{a[0] / k, a[1] / k}
}

// Norm is the Euclidean length of a.
func Norm(a orb.Point) float64 {
	return planar.Distance(orb.Point{}, a)
}

// Normalize returns a scaled to unit length. The zero vector has no
// direction and is returned unchanged.
func Normalize(a orb.Point) orb.Point {
	n := Norm(a)
	if n == 0 {
		return a
	}
	return Div(a, n)
}

// ClampUnit shrinks a to unit length only when it is longer than 1.
func ClampUnit(a orb.Point) orb.Point {
	n := Norm(a)
	if n > 1 {
		return Div(a, n)
	}
	return a
}

// Finite reports whether both components are real numbers.
func Finite(a orb.Point) bool {
	for _, v := range a {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
