// Package steering computes per-tick direction changes for airplanes.
//
// An airplane is in exactly one of two modes. With a mission it seeks the
// mission destination; the raw offset to the goal is added to its
// direction and the result is only shrunk back to unit length when it is
// longer than 1, so an airplane closing in on its goal slows down. Without
// a mission it flocks with airplanes from the same base and is always
// renormalised to unit length.
package steering

import (
	"github.com/paulmach/orb"

	"github.com/flocksim/flocksim/internal/geom"
)

// Mode selects how a direction delta is folded into the current direction.
type Mode uint8

const (
	ModeFlock Mode = iota
	ModeSeek
)

func (m Mode) String() string {
	if m == ModeSeek {
		return "seek"
	}
	return "flock"
}

// Params are the per-airplane tuning values, fixed at creation.
type Params struct {
	Speed          float64
	Vision         float64
	Separation     float64
	Cohere         float64
	Separate       float64
	Match          float64
	StartingFactor float64
}

// Neighbor is one same-group airplane within vision, as seen from the
// airplane being steered.
type Neighbor struct {
	Delta     orb.Point // shortest vector to the neighbour
	Distance  float64
	Direction orb.Point
}

// Homing is the base term of the flocking blend: the offset from the home
// base scaled by the starting factor.
func Homing(position, base orb.Point, factor float64) orb.Point {
	return geom.Scale(geom.Sub(position, base), factor)
}

// FlockDelta blends homing, cohesion, separation and alignment and divides
// by the neighbour count. With no neighbours the delta is homing alone.
func FlockDelta(p Params, position, base orb.Point, neighbors []Neighbor) orb.Point {
	homing := Homing(position, base, p.StartingFactor)
	if len(neighbors) == 0 {
		return homing
	}

	var cohere, separate, match orb.Point
	for _, n := range neighbors {
		cohere = geom.Add(cohere, n.Delta)
		if n.Distance < p.Separation {
			separate = geom.Add(separate, n.Delta)
		}
		match = geom.Add(match, n.Direction)
	}
	cohere = geom.Scale(cohere, p.Cohere)
	separate = geom.Scale(separate, -p.Separate)
	match = geom.Scale(match, p.Match)

	sum := geom.Add(geom.Add(homing, cohere), geom.Add(separate, match))
	return geom.Div(sum, float64(len(neighbors)))
}

// Topology gives the shortest vector between two points in the arena.
type Topology interface {
	Delta(from, to orb.Point) orb.Point
}

// SeekDelta points straight at the destination along the shortest path
// topo allows. Its length is the remaining distance.
func SeekDelta(topo Topology, position, destination orb.Point) orb.Point {
	return topo.Delta(position, destination)
}

// Apply adds delta to direction. Flocking always renormalises; seeking
// only clamps when the result is longer than 1.
func Apply(mode Mode, direction, delta orb.Point) orb.Point {
	d := geom.Add(direction, delta)
	if mode == ModeSeek {
		return geom.ClampUnit(d)
	}
	return geom.Normalize(d)
}

// Advance moves position along direction by speed. Wrapping into the
// arena is the caller's job.
func Advance(position, direction orb.Point, speed float64) orb.Point {
	return geom.Add(position, geom.Scale(direction, speed))
}
