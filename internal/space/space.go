// Package space is the continuous arena airplanes fly in: a rectangle that
// optionally wraps at its edges, with a kind-tagged cell grid for radius
// and distance queries.
package space

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"

	"github.com/flocksim/flocksim/internal/core/ecs"
	"github.com/flocksim/flocksim/internal/geom"
)

// Kind tags every entry so queries can skip entity types before any
// distance work is done.
type Kind uint8

const (
	KindAirplane Kind = iota + 1
	KindBase
)

func (k Kind) String() string {
	switch k {
	case KindAirplane:
		return "airplane"
	case KindBase:
		return "base"
	}
	return "unknown"
}

// Hit is one query result.
type Hit struct {
	ID       ecs.EntityID
	Distance float64
	Delta    orb.Point // shortest vector from the query point to the entry
}

type entry struct {
	kind Kind
	pos  orb.Point
	cell cellKey
}

// Space is accessed only from the simulation goroutine, no locks.
type Space struct {
	bounds orb.Bound
	width  float64
	height float64
	torus  bool

	grid  *grid
	items map[ecs.EntityID]*entry
	order []ecs.EntityID // insertion order, the enumeration order for ties
}

// New creates a space over bounds. cellSize is normally the largest query
// radius in use; smaller values still give correct results, just slower.
func New(bounds orb.Bound, torus bool, cellSize float64) (*Space, error) {
	w := bounds.Max[0] - bounds.Min[0]
	h := bounds.Max[1] - bounds.Min[1]
	if !(w > 0) || !(h > 0) {
		return nil, fmt.Errorf("space bounds must have positive size, got %vx%v", w, h)
	}
	if !(cellSize > 0) {
		return nil, fmt.Errorf("cell size must be positive, got %v", cellSize)
	}
	return &Space{
		bounds: bounds,
		width:  w,
		height: h,
		torus:  torus,
		grid:   newGrid(w, h, cellSize),
		items:  make(map[ecs.EntityID]*entry, 128),
	}, nil
}

func (s *Space) Bounds() orb.Bound { return s.bounds }
func (s *Space) Size() orb.Point   { return orb.Point{s.width, s.height} }
func (s *Space) Torus() bool       { return s.torus }
func (s *Space) Len() int          { return len(s.order) }

// Wrap maps p back into the arena: modulo on a torus, clamped otherwise.
func (s *Space) Wrap(p orb.Point) orb.Point {
	lo, hi := s.bounds.Min, s.bounds.Max
	if !s.torus {
		return orb.Point{
			math.Min(math.Max(p[0], lo[0]), hi[0]),
			math.Min(math.Max(p[1], lo[1]), hi[1]),
		}
	}
	return orb.Point{
		wrapAxis(p[0], lo[0], s.width),
		wrapAxis(p[1], lo[1], s.height),
	}
}

func wrapAxis(v, lo, size float64) float64 {
	r := math.Mod(v-lo, size)
	if r < 0 {
		r += size
	}
	if r >= size {
		r = 0
	}
	return r + lo
}

// Delta returns the shortest vector from `from` to `to` under the arena's
// topology.
func (s *Space) Delta(from, to orb.Point) orb.Point {
	d := geom.Sub(to, from)
	if s.torus {
		d[0] = shortestAxis(d[0], s.width)
		d[1] = shortestAxis(d[1], s.height)
	}
	return d
}

func shortestAxis(d, size float64) float64 {
	if d > size/2 {
		return d - size
	}
	if d < -size/2 {
		return d + size
	}
	return d
}

// Distance is the length of Delta(a, b).
func (s *Space) Distance(a, b orb.Point) float64 {
	return geom.Norm(s.Delta(a, b))
}

// Insert adds or replaces an entry.
func (s *Space) Insert(id ecs.EntityID, kind Kind, pos orb.Point) {
	if e, ok := s.items[id]; ok {
		s.grid.remove(id, e.cell)
		e.kind = kind
		s.place(id, e, pos)
		return
	}
	e := &entry{kind: kind}
	s.items[id] = e
	s.order = append(s.order, id)
	s.place(id, e, pos)
}

func (s *Space) place(id ecs.EntityID, e *entry, pos orb.Point) {
	e.pos = s.Wrap(pos)
	e.cell = s.grid.cellOf(geom.Sub(e.pos, s.bounds.Min))
	s.grid.add(id, e.cell)
}

// Move updates an entry's position, re-bucketing it when it changes cell.
func (s *Space) Move(id ecs.EntityID, pos orb.Point) {
	e, ok := s.items[id]
	if !ok {
		return
	}
	pos = s.Wrap(pos)
	cell := s.grid.cellOf(geom.Sub(pos, s.bounds.Min))
	if cell != e.cell {
		s.grid.remove(id, e.cell)
		s.grid.add(id, cell)
		e.cell = cell
	}
	e.pos = pos
}

// Remove drops an entry.
func (s *Space) Remove(id ecs.EntityID) {
	e, ok := s.items[id]
	if !ok {
		return
	}
	s.grid.remove(id, e.cell)
	delete(s.items, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Position returns the stored position of id.
func (s *Space) Position(id ecs.EntityID) (orb.Point, bool) {
	e, ok := s.items[id]
	if !ok {
		return orb.Point{}, false
	}
	return e.pos, true
}

// NeighborsWithinRadius returns entries of the given kind whose distance to
// p is at most radius, sorted by ID. The query point's own entry is
// included when it matches; callers exclude self.
func (s *Space) NeighborsWithinRadius(p orb.Point, radius float64, kind Kind) []Hit {
	p = s.Wrap(p)
	var hits []Hit
	for _, id := range s.grid.candidates(geom.Sub(p, s.bounds.Min), radius, s.torus) {
		e := s.items[id]
		if e.kind != kind {
			continue
		}
		d := s.Delta(p, e.pos)
		dist := geom.Norm(d)
		if dist <= radius {
			hits = append(hits, Hit{ID: id, Distance: dist, Delta: d})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].ID < hits[j].ID })
	return hits
}

// DistancesTo returns the distance from p to every entry of the given kind,
// in insertion order.
func (s *Space) DistancesTo(p orb.Point, kind Kind) []Hit {
	hits := make([]Hit, 0, len(s.order))
	for _, id := range s.order {
		e := s.items[id]
		if e.kind != kind {
			continue
		}
		d := s.Delta(p, e.pos)
		hits = append(hits, Hit{ID: id, Distance: geom.Norm(d), Delta: d})
	}
	return hits
}

// RandomPoint draws a point uniformly over the arena from draw, which must
// return values in [0, 1).
func (s *Space) RandomPoint(draw func() float64) orb.Point {
	x := s.bounds.Min[0] + draw()*s.width
	y := s.bounds.Min[1] + draw()*s.height
	return orb.Point{x, y}
}
