package space

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/flocksim/flocksim/internal/core/ecs"
)

// grid buckets entries into square cells so radius queries only visit
// cells that can contain a hit. Coordinates are relative to the arena's
// minimum corner.

type cellKey struct {
	cx int32
	cy int32
}

type grid struct {
	size   float64
	nx, ny int32
	cells  map[cellKey]map[ecs.EntityID]struct{}
}

func newGrid(width, height, size float64) *grid {
	nx := int32(math.Ceil(width / size))
	ny := int32(math.Ceil(height / size))
	if nx < 1 {
		nx = 1
	}
	if ny < 1 {
		ny = 1
	}
	return &grid{
		size:  size,
		nx:    nx,
		ny:    ny,
		cells: make(map[cellKey]map[ecs.EntityID]struct{}),
	}
}

func clampCell(v, n int32) int32 {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

func (g *grid) cellOf(rel orb.Point) cellKey {
	return cellKey{
		cx: clampCell(int32(math.Floor(rel[0]/g.size)), g.nx),
		cy: clampCell(int32(math.Floor(rel[1]/g.size)), g.ny),
	}
}

func (g *grid) add(id ecs.EntityID, k cellKey) {
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[ecs.EntityID]struct{})
		g.cells[k] = cell
	}
	cell[id] = struct{}{}
}

func (g *grid) remove(id ecs.EntityID, k cellKey) {
	cell := g.cells[k]
	if cell == nil {
		return
	}
	delete(cell, id)
	if len(cell) == 0 {
		delete(g.cells, k)
	}
}

// axisCells lists the cell indices within span of c along one axis,
// wrapping on a torus. Each index appears at most once.
func axisCells(c, span, n int32, torus bool) []int32 {
	if 2*span+1 >= n {
		out := make([]int32, n)
		for i := range out {
			out[i] = int32(i)
		}
		return out
	}
	out := make([]int32, 0, 2*span+1)
	for d := -span; d <= span; d++ {
		v := c + d
		if torus {
			v = ((v % n) + n) % n
		} else if v < 0 || v >= n {
			continue
		}
		out = append(out, v)
	}
	return out
}

// candidates returns every ID in cells that may lie within radius of rel.
// The caller does exact distance filtering.
func (g *grid) candidates(rel orb.Point, radius float64, torus bool) []ecs.EntityID {
	c := g.cellOf(rel)
	span := int32(math.Ceil(radius/g.size)) + 1
	var out []ecs.EntityID
	for _, cx := range axisCells(c.cx, span, g.nx, torus) {
		for _, cy := range axisCells(c.cy, span, g.ny, torus) {
			for id := range g.cells[cellKey{cx: cx, cy: cy}] {
				out = append(out, id)
			}
		}
	}
	return out
}
