package space

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flocksim/flocksim/internal/core/ecs"
)

func newTorus(t *testing.T, w, h, cell float64) *Space {
	t.Helper()
	s, err := New(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{w, h}}, true, cell)
	require.NoError(t, err)
	return s
}

func TestNew_RejectsDegenerateInput(t *testing.T) {
	_, err := New(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{0, 10}}, true, 1)
	assert.Error(t, err)
	_, err = New(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{10, 10}}, true, 0)
	assert.Error(t, err)
}

func TestWrap(t *testing.T) {
	s := newTorus(t, 50, 50, 10)
	got := s.Wrap(orb.Point{50.5, -1})
	assert.InDelta(t, 0.5, got[0], 1e-9)
	assert.InDelta(t, 49, got[1], 1e-9)
	assert.Equal(t, orb.Point{0, 0}, s.Wrap(orb.Point{50, 100}))

	flat, err := New(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{50, 50}}, false, 10)
	require.NoError(t, err)
	assert.Equal(t, orb.Point{50, 0}, flat.Wrap(orb.Point{60, -3}))
}

func TestDelta_ShortestOnTorus(t *testing.T) {
	s := newTorus(t, 50, 50, 10)
	d := s.Delta(orb.Point{1, 1}, orb.Point{49, 49})
	assert.InDelta(t, -2, d[0], 1e-9)
	assert.InDelta(t, -2, d[1], 1e-9)
	assert.InDelta(t, 2.8284271, s.Distance(orb.Point{1, 1}, orb.Point{49, 49}), 1e-6)

	flat, err := New(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{50, 50}}, false, 10)
	require.NoError(t, err)
	assert.Equal(t, orb.Point{48, 48}, flat.Delta(orb.Point{1, 1}, orb.Point{49, 49}))
}

func TestNeighborsWithinRadius_FiltersKindAndSortsByID(t *testing.T) {
	s := newTorus(t, 50, 50, 10)
	s.Insert(3, KindAirplane, orb.Point{1, 1})
	s.Insert(1, KindAirplane, orb.Point{49, 49})
	s.Insert(2, KindAirplane, orb.Point{25, 25})
	s.Insert(4, KindBase, orb.Point{2, 2})

	hits := s.NeighborsWithinRadius(orb.Point{1, 1}, 3, KindAirplane)
	require.Len(t, hits, 2)
	assert.Equal(t, ecs.EntityID(1), hits[0].ID)
	assert.Equal(t, ecs.EntityID(3), hits[1].ID)
	assert.InDelta(t, -2, hits[0].Delta[0], 1e-9)
	assert.Zero(t, hits[1].Distance)

	bases := s.NeighborsWithinRadius(orb.Point{1, 1}, 3, KindBase)
	require.Len(t, bases, 1)
	assert.Equal(t, ecs.EntityID(4), bases[0].ID)
}

func TestNeighborsWithinRadius_BoundaryIsInclusive(t *testing.T) {
	s := newTorus(t, 50, 50, 10)
	s.Insert(1, KindAirplane, orb.Point{10, 10})
	s.Insert(2, KindAirplane, orb.Point{13, 10})

	assert.Len(t, s.NeighborsWithinRadius(orb.Point{10, 10}, 3, KindAirplane), 2)
	assert.Len(t, s.NeighborsWithinRadius(orb.Point{10, 10}, 2.999, KindAirplane), 1)
}

func TestNeighborsWithinRadius_MatchesBruteForce(t *testing.T) {
	for _, torus := range []bool{true, false} {
		s, err := New(orb.Bound{Min: orb.Point{-20, 5}, Max: orb.Point{80, 85}}, torus, 7)
		require.NoError(t, err)
		rng := rand.New(rand.NewSource(7))
		for i := 1; i <= 200; i++ {
			s.Insert(ecs.EntityID(i), KindAirplane, s.RandomPoint(rng.Float64))
		}
		for q := 0; q < 50; q++ {
			p := s.RandomPoint(rng.Float64)
			r := rng.Float64() * 25

			var want []ecs.EntityID
			for _, h := range s.DistancesTo(p, KindAirplane) {
				if h.Distance <= r {
					want = append(want, h.ID)
				}
			}
			sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })

			var got []ecs.EntityID
			for _, h := range s.NeighborsWithinRadius(p, r, KindAirplane) {
				got = append(got, h.ID)
			}
			assert.Equal(t, want, got, "torus=%v query %d", torus, q)
		}
	}
}

func TestMoveAndRemove(t *testing.T) {
	s := newTorus(t, 50, 50, 5)
	s.Insert(1, KindAirplane, orb.Point{1, 1})
	s.Insert(2, KindAirplane, orb.Point{2, 2})

	s.Move(1, orb.Point{40, 40})
	pos, ok := s.Position(1)
	require.True(t, ok)
	assert.Equal(t, orb.Point{40, 40}, pos)
	assert.Len(t, s.NeighborsWithinRadius(orb.Point{1, 1}, 3, KindAirplane), 1)

	s.Remove(2)
	assert.Equal(t, 1, s.Len())
	_, ok = s.Position(2)
	assert.False(t, ok)
	assert.Empty(t, s.NeighborsWithinRadius(orb.Point{1, 1}, 3, KindAirplane))
}

func TestDistancesTo_InsertionOrder(t *testing.T) {
	s := newTorus(t, 50, 50, 10)
	s.Insert(9, KindAirplane, orb.Point{5, 5})
	s.Insert(4, KindBase, orb.Point{6, 6})
	s.Insert(2, KindAirplane, orb.Point{7, 7})

	hits := s.DistancesTo(orb.Point{5, 5}, KindAirplane)
	require.Len(t, hits, 2)
	assert.Equal(t, ecs.EntityID(9), hits[0].ID)
	assert.Equal(t, ecs.EntityID(2), hits[1].ID)
}

func TestRandomPoint_StaysInBounds(t *testing.T) {
	s := newTorus(t, 30, 20, 5)
	rng := rand.New(rand.NewSource(1))
	b := s.Bounds()
	for i := 0; i < 1000; i++ {
		p := s.RandomPoint(rng.Float64)
		assert.True(t, p[0] >= b.Min[0] && p[0] < b.Max[0])
		assert.True(t, p[1] >= b.Min[1] && p[1] < b.Max[1])
	}
}
