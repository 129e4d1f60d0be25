package system

import (
	"math/rand"
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	coresys "github.com/flocksim/flocksim/internal/core/system"
	"github.com/flocksim/flocksim/internal/space"
	"github.com/flocksim/flocksim/internal/steering"
	"github.com/flocksim/flocksim/internal/world"
)

// MovementSystem steps every airplane once per tick in an order shuffled
// with the model RNG. Phase 3 (Move).
//
// The tick runs in two passes. The plan pass steers every airplane against
// the positions and directions everyone had at tick start; the apply pass
// writes the results and runs the mission stage checks. No airplane ever
// sees a neighbour's half-updated state.
type MovementSystem struct {
	world *world.State
	rng   *rand.Rand
	log   *zap.Logger
	plans []movePlan
}

type movePlan struct {
	airplane  *world.Airplane
	direction orb.Point
	position  orb.Point
	seeking   bool
}

func NewMovementSystem(ws *world.State, rng *rand.Rand, log *zap.Logger) *MovementSystem {
	return &MovementSystem{world: ws, rng: rng, log: log}
}

func (s *MovementSystem) Phase() coresys.Phase { return coresys.PhaseMove }

func (s *MovementSystem) Update(_ time.Duration) {
	planes := s.world.Airplanes()
	s.rng.Shuffle(len(planes), func(i, j int) {
		planes[i], planes[j] = planes[j], planes[i]
	})

	s.plans = s.plans[:0]
	for _, a := range planes {
		s.plans = append(s.plans, s.plan(a))
	}
	for _, p := range s.plans {
		s.apply(p)
	}
}

func (s *MovementSystem) plan(a *world.Airplane) movePlan {
	p := movePlan{airplane: a}
	var delta orb.Point
	mode := steering.ModeFlock

	if m, ok := s.world.Mission(a.Mission); ok && !m.Completed() {
		mode = steering.ModeSeek
		p.seeking = true
		delta = steering.SeekDelta(s.world.Space(), a.Position, m.Destination())
	} else {
		neighbors := s.neighbors(a)
		a.NeighborCount = len(neighbors)
		delta = steering.FlockDelta(a.Params, a.Position, a.BaseLocation, neighbors)
	}

	p.direction = steering.Apply(mode, a.Direction, delta)
	p.position = steering.Advance(a.Position, p.direction, a.Params.Speed)
	return p
}

// neighbors lists airplanes of the same base within vision, excluding a.
func (s *MovementSystem) neighbors(a *world.Airplane) []steering.Neighbor {
	hits := s.world.Space().NeighborsWithinRadius(a.Position, a.Params.Vision, space.KindAirplane)
	out := make([]steering.Neighbor, 0, len(hits))
	for _, h := range hits {
		if h.ID == a.ID {
			continue
		}
		n, ok := s.world.Airplane(h.ID)
		if !ok || n.BaseID != a.BaseID {
			continue
		}
		out = append(out, steering.Neighbor{
			Delta:     h.Delta,
			Distance:  h.Distance,
			Direction: n.Direction,
		})
	}
	return out
}

func (s *MovementSystem) apply(p movePlan) {
	a := p.airplane
	s.world.MoveAirplane(a, p.position, p.direction)

	if ce := s.log.Check(zap.DebugLevel, "airplane step"); ce != nil {
		ce.Write(
			zap.Uint64("airplane", uint64(a.ID)),
			zap.Int("base", a.BaseID),
			zap.Float64s("position", a.Position[:]),
			zap.Float64s("direction", a.Direction[:]),
			zap.Bool("seeking", p.seeking),
		)
	}

	if !p.seeking {
		return
	}
	m, ok := s.world.Mission(a.Mission)
	if !ok {
		return
	}
	dist := s.world.Space().Distance(a.Position, m.Destination())
	if _, err := m.CheckStage(dist); err != nil {
		s.log.Error("mission stage check failed",
			zap.Stringer("mission", m),
			zap.Uint64("airplane", uint64(a.ID)),
			zap.Error(err),
		)
	}
}
