package system

import (
	"sort"
	"time"

	"go.uber.org/zap"

	coresys "github.com/flocksim/flocksim/internal/core/system"
	"github.com/flocksim/flocksim/internal/space"
	"github.com/flocksim/flocksim/internal/world"
)

// AssignSystem hands every PENDING mission to the nearest free airplane.
// Missions nobody can take stay PENDING and are retried next tick.
// Phase 2 (Assign).
type AssignSystem struct {
	world *world.State
	log   *zap.Logger
}

func NewAssignSystem(ws *world.State, log *zap.Logger) *AssignSystem {
	return &AssignSystem{world: ws, log: log}
}

func (s *AssignSystem) Phase() coresys.Phase { return coresys.PhaseAssign }

func (s *AssignSystem) Update(_ time.Duration) {
	s.AssignPending()
}

// AssignPending runs one assignment pass over the pending missions in
// creation order and returns the number assigned.
func (s *AssignSystem) AssignPending() int {
	assigned := 0
	for _, m := range s.world.PendingMissions() {
		hits := s.world.Space().DistancesTo(m.Destination(), space.KindAirplane)
		// stable: equal distances keep enumeration order
		sort.SliceStable(hits, func(i, j int) bool {
			return hits[i].Distance < hits[j].Distance
		})
		for _, h := range hits {
			a, ok := s.world.Airplane(h.ID)
			if !ok || !a.Free() {
				continue
			}
			if err := s.world.Assign(m, a, h.Distance); err != nil {
				s.log.Error("mission assignment failed",
					zap.Stringer("mission", m),
					zap.Uint64("airplane", uint64(a.ID)),
					zap.Error(err),
				)
				break
			}
			assigned++
			break
		}
	}
	return assigned
}
