package system

import (
	"math/rand"
	"time"

	"go.uber.org/zap"

	coresys "github.com/flocksim/flocksim/internal/core/system"
	"github.com/flocksim/flocksim/internal/mission"
	"github.com/flocksim/flocksim/internal/world"
)

// MissionGenSystem creates a batch of random missions, one per airplane,
// on every tick that is a multiple of the interval. Phase 1 (Generate).
type MissionGenSystem struct {
	world    *world.State
	rng      *rand.Rand
	interval int
	radius   float64
	log      *zap.Logger
}

func NewMissionGenSystem(ws *world.State, rng *rand.Rand, interval int, radius float64, log *zap.Logger) *MissionGenSystem {
	return &MissionGenSystem{
		world:    ws,
		rng:      rng,
		interval: interval,
		radius:   radius,
		log:      log,
	}
}

func (s *MissionGenSystem) Phase() coresys.Phase { return coresys.PhaseGenerate }

func (s *MissionGenSystem) Update(_ time.Duration) {
	if s.interval <= 0 || s.world.Tick()%s.interval != 0 {
		return
	}
	s.Generate(s.world.AirplaneCount())
}

// Generate adds n missions of uniformly random kind and returns how many
// were created. A spec that fails validation is logged and skipped; the
// rest of the batch still goes ahead.
func (s *MissionGenSystem) Generate(n int) int {
	groups := s.world.BaseGroups()
	tick := s.world.Tick()
	created := 0
	for i := 0; i < n; i++ {
		kind := mission.RandomKind(s.rng)
		spec, err := mission.Generate(s.rng, s.world.Space(), groups, kind, s.radius, tick)
		if err != nil {
			s.log.Error("mission spec rejected", zap.Stringer("kind", kind), zap.Error(err))
			continue
		}
		if _, err := s.world.AddMission(spec); err != nil {
			s.log.Error("mission rejected", zap.Stringer("kind", kind), zap.Error(err))
			continue
		}
		created++
	}
	if created > 0 {
		s.log.Debug("missions generated", zap.Int("tick", tick), zap.Int("count", created))
	}
	return created
}
