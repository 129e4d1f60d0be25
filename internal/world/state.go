package world

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/flocksim/flocksim/internal/core/ecs"
	"github.com/flocksim/flocksim/internal/core/event"
	"github.com/flocksim/flocksim/internal/mission"
	"github.com/flocksim/flocksim/internal/space"
)

// ErrAirplaneBusy is returned when assigning a mission to an airplane that
// already holds one.
var ErrAirplaneBusy = errors.New("airplane already has a mission")

// State is the simulation registry: airplanes, bases and missions keyed by
// generational handles, plus the space they live in.
// Accessed only from the simulation goroutine, so no locks.
type State struct {
	entities *ecs.World
	space    *space.Space
	bus      *event.Bus
	log      *zap.Logger

	airplanes *ecs.Store[Airplane]
	bases     *ecs.Store[Base]
	missions  *ecs.Store[mission.Mission]
	byGroup   map[int]*Base

	tick     int
	finished int
}

func NewState(sp *space.Space, bus *event.Bus, log *zap.Logger) *State {
	if log == nil {
		log = zap.NewNop()
	}
	s := &State{
		entities:  ecs.NewWorld(),
		space:     sp,
		bus:       bus,
		log:       log,
		airplanes: ecs.NewStore[Airplane](),
		bases:     ecs.NewStore[Base](),
		missions:  ecs.NewStore[mission.Mission](),
		byGroup:   make(map[int]*Base),
	}
	s.entities.Register(s.airplanes)
	s.entities.Register(s.bases)
	s.entities.Register(s.missions)
	return s
}

func (s *State) Space() *space.Space { return s.space }
func (s *State) Bus() *event.Bus     { return s.bus }

// Tick is the number of the tick in progress (0 before the first step).
func (s *State) Tick() int { return s.tick }

// AdvanceTick starts the next tick and returns its number.
func (s *State) AdvanceTick() int {
	s.tick++
	return s.tick
}

// ── Bases ──

func (s *State) AddBase(groupID int, pos orb.Point) (*Base, error) {
	if _, dup := s.byGroup[groupID]; dup {
		return nil, fmt.Errorf("base group %d already exists", groupID)
	}
	b := &Base{
		ID:       s.entities.CreateEntity(),
		GroupID:  groupID,
		Position: s.space.Wrap(pos),
	}
	s.bases.Set(b.ID, b)
	s.byGroup[groupID] = b
	s.space.Insert(b.ID, space.KindBase, b.Position)
	return b, nil
}

func (s *State) Bases() []*Base { return s.bases.Values() }
func (s *State) BaseCount() int { return s.bases.Len() }

// BaseGroups lists group ids in creation order.
func (s *State) BaseGroups() []int {
	out := make([]int, 0, s.bases.Len())
	s.bases.Each(func(_ ecs.EntityID, b *Base) {
		out = append(out, b.GroupID)
	})
	return out
}

// BasePosition looks up bases_position[groupID].
func (s *State) BasePosition(groupID int) (orb.Point, bool) {
	b, ok := s.byGroup[groupID]
	if !ok {
		return orb.Point{}, false
	}
	return b.Position, true
}

// ── Airplanes ──

func (s *State) AddAirplane(spec AirplaneSpec) (*Airplane, error) {
	home, ok := s.byGroup[spec.BaseID]
	if !ok {
		return nil, fmt.Errorf("airplane base %d does not exist", spec.BaseID)
	}
	id := spec.UUID
	if id == uuid.Nil {
		id = uuid.New()
	}
	a := &Airplane{
		ID:           s.entities.CreateEntity(),
		UUID:         id,
		Position:     s.space.Wrap(spec.Position),
		Direction:    spec.Direction,
		BaseID:       home.GroupID,
		BaseLocation: home.Position,
		Params:       spec.Params,
	}
	s.airplanes.Set(a.ID, a)
	s.space.Insert(a.ID, space.KindAirplane, a.Position)
	return a, nil
}

func (s *State) Airplane(id ecs.EntityID) (*Airplane, bool) { return s.airplanes.Get(id) }
func (s *State) Airplanes() []*Airplane                     { return s.airplanes.Values() }
func (s *State) AirplaneCount() int                         { return s.airplanes.Len() }

// MoveAirplane stores a new position (wrapped into the arena) and direction.
func (s *State) MoveAirplane(a *Airplane, pos, dir orb.Point) {
	a.Position = s.space.Wrap(pos)
	a.Direction = dir
	s.space.Move(a.ID, a.Position)
}

// ── Missions ──

// AddMission validates spec and registers the resulting PENDING mission.
func (s *State) AddMission(spec mission.Spec) (*mission.Mission, error) {
	m, err := mission.New(spec, s)
	if err != nil {
		return nil, err
	}
	m.ID = s.entities.CreateEntity()
	if m.CreatedTick == 0 {
		m.CreatedTick = s.tick
	}
	s.missions.Set(m.ID, m)
	event.Emit(s.bus, event.MissionCreated{
		Tick:      s.tick,
		MissionID: m.ID,
		UUID:      m.UUID,
		Kind:      m.Kind.String(),
	})
	return m, nil
}

func (s *State) Mission(id ecs.EntityID) (*mission.Mission, bool) { return s.missions.Get(id) }

// Missions returns the active pool in creation order. Completed missions
// stay listed until the end of the tick they finished in.
func (s *State) Missions() []*mission.Mission { return s.missions.Values() }

// PendingMissions returns missions still waiting for an airplane, oldest first.
func (s *State) PendingMissions() []*mission.Mission {
	var out []*mission.Mission
	s.missions.Each(func(_ ecs.EntityID, m *mission.Mission) {
		if m.Pending() {
			out = append(out, m)
		}
	})
	return out
}

// FinishedCount is the number of missions completed so far.
func (s *State) FinishedCount() int { return s.finished }

// Assign links m and a and advances m to its first working stage.
func (s *State) Assign(m *mission.Mission, a *Airplane, distance float64) error {
	if !a.Mission.IsZero() {
		return fmt.Errorf("%w: airplane %d holds mission %d", ErrAirplaneBusy, a.ID, a.Mission)
	}
	a.Mission = m.ID
	if err := m.Assign(a.ID, distance); err != nil {
		a.Mission = 0
		return err
	}
	return nil
}

func (s *State) MissionAssigned(m *mission.Mission, distance float64) {
	event.Emit(s.bus, event.MissionAssigned{
		Tick:       s.tick,
		MissionID:  m.ID,
		UUID:       m.UUID,
		Kind:       m.Kind.String(),
		AirplaneID: m.Airplane(),
		Distance:   distance,
	})
	s.log.Debug("mission assigned",
		zap.Stringer("mission", m),
		zap.Uint64("airplane", uint64(m.Airplane())),
		zap.Float64("distance", distance),
	)
}

// FlushCompleted drops missions that finished this tick from the pool.
func (s *State) FlushCompleted() int {
	return s.entities.FlushDestroyQueue()
}

// ── mission.Host ──

func (s *State) AirplaneBase(id ecs.EntityID) (int, orb.Point, bool) {
	a, ok := s.airplanes.Get(id)
	if !ok {
		return 0, orb.Point{}, false
	}
	return a.BaseID, a.BaseLocation, true
}

func (s *State) Rebase(id ecs.EntityID, groupID int) error {
	a, ok := s.airplanes.Get(id)
	if !ok {
		return fmt.Errorf("rebase: airplane %d not found", id)
	}
	b, ok := s.byGroup[groupID]
	if !ok {
		return fmt.Errorf("rebase: base %d not found", groupID)
	}
	from := a.BaseID
	a.BaseID = b.GroupID
	a.BaseLocation = b.Position
	event.Emit(s.bus, event.AirplaneRebased{
		Tick:       s.tick,
		AirplaneID: a.ID,
		FromBase:   from,
		ToBase:     b.GroupID,
	})
	return nil
}

func (s *State) Release(airplane, missionID ecs.EntityID) {
	a, ok := s.airplanes.Get(airplane)
	if !ok || a.Mission != missionID {
		return
	}
	a.Mission = 0
}

func (s *State) MissionStageChanged(m *mission.Mission, from mission.Stage) {
	event.Emit(s.bus, event.MissionStageChanged{
		Tick:       s.tick,
		MissionID:  m.ID,
		UUID:       m.UUID,
		Kind:       m.Kind.String(),
		AirplaneID: m.Airplane(),
		From:       from.String(),
		To:         m.Stage().String(),
	})
}

func (s *State) MissionFinished(m *mission.Mission) {
	s.finished++
	s.entities.MarkForDestruction(m.ID)
	event.Emit(s.bus, event.MissionFinished{
		Tick:       s.tick,
		MissionID:  m.ID,
		UUID:       m.UUID,
		Kind:       m.Kind.String(),
		AirplaneID: m.Airplane(),
	})
	s.log.Info("mission finished",
		zap.Stringer("mission", m),
		zap.Uint64("airplane", uint64(m.Airplane())),
		zap.Int("tick", s.tick),
	)
}
