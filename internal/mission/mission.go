// Package mission implements the staged mission state machine and the
// catalog of mission variants.
//
// A mission only moves forward through its variant's stage list. It never
// looks at airplane positions itself: the airplane measures the distance to
// Destination each tick and hands it to CheckStage.
package mission

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/flocksim/flocksim/internal/core/ecs"
	"github.com/flocksim/flocksim/internal/geom"
)

var (
	// ErrInvalidMissionSpec is returned by New when a spec cannot produce a mission.
	ErrInvalidMissionSpec = errors.New("invalid mission spec")
	// ErrIllegalStageTransition marks a sequencing bug, such as advancing a
	// completed mission.
	ErrIllegalStageTransition = errors.New("illegal stage transition")
)

// Host is the simulation state a mission reads and mutates while it
// advances. Airplanes and bases are referenced by handle, never by pointer.
type Host interface {
	BasePosition(baseID int) (orb.Point, bool)
	AirplaneBase(airplane ecs.EntityID) (baseID int, location orb.Point, ok bool)
	Rebase(airplane ecs.EntityID, baseID int) error
	// Release clears the airplane's mission handle if it still points at mission.
	Release(airplane, mission ecs.EntityID)
	MissionAssigned(m *Mission, distance float64)
	MissionStageChanged(m *Mission, from Stage)
	MissionFinished(m *Mission)
}

// Spec describes a mission before it exists.
type Spec struct {
	Kind            Kind
	Target          orb.Point // boomerang variants
	BaseID          int       // rebase variants
	Stages          []Stage   // nil means the variant's list
	DetectionRadius float64
	UUID            uuid.UUID
	CreatedTick     int
}

type Mission struct {
	ID              ecs.EntityID
	UUID            uuid.UUID
	Kind            Kind
	Target          orb.Point
	BaseID          int
	DetectionRadius float64
	CreatedTick     int

	stages      []Stage
	idx         int
	destination orb.Point
	airplane    ecs.EntityID
	host        Host
}

// New validates spec and builds a PENDING mission. The registry sets ID
// once the mission is accepted; nothing is registered with host on failure.
func New(spec Spec, host Host) (*Mission, error) {
	if host == nil {
		return nil, fmt.Errorf("%w: nil host", ErrInvalidMissionSpec)
	}
	v, ok := variants[spec.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown kind %d", ErrInvalidMissionSpec, spec.Kind)
	}
	stages, err := resolveStages(spec.Stages, v)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(spec.DetectionRadius) || math.IsInf(spec.DetectionRadius, 0) || spec.DetectionRadius <= 0 {
		return nil, fmt.Errorf("%w: detection radius must be positive, got %v",
			ErrInvalidMissionSpec, spec.DetectionRadius)
	}

	var dest orb.Point
	switch v.pattern {
	case patternBoomerang:
		dest = spec.Target
	case patternRebase:
		pos, ok := host.BasePosition(spec.BaseID)
		if !ok {
			return nil, fmt.Errorf("%w: %s targets unknown base %d", ErrInvalidMissionSpec, spec.Kind, spec.BaseID)
		}
		dest = pos
	}
	if !geom.Finite(dest) {
		return nil, fmt.Errorf("%w: destination %v is not a finite point", ErrInvalidMissionSpec, dest)
	}

	mid := spec.UUID
	if mid == uuid.Nil {
		mid = uuid.New()
	}
	return &Mission{
		UUID:            mid,
		Kind:            spec.Kind,
		Target:          spec.Target,
		BaseID:          spec.BaseID,
		DetectionRadius: spec.DetectionRadius,
		CreatedTick:     spec.CreatedTick,
		stages:          stages,
		destination:     dest,
		host:            host,
	}, nil
}

func resolveStages(given []Stage, v variant) ([]Stage, error) {
	if given == nil {
		out := make([]Stage, len(v.stages))
		copy(out, v.stages)
		return out, nil
	}
	if len(given) != len(v.stages) {
		return nil, fmt.Errorf("%w: stage list %v does not match variant %v", ErrInvalidMissionSpec, given, v.stages)
	}
	for i := range given {
		if given[i] != v.stages[i] {
			return nil, fmt.Errorf("%w: stage list %v does not match variant %v", ErrInvalidMissionSpec, given, v.stages)
		}
	}
	out := make([]Stage, len(given))
	copy(out, given)
	return out, nil
}

func (m *Mission) Stage() Stage           { return m.stages[m.idx] }
func (m *Mission) StageIndex() int        { return m.idx }
func (m *Mission) Destination() orb.Point { return m.destination }
func (m *Mission) Airplane() ecs.EntityID { return m.airplane }
func (m *Mission) Pending() bool          { return m.Stage() == StagePending }
func (m *Mission) Completed() bool        { return m.Stage() == StageCompleted }
func (m *Mission) String() string {
	return fmt.Sprintf("mission(%s %s %s dest=%.2f,%.2f)", m.UUID.String()[:8], m.Kind, m.Stage(), m.destination[0], m.destination[1])
}

// Stages returns a copy of the mission's stage list.
func (m *Mission) Stages() []Stage {
	out := make([]Stage, len(m.stages))
	copy(out, m.stages)
	return out
}

// Assign attaches airplane and advances from PENDING to the first working
// stage. The host hears about the assignment before the stage change.
// The caller owns the airplane side of the link.
func (m *Mission) Assign(airplane ecs.EntityID, distance float64) error {
	if airplane.IsZero() {
		return fmt.Errorf("%w: assign mission %s to no airplane", ErrIllegalStageTransition, m.UUID)
	}
	if !m.Pending() || !m.airplane.IsZero() {
		return fmt.Errorf("%w: mission %s is %s, assigned to %d", ErrIllegalStageTransition, m.UUID, m.Stage(), m.airplane)
	}
	m.airplane = airplane
	m.host.MissionAssigned(m, distance)
	if err := m.ChangeStage(); err != nil {
		m.airplane = 0
		return err
	}
	return nil
}

// ChangeStage advances exactly one stage and applies the destination rule
// of the stage entered. Entering COMPLETED notifies the host and detaches
// the airplane, which is the only way an airplane becomes free again.
func (m *Mission) ChangeStage() error {
	if m.Completed() {
		return fmt.Errorf("%w: mission %s already %s", ErrIllegalStageTransition, m.UUID, StageCompleted)
	}
	if m.airplane.IsZero() {
		return fmt.Errorf("%w: mission %s has no airplane", ErrIllegalStageTransition, m.UUID)
	}

	from := m.Stage()
	next := m.stages[m.idx+1]
	v := variants[m.Kind]

	if next == StageCompleted {
		if fn := completeRules[v.pattern]; fn != nil {
			if err := fn(m); err != nil {
				return err
			}
		}
		m.idx++
		m.host.MissionStageChanged(m, from)
		m.host.MissionFinished(m)
		m.host.Release(m.airplane, m.ID)
		m.airplane = 0
		return nil
	}

	if rule := enterRules[v.pattern][next]; rule != nil {
		dest, err := rule(m)
		if err != nil {
			return err
		}
		m.destination = dest
	}
	m.idx++
	m.host.MissionStageChanged(m, from)
	return nil
}

// CheckStage advances the mission when the airplane is strictly closer to
// the destination than the detection radius.
func (m *Mission) CheckStage(distance float64) (bool, error) {
	if m.Completed() {
		return false, fmt.Errorf("%w: stage check on completed mission %s", ErrIllegalStageTransition, m.UUID)
	}
	if !(distance < m.DetectionRadius) {
		return false, nil
	}
	if err := m.ChangeStage(); err != nil {
		return false, err
	}
	return true, nil
}
