package mission

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// pattern groups variants that share a stage list and destination rules.
type pattern uint8

const (
	// boomerang: fly to a target point, then back to the airplane's base.
	patternBoomerang pattern = iota
	// rebase: fly to a chosen base and make it the airplane's new home.
	patternRebase
)

type variant struct {
	pattern pattern
	stages  []Stage
}

var (
	boomerangStages = []Stage{StagePending, StageToTarget, StageToBase, StageCompleted}
	rebaseStages    = []Stage{StagePending, StageToBase, StageCompleted}
)

// kinds is the catalog order used for uniform random draws.
var kinds = []Kind{KindAttack, KindRescue, KindSwitchBase, KindTakeToBase}

var variants = map[Kind]variant{
	KindAttack:     {pattern: patternBoomerang, stages: boomerangStages},
	KindRescue:     {pattern: patternBoomerang, stages: boomerangStages},
	KindSwitchBase: {pattern: patternRebase, stages: rebaseStages},
	KindTakeToBase: {pattern: patternRebase, stages: rebaseStages},
}

// destinationRule computes the destination on entering a stage.
type destinationRule func(m *Mission) (orb.Point, error)

var enterRules = map[pattern]map[Stage]destinationRule{
	patternBoomerang: {
		StageToTarget: func(m *Mission) (orb.Point, error) { return m.Target, nil },
		StageToBase:   airplaneHome,
	},
	patternRebase: {
		StageToBase: chosenBase,
	},
}

// completeRules run just before a mission is marked COMPLETED.
var completeRules = map[pattern]func(m *Mission) error{
	patternRebase: func(m *Mission) error {
		return m.host.Rebase(m.airplane, m.BaseID)
	},
}

func airplaneHome(m *Mission) (orb.Point, error) {
	_, loc, ok := m.host.AirplaneBase(m.airplane)
	if !ok {
		return orb.Point{}, fmt.Errorf("%w: airplane %d of mission %s not found",
			ErrIllegalStageTransition, m.airplane, m.UUID)
	}
	return loc, nil
}

func chosenBase(m *Mission) (orb.Point, error) {
	pos, ok := m.host.BasePosition(m.BaseID)
	if !ok {
		return orb.Point{}, fmt.Errorf("%w: base %d of mission %s not found",
			ErrIllegalStageTransition, m.BaseID, m.UUID)
	}
	return pos, nil
}

// Kinds returns the catalog's variants in draw order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// StagesOf returns the stage list of a variant, or nil for an unknown kind.
func StagesOf(k Kind) []Stage {
	v, ok := variants[k]
	if !ok {
		return nil
	}
	out := make([]Stage, len(v.stages))
	copy(out, v.stages)
	return out
}

// Arena is the part of the space mission generation needs.
type Arena interface {
	RandomPoint(draw func() float64) orb.Point
}

// RandomKind draws a variant uniformly from the catalog.
func RandomKind(rng *rand.Rand) Kind {
	return kinds[rng.Intn(len(kinds))]
}

// Generate builds a spec for kind with every random choice drawn from rng:
// the mission UUID, then a uniform target point for boomerang variants or
// one of baseGroups for rebase variants.
func Generate(rng *rand.Rand, arena Arena, baseGroups []int, kind Kind, radius float64, tick int) (Spec, error) {
	v, ok := variants[kind]
	if !ok {
		return Spec{}, fmt.Errorf("%w: unknown kind %d", ErrInvalidMissionSpec, kind)
	}
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		return Spec{}, fmt.Errorf("mission uuid: %w", err)
	}
	spec := Spec{
		Kind:            kind,
		DetectionRadius: radius,
		UUID:            id,
		CreatedTick:     tick,
	}
	switch v.pattern {
	case patternBoomerang:
		spec.Target = arena.RandomPoint(rng.Float64)
	case patternRebase:
		if len(baseGroups) == 0 {
			return Spec{}, fmt.Errorf("%w: %s needs at least one base", ErrInvalidMissionSpec, kind)
		}
		spec.BaseID = baseGroups[rng.Intn(len(baseGroups))]
	}
	return spec, nil
}

// Attack, Rescue, SwitchBase and TakeToBase build specs with explicit
// destinations, for scenarios and tests.

func Attack(target orb.Point, radius float64) Spec {
	return Spec{Kind: KindAttack, Target: target, DetectionRadius: radius, UUID: uuid.New()}
}

func Rescue(target orb.Point, radius float64) Spec {
	return Spec{Kind: KindRescue, Target: target, DetectionRadius: radius, UUID: uuid.New()}
}

func SwitchBase(baseID int, radius float64) Spec {
	return Spec{Kind: KindSwitchBase, BaseID: baseID, DetectionRadius: radius, UUID: uuid.New()}
}

func TakeToBase(baseID int, radius float64) Spec {
	return Spec{Kind: KindTakeToBase, BaseID: baseID, DetectionRadius: radius, UUID: uuid.New()}
}
