package world

import (
	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/flocksim/flocksim/internal/core/ecs"
	"github.com/flocksim/flocksim/internal/steering"
)

// Airplane holds in-memory data for one agent.
type Airplane struct {
	ID           ecs.EntityID
	UUID         uuid.UUID
	Position     orb.Point
	Direction    orb.Point
	BaseID       int       // group id of the home base
	BaseLocation orb.Point // changed only by a completed rebase mission
	Params       steering.Params

	Mission       ecs.EntityID // zero = free for assignment
	NeighborCount int          // same-group neighbours seen on the last flocking step
}

// Free reports whether the airplane can take a new mission.
func (a *Airplane) Free() bool { return a.Mission.IsZero() }

// AirplaneSpec is the creation input for AddAirplane.
type AirplaneSpec struct {
	UUID      uuid.UUID
	Position  orb.Point
	Direction orb.Point
	BaseID    int
	Params    steering.Params
}

// Base is a static home and destination point.
type Base struct {
	ID       ecs.EntityID
	GroupID  int
	Position orb.Point
}
