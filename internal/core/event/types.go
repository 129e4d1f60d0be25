package event

import (
	"github.com/google/uuid"

	"github.com/flocksim/flocksim/internal/core/ecs"
)

// Mission lifecycle events. Stage and kind are carried as names so
// subscribers do not depend on the mission package.

type MissionCreated struct {
	Tick      int
	MissionID ecs.EntityID
	UUID      uuid.UUID
	Kind      string
}

type MissionAssigned struct {
	Tick       int
	MissionID  ecs.EntityID
	UUID       uuid.UUID
	Kind       string
	AirplaneID ecs.EntityID
	Distance   float64
}

type MissionStageChanged struct {
	Tick       int
	MissionID  ecs.EntityID
	UUID       uuid.UUID
	Kind       string
	AirplaneID ecs.EntityID
	From       string
	To         string
}

type MissionFinished struct {
	Tick       int
	MissionID  ecs.EntityID
	UUID       uuid.UUID
	Kind       string
	AirplaneID ecs.EntityID
}

// AirplaneRebased is emitted when a base mission moves an airplane to a new home.
type AirplaneRebased struct {
	Tick       int
	AirplaneID ecs.EntityID
	FromBase   int
	ToBase     int
}
