package world

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flocksim/flocksim/internal/core/event"
	"github.com/flocksim/flocksim/internal/mission"
	"github.com/flocksim/flocksim/internal/space"
)

func newTestState(t *testing.T) *State {
	t.Helper()
	sp, err := space.New(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{50, 50}}, true, 10)
	require.NoError(t, err)
	return NewState(sp, event.NewBus(), zap.NewNop())
}

func TestAddBase_RejectsDuplicateGroup(t *testing.T) {
	ws := newTestState(t)
	_, err := ws.AddBase(0, orb.Point{10, 10})
	require.NoError(t, err)
	_, err = ws.AddBase(0, orb.Point{20, 20})
	assert.Error(t, err)

	_, err = ws.AddBase(3, orb.Point{60, 5})
	require.NoError(t, err)
	pos, ok := ws.BasePosition(3)
	require.True(t, ok)
	assert.Equal(t, orb.Point{10, 5}, pos, "base positions are wrapped into the arena")
	assert.Equal(t, []int{0, 3}, ws.BaseGroups())
}

func TestAddAirplane_NeedsKnownBase(t *testing.T) {
	ws := newTestState(t)
	_, err := ws.AddAirplane(AirplaneSpec{BaseID: 1})
	assert.Error(t, err)

	_, err = ws.AddBase(1, orb.Point{5, 5})
	require.NoError(t, err)
	a, err := ws.AddAirplane(AirplaneSpec{BaseID: 1, Position: orb.Point{6, 5}})
	require.NoError(t, err)
	assert.Equal(t, orb.Point{5, 5}, a.BaseLocation)
	assert.True(t, a.Free())

	hits := ws.Space().NeighborsWithinRadius(orb.Point{5, 5}, 2, space.KindAirplane)
	require.Len(t, hits, 1)
	assert.Equal(t, a.ID, hits[0].ID)
}

func TestAssign_LinksBothSidesAndRejectsBusy(t *testing.T) {
	ws := newTestState(t)
	_, err := ws.AddBase(0, orb.Point{10, 10})
	require.NoError(t, err)
	a, err := ws.AddAirplane(AirplaneSpec{BaseID: 0, Position: orb.Point{10, 10}})
	require.NoError(t, err)

	m1, err := ws.AddMission(mission.Attack(orb.Point{20, 20}, 1))
	require.NoError(t, err)
	m2, err := ws.AddMission(mission.Rescue(orb.Point{30, 30}, 1))
	require.NoError(t, err)
	assert.Len(t, ws.PendingMissions(), 2)

	require.NoError(t, ws.Assign(m1, a, 14.1))
	assert.Equal(t, m1.ID, a.Mission)
	assert.Equal(t, a.ID, m1.Airplane())
	assert.Equal(t, mission.StageToTarget, m1.Stage())

	err = ws.Assign(m2, a, 20)
	assert.ErrorIs(t, err, ErrAirplaneBusy)
	assert.True(t, m2.Pending())
	assert.Equal(t, []*mission.Mission{m2}, ws.PendingMissions())
}

func TestAssign_EmitsAssignmentBeforeStageChange(t *testing.T) {
	ws := newTestState(t)
	_, err := ws.AddBase(0, orb.Point{10, 10})
	require.NoError(t, err)
	a, err := ws.AddAirplane(AirplaneSpec{BaseID: 0, Position: orb.Point{10, 10}})
	require.NoError(t, err)

	var order []string
	var assigned []event.MissionAssigned
	event.Subscribe(ws.Bus(), func(e event.MissionAssigned) {
		order = append(order, "assigned")
		assigned = append(assigned, e)
	})
	event.Subscribe(ws.Bus(), func(e event.MissionStageChanged) {
		order = append(order, e.From+">"+e.To)
	})

	m, err := ws.AddMission(mission.Attack(orb.Point{20, 20}, 1))
	require.NoError(t, err)
	require.NoError(t, ws.Assign(m, a, 14.1))

	ws.Bus().SwapBuffers()
	ws.Bus().DispatchAll()

	assert.Equal(t, []string{"assigned", "PENDING>TO_TARGET"}, order)
	require.Len(t, assigned, 1)
	assert.Equal(t, a.ID, assigned[0].AirplaneID)
	assert.InDelta(t, 14.1, assigned[0].Distance, 1e-9)
}

func TestRebaseMission_CompletesAndIsFlushed(t *testing.T) {
	ws := newTestState(t)
	_, err := ws.AddBase(0, orb.Point{10, 10})
	require.NoError(t, err)
	_, err = ws.AddBase(1, orb.Point{30, 10})
	require.NoError(t, err)
	a, err := ws.AddAirplane(AirplaneSpec{BaseID: 0, Position: orb.Point{10, 10}})
	require.NoError(t, err)

	var rebased []event.AirplaneRebased
	var finished []event.MissionFinished
	event.Subscribe(ws.Bus(), func(e event.AirplaneRebased) { rebased = append(rebased, e) })
	event.Subscribe(ws.Bus(), func(e event.MissionFinished) { finished = append(finished, e) })

	m, err := ws.AddMission(mission.SwitchBase(1, 1))
	require.NoError(t, err)
	require.NoError(t, ws.Assign(m, a, 20))

	advanced, err := m.CheckStage(0.5)
	require.NoError(t, err)
	require.True(t, advanced)

	assert.True(t, a.Free())
	assert.Equal(t, 1, a.BaseID)
	assert.Equal(t, orb.Point{30, 10}, a.BaseLocation)
	assert.Equal(t, 1, ws.FinishedCount())

	// still listed until cleanup
	assert.Len(t, ws.Missions(), 1)
	assert.Equal(t, 1, ws.FlushCompleted())
	assert.Empty(t, ws.Missions())
	_, ok := ws.Mission(m.ID)
	assert.False(t, ok)

	ws.Bus().SwapBuffers()
	ws.Bus().DispatchAll()
	require.Len(t, rebased, 1)
	assert.Equal(t, 0, rebased[0].FromBase)
	assert.Equal(t, 1, rebased[0].ToBase)
	require.Len(t, finished, 1)
	assert.Equal(t, a.ID, finished[0].AirplaneID)
	assert.Equal(t, "SWITCH_BASE", finished[0].Kind)
}

func TestAddMission_InvalidIsNotRegistered(t *testing.T) {
	ws := newTestState(t)
	_, err := ws.AddMission(mission.TakeToBase(9, 1))
	assert.ErrorIs(t, err, mission.ErrInvalidMissionSpec)
	assert.Empty(t, ws.Missions())
	assert.Equal(t, 0, ws.Bus().Pending())
}

func TestAddMission_StampsCreatedTick(t *testing.T) {
	ws := newTestState(t)
	ws.AdvanceTick()
	ws.AdvanceTick()
	m, err := ws.AddMission(mission.Attack(orb.Point{1, 1}, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, m.CreatedTick)
	assert.Equal(t, 1, ws.Bus().Pending())
}

func TestMoveAirplane_Wraps(t *testing.T) {
	ws := newTestState(t)
	_, err := ws.AddBase(0, orb.Point{1, 1})
	require.NoError(t, err)
	a, err := ws.AddAirplane(AirplaneSpec{BaseID: 0, Position: orb.Point{1, 1}})
	require.NoError(t, err)

	ws.MoveAirplane(a, orb.Point{-1, 51}, orb.Point{0, 1})
	assert.Equal(t, orb.Point{49, 1}, a.Position)
	pos, ok := ws.Space().Position(a.ID)
	require.True(t, ok)
	assert.Equal(t, a.Position, pos)
}
