package render

import (
	"bytes"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/flocksim/flocksim/internal/core/event"
	"github.com/flocksim/flocksim/internal/mission"
	"github.com/flocksim/flocksim/internal/scripting"
	"github.com/flocksim/flocksim/internal/space"
	"github.com/flocksim/flocksim/internal/world"
)

type fixedPortrayer struct{ seen []scripting.PortrayContext }

func (p *fixedPortrayer) Portray(ctx scripting.PortrayContext) scripting.Portrayal {
	p.seen = append(p.seen, ctx)
	return scripting.Portrayal{Color: "white", Size: 7}
}

func newWorld(t *testing.T) *world.State {
	t.Helper()
	sp, err := space.New(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{50, 50}}, true, 10)
	require.NoError(t, err)
	ws := world.NewState(sp, event.NewBus(), zap.NewNop())
	_, err = ws.AddBase(0, orb.Point{10, 10})
	require.NoError(t, err)
	return ws
}

func TestCapture(t *testing.T) {
	ws := newWorld(t)
	busy, err := ws.AddAirplane(world.AirplaneSpec{BaseID: 0, Position: orb.Point{10, 10}, Direction: orb.Point{1, 0}})
	require.NoError(t, err)
	_, err = ws.AddAirplane(world.AirplaneSpec{BaseID: 0, Position: orb.Point{11, 10}, Direction: orb.Point{0, 1}})
	require.NoError(t, err)

	m, err := ws.AddMission(mission.Attack(orb.Point{30, 30}, 1))
	require.NoError(t, err)
	require.NoError(t, ws.Assign(m, busy, 28))
	_, err = ws.AddMission(mission.Rescue(orb.Point{5, 5}, 1))
	require.NoError(t, err)

	p := &fixedPortrayer{}
	f := Capture(ws, p)
	assert.Equal(t, 1, f.Pending)
	assert.Equal(t, 1, f.Active)
	require.Len(t, f.Bases, 1)
	require.Len(t, f.Airplanes, 2)

	assert.Equal(t, "ATTACK", f.Airplanes[0].Mission)
	assert.Equal(t, "TO_TARGET", f.Airplanes[0].Stage)
	assert.Equal(t, "white", f.Airplanes[0].Color)
	assert.Empty(t, f.Airplanes[1].Mission)

	require.Len(t, p.seen, 2)
	assert.True(t, p.seen[0].HasMission)
	assert.False(t, p.seen[1].HasMission)
}

func TestCapture_DefaultPortrayer(t *testing.T) {
	ws := newWorld(t)
	_, err := ws.AddAirplane(world.AirplaneSpec{BaseID: 0, Position: orb.Point{10, 10}})
	require.NoError(t, err)

	f := Capture(ws, nil)
	require.Len(t, f.Airplanes, 1)
	assert.Equal(t, "red", f.Airplanes[0].Color)
	assert.Equal(t, 20, f.Airplanes[0].Size)
}

func TestWriter_MultiDocument(t *testing.T) {
	ws := newWorld(t)
	_, err := ws.AddAirplane(world.AirplaneSpec{BaseID: 0, Position: orb.Point{12, 13}})
	require.NoError(t, err)

	var buf bytes.Buffer
	w := NewWriter(&buf)
	for i := 0; i < 3; i++ {
		ws.AdvanceTick()
		require.NoError(t, w.WriteFrame(Capture(ws, nil)))
	}
	require.NoError(t, w.Close())
	assert.Equal(t, 3, w.Frames())

	dec := yaml.NewDecoder(&buf)
	var ticks []int
	for {
		var f Frame
		if err := dec.Decode(&f); err != nil {
			break
		}
		ticks = append(ticks, f.Tick)
		require.Len(t, f.Airplanes, 1)
		assert.Equal(t, 12.0, f.Airplanes[0].X)
	}
	assert.Equal(t, []int{1, 2, 3}, ticks)
}
