package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDefaultPortrayal(t *testing.T) {
	assert.Equal(t, Portrayal{Color: "red", Size: 20}, DefaultPortrayal(PortrayContext{Neighbors: 0}))
	assert.Equal(t, Portrayal{Color: "red", Size: 20}, DefaultPortrayal(PortrayContext{Neighbors: 1}))
	assert.Equal(t, Portrayal{Color: "green", Size: 20}, DefaultPortrayal(PortrayContext{Neighbors: 2}))
}

func TestPortray_FallsBackWithoutHook(t *testing.T) {
	e, err := NewEngine("", zap.NewNop())
	require.NoError(t, err)
	defer e.Close()
	assert.Equal(t, "green", e.Portray(PortrayContext{Neighbors: 4}).Color)
}

func TestPortray_ShippedScript(t *testing.T) {
	e, err := NewEngine("../../scripts", zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, Portrayal{Color: "red", Size: 20}, e.Portray(PortrayContext{Neighbors: 1}))
	assert.Equal(t, Portrayal{Color: "green", Size: 20}, e.Portray(PortrayContext{Neighbors: 3}))
	assert.Equal(t, Portrayal{Color: "orange", Size: 24},
		e.Portray(PortrayContext{HasMission: true, MissionKind: "ATTACK", Stage: "TO_TARGET"}))
}

func TestPortray_PartialAndBrokenHooks(t *testing.T) {
	e, err := NewEngine("", zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, e.DoString(`function agent_portrayal(ctx) return { color = "base" .. ctx.base_id } end`))
	assert.Equal(t, Portrayal{Color: "base3", Size: 20}, e.Portray(PortrayContext{BaseID: 3}))

	require.NoError(t, e.DoString(`function agent_portrayal(ctx) return 42 end`))
	assert.Equal(t, DefaultPortrayal(PortrayContext{}), e.Portray(PortrayContext{}))

	require.NoError(t, e.DoString(`function agent_portrayal(ctx) error("boom") end`))
	assert.Equal(t, DefaultPortrayal(PortrayContext{Neighbors: 5}), e.Portray(PortrayContext{Neighbors: 5}))
}

func TestNewEngine_ReportsScriptErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "render"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "render", "bad.lua"), []byte("function ("), 0o644))

	_, err := NewEngine(dir, zap.NewNop())
	assert.Error(t, err)

	e, err := NewEngine(filepath.Join(dir, "nowhere"), zap.NewNop())
	require.NoError(t, err, "a missing scripts directory is not an error")
	e.Close()
}
