package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for presentation hooks.
// Single-goroutine access only (simulation loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads every script under
// scriptsDir/render. A missing directory leaves only the Go defaults.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	if scriptsDir == "" {
		return e, nil
	}
	if err := e.loadDir(filepath.Join(scriptsDir, "render")); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load render scripts: %w", err)
	}
	return e, nil
}

// loadDir loads all .lua files in a directory, in name order.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// DoString runs a chunk in the engine's VM. Used to install hooks inline.
func (e *Engine) DoString(src string) error {
	return e.vm.DoString(src)
}

// PortrayContext is what a portrayal hook sees of one airplane.
type PortrayContext struct {
	Neighbors   int
	HasMission  bool
	MissionKind string
	Stage       string
	BaseID      int
}

// Portrayal is how a renderer should draw one airplane.
type Portrayal struct {
	Color string
	Size  int
}

// DefaultPortrayal colours lone airplanes red and flocking ones green.
func DefaultPortrayal(ctx PortrayContext) Portrayal {
	if ctx.Neighbors <= 1 {
		return Portrayal{Color: "red", Size: 20}
	}
	return Portrayal{Color: "green", Size: 20}
}

// Portray calls the Lua agent_portrayal function, falling back to
// DefaultPortrayal when it is missing or fails.
func (e *Engine) Portray(ctx PortrayContext) Portrayal {
	fn := e.vm.GetGlobal("agent_portrayal")
	if fn == lua.LNil {
		return DefaultPortrayal(ctx)
	}

	t := e.vm.NewTable()
	t.RawSetString("neighbors", lua.LNumber(ctx.Neighbors))
	t.RawSetString("has_mission", lua.LBool(ctx.HasMission))
	t.RawSetString("mission_kind", lua.LString(ctx.MissionKind))
	t.RawSetString("stage", lua.LString(ctx.Stage))
	t.RawSetString("base_id", lua.LNumber(ctx.BaseID))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua agent_portrayal error", zap.Error(err))
		return DefaultPortrayal(ctx)
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		e.log.Error("lua agent_portrayal returned non-table")
		return DefaultPortrayal(ctx)
	}

	def := DefaultPortrayal(ctx)
	out := Portrayal{
		Color: lua.LVAsString(rt.RawGetString("color")),
		Size:  int(lua.LVAsNumber(rt.RawGetString("size"))),
	}
	if out.Color == "" {
		out.Color = def.Color
	}
	if out.Size <= 0 {
		out.Size = def.Size
	}
	return out
}

// Close releases the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
