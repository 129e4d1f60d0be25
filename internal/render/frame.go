// Package render captures read-only per-tick snapshots for external
// renderers and streams them as YAML documents.
package render

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/flocksim/flocksim/internal/scripting"
	"github.com/flocksim/flocksim/internal/world"
)

// Portrayer decides colour and size per airplane.
type Portrayer interface {
	Portray(ctx scripting.PortrayContext) scripting.Portrayal
}

type defaultPortrayer struct{}

func (defaultPortrayer) Portray(ctx scripting.PortrayContext) scripting.Portrayal {
	return scripting.DefaultPortrayal(ctx)
}

type AirplaneView struct {
	ID        uint64  `yaml:"id"`
	X         float64 `yaml:"x"`
	Y         float64 `yaml:"y"`
	DX        float64 `yaml:"dx"`
	DY        float64 `yaml:"dy"`
	Base      int     `yaml:"base"`
	Mission   string  `yaml:"mission,omitempty"`
	Stage     string  `yaml:"stage,omitempty"`
	Neighbors int     `yaml:"neighbors"`
	Color     string  `yaml:"color"`
	Size      int     `yaml:"size"`
}

type BaseView struct {
	Group int     `yaml:"group"`
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
}

type Frame struct {
	Tick      int            `yaml:"tick"`
	Pending   int            `yaml:"pending_missions"`
	Active    int            `yaml:"active_missions"`
	Finished  int            `yaml:"finished_missions"`
	Bases     []BaseView     `yaml:"bases"`
	Airplanes []AirplaneView `yaml:"airplanes"`
}

// Capture builds a frame from ws. A nil portrayer uses the default colours.
func Capture(ws *world.State, p Portrayer) Frame {
	if p == nil {
		p = defaultPortrayer{}
	}
	f := Frame{
		Tick:     ws.Tick(),
		Finished: ws.FinishedCount(),
	}
	for _, m := range ws.Missions() {
		switch {
		case m.Pending():
			f.Pending++
		case !m.Completed():
			f.Active++
		}
	}
	for _, b := range ws.Bases() {
		f.Bases = append(f.Bases, BaseView{Group: b.GroupID, X: b.Position[0], Y: b.Position[1]})
	}
	for _, a := range ws.Airplanes() {
		v := AirplaneView{
			ID:        uint64(a.ID),
			X:         a.Position[0],
			Y:         a.Position[1],
			DX:        a.Direction[0],
			DY:        a.Direction[1],
			Base:      a.BaseID,
			Neighbors: a.NeighborCount,
		}
		ctx := scripting.PortrayContext{Neighbors: a.NeighborCount, BaseID: a.BaseID}
		if m, ok := ws.Mission(a.Mission); ok {
			v.Mission = m.Kind.String()
			v.Stage = m.Stage().String()
			ctx.HasMission = true
			ctx.MissionKind = v.Mission
			ctx.Stage = v.Stage
		}
		look := p.Portray(ctx)
		v.Color = look.Color
		v.Size = look.Size
		f.Airplanes = append(f.Airplanes, v)
	}
	return f
}

// Writer streams frames as a multi-document YAML file.
type Writer struct {
	enc    *yaml.Encoder
	frames int
}

func NewWriter(w io.Writer) *Writer {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	return &Writer{enc: enc}
}

func (w *Writer) WriteFrame(f Frame) error {
	if err := w.enc.Encode(f); err != nil {
		return fmt.Errorf("encode frame %d: %w", f.Tick, err)
	}
	w.frames++
	return nil
}

// Frames is the number of frames written.
func (w *Writer) Frames() int { return w.frames }

func (w *Writer) Close() error {
	return w.enc.Close()
}
