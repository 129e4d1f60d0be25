package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/flocksim/flocksim/internal/core/system"
	"github.com/flocksim/flocksim/internal/render"
	"github.com/flocksim/flocksim/internal/trace"
	"github.com/flocksim/flocksim/internal/world"
)

// TraceSystem folds each tick into the run digest. Phase 4 (Output).
type TraceSystem struct {
	world    *world.State
	recorder *trace.Recorder
}

func NewTraceSystem(ws *world.State, recorder *trace.Recorder) *TraceSystem {
	return &TraceSystem{world: ws, recorder: recorder}
}

func (s *TraceSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *TraceSystem) Update(_ time.Duration) {
	s.recorder.Record(s.world)
}

// RenderSystem writes a frame every interval ticks. Phase 4 (Output).
type RenderSystem struct {
	world     *world.State
	portrayer render.Portrayer
	out       *render.Writer
	interval  int
	log       *zap.Logger
	failed    bool
}

func NewRenderSystem(ws *world.State, p render.Portrayer, out *render.Writer, interval int, log *zap.Logger) *RenderSystem {
	if interval <= 0 {
		interval = 1
	}
	return &RenderSystem{world: ws, portrayer: p, out: out, interval: interval, log: log}
}

func (s *RenderSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *RenderSystem) Update(_ time.Duration) {
	if s.failed || s.world.Tick()%s.interval != 0 {
		return
	}
	if err := s.out.WriteFrame(render.Capture(s.world, s.portrayer)); err != nil {
		// one bad write usually means the sink is gone; stop trying
		s.failed = true
		s.log.Error("frame write failed, rendering disabled", zap.Error(err))
	}
}
