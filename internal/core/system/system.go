package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseEvents   Phase = iota // 0: deliver last tick's events
	PhaseGenerate              // 1: periodic mission generation
	PhaseAssign                // 2: match PENDING missions to free airplanes
	PhaseMove                  // 3: steering, movement, stage checks
	PhaseOutput                // 4: trace digest, render frames
	PhasePersist               // 5: journal flush
	PhaseCleanup               // 6: destroy completed missions
)

func (p Phase) String() string {
	switch p {
	case PhaseEvents:
		return "events"
	case PhaseGenerate:
		return "generate"
	case PhaseAssign:
		return "assign"
	case PhaseMove:
		return "move"
	case PhaseOutput:
		return "output"
	case PhasePersist:
		return "persist"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
