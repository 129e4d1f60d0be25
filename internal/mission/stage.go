package mission

import (
	"fmt"
	"strings"
)

// Stage is a named phase in a mission's fixed progression.
type Stage uint8

const (
	StagePending Stage = iota
	StageToTarget
	StageToBase
	StageCompleted
)

func (s Stage) String() string {
	switch s {
	case StagePending:
		return "PENDING"
	case StageToTarget:
		return "TO_TARGET"
	case StageToBase:
		return "TO_BASE"
	case StageCompleted:
		return "COMPLETED"
	}
	return "UNKNOWN"
}

// Kind is the closed set of mission variants.
type Kind uint8

const (
	KindAttack Kind = iota + 1
	KindRescue
	KindSwitchBase
	KindTakeToBase
)

func (k Kind) String() string {
	switch k {
	case KindAttack:
		return "ATTACK"
	case KindRescue:
		return "RESCUE"
	case KindSwitchBase:
		return "SWITCH_BASE"
	case KindTakeToBase:
		return "TAKE_TO_BASE"
	}
	return "UNKNOWN"
}

// ParseKind accepts the names String produces, case-insensitively.
func ParseKind(s string) (Kind, error) {
	for _, k := range kinds {
		if strings.EqualFold(k.String(), strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidMissionSpec, s)
}
