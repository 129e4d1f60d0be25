package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BaseEntry places one base.
type BaseEntry struct {
	Group int     `yaml:"group"`
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
}

// MissionEntry is a hand-placed mission added on top of the random batches.
// Boomerang kinds use X/Y as the target; rebase kinds use Base.
type MissionEntry struct {
	Kind string  `yaml:"kind"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
	Base int     `yaml:"base"`
}

// Scenario fixes the base layout (and optionally some missions) instead of
// drawing them from the seed.
type Scenario struct {
	Name     string         `yaml:"name"`
	Bases    []BaseEntry    `yaml:"bases"`
	Missions []MissionEntry `yaml:"missions"`
}

// LoadScenario loads a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	seen := make(map[int]bool, len(sc.Bases))
	for _, b := range sc.Bases {
		if seen[b.Group] {
			return nil, fmt.Errorf("scenario %s: duplicate base group %d", path, b.Group)
		}
		seen[b.Group] = true
	}
	return &sc, nil
}

// BaseCount returns the number of bases the scenario places.
func (s *Scenario) BaseCount() int {
	return len(s.Bases)
}
