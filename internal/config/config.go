package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Simulation SimulationConfig `toml:"simulation"`
	Flock      FlockConfig      `toml:"flock"`
	Mission    MissionConfig    `toml:"mission"`
	Database   DatabaseConfig   `toml:"database"`
	Scripting  ScriptingConfig  `toml:"scripting"`
	Render     RenderConfig     `toml:"render"`
	Logging    LoggingConfig    `toml:"logging"`
}

type SimulationConfig struct {
	Name            string        `toml:"name"`
	Seed            int64         `toml:"seed"`
	Population      int           `toml:"population"`
	Width           float64       `toml:"width"`
	Height          float64       `toml:"height"`
	Torus           bool          `toml:"torus"`
	Bases           int           `toml:"bases"`            // random bases when no scenario fixes them
	SpawnJitter     float64       `toml:"spawn_jitter"`     // airplanes spawn within ± this of their base
	MissionInterval int           `toml:"mission_interval"` // ticks between mission batches
	MaxTicks        int           `toml:"max_ticks"`        // 0 = run until interrupted
	TickRate        time.Duration `toml:"tick_rate"`        // 0 = as fast as possible
	Scenario        string        `toml:"scenario"`         // optional YAML base layout
}

// FlockConfig holds the steering parameters every airplane starts with.
type FlockConfig struct {
	Speed          float64 `toml:"speed"`
	Vision         float64 `toml:"vision"`
	Separation     float64 `toml:"separation"`
	Cohere         float64 `toml:"cohere"`
	Separate       float64 `toml:"separate"`
	Match          float64 `toml:"match"`
	StartingFactor float64 `toml:"starting_factor"`
}

type MissionConfig struct {
	DetectionRadius float64 `toml:"detection_radius"`
}

// DatabaseConfig configures the optional mission journal. An empty DSN
// disables it.
type DatabaseConfig struct {
	DSN             string        `toml:"dsn"`
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
	FlushInterval   int           `toml:"flush_interval"` // ticks between journal writes
}

type ScriptingConfig struct {
	Dir string `toml:"dir"`
}

type RenderConfig struct {
	Output        string `toml:"output"`         // YAML frame stream; empty = off
	FrameInterval int    `toml:"frame_interval"` // ticks between frames
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Defaults returns ten airplanes around three bases in a 50x50 torus with a
// fresh mission batch every 80 ticks.
func Defaults() *Config {
	return &Config{
		Simulation: SimulationConfig{
			Name:            "flocksim",
			Seed:            42,
			Population:      10,
			Width:           50,
			Height:          50,
			Torus:           true,
			Bases:           3,
			SpawnJitter:     1,
			MissionInterval: 80,
			MaxTicks:        1000,
		},
		Flock: FlockConfig{
			Speed:          1,
			Vision:         10,
			Separation:     2,
			Cohere:         0.03,
			Separate:       0.075,
			Match:          0.05,
			StartingFactor: 0.01,
		},
		Mission: MissionConfig{
			DetectionRadius: 1,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    4,
			MaxIdleConns:    1,
			ConnMaxLifetime: 30 * time.Minute,
			FlushInterval:   50,
		},
		Scripting: ScriptingConfig{
			Dir: "scripts",
		},
		Render: RenderConfig{
			FrameInterval: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate rejects values the simulation cannot run with.
func (c *Config) Validate() error {
	s := c.Simulation
	switch {
	case s.Population < 0:
		return fmt.Errorf("simulation.population must not be negative, got %d", s.Population)
	case s.Width <= 0 || s.Height <= 0:
		return fmt.Errorf("simulation arena must have positive size, got %vx%v", s.Width, s.Height)
	case s.Bases <= 0 && s.Scenario == "":
		return fmt.Errorf("simulation.bases must be positive without a scenario, got %d", s.Bases)
	case s.MissionInterval <= 0:
		return fmt.Errorf("simulation.mission_interval must be positive, got %d", s.MissionInterval)
	case s.MaxTicks < 0:
		return fmt.Errorf("simulation.max_ticks must not be negative, got %d", s.MaxTicks)
	case s.SpawnJitter < 0:
		return fmt.Errorf("simulation.spawn_jitter must not be negative, got %v", s.SpawnJitter)
	}
	if c.Flock.Vision <= 0 {
		return fmt.Errorf("flock.vision must be positive, got %v", c.Flock.Vision)
	}
	if c.Flock.Speed < 0 {
		return fmt.Errorf("flock.speed must not be negative, got %v", c.Flock.Speed)
	}
	if c.Mission.DetectionRadius <= 0 {
		return fmt.Errorf("mission.detection_radius must be positive, got %v", c.Mission.DetectionRadius)
	}
	if c.Database.FlushInterval <= 0 {
		return fmt.Errorf("database.flush_interval must be positive, got %d", c.Database.FlushInterval)
	}
	if c.Render.FrameInterval <= 0 {
		return fmt.Errorf("render.frame_interval must be positive, got %d", c.Render.FrameInterval)
	}
	return nil
}
