// Package sim assembles a runnable simulation: it owns the seeded RNG,
// builds the arena, bases and airplanes, and drives the tick systems in
// phase order.
package sim

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/flocksim/flocksim/internal/config"
	"github.com/flocksim/flocksim/internal/core/event"
	coresys "github.com/flocksim/flocksim/internal/core/system"
	"github.com/flocksim/flocksim/internal/data"
	"github.com/flocksim/flocksim/internal/mission"
	"github.com/flocksim/flocksim/internal/render"
	"github.com/flocksim/flocksim/internal/space"
	"github.com/flocksim/flocksim/internal/steering"
	"github.com/flocksim/flocksim/internal/system"
	"github.com/flocksim/flocksim/internal/trace"
	"github.com/flocksim/flocksim/internal/world"
)

type options struct {
	log       *zap.Logger
	scenario  *data.Scenario
	journal   system.MissionJournal
	runID     int64
	frames    *render.Writer
	portrayer render.Portrayer
}

// Option customises New.
type Option func(*options)

func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithScenario fixes the base layout and adds the scenario's missions.
func WithScenario(sc *data.Scenario) Option {
	return func(o *options) { o.scenario = sc }
}

// WithJournal records mission events under runID.
func WithJournal(j system.MissionJournal, runID int64) Option {
	return func(o *options) {
		o.journal = j
		o.runID = runID
	}
}

// WithFrames streams render frames to w, portrayed by p (nil = defaults).
func WithFrames(w *render.Writer, p render.Portrayer) Option {
	return func(o *options) {
		o.frames = w
		o.portrayer = p
	}
}

// Model is one simulation run. Not safe for concurrent use; run separate
// models on separate goroutines instead.
type Model struct {
	cfg      *config.Config
	rng      *rand.Rand
	bus      *event.Bus
	world    *world.State
	runner   *coresys.Runner
	recorder *trace.Recorder
	journal  *system.JournalSystem
	gen      *system.MissionGenSystem
	log      *zap.Logger
	dt       time.Duration
}

// New builds a model from cfg. Every random draw comes from one generator
// seeded with cfg.Simulation.Seed, so equal configs give equal runs.
func New(cfg *config.Config, opts ...Option) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	sc := cfg.Simulation

	bounds := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{sc.Width, sc.Height}}
	sp, err := space.New(bounds, sc.Torus, cfg.Flock.Vision)
	if err != nil {
		return nil, fmt.Errorf("space: %w", err)
	}

	m := &Model{
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(sc.Seed)),
		bus:      event.NewBus(),
		recorder: trace.NewRecorder(),
		log:      o.log,
		dt:       sc.TickRate,
	}
	m.world = world.NewState(sp, m.bus, o.log)

	if err := m.placeBases(o.scenario); err != nil {
		return nil, err
	}
	if err := m.spawnAirplanes(); err != nil {
		return nil, err
	}

	m.gen = system.NewMissionGenSystem(m.world, m.rng, sc.MissionInterval, cfg.Mission.DetectionRadius, o.log)
	m.runner = coresys.NewRunner()
	m.runner.Register(system.NewEventDispatchSystem(m.bus))
	m.runner.Register(m.gen)
	m.runner.Register(system.NewAssignSystem(m.world, o.log))
	m.runner.Register(system.NewMovementSystem(m.world, m.rng, o.log))
	m.runner.Register(system.NewTraceSystem(m.world, m.recorder))
	if o.frames != nil {
		m.runner.Register(system.NewRenderSystem(m.world, o.portrayer, o.frames, cfg.Render.FrameInterval, o.log))
	}
	if o.journal != nil {
		m.journal = system.NewJournalSystem(m.bus, o.journal, o.runID, o.log, cfg.Database.FlushInterval)
		m.runner.Register(m.journal)
	}
	m.runner.Register(system.NewCleanupSystem(m.world))

	// the opening batch is one short of the population
	if n := sc.Population - 1; n > 0 {
		m.gen.Generate(n)
	}
	if o.scenario != nil {
		if err := m.addScenarioMissions(o.scenario); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Model) placeBases(sc *data.Scenario) error {
	if sc != nil && len(sc.Bases) > 0 {
		bounds := m.world.Space().Bounds()
		for _, b := range sc.Bases {
			pos := orb.Point{b.X, b.Y}
			if !bounds.Contains(pos) {
				return fmt.Errorf("scenario base %d at %v is outside the arena", b.Group, pos)
			}
			if _, err := m.world.AddBase(b.Group, pos); err != nil {
				return err
			}
		}
		return nil
	}
	for g := 0; g < m.cfg.Simulation.Bases; g++ {
		pos := m.world.Space().RandomPoint(m.rng.Float64)
		if _, err := m.world.AddBase(g, pos); err != nil {
			return err
		}
	}
	return nil
}

func (m *Model) uniform(lo, hi float64) float64 {
	return lo + m.rng.Float64()*(hi-lo)
}

func (m *Model) spawnAirplanes() error {
	sc := m.cfg.Simulation
	fc := m.cfg.Flock
	params := steering.Params{
		Speed:          fc.Speed,
		Vision:         fc.Vision,
		Separation:     fc.Separation,
		Cohere:         fc.Cohere,
		Separate:       fc.Separate,
		Match:          fc.Match,
		StartingFactor: fc.StartingFactor,
	}
	groups := m.world.BaseGroups()
	if len(groups) == 0 && sc.Population > 0 {
		return errors.New("cannot spawn airplanes without bases")
	}
	for i := 0; i < sc.Population; i++ {
		g := groups[m.rng.Intn(len(groups))]
		home, _ := m.world.BasePosition(g)
		pos := orb.Point{
			home[0] + m.uniform(-sc.SpawnJitter, sc.SpawnJitter),
			home[1] + m.uniform(-sc.SpawnJitter, sc.SpawnJitter),
		}
		dir := orb.Point{m.uniform(-1, 1), m.uniform(-1, 1)}
		id, err := uuid.NewRandomFromReader(m.rng)
		if err != nil {
			return fmt.Errorf("airplane uuid: %w", err)
		}
		if _, err := m.world.AddAirplane(world.AirplaneSpec{
			UUID:      id,
			Position:  pos,
			Direction: dir,
			BaseID:    g,
			Params:    params,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (m *Model) addScenarioMissions(sc *data.Scenario) error {
	radius := m.cfg.Mission.DetectionRadius
	for i, e := range sc.Missions {
		kind, err := mission.ParseKind(e.Kind)
		if err != nil {
			return fmt.Errorf("scenario mission %d: %w", i, err)
		}
		id, err := uuid.NewRandomFromReader(m.rng)
		if err != nil {
			return fmt.Errorf("scenario mission %d uuid: %w", i, err)
		}
		spec := mission.Spec{
			Kind:            kind,
			Target:          orb.Point{e.X, e.Y},
			BaseID:          e.Base,
			DetectionRadius: radius,
			UUID:            id,
		}
		if _, err := m.world.AddMission(spec); err != nil {
			return fmt.Errorf("scenario mission %d: %w", i, err)
		}
	}
	return nil
}

// Step advances the simulation by one tick: generate, assign, move.
func (m *Model) Step() {
	m.world.AdvanceTick()
	m.runner.Tick(m.dt)
}

// Run steps n ticks.
func (m *Model) Run(n int) {
	for i := 0; i < n; i++ {
		m.Step()
	}
}

// Close delivers the last tick's events and flushes the journal.
func (m *Model) Close() error {
	m.bus.SwapBuffers()
	m.bus.DispatchAll()
	if m.journal != nil {
		return m.journal.Flush()
	}
	return nil
}

func (m *Model) Tick() int              { return m.world.Tick() }
func (m *Model) World() *world.State    { return m.world }
func (m *Model) Config() *config.Config { return m.cfg }

// Digest fingerprints every tick run so far.
func (m *Model) Digest() string { return m.recorder.Sum() }

// Stats summarises the current mission pool.
type Stats struct {
	Tick     int
	Pending  int
	Active   int
	Finished int
	Free     int
}

func (m *Model) Stats() Stats {
	st := Stats{Tick: m.world.Tick(), Finished: m.world.FinishedCount()}
	for _, ms := range m.world.Missions() {
		switch {
		case ms.Pending():
			st.Pending++
		case !ms.Completed():
			st.Active++
		}
	}
	for _, a := range m.world.Airplanes() {
		if a.Free() {
			st.Free++
		}
	}
	return st
}
