package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flocksim/flocksim/internal/config"
	"github.com/flocksim/flocksim/internal/data"
	"github.com/flocksim/flocksim/internal/persist"
	"github.com/flocksim/flocksim/internal/render"
	"github.com/flocksim/flocksim/internal/scripting"
	"github.com/flocksim/flocksim/internal/sim"
)

func newRunCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one simulation until max_ticks or interrupt",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return run(cfg)
		},
	}
}

func run(cfg *config.Config) error {
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Simulation.Name, cfg.Simulation.Seed)

	var opts []sim.Option
	opts = append(opts, sim.WithLogger(log))

	// 1. Scenario
	printSection("arena")
	if path := cfg.Simulation.Scenario; path != "" {
		sc, err := data.LoadScenario(path)
		if err != nil {
			return fmt.Errorf("load scenario: %w", err)
		}
		opts = append(opts, sim.WithScenario(sc))
		printOK(fmt.Sprintf("scenario %q loaded", sc.Name))
		printStat("scenario bases", sc.BaseCount())
		printStat("scenario missions", len(sc.Missions))
	}

	// 2. Journal (optional)
	var (
		journal *persist.JournalRepo
		runID   int64
	)
	if cfg.Database.DSN != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		applied, err := persist.RunMigrations(ctx, db.Pool, log)
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("journal schema up to date")
		printStat("migrations applied", len(applied))

		journal = persist.NewJournalRepo(db)
		runID, err = journal.CreateRun(ctx, persist.RunRow{
			Name:       cfg.Simulation.Name,
			Seed:       cfg.Simulation.Seed,
			Population: cfg.Simulation.Population,
			Bases:      cfg.Simulation.Bases,
			Width:      cfg.Simulation.Width,
			Height:     cfg.Simulation.Height,
		})
		if err != nil {
			return fmt.Errorf("create run: %w", err)
		}
		opts = append(opts, sim.WithJournal(journal, runID))
	}

	// 3. Frames + Lua portrayal (optional)
	var frames *render.Writer
	if path := cfg.Render.Output; path != "" {
		engine, err := scripting.NewEngine(cfg.Scripting.Dir, log)
		if err != nil {
			return fmt.Errorf("lua engine: %w", err)
		}
		defer engine.Close()
		printOK("Lua portrayal loaded")

		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create frame file: %w", err)
		}
		defer f.Close()
		frames = render.NewWriter(f)
		opts = append(opts, sim.WithFrames(frames, engine))
	}

	// 4. Model
	model, err := sim.New(cfg, opts...)
	if err != nil {
		return fmt.Errorf("build model: %w", err)
	}
	ws := model.World()
	printStat("bases", ws.BaseCount())
	printStat("airplanes", ws.AirplaneCount())
	printStat("opening missions", len(ws.Missions()))
	fmt.Println()

	// 5. Tick loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdownCh)

	printSection("running")
	if cfg.Simulation.TickRate > 0 {
		printReady(fmt.Sprintf("tick loop started (tick: %s)", cfg.Simulation.TickRate))
	} else {
		printReady("tick loop started (unpaced)")
	}
	if cfg.Simulation.MaxTicks > 0 {
		printReady(printer.Sprintf("stopping after %d ticks", cfg.Simulation.MaxTicks))
	}
	fmt.Println()

	start := time.Now()
	loop(model, cfg.Simulation, shutdownCh, log)

	// 6. Shutdown
	if err := model.Close(); err != nil {
		log.Error("final journal flush failed", zap.Error(err))
	}
	if frames != nil {
		if err := frames.Close(); err != nil {
			log.Error("close frame stream", zap.Error(err))
		}
	}
	digest := model.Digest()
	st := model.Stats()
	if journal != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := journal.FinishRun(ctx, runID, st.Tick, st.Finished, digest); err != nil {
			log.Error("finish run", zap.Int64("run", runID), zap.Error(err))
		}
	}

	printSection("summary")
	printStat("ticks", st.Tick)
	printStat("missions finished", st.Finished)
	printStat("missions active", st.Active)
	printStat("missions pending", st.Pending)
	printStat("free airplanes", st.Free)
	if frames != nil {
		printStat("frames written", frames.Frames())
	}
	printReady("digest " + digest)
	log.Info("simulation stopped",
		zap.Int("ticks", st.Tick),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("digest", digest))
	return nil
}

func loop(model *sim.Model, sc config.SimulationConfig, shutdownCh <-chan os.Signal, log *zap.Logger) {
	done := func() bool {
		return sc.MaxTicks > 0 && model.Tick() >= sc.MaxTicks
	}

	if sc.TickRate <= 0 {
		for !done() {
			select {
			case sig := <-shutdownCh:
				log.Info("shutdown signal received", zap.String("signal", sig.String()))
				return
			default:
				model.Step()
			}
		}
		return
	}

	ticker := time.NewTicker(sc.TickRate)
	defer ticker.Stop()
	for !done() {
		select {
		case <-ticker.C:
			model.Step()
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			return
		}
	}
}
