package persist

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Event names stored in mission_events.event.
const (
	EventCreated      = "created"
	EventAssigned     = "assigned"
	EventStageChanged = "stage_changed"
	EventFinished     = "finished"
)

// RunRow describes one simulation run.
type RunRow struct {
	Name       string
	Seed       int64
	Population int
	Bases      int
	Width      float64
	Height     float64
}

// EventRow is one mission lifecycle record.
type EventRow struct {
	Tick        int
	MissionUUID uuid.UUID
	Kind        string
	Event       string
	FromStage   string
	ToStage     string
	AirplaneID  uint64
	Distance    *float64 // set for assignments only
}

// JournalRepo writes runs and mission events. The journal is append-only;
// nothing in the simulation reads it back.
type JournalRepo struct {
	db *DB
}

func NewJournalRepo(db *DB) *JournalRepo {
	return &JournalRepo{db: db}
}

// CreateRun inserts a run header and returns its id.
func (r *JournalRepo) CreateRun(ctx context.Context, run RunRow) (int64, error) {
	var id int64
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO sim_runs (name, seed, population, bases, width, height)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		run.Name, run.Seed, run.Population, run.Bases, run.Width, run.Height,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create run: %w", err)
	}
	return id, nil
}

// InsertEvents atomically writes a batch of mission events in one transaction.
func (r *JournalRepo) InsertEvents(ctx context.Context, runID int64, rows []EventRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("journal begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range rows {
		if _, err := tx.Exec(ctx,
			`INSERT INTO mission_events (run_id, tick, mission_uuid, kind, event, from_stage, to_stage, airplane_id, distance)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			runID, e.Tick, e.MissionUUID, e.Kind, e.Event, e.FromStage, e.ToStage, int64(e.AirplaneID), e.Distance,
		); err != nil {
			return fmt.Errorf("journal insert: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// FinishRun stamps the run's end state.
func (r *JournalRepo) FinishRun(ctx context.Context, runID int64, ticks, finished int, digest string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE sim_runs
		 SET finished_at = NOW(), ticks = $2, missions_finished = $3, digest = $4
		 WHERE id = $1`,
		runID, ticks, finished, digest,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}
