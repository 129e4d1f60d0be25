package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/flocksim/flocksim/internal/core/event"
	coresys "github.com/flocksim/flocksim/internal/core/system"
	"github.com/flocksim/flocksim/internal/persist"
)

// MissionJournal is the write side of the mission journal.
type MissionJournal interface {
	InsertEvents(ctx context.Context, runID int64, rows []persist.EventRow) error
}

// maxJournalBacklog bounds the rows kept while the journal is failing.
const maxJournalBacklog = 50_000

// JournalSystem buffers mission lifecycle events from the bus and writes
// them to the journal every interval ticks. Phase 5 (Persist).
type JournalSystem struct {
	journal   MissionJournal
	runID     int64
	log       *zap.Logger
	buf       []persist.EventRow
	tickCount int
	interval  int
	dropped   int
}

func NewJournalSystem(bus *event.Bus, journal MissionJournal, runID int64, log *zap.Logger, intervalTicks int) *JournalSystem {
	s := &JournalSystem{
		journal:  journal,
		runID:    runID,
		log:      log,
		interval: intervalTicks,
	}
	event.Subscribe(bus, func(e event.MissionCreated) {
		s.push(persist.EventRow{Tick: e.Tick, MissionUUID: e.UUID, Kind: e.Kind, Event: persist.EventCreated})
	})
	event.Subscribe(bus, func(e event.MissionAssigned) {
		d := e.Distance
		s.push(persist.EventRow{
			Tick: e.Tick, MissionUUID: e.UUID, Kind: e.Kind, Event: persist.EventAssigned,
			AirplaneID: uint64(e.AirplaneID), Distance: &d,
		})
	})
	event.Subscribe(bus, func(e event.MissionStageChanged) {
		s.push(persist.EventRow{
			Tick: e.Tick, MissionUUID: e.UUID, Kind: e.Kind, Event: persist.EventStageChanged,
			FromStage: e.From, ToStage: e.To, AirplaneID: uint64(e.AirplaneID),
		})
	})
	event.Subscribe(bus, func(e event.MissionFinished) {
		s.push(persist.EventRow{
			Tick: e.Tick, MissionUUID: e.UUID, Kind: e.Kind, Event: persist.EventFinished,
			AirplaneID: uint64(e.AirplaneID),
		})
	})
	return s
}

func (s *JournalSystem) push(row persist.EventRow) {
	if len(s.buf) >= maxJournalBacklog {
		s.buf = s.buf[1:]
		s.dropped++
	}
	s.buf = append(s.buf, row)
}

func (s *JournalSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *JournalSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.Flush() // logged inside; rows stay buffered on failure
}

// Buffered is the number of rows waiting for the next flush.
func (s *JournalSystem) Buffered() int { return len(s.buf) }

// Flush writes all buffered rows. On failure the rows are kept for the
// next attempt.
func (s *JournalSystem) Flush() error {
	if len(s.buf) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.journal.InsertEvents(ctx, s.runID, s.buf); err != nil {
		s.log.Error("journal write failed", zap.Int("rows", len(s.buf)), zap.Error(err))
		return err
	}
	if s.dropped > 0 {
		s.log.Warn("journal backlog overflowed", zap.Int("dropped", s.dropped))
		s.dropped = 0
	}
	s.log.Debug("journal flushed", zap.Int("rows", len(s.buf)))
	s.buf = s.buf[:0]
	return nil
}
