package system

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/orrery/orrery/internal/core/arena"
	"github.com/orrery/orrery/internal/core/event"
	coresys "github.com/orrery/orrery/internal/core/system"
	"github.com/orrery/orrery/internal/persist"
	"github.com/orrery/orrery/internal/scene"
	"go.uber.org/zap"
)

// Ledger is the match store written by PersistSystem.
type Ledger interface {
	AppendEvents(ctx context.Context, matchID uuid.UUID, events []persist.MatchEvent) error
	Finish(ctx context.Context, matchID uuid.UUID, res persist.MatchResult) error
}

// PersistSystem records gameplay events and flushes them to the match ledger
// every interval ticks. Phase 7 (Persist).
type PersistSystem struct {
	ledger   Ledger
	matchID  uuid.UUID
	buf      *persist.Buffer
	names    func(h arena.Handle) string
	log      *zap.Logger
	frame    int64
	tick     int
	interval int // flush every N ticks
	score    int32
	winner   string
}

func NewPersistSystem(bus *event.Bus, ledger Ledger, matchID uuid.UUID, names func(arena.Handle) string, log *zap.Logger, intervalTicks int) *PersistSystem {
	s := &PersistSystem{
		ledger:   ledger,
		matchID:  matchID,
		buf:      persist.NewBuffer(4096),
		names:    names,
		log:      log,
		interval: max(intervalTicks, 1),
	}
	s.subscribe(bus)
	return s
}

func (s *PersistSystem) subscribe(bus *event.Bus) {
	event.Subscribe(bus, func(ev event.ShotFired) {
		s.record("shot", s.names(ev.Shooter), "", 0)
	})
	event.Subscribe(bus, func(ev event.ShipDamaged) {
		s.record("damage", s.names(ev.Shooter), s.names(ev.Target), ev.Damage)
	})
	event.Subscribe(bus, func(ev event.ShipSunk) {
		s.record("sunk", s.names(ev.Sinker), s.names(ev.Ship), 0)
		s.winner = s.names(ev.Sinker)
	})
	event.Subscribe(bus, func(ev event.BumperHit) {
		s.record("bumper", ev.Name, "", float32(ev.Points))
		s.score = int32(ev.Score)
	})
	event.Subscribe(bus, func(ev event.BallDrained) {
		s.record("drain", "", "", float32(ev.LivesLeft))
	})
	event.Subscribe(bus, func(ev event.GameOver) {
		s.record("game_over", "", "", float32(ev.Score))
		s.score = int32(ev.Score)
	})
}

func (s *PersistSystem) record(kind, actor, target string, amount float32) {
	s.buf.Add(persist.MatchEvent{Frame: s.frame, Kind: kind, Actor: actor, Target: target, Amount: amount})
}

func (s *PersistSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistSystem) Update(_ time.Duration) {
	s.frame++
	s.tick++
	if s.tick < s.interval {
		return
	}
	s.tick = 0
	s.flush()
}

func (s *PersistSystem) flush() {
	batch := s.buf.Drain()
	if len(batch) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.ledger.AppendEvents(ctx, s.matchID, batch); err != nil {
		s.buf.Restore(batch)
		s.log.Warn("match ledger flush failed",
			zap.Int("events", len(batch)), zap.Error(err))
		return
	}
	s.log.Debug("match ledger flushed", zap.Int("events", len(batch)))
}

// Finish flushes what is pending and closes the match. Called at shutdown.
func (s *PersistSystem) Finish() error {
	s.flush()
	if n := s.buf.Len(); n > 0 {
		s.log.Warn("match events lost at shutdown", zap.Int("events", n))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.ledger.Finish(ctx, s.matchID, persist.MatchResult{
		Frames: s.frame,
		Score:  s.score,
		Winner: s.winner,
	})
}

// Pending returns the number of buffered events.
func (s *PersistSystem) Pending() int { return s.buf.Len() }

// EntityNames resolves handles to entity names for ledger rows.
func EntityNames(t *scene.Table) func(arena.Handle) string {
	return func(h arena.Handle) string {
		if e, ok := t.Get(h); ok {
			return e.Name
		}
		return ""
	}
}
