package system

import (
	"time"

	coresys "github.com/orrery/orrery/internal/core/system"
	"github.com/orrery/orrery/internal/inspect"
	"github.com/orrery/orrery/internal/world"
	"go.uber.org/zap"
)

// InspectSystem publishes scene snapshots at a fixed interval. Phase 6 (Output).
type InspectSystem struct {
	hub      *inspect.Hub
	session  *world.Session
	interval time.Duration
	since    time.Duration
	frame    uint64
	log      *zap.Logger
}

func NewInspectSystem(hub *inspect.Hub, session *world.Session, interval time.Duration, log *zap.Logger) *InspectSystem {
	return &InspectSystem{hub: hub, session: session, interval: interval, log: log}
}

func (s *InspectSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *InspectSystem) Update(dt time.Duration) {
	s.frame++
	s.since += dt
	if s.since < s.interval {
		return
	}
	s.since = 0
	if _, err := s.hub.Publish(s.frame, inspect.Capture(s.session)); err != nil {
		s.log.Warn("snapshot publish failed", zap.Error(err))
	}
}
