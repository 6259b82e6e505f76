package system

import (
	"time"

	coresys "github.com/orrery/orrery/internal/core/system"
	"github.com/orrery/orrery/internal/world"
	"go.uber.org/zap"
)

// PhysicsSystem steps the rigid-body world once per frame. Phase 3 (Physics).
type PhysicsSystem struct {
	session  *world.Session
	log      *zap.Logger
	substeps uint64
	idle     uint64 // frames shorter than one fixed step
}

func NewPhysicsSystem(session *world.Session, log *zap.Logger) *PhysicsSystem {
	return &PhysicsSystem{session: session, log: log}
}

func (s *PhysicsSystem) Phase() coresys.Phase { return coresys.PhasePhysics }

func (s *PhysicsSystem) Update(dt time.Duration) {
	n := s.session.StepPhysics(dt)
	if n == 0 {
		s.idle++
		return
	}
	s.substeps += uint64(n)
}

// Substeps returns the total fixed steps taken.
func (s *PhysicsSystem) Substeps() uint64 { return s.substeps }
