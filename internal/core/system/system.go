package system

import "time"

// Phase defines execution ordering within a single frame.
type Phase int

const (
	PhaseInput       Phase = iota // 0: poll window / replay input
	PhaseEvents                   // 1: dispatch last frame's events
	PhaseControl                  // 2: intents → forces, torques, firing
	PhasePhysics                  // 3: step the rigid-body world
	PhasePostPhysics              // 4: interpret contacts (score, drain)
	PhaseScene                    // 5: walk roots, collapse model matrices
	PhaseOutput                   // 6: publish snapshots
	PhasePersist                  // 7: flush match ledger
	PhaseCleanup                  // 8: end of frame bookkeeping
)

// System is the interface every frame system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
