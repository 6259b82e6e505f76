package system

import (
	"time"

	coresys "github.com/orrery/orrery/internal/core/system"
	"github.com/orrery/orrery/internal/world"
)

// SceneSystem collapses every transform for the frame and updates the
// spotlight follow target. Phase 5 (Scene).
type SceneSystem struct {
	session   *world.Session
	spotlight world.Spotlight
	hasLight  bool
}

func NewSceneSystem(session *world.Session) *SceneSystem {
	return &SceneSystem{session: session}
}

func (s *SceneSystem) Phase() coresys.Phase { return coresys.PhaseScene }

func (s *SceneSystem) Update(dt time.Duration) {
	s.session.UpdateScene(dt)
	s.spotlight, s.hasLight = s.session.Spotlight()
}

// Spotlight returns the follow light computed on the last frame.
func (s *SceneSystem) Spotlight() (world.Spotlight, bool) { return s.spotlight, s.hasLight }
