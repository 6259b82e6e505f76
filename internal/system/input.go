package system

import (
	"time"

	coresys "github.com/orrery/orrery/internal/core/system"
	"github.com/orrery/orrery/internal/input"
	"go.uber.org/zap"
)

// InputSystem polls the window or a replay into the shared action state.
// Phase 0 (Input).
type InputSystem struct {
	poller input.Poller
	state  *input.State
	log    *zap.Logger
	quit   bool
}

func NewInputSystem(poller input.Poller, state *input.State, log *zap.Logger) *InputSystem {
	return &InputSystem{poller: poller, state: state, log: log}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	s.poller.Poll(s.state)
	if s.state.Quit && !s.quit {
		s.quit = true
		s.log.Info("quit requested")
	}
}

// Quit reports whether a quit signal has been observed.
func (s *InputSystem) Quit() bool { return s.state.Quit }
