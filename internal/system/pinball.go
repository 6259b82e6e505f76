package system

import (
	"time"

	coresys "github.com/orrery/orrery/internal/core/system"
	"github.com/orrery/orrery/internal/gameplay"
	"github.com/orrery/orrery/internal/input"
	"github.com/orrery/orrery/internal/physics"
)

// PinballControlSystem drives flippers and the plunger from seat 0.
// Phase 2 (Control).
type PinballControlSystem struct {
	table *gameplay.Table
	state *input.State
}

func NewPinballControlSystem(table *gameplay.Table, state *input.State) *PinballControlSystem {
	return &PinballControlSystem{table: table, state: state}
}

func (s *PinballControlSystem) Phase() coresys.Phase { return coresys.PhaseControl }

func (s *PinballControlSystem) Update(dt time.Duration) {
	s.table.Intents = gameplay.PinballIntents{
		LeftFlipper:  s.state.Held(0, input.ActionLeftFlipper),
		RightFlipper: s.state.Held(0, input.ActionRightFlipper),
		Plunger:      s.state.Held(0, input.ActionPlunger),
		Restart:      s.state.Held(0, input.ActionRestart),
	}
	s.table.Control(dt)
}

// PinballRulesSystem scores the contacts of the step just taken and handles
// the drain. Phase 4 (PostPhysics).
type PinballRulesSystem struct {
	table *gameplay.Table
	world *physics.World
}

func NewPinballRulesSystem(table *gameplay.Table, world *physics.World) *PinballRulesSystem {
	return &PinballRulesSystem{table: table, world: world}
}

func (s *PinballRulesSystem) Phase() coresys.Phase { return coresys.PhasePostPhysics }

func (s *PinballRulesSystem) Update(_ time.Duration) {
	s.table.Rules(s.world.Contacts())
}
