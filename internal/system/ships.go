package system

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
	coresys "github.com/orrery/orrery/internal/core/system"
	"github.com/orrery/orrery/internal/gameplay"
	"github.com/orrery/orrery/internal/input"
)

// ShipSystem maps each seat onto a ship of the fleet (in scene order), applies
// forces and torques, then resolves firing. Phase 2 (Control).
type ShipSystem struct {
	fleet   *gameplay.Fleet
	state   *input.State
	wind    gameplay.WindSource
	elapsed time.Duration
	last    mgl32.Vec3
	shots   int
}

func NewShipSystem(fleet *gameplay.Fleet, state *input.State, wind gameplay.WindSource) *ShipSystem {
	return &ShipSystem{fleet: fleet, state: state, wind: wind}
}

func (s *ShipSystem) Phase() coresys.Phase { return coresys.PhaseControl }

func (s *ShipSystem) Update(dt time.Duration) {
	s.elapsed += dt
	for i, sh := range s.fleet.Ships() {
		if i >= input.MaxPlayers {
			break
		}
		sh.Intents = gameplay.Intents{
			Forward:   s.state.Held(i, input.ActionForward),
			Reverse:   s.state.Held(i, input.ActionReverse),
			TurnLeft:  s.state.Held(i, input.ActionTurnLeft),
			TurnRight: s.state.Held(i, input.ActionTurnRight),
			Brake:     s.state.Held(i, input.ActionBrake),
			FireLeft:  s.state.Held(i, input.ActionFireLeft),
			FireRight: s.state.Held(i, input.ActionFireRight),
		}
	}

	var wind mgl32.Vec3
	if s.wind != nil {
		wind = s.wind.Wind(s.elapsed)
	}
	s.last = wind
	s.fleet.Control(dt, wind)
	s.shots += len(s.fleet.Resolve())
}

// Wind returns the wind applied on the last frame.
func (s *ShipSystem) Wind() mgl32.Vec3 { return s.last }

// Shots returns the number of accepted fire requests so far.
func (s *ShipSystem) Shots() int { return s.shots }
