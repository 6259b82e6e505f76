// Package input turns window keys or a recorded replay into per-player action
// state, read once per frame by the control systems.
package input

import "fmt"

// MaxPlayers is the number of local seats (two ships share one keyboard).
const MaxPlayers = 2

// Action is one logical control.
type Action int

const (
	ActionForward Action = iota
	ActionReverse
	ActionTurnLeft
	ActionTurnRight
	ActionBrake
	ActionFireLeft
	ActionFireRight
	ActionLeftFlipper
	ActionRightFlipper
	ActionPlunger
	ActionRestart
	numActions
)

var actionNames = [numActions]string{
	"forward", "reverse", "turn_left", "turn_right", "brake",
	"fire_left", "fire_right",
	"left_flipper", "right_flipper", "plunger", "restart",
}

func (a Action) String() string {
	if a >= 0 && a < numActions {
		return actionNames[a]
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// ParseAction maps a replay/config name to an Action.
func ParseAction(s string) (Action, error) {
	for i, name := range actionNames {
		if name == s {
			return Action(i), nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

// State is the held-action set of every seat plus the quit flag. It is
// written by a Poller and read by systems within the same frame.
type State struct {
	held [MaxPlayers]uint32
	Quit bool
}

// Set presses or releases an action. Out-of-range seats are ignored.
func (s *State) Set(player int, a Action, down bool) {
	if player < 0 || player >= MaxPlayers || a < 0 || a >= numActions {
		return
	}
	bit := uint32(1) << uint(a)
	if down {
		s.held[player] |= bit
	} else {
		s.held[player] &^= bit
	}
}

// Held reports whether player currently holds a.
func (s *State) Held(player int, a Action) bool {
	if player < 0 || player >= MaxPlayers || a < 0 || a >= numActions {
		return false
	}
	return s.held[player]&(1<<uint(a)) != 0
}

// Clear releases every action of every seat. Quit is left as is.
func (s *State) Clear() {
	s.held = [MaxPlayers]uint32{}
}

// Poller refreshes State once per frame.
type Poller interface {
	Poll(s *State)
}
