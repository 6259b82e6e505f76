package input

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Bindings maps actions to keys for one seat.
type Bindings map[Action]ebiten.Key

// DefaultBindings returns the shared-keyboard layout: WASD for the first
// ship, arrows for the second, flippers on the shift keys.
func DefaultBindings() [MaxPlayers]Bindings {
	return [MaxPlayers]Bindings{
		{
			ActionForward:      ebiten.KeyW,
			ActionReverse:      ebiten.KeyS,
			ActionTurnLeft:     ebiten.KeyA,
			ActionTurnRight:    ebiten.KeyD,
			ActionBrake:        ebiten.KeyX,
			ActionFireLeft:     ebiten.KeyQ,
			ActionFireRight:    ebiten.KeyE,
			ActionLeftFlipper:  ebiten.KeyShiftLeft,
			ActionRightFlipper: ebiten.KeyShiftRight,
			ActionPlunger:      ebiten.KeySpace,
			ActionRestart:      ebiten.KeyR,
		},
		{
			ActionForward:   ebiten.KeyArrowUp,
			ActionReverse:   ebiten.KeyArrowDown,
			ActionTurnLeft:  ebiten.KeyArrowLeft,
			ActionTurnRight: ebiten.KeyArrowRight,
			ActionBrake:     ebiten.KeyNumpad0,
			ActionFireLeft:  ebiten.KeyComma,
			ActionFireRight: ebiten.KeyPeriod,
		},
	}
}

// EbitenPoller reads the window keyboard. It must be polled from the ebiten
// Update callback.
type EbitenPoller struct {
	Bindings [MaxPlayers]Bindings
	QuitKey  ebiten.Key
}

func NewEbitenPoller() *EbitenPoller {
	return &EbitenPoller{
		Bindings: DefaultBindings(),
		QuitKey:  ebiten.KeyEscape,
	}
}

func (p *EbitenPoller) Poll(s *State) {
	for player, binds := range p.Bindings {
		for a, key := range binds {
			s.Set(player, a, ebiten.IsKeyPressed(key))
		}
	}
	if inpututil.IsKeyJustPressed(p.QuitKey) || ebiten.IsWindowBeingClosed() {
		s.Quit = true
	}
}
